package domain

// SeedProducts returns the sample catalogue used when no snapshot exists.
// A fresh slice is built on every call.
func SeedProducts() []Product {
	return []Product{
		{
			ID:   1,
			Name: "Niacinamide 10% + Zinc 1%",
			Logo: String(BrandLogo),
			Images: []string{
				"https://images.ctfassets.net/p332i0hvxu0s/1I251oy1y0IuA6w8SWg4oK/38b815fdd32822a0139e830f353b34241/theordinary-niacinamide-10-zinc-1-30ml.png?w=600&fm=webp",
				"https://images.ctfassets.net/p332i0hvxu0s/283lnnJSAyvpsb0V72C2s/78393b3f2715ad0623ca2f821615f59c/theordinary-niacinamide-10-zinc-1-60ml.png?w=600&fm=webp",
			},
			Description:   "High-strength vitamin and mineral blemish formula.",
			DescriptionAr: "تركيبة قوية من الفيتامينات والمعادن لمكافحة الشوائب.",
			Price:         70,
		},
		{
			ID:   2,
			Name: "Hyaluronic Acid 2% + B5",
			Logo: String(BrandLogo),
			Images: []string{
				"https://images.ctfassets.net/p332i0hvxu0s/3B2Y062dYmYwG6EC8qWaSe/5e533c39f0490b4a742c8d2024b35e23/theordinary-hyaluronic-acid-2-b5-30ml.png?w=600&fm=webp",
				"https://images.ctfassets.net/p332i0hvxu0s/38uit2G1nTNvjA35g2zT2S/4a74e06c1341d3c01306b88b7d4d4e3f/theordinary-hyaluronic-acid-2-b5-60ml.png?w=600&fm=webp",
			},
			Description:   "A hydration support formula.",
			DescriptionAr: "تركيبة دعم الترطيب.",
			Price:         237,
			OriginalPrice: Float(299),
			PromotionText: String("BEST SELLER"),
		},
		{
			ID:   3,
			Name: "Glycolic Acid 7% Toning Solution",
			Logo: String(BrandLogo),
			Images: []string{
				"https://images.ctfassets.net/p332i0hvxu0s/29gJb72j2AysqmAeYg4Q4I/0ee928f09b2e04a1b0201202a0a256a4/theordinary-glycolic-acid-7-toning-solution-240ml.png?w=600&fm=webp",
				"https://images.ctfassets.net/p332i0hvxu0s/43uW44gzg0mwcO0wGkUia4/8f6f56fe456bad110a3341935e4125b0/theordinary-glycolic-acid-7-toning-solution-texture.jpg?w=600&fm=webp",
			},
			Description:   "An alpha hydroxyl acid that exfoliates the skin.",
			DescriptionAr: "حمض ألفا هيدروكسي الذي يقشر البشرة.",
			Price:         140,
			SoldOut:       true,
		},
		{
			ID:   4,
			Name: "Lash Curl Finisher",
			Logo: String(BrandLogo),
			Images: []string{
				"https://images.ctfassets.net/p332i0hvxu0s/5No25T20UiC2A44SOi0Ea0/16c87e076e03c6214f4e7052a514e047/theordinary-multi-peptide-lash-and-brow-serum-5ml.png?w=600&fm=webp",
				"https://images.ctfassets.net/p332i0hvxu0s/7vKllL8zWj1M6c8kG004I4/3688b48f936d8590c9527e045e75c602/The_Ordinary_Multi-Peptide_Lash_and_Brow_Serum_Swatch.jpg?w=600&fm=webp",
			},
			Description:   "Fixateur Cils Courbés.",
			DescriptionAr: "مُثبت تمويج الرموش.",
			Price:         150,
			PromotionText: String("NEW"),
		},
	}
}
