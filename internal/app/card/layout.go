package card

import (
	"fmt"
	"image/color"

	"github.com/mrops-br/instafiche/internal/app/scene"
	"github.com/mrops-br/instafiche/internal/domain"
)

// Font families referenced by the card. The export pipeline embeds both.
const (
	FamilySans   = "Inter"
	FamilyArabic = "Cairo"
)

const (
	cardPadding = 32.0
	cardRadius  = 16.0
	logoHeight  = 40.0
)

var (
	purple100 = color.NRGBA{R: 0xf3, G: 0xe8, B: 0xff, A: 0xff}
	pink100   = color.NRGBA{R: 0xfc, G: 0xe7, B: 0xf3, A: 0xff}
	orange100 = color.NRGBA{R: 0xff, G: 0xed, B: 0xd5, A: 0xff}
	orange600 = color.NRGBA{R: 0xea, G: 0x58, B: 0x0c, A: 0xff}
	indigo600 = color.NRGBA{R: 0x4f, G: 0x46, B: 0xe5, A: 0xff}
	slate900  = color.NRGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	slate600  = color.NRGBA{R: 0x47, G: 0x55, B: 0x69, A: 0xff}
	slate500  = color.NRGBA{R: 0x64, G: 0x74, B: 0x8b, A: 0xff}
	slate400  = color.NRGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xb3}
	white     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	white50   = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x80}
	black20   = color.NRGBA{A: 0x33}
)

// Render builds the visual tree of p at the given aspect ratio with image
// index as the carousel position.
func Render(p domain.Product, ratio domain.AspectRatio, index int) *scene.Tree {
	width := BaseWidth
	height := ratio.Height(width)

	content := scene.Column("content")
	content.Align = scene.AlignStretch

	if p.Logo != nil && *p.Logo != "" {
		logo := scene.Picture("logo", *p.Logo)
		logo.MaxHeight = logoHeight
		row := scene.Row("logo-row", logo)
		row.Padding.Bottom = 16
		row.Align = scene.AlignCenter
		content.Children = append(content.Children, row)
	}

	content.Children = append(content.Children, middle(p, index), footer(p, index))

	root := scene.Box("card", content)
	root.Frame = scene.Rect{W: width, H: height}
	root.Padding = scene.Pad(cardPadding)
	root.Fill = scene.Diagonal(purple100, pink100, orange100)
	root.Radius = cardRadius
	root.Clip = true

	if p.SoldOut {
		root.Children = append(root.Children, soldOutOverlay(width, height))
	}

	return &scene.Tree{Width: width, Height: height, Body: root}
}

func middle(p domain.Product, index int) *scene.Node {
	picture := scene.Picture("image", ImageAt(p, index))
	imageColumn := scene.Box("image-column", picture)
	imageColumn.Grow = 1

	text := scene.Column("text-column")
	text.Grow = 1
	text.Justify = scene.JustifyCenter
	text.Align = scene.AlignStretch

	if ShowPromotion(p) {
		badge := scene.Row("promotion", scene.Label("promotion-text", *p.PromotionText, scene.TextStyle{
			Family:     FamilySans,
			Weight:     700,
			Size:       12,
			LineHeight: 16.0 / 12.0,
			Color:      white,
			Uppercase:  true,
			NoWrap:     true,
		}))
		badge.Padding = scene.PadXY(12, 4)
		badge.Radius = 9999
		badge.Fill = scene.Solid(indigo600)
		badge.AlignSelf = scene.AlignStart
		badge.Margin.Bottom = 8
		text.Children = append(text.Children, badge)
	}

	name := scene.Label("name", p.Name, scene.TextStyle{
		Family:     FamilySans,
		Weight:     800,
		Size:       30,
		LineHeight: 1.25,
		Color:      slate900,
	})

	description := scene.Label("description", p.Description, scene.TextStyle{
		Family:     FamilySans,
		Weight:     400,
		Size:       14,
		LineHeight: 20.0 / 14.0,
		Color:      slate600,
	})
	description.Margin.Top = 8

	arabic := scene.Label("description-ar", p.DescriptionAr, scene.TextStyle{
		Family:     FamilyArabic,
		Weight:     400,
		Size:       14,
		LineHeight: 20.0 / 14.0,
		Color:      slate600,
		Align:      scene.TextRight,
		Direction:  scene.RTL,
	})
	arabic.Margin.Top = 12

	text.Children = append(text.Children, name, description, arabic)

	row := scene.Row("middle", imageColumn, text)
	row.Grow = 1
	row.Gap = 24
	row.Align = scene.AlignStretch
	row.Clip = true
	return row
}

func footer(p domain.Product, index int) *scene.Node {
	col := scene.Column("footer")
	col.Margin.Top = 24
	col.Align = scene.AlignStretch

	if len(p.Images) > 1 {
		dots := scene.Row("indicators")
		dots.Justify = scene.JustifyCenter
		dots.Align = scene.AlignCenter
		dots.Gap = 8
		dots.Margin.Bottom = 16
		for i := range p.Images {
			dot := scene.Box(fmt.Sprintf("indicator-%d", i))
			dot.Width, dot.Height, dot.Radius = 8, 8, 4
			dot.Fill = scene.Solid(slate400)
			if i == index {
				dot.Width = 16
				dot.Fill = scene.Solid(indigo600)
			}
			dots.Children = append(dots.Children, dot)
		}
		col.Children = append(col.Children, dots)
	}

	panel := scene.Row("price-panel")
	panel.Fill = scene.Solid(white50)
	panel.Radius = 12
	panel.Padding = scene.Pad(16)
	panel.Justify = scene.JustifyEnd
	panel.Align = scene.AlignCenter

	if pct, ok := Discount(p); ok {
		group := scene.Row("price-group",
			scene.Label("price", FormatPrice(p.Price), scene.TextStyle{
				Family: FamilySans, Weight: 700, Size: 30, LineHeight: 36.0 / 30.0, Color: slate900, NoWrap: true,
			}),
			scene.Label("original-price", FormatPrice(*p.OriginalPrice), scene.TextStyle{
				Family: FamilySans, Weight: 400, Size: 18, LineHeight: 28.0 / 18.0, Color: slate500, Strike: true, NoWrap: true,
			}),
		)
		discount := scene.Row("discount", scene.Label("discount-text", fmt.Sprintf("-%d%%", pct), scene.TextStyle{
			Family: FamilySans, Weight: 700, Size: 14, LineHeight: 20.0 / 14.0, Color: orange600, NoWrap: true,
		}))
		discount.Padding = scene.PadXY(8, 4)
		discount.Radius = 6
		discount.Fill = scene.Solid(orange100)
		group.Children = append(group.Children, discount)
		group.Gap = 12
		group.Align = scene.AlignEnd
		panel.Children = append(panel.Children, group)
	} else {
		pill := scene.Row("price-pill", scene.Label("price", FormatPrice(p.Price), scene.TextStyle{
			Family: FamilySans, Weight: 700, Size: 24, LineHeight: 32.0 / 24.0, Color: white, NoWrap: true,
		}))
		pill.Fill = scene.Solid(slate900)
		pill.Radius = 8
		pill.Padding = scene.PadXY(16, 8)
		panel.Children = append(panel.Children, pill)
	}

	col.Children = append(col.Children, panel)
	return col
}

func soldOutOverlay(width, height float64) *scene.Node {
	stamp := scene.Row("sold-out-stamp", scene.Label("sold-out-text", "SOLD OUT", scene.TextStyle{
		Family:        FamilySans,
		Weight:        800,
		Size:          72,
		LineHeight:    1,
		Color:         white,
		LetterSpacing: 0.1,
		NoWrap:        true,
	}))
	stamp.Padding = scene.PadXY(32, 16)
	stamp.Border = scene.Border{Width: 4, Color: white}
	stamp.Fill = scene.Solid(black20)
	stamp.Rotation = -12

	overlay := scene.Column("sold-out", stamp)
	overlay.Frame = scene.Rect{W: width, H: height}
	overlay.Justify = scene.JustifyCenter
	overlay.Align = scene.AlignCenter
	return overlay
}
