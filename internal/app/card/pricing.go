package card

import (
	"math"
	"strings"

	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/shopspring/decimal"
)

// CurrencySuffix follows every displayed amount.
const CurrencySuffix = " Dhs"

// FormatPrice renders an amount with two fixed decimals and the currency suffix.
func FormatPrice(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2) + CurrencySuffix
}

// Discount returns the rounded percentage saved against the original price.
// It is only shown for products that are not sold out and whose original
// price is set, positive and above the current price.
func Discount(p domain.Product) (int, bool) {
	if p.SoldOut || p.OriginalPrice == nil {
		return 0, false
	}
	orig := *p.OriginalPrice
	if orig <= 0 || orig <= p.Price {
		return 0, false
	}
	pct := (orig - p.Price) / orig * 100
	return int(math.Floor(pct + 0.5)), true
}

// ShowPromotion reports whether the promotion badge is drawn.
func ShowPromotion(p domain.Product) bool {
	return !p.SoldOut && p.PromotionText != nil && strings.TrimSpace(*p.PromotionText) != ""
}

// ImageAt returns the image shown at index, or the placeholder when the
// product has no image there.
func ImageAt(p domain.Product, index int) string {
	if index < 0 || index >= len(p.Images) || p.Images[index] == "" {
		return domain.PlaceholderImage
	}
	return p.Images[index]
}
