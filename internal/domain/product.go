package domain

import (
	"errors"
)

// PlaceholderImage is shown whenever a product has no image to display.
const PlaceholderImage = "https://via.placeholder.com/300"

// BrandLogo is the logo carried by the built-in sample products.
const BrandLogo = "https://logovector.net/wp-content/uploads/2021/02/the-ordinary-logo-vector.png"

var (
	ErrInvalidProductID = errors.New("product id must be positive")
)

// Product represents the content of one promotional card
type Product struct {
	ID            int64
	Name          string
	Images        []string
	Description   string
	DescriptionAr string
	Price         float64
	OriginalPrice *float64
	PromotionText *string
	SoldOut       bool
	Logo          *string
}

// NewProduct creates a product carrying the editor's default content
func NewProduct(id int64) (*Product, error) {
	product := &Product{
		ID:            id,
		Name:          "New Product",
		Description:   "Description",
		DescriptionAr: "الوصف بالعربية",
		Images:        []string{PlaceholderImage},
		Price:         0,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	return product, nil
}

// Validate checks the one structural rule of a product, its identity.
// Content fields are free form: empty names, descriptions and image lists
// are tolerated and rendered with fallbacks.
func (p *Product) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidProductID
	}
	return nil
}

// Clone returns a deep copy so stored records are never aliased by callers
func (p Product) Clone() Product {
	c := p
	if p.Images != nil {
		c.Images = append([]string(nil), p.Images...)
	}
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		c.OriginalPrice = &v
	}
	if p.PromotionText != nil {
		v := *p.PromotionText
		c.PromotionText = &v
	}
	if p.Logo != nil {
		v := *p.Logo
		c.Logo = &v
	}
	return c
}

// Float returns a pointer to v, for optional amounts.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to v, for optional labels and references.
func String(v string) *string {
	return &v
}
