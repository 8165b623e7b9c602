// Package card renders a product into the fixed-layout promotional card.
package card

import (
	"github.com/mrops-br/instafiche/internal/app/scene"
	"github.com/mrops-br/instafiche/internal/domain"
)

// BaseWidth is the on-screen width of the card in CSS pixels.
const BaseWidth = 500.0

// Card holds the product on display and the carousel cursor.
type Card struct {
	product *domain.Product
	index   int
}

// New returns an empty card.
func New() *Card {
	return &Card{}
}

// Show displays p. The carousel returns to the first image when the product
// identity changes; otherwise the cursor is kept and wrapped into range.
func (c *Card) Show(p *domain.Product) {
	if p == nil {
		c.product = nil
		c.index = 0
		return
	}

	next := p.Clone()
	if c.product == nil || c.product.ID != next.ID {
		c.index = 0
	} else if n := len(next.Images); n > 0 {
		c.index %= n
	} else {
		c.index = 0
	}
	c.product = &next
}

// Product returns a copy of the product on display, or nil.
func (c *Card) Product() *domain.Product {
	if c.product == nil {
		return nil
	}
	p := c.product.Clone()
	return &p
}

// Index is the current carousel position.
func (c *Card) Index() int {
	return c.index
}

// HasControls reports whether carousel controls and indicators are shown.
func (c *Card) HasControls() bool {
	return c.product != nil && len(c.product.Images) > 1
}

// Next advances the carousel, wrapping to the first image.
func (c *Card) Next() {
	if !c.HasControls() {
		return
	}
	c.index = (c.index + 1) % len(c.product.Images)
}

// Previous moves the carousel back, wrapping to the last image.
func (c *Card) Previous() {
	if !c.HasControls() {
		return
	}
	n := len(c.product.Images)
	c.index = (c.index - 1 + n) % n
}

// Select jumps to image i. Out of range positions are ignored.
func (c *Card) Select(i int) bool {
	if c.product == nil || i < 0 || i >= len(c.product.Images) {
		return false
	}
	c.index = i
	return true
}

// CurrentImage is the image reference drawn in the card.
func (c *Card) CurrentImage() string {
	if c.product == nil {
		return domain.PlaceholderImage
	}
	return ImageAt(*c.product, c.index)
}

// Render draws the product on display. It returns nil when nothing is shown.
func (c *Card) Render(ratio domain.AspectRatio) *scene.Tree {
	if c.product == nil {
		return nil
	}
	return Render(*c.product, ratio, c.index)
}
