package dto

import (
	"github.com/mrops-br/instafiche/internal/domain"
)

// ProductRecord is the JSON shape of a product, shared by the durable
// snapshot and the editor API
type ProductRecord struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Images        []string `json:"images"`
	Description   string   `json:"description"`
	DescriptionAr string   `json:"descriptionAr"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	PromotionText *string  `json:"promotionText"`
	SoldOut       bool     `json:"soldOut"`
	Logo          *string  `json:"logo"`
}

// ToProductRecord converts a domain Product to ProductRecord
func ToProductRecord(p domain.Product) ProductRecord {
	c := p.Clone()
	images := c.Images
	if images == nil {
		images = []string{}
	}
	return ProductRecord{
		ID:            c.ID,
		Name:          c.Name,
		Images:        images,
		Description:   c.Description,
		DescriptionAr: c.DescriptionAr,
		Price:         c.Price,
		OriginalPrice: c.OriginalPrice,
		PromotionText: c.PromotionText,
		SoldOut:       c.SoldOut,
		Logo:          c.Logo,
	}
}

// ToProductRecordList converts a list of domain Products to ProductRecord list
func ToProductRecordList(products []domain.Product) []ProductRecord {
	records := make([]ProductRecord, len(products))
	for i, p := range products {
		records[i] = ToProductRecord(p)
	}
	return records
}

// Product converts the record back to a domain Product
func (r ProductRecord) Product() domain.Product {
	p := domain.Product{
		ID:            r.ID,
		Name:          r.Name,
		Images:        r.Images,
		Description:   r.Description,
		DescriptionAr: r.DescriptionAr,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		PromotionText: r.PromotionText,
		SoldOut:       r.SoldOut,
		Logo:          r.Logo,
	}
	return p.Clone()
}

// FromProductRecordList converts records back to domain Products
func FromProductRecordList(records []ProductRecord) []domain.Product {
	products := make([]domain.Product, len(records))
	for i, r := range records {
		products[i] = r.Product()
	}
	return products
}

// ProductResponse is the product shape of the editor API. Ids are sent as
// strings because snowflake ids exceed the integer range of a JS number.
type ProductResponse struct {
	ID            int64    `json:"id,string"`
	Name          string   `json:"name"`
	Images        []string `json:"images"`
	Description   string   `json:"description"`
	DescriptionAr string   `json:"descriptionAr"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice"`
	PromotionText *string  `json:"promotionText"`
	SoldOut       bool     `json:"soldOut"`
	Logo          *string  `json:"logo"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p domain.Product) ProductResponse {
	return ProductResponse(ToProductRecord(p))
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []domain.Product) []ProductResponse {
	responses := make([]ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}

// SelectionResponse describes the shell state returned by the editor API.
// SelectedID is empty when nothing is selected.
type SelectionResponse struct {
	SelectedID  string            `json:"selectedId"`
	AspectRatio string            `json:"aspectRatio"`
	ImageIndex  int               `json:"imageIndex"`
	Busy        bool              `json:"busy"`
	Products    []ProductResponse `json:"products"`
}
