package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mrops-br/instafiche/internal/app/editor"
	"github.com/mrops-br/instafiche/internal/app/service"
	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/mrops-br/instafiche/internal/infrastructure/http/response"
)

//go:embed templates/editor.html
var templateFS embed.FS

var editorTemplate = template.Must(template.ParseFS(templateFS, "templates/editor.html"))

type productOption struct {
	ID       int64
	Name     string
	Selected bool
}

type ratioOption struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Products     []productOption
	HasProduct   bool
	ProductID    int64
	Name         string
	Description  string
	DescAr       string
	Price        string
	Original     string
	Promotion    string
	SoldOut      bool
	Images       []template.URL
	Logo         template.URL
	Ratios       []ratioOption
	Carousel     bool
	ImageIndex   int
	Busy         bool
	DeletePrompt string
}

// PageHandler renders the editor page
type PageHandler struct {
	session *service.Session
	logger  *slog.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(session *service.Session, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		session: session,
		logger:  logger,
	}
}

// Editor handles GET /
func (h *PageHandler) Editor(w http.ResponseWriter, r *http.Request) {
	products, err := h.session.Products(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	data := pageData{
		ImageIndex:   h.session.ImageIndex(),
		Carousel:     h.session.HasCarousel(),
		Busy:         h.session.Busy(),
		DeletePrompt: service.DeletePrompt,
	}

	selected, ok := h.session.Selected()
	for _, p := range products {
		data.Products = append(data.Products, productOption{
			ID:       p.ID,
			Name:     p.Name,
			Selected: ok && p.ID == selected.ID,
		})
	}

	current := h.session.AspectRatio()
	for _, ratio := range domain.AspectRatios {
		data.Ratios = append(data.Ratios, ratioOption{
			Value:    ratio.String(),
			Label:    ratio.Label(),
			Selected: ratio == current,
		})
	}

	if ok {
		form := h.session.Form()
		data.HasProduct = true
		data.ProductID = selected.ID
		data.Name = form.Draft(editor.FieldName)
		data.Description = form.Draft(editor.FieldDescription)
		data.DescAr = form.Draft(editor.FieldDescriptionAr)
		data.Price = form.Draft(editor.FieldPrice)
		data.Original = form.Draft(editor.FieldOriginalPrice)
		data.Promotion = form.Draft(editor.FieldPromotionText)
		data.SoldOut = selected.SoldOut
		for _, src := range form.Images() {
			data.Images = append(data.Images, imageURL(src))
		}
		if selected.Logo != nil {
			data.Logo = imageURL(*selected.Logo)
		}
	}

	var buf bytes.Buffer
	if err := editorTemplate.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render editor page",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// imageURL marks remote and inline image sources as safe for src attributes.
// html/template would otherwise replace data URIs.
func imageURL(src string) template.URL {
	switch {
	case strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "http://"),
		strings.HasPrefix(src, "data:image/"):
		return template.URL(src)
	default:
		return template.URL(domain.PlaceholderImage)
	}
}
