package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/instafiche/internal/app/dto"
	"github.com/mrops-br/instafiche/internal/app/editor"
	"github.com/mrops-br/instafiche/internal/app/export"
	"github.com/mrops-br/instafiche/internal/app/service"
	"github.com/mrops-br/instafiche/internal/domain"
	"github.com/mrops-br/instafiche/internal/infrastructure/http/response"
	"github.com/spf13/cast"
)

const maxUploadBytes = editor.MaxImageBytes + 1<<20

// EditorHandler serves the editor API of a session
type EditorHandler struct {
	session *service.Session
	logger  *slog.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(session *service.Session, logger *slog.Logger) *EditorHandler {
	return &EditorHandler{
		session: session,
		logger:  logger,
	}
}

// State handles GET /api/state
func (h *EditorHandler) State(w http.ResponseWriter, r *http.Request) {
	products, err := h.session.Products(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var selectedID string
	if id := h.session.SelectedID(); id != nil {
		selectedID = strconv.FormatInt(*id, 10)
	}

	response.JSON(w, http.StatusOK, dto.SelectionResponse{
		SelectedID:  selectedID,
		AspectRatio: h.session.AspectRatio().String(),
		ImageIndex:  h.session.ImageIndex(),
		Busy:        h.session.Busy(),
		Products:    dto.ToProductResponseList(products),
	})
}

// CreateProduct handles POST /api/products
func (h *EditorHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.session.NewProduct(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, dto.ToProductResponse(product))
}

// SelectProduct handles POST /api/products/{id}/select
func (h *EditorHandler) SelectProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}
	if err := h.session.Select(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.selected(w, r)
}

// DeleteProduct handles DELETE /api/products/{id}. The page asks the user
// first and passes the answer as the confirm query parameter.
func (h *EditorHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	confirmed := service.ConfirmFunc(func(context.Context, string, domain.Product) (bool, error) {
		return cast.ToBool(r.URL.Query().Get("confirm")), nil
	})

	deleted, err := h.session.DeleteProduct(r.Context(), id, confirmed)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

// SetField handles PUT /api/form/{field}
func (h *EditorHandler) SetField(w http.ResponseWriter, r *http.Request) {
	field := editor.Field(chi.URLParam(r, "field"))
	if err := h.session.Form().Set(r.Context(), field, r.FormValue("value")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.selected(w, r)
}

// BlurField handles POST /api/form/{field}/blur
func (h *EditorHandler) BlurField(w http.ResponseWriter, r *http.Request) {
	field := editor.Field(chi.URLParam(r, "field"))
	if err := h.session.Form().Blur(r.Context(), field); err != nil {
		h.fail(w, r, err)
		return
	}
	h.selected(w, r)
}

// AddImage handles POST /api/images with a multipart "file" part
func (h *EditorHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.session.Form().AddImage)
}

// DeleteImage handles DELETE /api/images/{index}
func (h *EditorHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	if err := h.session.Form().DeleteImage(r.Context(), index); err != nil {
		h.fail(w, r, err)
		return
	}
	h.selected(w, r)
}

// SetLogo handles POST /api/logo with a multipart "file" part
func (h *EditorHandler) SetLogo(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, h.session.Form().SetLogo)
}

// ClearLogo handles DELETE /api/logo
func (h *EditorHandler) ClearLogo(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Form().ClearLogo(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.selected(w, r)
}

// SetAspectRatio handles PUT /api/aspect-ratio
func (h *EditorHandler) SetAspectRatio(w http.ResponseWriter, r *http.Request) {
	ratio, err := domain.ParseAspectRatio(r.FormValue("value"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	if err := h.session.SetAspectRatio(ratio); err != nil {
		h.fail(w, r, err)
		return
	}
	h.State(w, r)
}

// NextImage handles POST /api/carousel/next
func (h *EditorHandler) NextImage(w http.ResponseWriter, r *http.Request) {
	h.session.NextImage()
	h.State(w, r)
}

// PreviousImage handles POST /api/carousel/previous
func (h *EditorHandler) PreviousImage(w http.ResponseWriter, r *http.Request) {
	h.session.PreviousImage()
	h.State(w, r)
}

// SelectImage handles POST /api/carousel/{index}
func (h *EditorHandler) SelectImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	if !h.session.SelectImage(index) {
		response.Error(w, http.StatusBadRequest, editor.ErrImageIndex)
		return
	}
	h.State(w, r)
}

// Preview handles GET /preview.jpg
func (h *EditorHandler) Preview(w http.ResponseWriter, r *http.Request) {
	data, err := h.session.Preview(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Image(w, "image/jpeg", data)
}

// Export handles POST /api/export. The JPEG is written as an attachment
// while the export is still capturing.
func (h *EditorHandler) Export(w http.ResponseWriter, r *http.Request) {
	sink := export.SinkFunc(func(_ context.Context, d *export.Download) error {
		response.Attachment(w, d.Filename, d.ContentType, d.Data)
		return nil
	})

	if _, err := h.session.Export(r.Context(), sink); err != nil {
		h.fail(w, r, err)
	}
}

func (h *EditorHandler) upload(w http.ResponseWriter, r *http.Request, apply func(context.Context, io.Reader, string) error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	if err := apply(r.Context(), file, header.Header.Get("Content-Type")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.selected(w, r)
}

func (h *EditorHandler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

// selected answers with the record bound to the form
func (h *EditorHandler) selected(w http.ResponseWriter, r *http.Request) {
	p, ok := h.session.Selected()
	if !ok {
		response.Error(w, http.StatusPreconditionFailed, editor.ErrNoSelection)
		return
	}
	response.JSON(w, http.StatusOK, dto.ToProductResponse(p))
}

func (h *EditorHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var failure *export.Failure

	switch {
	case errors.As(err, &failure):
		response.Message(w, http.StatusBadGateway, failure.UserMessage())
	case errors.Is(err, export.ErrBusy):
		response.Error(w, http.StatusConflict, err)
	case errors.Is(err, export.ErrPrecondition), errors.Is(err, editor.ErrNoSelection):
		response.Error(w, http.StatusPreconditionFailed, err)
	case errors.Is(err, domain.ErrProductNotFound):
		response.Error(w, http.StatusNotFound, err)
	case errors.Is(err, editor.ErrUnsupportedImage):
		response.Error(w, http.StatusUnsupportedMediaType, err)
	case errors.Is(err, editor.ErrUnknownField),
		errors.Is(err, editor.ErrImageIndex),
		errors.Is(err, editor.ErrInvalidValue),
		errors.Is(err, domain.ErrUnknownAspectRatio):
		response.Error(w, http.StatusBadRequest, err)
	default:
		h.logger.ErrorContext(r.Context(), "Request failed",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusInternalServerError, err)
	}
}
