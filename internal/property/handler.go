package property

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/keyhaven/backend/internal/auth"
	"github.com/keyhaven/backend/internal/httpx"
	"github.com/keyhaven/backend/internal/models"
)

// maxFormMemory bounds how much of a multipart body stays in memory.
const maxFormMemory = 32 << 20

// Handler holds the property HTTP handlers.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /api/v1/properties (multipart form, Agent only).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Not authorized")
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid multipart form")
		return
	}

	images, err := readImages(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Could not read uploaded images")
		return
	}

	in := CreateInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		Price:         r.FormValue("price"),
		Location:      r.FormValue("location"),
		Type:          r.FormValue("type"),
		Status:        r.FormValue("status"),
		Bedrooms:      r.FormValue("bedrooms"),
		Bathrooms:     r.FormValue("bathrooms"),
		SquareFootage: r.FormValue("squareFootage"),
		IsFeatured:    r.FormValue("isFeatured"),
		Images:        images,
	}

	created, err := h.svc.Create(r.Context(), caller, in)
	if err != nil {
		writePropertyError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Property created successfully",
		"property": created,
	})
}

// Update handles PUT /api/v1/properties/{id} (owning Agent or Admin).
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Not authorized")
		return
	}

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid multipart form")
		return
	}

	images, err := readImages(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Could not read uploaded images")
		return
	}

	in := UpdateInput{
		Title:         formValue(r, "title"),
		Description:   formValue(r, "description"),
		Price:         formValue(r, "price"),
		Location:      formValue(r, "location"),
		Type:          formValue(r, "type"),
		Status:        formValue(r, "status"),
		Bedrooms:      formValue(r, "bedrooms"),
		Bathrooms:     formValue(r, "bathrooms"),
		SquareFootage: formValue(r, "squareFootage"),
		IsFeatured:    formValue(r, "isFeatured"),
		NewImages:     images,
		RemoveImages:  removeImagesList(r),
	}

	updated, err := h.svc.Update(r.Context(), caller, chi.URLParam(r, "id"), in)
	if err != nil {
		writePropertyError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Property updated successfully",
		"property": updated,
	})
}

// List handles GET /api/v1/properties (public).
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.List(r.Context(), parseListQuery(r))
	if err != nil {
		writePropertyError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total": res.Total,
		"page":  res.Page,
		"limit": res.Limit,
		"count": len(res.Items),
		"data":  res.Items,
	})
}

// Get handles GET /api/v1/properties/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writePropertyError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{"data": p})
}

// Mine handles GET /api/v1/properties/mine (Agent/Admin), scoping the usual
// filters to the caller's own listings.
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.IdentityFrom(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Not authorized")
		return
	}

	res, err := h.svc.ListByOwner(r.Context(), caller.UserID, parseListQuery(r))
	if err != nil {
		writePropertyError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"total":      res.Total,
		"ownerTotal": res.OwnerTotal,
		"page":       res.Page,
		"limit":      res.Limit,
		"count":      len(res.Items),
		"data":       res.Items,
	})
}

// parseListQuery maps URL query params onto a ListQuery. Numeric pagination
// values that fail to parse are left at zero and later clamped; filter
// values are passed through for the service to validate.
func parseListQuery(r *http.Request) ListQuery {
	params := r.URL.Query()
	q := ListQuery{
		Location: params.Get("location"),
		SortBy:   params.Get("sortBy"),
		Order:    params.Get("order"),
	}

	for _, t := range splitMulti(params["type"]) {
		q.Types = append(q.Types, models.PropertyType(t))
	}
	for _, s := range splitMulti(params["status"]) {
		q.Statuses = append(q.Statuses, models.PropertyStatus(s))
	}

	if v := params.Get("isFeatured"); v != "" {
		featured := parseBool(v)
		q.IsFeatured = &featured
	}
	if v := params.Get("minPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q.MinPrice = &f
		}
	}
	if v := params.Get("maxPrice"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q.MaxPrice = &f
		}
	}
	if v := params.Get("bedrooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Bedrooms = &n
		}
	}
	if v := params.Get("bathrooms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			q.Bathrooms = &n
		}
	}
	if v := params.Get("page"); v != "" {
		q.Page, _ = strconv.Atoi(v)
	}
	if v := params.Get("limit"); v != "" {
		q.Limit, _ = strconv.Atoi(v)
	}
	return q
}

// splitMulti flattens repeated query params and comma-separated values.
func splitMulti(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// formValue returns a pointer to the form field, or nil when the field was
// absent from the request. Presence matters for partial updates.
func formValue(r *http.Request, name string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	vals, ok := r.MultipartForm.Value[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	return &vals[0]
}

// removeImagesList accepts either a JSON-encoded array or repeated
// removeImages fields.
func removeImagesList(r *http.Request) []string {
	if r.MultipartForm == nil {
		return nil
	}
	vals := r.MultipartForm.Value["removeImages"]
	if len(vals) == 0 {
		return nil
	}
	if len(vals) == 1 && strings.HasPrefix(strings.TrimSpace(vals[0]), "[") {
		var urls []string
		if err := json.Unmarshal([]byte(vals[0]), &urls); err == nil {
			return urls
		}
	}
	return vals
}

func readImages(r *http.Request) ([]UploadFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var files []UploadFile
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Data:        data,
		})
	}
	return files, nil
}

func writePropertyError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, ve.Message)
	case errors.Is(err, ErrInvalidFilter):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidFilter, strings.TrimPrefix(err.Error(), "property: "))
	case errors.Is(err, ErrInvalidID):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, "Invalid property id")
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "Property not found")
	case errors.Is(err, ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "Access forbidden: not the listing owner")
	case errors.Is(err, ErrAssetUpload):
		log.Printf("property: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeUpstream, "Image upload failed")
	default:
		log.Printf("property: %v", err)
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeUpstream, "Server error")
	}
}
