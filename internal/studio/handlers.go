package studio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator"

	"fashionStudio/internal/garment"
	"fashionStudio/internal/generation"
	"fashionStudio/internal/imagery"
	"fashionStudio/internal/media"
	"fashionStudio/internal/prompts"
	"fashionStudio/internal/refine"
	"fashionStudio/internal/storage"
	"fashionStudio/internal/vision"
)

const (
	maxImageBytes  = vision.MaxVisionImageBytes
	maxUploadBytes = 6*maxImageBytes + (1 << 20)
	modelField     = "model"
)

// Handler bundles dependencies for studio endpoints.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

// NewHandler builds a handler with a fresh validator.
func NewHandler(svc *Service) Handler {
	return Handler{Service: svc, Validate: validator.New()}
}

// Routes mounts the session endpoints on r.
func (h Handler) Routes(r chi.Router) {
	r.Get("/", h.ListSessions)
	r.Post("/", h.CreateSession)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.Post("/generate", h.Generate)
		r.Post("/refinements", h.Refine)
		r.Post("/refinements/{token}/confirm", h.Confirm)
		r.Delete("/refinements/{token}", h.Cancel)
	})
}

// GenerateRequest is the body of POST /api/sessions/{id}/generate.
type GenerateRequest struct {
	Lighting     prompts.Lighting     `json:"lighting"`
	Mannequin    prompts.Mannequin    `json:"mannequin"`
	Scene        prompts.Scene        `json:"scene"`
	Measurements prompts.Measurements `json:"measurements"`
	Views        []generation.ECView  `json:"views" validate:"omitempty,max=5,dive,oneof=front back side three_quarter bust_up"`
	Purposes     []generation.Purpose `json:"purposes" validate:"omitempty,max=4,dive,oneof=ec social campaign lookbook"`
}

func (g GenerateRequest) settings() storage.Settings {
	lighting, mannequin, scene := prompts.Defaults(g.Lighting, g.Mannequin, g.Scene)
	return storage.Settings{
		Lighting:     lighting,
		Mannequin:    mannequin,
		Scene:        scene,
		Measurements: g.Measurements,
		Views:        g.Views,
		Purposes:     g.Purposes,
	}
}

// PromptPreviewRequest is the body of POST /api/prompt/preview.
type PromptPreviewRequest struct {
	Analysis     garment.Analysis     `json:"analysis"`
	Lighting     prompts.Lighting     `json:"lighting"`
	Mannequin    prompts.Mannequin    `json:"mannequin"`
	Scene        prompts.Scene        `json:"scene"`
	Measurements prompts.Measurements `json:"measurements"`
	HasModel     bool                 `json:"hasModel"`
}

// CreateSession handles POST /api/sessions. Garments are uploaded as
// multipart files named after their slot, the optional model reference as
// "model".
func (h Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	images, err := parseUploads(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.Service.CreateSession(r.Context(), images)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func parseUploads(r *http.Request) (imagery.Set, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("invalid multipart payload: %w", err)
	}

	var images imagery.Set
	for _, slot := range garment.Slots {
		img, ok, err := readUpload(r, string(slot), imagery.RoleGarment, slot)
		if err != nil {
			return nil, err
		}
		if ok {
			images = append(images, img)
		}
	}
	img, ok, err := readUpload(r, modelField, imagery.RoleModel, "")
	if err != nil {
		return nil, err
	}
	if ok {
		images = append(images, img)
	}
	return images, nil
}

func readUpload(r *http.Request, field string, role imagery.Role, slot garment.Slot) (imagery.Image, bool, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return imagery.Image{}, false, nil
		}
		return imagery.Image{}, false, fmt.Errorf("could not read %s image: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return imagery.Image{}, false, fmt.Errorf("read %s image: %w", field, err)
	}
	if len(data) > maxImageBytes {
		return imagery.Image{}, false, fmt.Errorf("%s image exceeds %d MB", field, maxImageBytes/(1024*1024))
	}
	if len(data) == 0 {
		return imagery.Image{}, false, nil
	}

	return imagery.New(role, slot, data, header.Header.Get("Content-Type")), true, nil
}

// ListSessions handles GET /api/sessions.
func (h Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Service.ListSessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/sessions/{id}.
func (h Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Service.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /api/sessions/{id}.
func (h Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Generate handles POST /api/sessions/{id}/generate. Rendering continues in
// the background; progress is published on the event stream.
func (h Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}

	gen, err := h.Service.Generate(r.Context(), chi.URLParam(r, "id"), req.settings())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, gen)
}

// Refine handles POST /api/sessions/{id}/refinements.
func (h Handler) Refine(w http.ResponseWriter, r *http.Request) {
	var req refine.Request
	if !h.decode(w, r, &req) {
		return
	}

	pending, err := h.Service.Refine(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pending)
}

// Confirm handles POST /api/sessions/{id}/refinements/{token}/confirm.
func (h Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.Confirm(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if out.Generation != nil {
		status = http.StatusAccepted
	}
	writeJSON(w, status, out)
}

// Cancel handles DELETE /api/sessions/{id}/refinements/{token}.
func (h Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Cancel(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "token")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PreviewPrompt handles POST /api/prompt/preview. It compiles the prompt
// without rendering.
func (h Handler) PreviewPrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptPreviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	var images imagery.Set
	for _, slot := range req.Analysis.Present() {
		images = append(images, imagery.Image{Role: imagery.RoleGarment, Slot: slot})
	}
	if req.HasModel {
		images = append(images, imagery.Image{Role: imagery.RoleModel})
	}

	lighting, mannequin, scene := prompts.Defaults(req.Lighting, req.Mannequin, req.Scene)
	prompt := prompts.CompilePrompt(req.Analysis, lighting, mannequin, scene, images, req.Measurements)
	writeJSON(w, http.StatusOK, map[string]any{
		"prompt": prompt,
		"view":   prompts.ResolveView(mannequin.Rotation),
	})
}

func (h Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(dst); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return false
		}
	}
	return true
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, refine.ErrInterpretationNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrStaleEpoch):
		return http.StatusConflict
	case errors.Is(err, refine.ErrEmptyValue), errors.Is(err, refine.ErrUnknownTarget),
		errors.Is(err, refine.ErrUnknownChangeType), errors.Is(err, ErrNoGarments),
		errors.Is(err, ErrDuplicateSlot), errors.Is(err, ErrInvalidUpload), errors.Is(err, ErrNoShots):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrUploaderDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("studio: request failed: %v", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("studio: encode response: %v", err)
	}
}
