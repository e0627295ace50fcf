package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/teamfinger/internal/sketch"
	"github.com/ayusman/teamfinger/internal/store"
)

// SketchRunner is the part of the detection loop the preset API drives.
type SketchRunner interface {
	Sketch() sketch.Preset
	SetSketch(sketch.Preset) error
	SetEnabled(bool)
	IsEnabled() bool
}

// PresetHandler serves stored presets and switches the running sketch.
type PresetHandler struct {
	store  *store.Store
	runner SketchRunner
	logger *slog.Logger
}

// NewPresetHandler creates a PresetHandler. runner may be nil, in which
// case activation answers 503.
func NewPresetHandler(s *store.Store, runner SketchRunner, logger *slog.Logger) *PresetHandler {
	return &PresetHandler{store: s, runner: runner, logger: logger}
}

// Routes mounts the handler under /api.
func (h *PresetHandler) Routes(r chi.Router) {
	r.Route("/presets", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/activate", h.activate)
	})
	r.Get("/sketch", h.current)
	r.Put("/effects", h.effects)
}

type presetRequest struct {
	Name   string        `json:"name"`
	Config sketch.Preset `json:"config"`
}

type presetResponse struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Config    sketch.Preset `json:"config"`
	Builtin   bool          `json:"builtin,omitempty"`
	CreatedAt string        `json:"created_at,omitempty"`
	UpdatedAt string        `json:"updated_at,omitempty"`
}

type listPresetsResponse struct {
	Presets []presetResponse `json:"presets"`
	Active  string           `json:"active,omitempty"`
}

func toPresetResponse(p *store.Preset) presetResponse {
	return presetResponse{
		ID:        p.ID,
		Name:      p.Name,
		Config:    p.Config,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

// list returns built-in presets followed by stored ones.
func (h *PresetHandler) list(w http.ResponseWriter, r *http.Request) {
	stored, err := h.store.Presets().List()
	if err != nil {
		h.logger.Error("list presets", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to list presets")
		return
	}

	resp := listPresetsResponse{Presets: make([]presetResponse, 0, len(stored)+3)}
	for _, name := range sketch.Builtins() {
		p, _ := sketch.Lookup(name)
		resp.Presets = append(resp.Presets, presetResponse{ID: name, Name: name, Config: p, Builtin: true})
	}
	for _, p := range stored {
		resp.Presets = append(resp.Presets, toPresetResponse(p))
	}
	if active, err := h.store.Settings().Get(store.SettingActivePreset); err == nil {
		resp.Active = active
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *PresetHandler) create(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if _, err := sketch.Lookup(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Name is taken by a built-in preset")
		return
	}

	p := &store.Preset{Name: req.Name, Config: req.Config}
	if err := h.store.Presets().Create(p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Preset already exists")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toPresetResponse(p))
}

func (h *PresetHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if p, err := sketch.Lookup(id); err == nil {
		writeJSON(w, http.StatusOK, presetResponse{ID: id, Name: id, Config: p, Builtin: true})
		return
	}
	p, err := h.store.Presets().GetByID(id)
	if err != nil {
		h.notFoundOr500(w, err, "Preset not found")
		return
	}
	writeJSON(w, http.StatusOK, toPresetResponse(p))
}

func (h *PresetHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	p, err := h.store.Presets().GetByID(id)
	if err != nil {
		h.notFoundOr500(w, err, "Preset not found")
		return
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	p.Config = req.Config
	if err := h.store.Presets().Update(p); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Preset already exists")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPresetResponse(p))
}

func (h *PresetHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Presets().Delete(chi.URLParam(r, "id")); err != nil {
		h.notFoundOr500(w, err, "Preset not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// activate switches the running sketch to a built-in or stored preset
// and remembers the choice.
func (h *PresetHandler) activate(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "Detection loop is not running")
		return
	}
	id := chi.URLParam(r, "id")

	cfg, err := sketch.Lookup(id)
	if err != nil {
		p, err := h.store.Presets().GetByID(id)
		if err != nil {
			h.notFoundOr500(w, err, "Preset not found")
			return
		}
		cfg = p.Config
	}

	if err := h.runner.SetSketch(cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Settings().Set(store.SettingActivePreset, cfg.Name); err != nil {
		h.logger.Warn("remember active preset", "preset", cfg.Name, "err", err)
	}
	h.logger.Info("preset activated", "preset", cfg.Name)
	writeJSON(w, http.StatusOK, cfg)
}

func (h *PresetHandler) current(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "Detection loop is not running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sketch":  h.runner.Sketch(),
		"effects": h.runner.IsEnabled(),
	})
}

type effectsRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *PresetHandler) effects(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeError(w, http.StatusServiceUnavailable, "Detection loop is not running")
		return
	}
	var req effectsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	h.runner.SetEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, req)
}

func (h *PresetHandler) notFoundOr500(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, msg)
		return
	}
	h.logger.Error("preset store", "err", err)
	writeError(w, http.StatusInternalServerError, "Internal error")
}
