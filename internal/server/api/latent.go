package api

import (
	"encoding/json"
	"errors"
	"image/png"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ayusman/teamfinger/internal/latent"
	"github.com/ayusman/teamfinger/internal/store"
)

// LatentHandler renders points along a latent walk and keeps bookmarks.
type LatentHandler struct {
	walk      *latent.Walk
	store     *store.Store
	generated prometheus.Counter
	logger    *slog.Logger
}

// NewLatentHandler creates a LatentHandler. walk may be nil when no
// generator is configured; generated may be nil.
func NewLatentHandler(walk *latent.Walk, s *store.Store, generated prometheus.Counter, logger *slog.Logger) *LatentHandler {
	return &LatentHandler{walk: walk, store: s, generated: generated, logger: logger}
}

// Routes mounts the handler under /api.
func (h *LatentHandler) Routes(r chi.Router) {
	r.Route("/latent", func(r chi.Router) {
		r.Get("/", h.image)
		if h.store != nil {
			r.Get("/bookmarks", h.listBookmarks)
			r.Post("/bookmarks", h.createBookmark)
			r.Delete("/bookmarks/{id}", h.deleteBookmark)
		}
	})
}

// image writes the PNG for ?t=, defaulting to 0.5.
func (h *LatentHandler) image(w http.ResponseWriter, r *http.Request) {
	if h.walk == nil {
		writeError(w, http.StatusServiceUnavailable, "No generator configured")
		return
	}
	t := 0.5
	if q := r.URL.Query().Get("t"); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "t must be a number")
			return
		}
		t = v
	}

	img, err := h.walk.Image(t)
	if err != nil {
		if errors.Is(err, latent.ErrRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("generate image", "t", t, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate image")
		return
	}
	if h.generated != nil {
		h.generated.Inc()
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if err := png.Encode(w, img); err != nil {
		h.logger.Warn("encode png", "err", err)
	}
}

type bookmarkRequest struct {
	Name string  `json:"name"`
	T    float64 `json:"t"`
	Seed *uint64 `json:"seed,omitempty"`
}

type listBookmarksResponse struct {
	Bookmarks []*store.Bookmark `json:"bookmarks"`
}

func (h *LatentHandler) listBookmarks(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.Bookmarks().List()
	if err != nil {
		h.logger.Error("list bookmarks", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to list bookmarks")
		return
	}
	if list == nil {
		list = []*store.Bookmark{}
	}
	writeJSON(w, http.StatusOK, listBookmarksResponse{Bookmarks: list})
}

// createBookmark stores t against the request seed, or the walk's seed.
func (h *LatentHandler) createBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	b := &store.Bookmark{Name: req.Name, T: req.T}
	switch {
	case req.Seed != nil:
		b.Seed = *req.Seed
	case h.walk != nil:
		b.Seed = h.walk.Seed
	default:
		writeError(w, http.StatusBadRequest, "Seed is required without a generator")
		return
	}

	if err := h.store.Bookmarks().Create(b); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *LatentHandler) deleteBookmark(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Bookmarks().Delete(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Bookmark not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
