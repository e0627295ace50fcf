package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// streamInterval caps the MJPEG rate at roughly 30 FPS.
const streamInterval = 33 * time.Millisecond

// StreamHandler serves the composited overlay as MJPEG.
type StreamHandler struct {
	loop Loop
}

// NewStreamHandler creates a StreamHandler reading frames from loop.
func NewStreamHandler(loop Loop) *StreamHandler {
	return &StreamHandler{loop: loop}
}

// ServeHTTP writes each new frame until the client goes away.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		buf, tick := h.loop.JPEG()
		if len(buf) == 0 || (tick == sent && sent != 0) {
			continue
		}
		sent = tick

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
		if _, err := w.Write(buf); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
