package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ayusman/teamfinger/internal/app"
	"github.com/ayusman/teamfinger/internal/latent"
	"github.com/ayusman/teamfinger/internal/mapping"
	"github.com/ayusman/teamfinger/internal/metrics"
	"github.com/ayusman/teamfinger/internal/sketch"
	"github.com/ayusman/teamfinger/internal/store"
)

// fakeLoop stands in for a running app.App.
type fakeLoop struct {
	mu      sync.Mutex
	sketch  sketch.Preset
	enabled bool
	state   app.State
	last    app.FrameState
	jpeg    []byte
	subs    []chan app.FrameState
}

func newFakeLoop() *fakeLoop {
	p, _ := sketch.Lookup("gradient")
	return &fakeLoop{sketch: p, enabled: true, state: app.StateRunning}
}

func (l *fakeLoop) Sketch() sketch.Preset {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sketch
}

func (l *fakeLoop) SetSketch(p sketch.Preset) error {
	if err := p.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sketch = p
	return nil
}

func (l *fakeLoop) SetEnabled(b bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = b
}

func (l *fakeLoop) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *fakeLoop) State() app.State { return l.state }

func (l *fakeLoop) Snapshot() app.FrameState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

func (l *fakeLoop) JPEG() ([]byte, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.jpeg, l.last.Tick
}

func (l *fakeLoop) Subscribe() (<-chan app.FrameState, func()) {
	ch := make(chan app.FrameState, 4)
	l.mu.Lock()
	l.subs = append(l.subs, ch)
	l.mu.Unlock()
	return ch, func() {}
}

func (l *fakeLoop) publish(fs app.FrameState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = fs
	for _, ch := range l.subs {
		ch <- fs
	}
}

func (l *fakeLoop) subscribers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs)
}

// solidGenerator paints a grey level equal to the first latent value.
type solidGenerator struct{}

func (solidGenerator) Dim() int     { return 4 }
func (solidGenerator) Close() error { return nil }
func (solidGenerator) Generate(v latent.Vector) (image.Image, error) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, r io.Reader, v any) {
	t.Helper()
	if err := json.NewDecoder(r).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestServer_Health(t *testing.T) {
	t.Run("without loop", func(t *testing.T) {
		rec := do(t, New(Config{}), http.MethodGet, "/api/health", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %s, want application/json", ct)
		}

		var resp map[string]any
		decode(t, rec.Body, &resp)
		if resp["status"] != "ok" {
			t.Errorf("status = %v, want ok", resp["status"])
		}
		if _, ok := resp["uptime"]; !ok {
			t.Error("expected 'uptime' field in response")
		}
		if _, ok := resp["loop"]; ok {
			t.Error("'loop' should be omitted without a loop")
		}
	})

	t.Run("reports loop state", func(t *testing.T) {
		rec := do(t, New(Config{Loop: newFakeLoop()}), http.MethodGet, "/api/health", "")
		var resp healthResponse
		decode(t, rec.Body, &resp)
		if resp.Loop != app.StateRunning.String() {
			t.Errorf("loop = %s, want %s", resp.Loop, app.StateRunning)
		}
	})

	t.Run("only allows GET", func(t *testing.T) {
		s := New(Config{})
		for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			if code := do(t, s, m, "/api/health", "").Code; code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: status = %d, want %d", m, code, http.StatusMethodNotAllowed)
			}
		}
	})
}

func TestServer_NotFound(t *testing.T) {
	s := New(Config{})
	for _, path := range []string{"/api/nonexistent", "/", "/api/stream"} {
		if code := do(t, s, http.MethodGet, path, "").Code; code != http.StatusNotFound {
			t.Errorf("GET %s: status = %d, want %d", path, code, http.StatusNotFound)
		}
	}
}

func TestServer_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	index := "<html><body>pointer</body></html>"
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "style.css"), []byte("body{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(Config{StaticDir: dir})

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/", http.StatusOK, index},
		{"/style.css", http.StatusOK, "body{}"},
		{"/missing.html", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.path, "")
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	m := metrics.New()
	m.Ticks.Inc()
	rec := do(t, New(Config{Metrics: m}), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "teamfinger_ticks_total 1") {
		t.Error("metrics output missing teamfinger_ticks_total 1")
	}
}

func TestAPI_PresetWorkflow(t *testing.T) {
	st := newTestStore(t)
	loop := newFakeLoop()
	ts := httptest.NewServer(New(Config{Store: st, Loop: loop}))
	defer ts.Close()
	client := ts.Client()

	// 1. Create a preset
	body := `{"name":"soft","config":{"smoothing_alpha":0.2,"mirror":true,
		"effect":{"kind":"none"},"cursor":{"radius":6,"color":"#112233","accent":"#445566"}}}`
	resp, err := client.Post(ts.URL+"/api/presets", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/presets error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	decode(t, resp.Body, &created)
	resp.Body.Close()
	if created.Name != "soft" {
		t.Errorf("created name = %s, want soft", created.Name)
	}

	// 2. Same name again
	resp, err = client.Post(ts.URL+"/api/presets", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST duplicate error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate status = %d, want %d", resp.StatusCode, http.StatusConflict)
	}

	// 3. List built-ins plus the stored preset
	resp, err = client.Get(ts.URL + "/api/presets")
	if err != nil {
		t.Fatalf("GET /api/presets error = %v", err)
	}
	var listed struct {
		Presets []struct {
			ID      string `json:"id"`
			Builtin bool   `json:"builtin"`
		} `json:"presets"`
	}
	decode(t, resp.Body, &listed)
	resp.Body.Close()
	if want := len(sketch.Builtins()) + 1; len(listed.Presets) != want {
		t.Errorf("len(presets) = %d, want %d", len(listed.Presets), want)
	}

	// 4. Activate switches the loop and remembers the choice
	resp, err = client.Post(ts.URL+"/api/presets/"+created.ID+"/activate", "application/json", nil)
	if err != nil {
		t.Fatalf("activate error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("activate status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := loop.Sketch().Name; got != "soft" {
		t.Errorf("running sketch = %s, want soft", got)
	}
	if active, err := st.Settings().Get(store.SettingActivePreset); err != nil || active != "soft" {
		t.Errorf("active preset = %q, %v; want soft", active, err)
	}

	// 5. Built-ins activate by name
	resp, err = client.Post(ts.URL+"/api/presets/highlight/activate", "application/json", nil)
	if err != nil {
		t.Fatalf("activate builtin error = %v", err)
	}
	resp.Body.Close()
	if got := loop.Sketch().Effect.Kind; got != sketch.EffectHighlight {
		t.Errorf("effect = %s, want %s", got, sketch.EffectHighlight)
	}

	// 6. Delete
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/presets/"+created.ID, nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	// 7. Verify deleted
	resp, err = client.Get(ts.URL + "/api/presets/" + created.ID)
	if err != nil {
		t.Fatalf("GET after delete error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestAPI_PresetValidation(t *testing.T) {
	s := New(Config{Store: newTestStore(t), Loop: newFakeLoop()})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"missing name", `{"config":{}}`, http.StatusBadRequest},
		{"builtin name", `{"name":"gradient","config":{}}`, http.StatusConflict},
		{"bad alpha", `{"name":"x","config":{"smoothing_alpha":3,"effect":{"kind":"none"},
			"cursor":{"color":"#000000","accent":"#000000"}}}`, http.StatusBadRequest},
		{"unknown effect", `{"name":"y","config":{"smoothing_alpha":0.5,"effect":{"kind":"sparkle"},
			"cursor":{"color":"#000000","accent":"#000000"}}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := do(t, s, http.MethodPost, "/api/presets", tt.body).Code; code != tt.code {
				t.Errorf("status = %d, want %d", code, tt.code)
			}
		})
	}

	if code := do(t, s, http.MethodPost, "/api/presets/nope/activate", "").Code; code != http.StatusNotFound {
		t.Errorf("activate unknown: status = %d, want %d", code, http.StatusNotFound)
	}
}

func TestAPI_UpdatePreset(t *testing.T) {
	st := newTestStore(t)
	cfg, _ := sketch.Lookup("pointer")
	p := &store.Preset{Name: "mine", Config: cfg}
	if err := st.Presets().Create(p); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	s := New(Config{Store: st})
	cfg.SmoothingAlpha = 0.3
	data, _ := json.Marshal(map[string]any{"name": "renamed", "config": cfg})
	if code := do(t, s, http.MethodPut, "/api/presets/"+p.ID, string(data)).Code; code != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", code, http.StatusOK)
	}

	got, err := st.Presets().GetByID(p.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "renamed" || got.Config.SmoothingAlpha != 0.3 {
		t.Errorf("updated = %s alpha %v, want renamed alpha 0.3", got.Name, got.Config.SmoothingAlpha)
	}

	if code := do(t, s, http.MethodPut, "/api/presets/nope", string(data)).Code; code != http.StatusNotFound {
		t.Errorf("PUT unknown: status = %d, want %d", code, http.StatusNotFound)
	}
}

func TestAPI_WithoutLoop(t *testing.T) {
	s := New(Config{Store: newTestStore(t)})
	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/presets/gradient/activate"},
		{http.MethodGet, "/api/sketch"},
	} {
		if code := do(t, s, r.method, r.path, "").Code; code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: status = %d, want %d", r.method, r.path, code, http.StatusServiceUnavailable)
		}
	}
}

func TestAPI_Effects(t *testing.T) {
	loop := newFakeLoop()
	s := New(Config{Store: newTestStore(t), Loop: loop})

	if code := do(t, s, http.MethodPut, "/api/effects", `{"enabled":false}`).Code; code != http.StatusOK {
		t.Fatalf("PUT /api/effects status = %d", code)
	}
	if loop.IsEnabled() {
		t.Error("effects should be disabled")
	}

	rec := do(t, s, http.MethodGet, "/api/sketch", "")
	var resp struct {
		Sketch  sketch.Preset `json:"sketch"`
		Effects bool          `json:"effects"`
	}
	decode(t, rec.Body, &resp)
	if resp.Sketch.Name != "gradient" || resp.Effects {
		t.Errorf("GET /api/sketch = %s effects %v, want gradient effects false", resp.Sketch.Name, resp.Effects)
	}
}

func TestAPI_Latent(t *testing.T) {
	m := metrics.New()
	st := newTestStore(t)
	walk := latent.NewWalk(solidGenerator{}, 42)
	s := New(Config{Store: st, Walk: walk, Metrics: m})

	t.Run("png at t", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/latent?t=0.25", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Content-Type = %s, want image/png", ct)
		}
		img, err := png.Decode(rec.Body)
		if err != nil {
			t.Fatalf("png.Decode() error = %v", err)
		}
		if got := color.GrayModel.Convert(img.At(0, 0)).(color.Gray); got.Y != 128 {
			t.Errorf("pixel = %d, want 128", got.Y)
		}
		if n := testutil.ToFloat64(m.GeneratedImages); n != 1 {
			t.Errorf("generated images = %v, want 1", n)
		}
	})

	t.Run("t outside the slider", func(t *testing.T) {
		for _, q := range []string{"abc", "1.5", "-0.1", "NaN", "Inf"} {
			if code := do(t, s, http.MethodGet, "/api/latent?t="+q, "").Code; code != http.StatusBadRequest {
				t.Errorf("t=%s: status = %d, want %d", q, code, http.StatusBadRequest)
			}
		}
	})

	t.Run("bookmarks use the walk seed", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/latent/bookmarks", `{"name":"mid","t":0.5}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("POST status = %d, want %d", rec.Code, http.StatusCreated)
		}

		rec = do(t, s, http.MethodGet, "/api/latent/bookmarks", "")
		var resp struct {
			Bookmarks []store.Bookmark `json:"bookmarks"`
		}
		decode(t, rec.Body, &resp)
		if len(resp.Bookmarks) != 1 {
			t.Fatalf("len(bookmarks) = %d, want 1", len(resp.Bookmarks))
		}
		if resp.Bookmarks[0].Seed != 42 {
			t.Errorf("seed = %d, want 42", resp.Bookmarks[0].Seed)
		}

		if code := do(t, s, http.MethodDelete, "/api/latent/bookmarks/"+resp.Bookmarks[0].ID, "").Code; code != http.StatusNoContent {
			t.Errorf("DELETE status = %d, want %d", code, http.StatusNoContent)
		}
	})

	t.Run("no generator", func(t *testing.T) {
		if code := do(t, New(Config{}), http.MethodGet, "/api/latent", "").Code; code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", code, http.StatusServiceUnavailable)
		}
	})
}

func TestStream_WritesFrames(t *testing.T) {
	loop := newFakeLoop()
	loop.jpeg = []byte{0xFF, 0xD8, 0xFF, 0xD9}
	loop.last = app.FrameState{Tick: 3}

	ts := httptest.NewServer(New(Config{Loop: loop}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/stream")
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %s, want multipart/x-mixed-replace", ct)
	}

	buf := make([]byte, 0, 256)
	chunk := make([]byte, 64)
	for !bytes.Contains(buf, loop.jpeg) {
		n, err := resp.Body.Read(chunk)
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		buf = append(buf, chunk[:n]...)
	}
	for _, want := range []string{"--frame", "Content-Length: 4"} {
		if !strings.Contains(string(buf), want) {
			t.Errorf("stream missing %q", want)
		}
	}
}

func TestState_WebSocket(t *testing.T) {
	loop := newFakeLoop()
	loop.last = app.FrameState{Tick: 1, State: app.StateRunning}

	ts := httptest.NewServer(New(Config{Loop: loop}))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/state"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first app.FrameState
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read first state: %v", err)
	}
	if first.Tick != 1 {
		t.Errorf("first tick = %d, want 1", first.Tick)
	}

	deadline := time.Now().Add(2 * time.Second)
	for loop.subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	p := mapping.Point{X: 10, Y: 20}
	loop.publish(app.FrameState{Tick: 2, Hand: true, Pointer: &p})

	var next struct {
		Tick    uint64         `json:"tick"`
		Hand    bool           `json:"hand"`
		Pointer *mapping.Point `json:"pointer"`
	}
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read next state: %v", err)
	}
	if next.Tick != 2 || !next.Hand {
		t.Errorf("next = tick %d hand %v, want tick 2 hand true", next.Tick, next.Hand)
	}
	if next.Pointer == nil || next.Pointer.X != 10 {
		t.Errorf("pointer = %+v, want x 10", next.Pointer)
	}
}
