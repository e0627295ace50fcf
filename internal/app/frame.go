package app

import (
	"sync"
	"time"

	"github.com/ayusman/teamfinger/internal/mapping"
)

// HitState describes the element under the cursor.
type HitState struct {
	Element string `json:"element,omitempty"`
	Tag     string `json:"tag"`
	Block   string `json:"block,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

// FrameState is the published, immutable view of one tick.
type FrameState struct {
	Tick    uint64         `json:"tick"`
	State   State          `json:"state"`
	Preset  string         `json:"preset"`
	Effects bool           `json:"effects"`
	Hand    bool           `json:"hand"`
	Pointer *mapping.Point `json:"pointer,omitempty"`
	Cursor  mapping.Point  `json:"cursor"`
	Hit     *HitState      `json:"hit,omitempty"`
	Changed bool           `json:"changed"`
	At      time.Time      `json:"at"`
}

func (s *Session) frameState(state State, effects, changed bool) FrameState {
	fs := FrameState{
		Tick:    s.ticks,
		State:   state,
		Preset:  s.scene.Preset.Name,
		Effects: effects,
		Hand:    s.hasPointer,
		Cursor:  s.cursor.Position(),
		Changed: changed,
		At:      time.Now(),
	}
	if s.hasPointer {
		p := s.pointer
		fs.Pointer = &p
	}
	if s.hasHit {
		hs := &HitState{Element: s.hit.Element.ID, Tag: s.hit.Element.Tag}
		if b := s.hit.Block(); b != nil {
			hs.Block = b.ID
		}
		if i, ok := s.hit.Index(); ok {
			hs.Index = &i
		}
		fs.Hit = hs
	}
	return fs
}

// hub fans frame states out to subscribers. Slow subscribers miss
// frames rather than stall the loop.
type hub struct {
	mu   sync.Mutex
	subs map[chan FrameState]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan FrameState]struct{})}
}

func (h *hub) subscribe() (<-chan FrameState, func()) {
	ch := make(chan FrameState, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *hub) publish(fs FrameState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- fs:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
