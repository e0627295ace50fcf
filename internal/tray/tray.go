// Package tray puts the detection loop's controls in the system tray.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray is the system tray menu.
type Tray struct {
	presets []string

	onToggle func(enabled bool)
	onPreset func(name string) error
	onOpen   func()
	onQuit   func()
	enabled  bool
	active   string
	mu       sync.RWMutex

	menuToggle  *systray.MenuItem
	menuStatus  *systray.MenuItem
	menuPresets map[string]*systray.MenuItem
}

// New creates a Tray offering presets, with effects enabled and active
// marked as the running preset.
func New(presets []string, active string) *Tray {
	return &Tray{
		presets:     presets,
		enabled:     true,
		active:      active,
		menuPresets: make(map[string]*systray.MenuItem),
	}
}

// OnToggle sets the callback run when effects are switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnPreset sets the callback run when a preset is picked. A returned
// error leaves the previous preset checked.
func (t *Tray) OnPreset(fn func(name string) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPreset = fn
}

// OnOpen sets the callback run by "Open in browser".
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It blocks until Quit is called and must run on
// the main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray from another goroutine.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("teamfinger")
	systray.SetTooltip("Hand pointer sketches")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle pointer effects")
	systray.AddSeparator()

	t.menuStatus = systray.AddMenuItem("State: starting", "Detection loop state")
	t.menuStatus.Disable()
	systray.AddSeparator()

	menuPreset := systray.AddMenuItem("Preset", "Switch sketch preset")
	clicks := make(chan string)
	for _, name := range t.presets {
		item := menuPreset.AddSubMenuItem(name, "Run the "+name+" sketch")
		if name == t.active {
			item.Check()
		}
		t.menuPresets[name] = item
		go func(name string, item *systray.MenuItem) {
			for range item.ClickedCh {
				clicks <- name
			}
		}(name, item)
	}
	t.mu.Unlock()

	menuOpen := systray.AddMenuItem("Open in browser", "Open the web view")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit teamfinger")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case name := <-clicks:
				t.handlePreset(name)
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Effects on"
	}
	return "○ Effects off"
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Outside the lock so the callback may call back into the tray.
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handlePreset(name string) {
	t.mu.RLock()
	callback := t.onPreset
	t.mu.RUnlock()

	if callback != nil {
		if err := callback(name); err != nil {
			return
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = name
	for n, item := range t.menuPresets {
		if n == name {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// SetStatus shows the loop state in the menu.
func (t *Tray) SetStatus(state string) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuStatus != nil {
		t.menuStatus.SetTitle("State: " + state)
	}
}

// IsEnabled reports whether effects are on.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Active returns the checked preset.
func (t *Tray) Active() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}
