package tray

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTray_Toggle(t *testing.T) {
	tr := New([]string{"gradient"}, "gradient")
	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	assert.True(t, tr.IsEnabled())
	tr.handleToggle()
	tr.handleToggle()

	assert.True(t, tr.IsEnabled())
	assert.Equal(t, []bool{false, true}, got)
}

func TestTray_Preset(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "switches", want: "highlight"},
		{name: "keeps previous on error", err: errors.New("bad preset"), want: "gradient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New([]string{"gradient", "highlight"}, "gradient")
			var asked string
			tr.OnPreset(func(name string) error {
				asked = name
				return tt.err
			})

			tr.handlePreset("highlight")
			assert.Equal(t, "highlight", asked)
			assert.Equal(t, tt.want, tr.Active())
		})
	}
}

func TestTray_Open(t *testing.T) {
	tr := New(nil, "")
	opened := 0
	tr.OnOpen(func() { opened++ })
	tr.handleOpen()
	assert.Equal(t, 1, opened)

	// No panic before the menu exists.
	tr.SetStatus("running")
}
