package latent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest describes a generator model on disk. JSON manifests parse
// too, since JSON is valid YAML.
type Manifest struct {
	Model        string `yaml:"model" json:"model"`
	Config       string `yaml:"config,omitempty" json:"config,omitempty"`
	LatentDim    int    `yaml:"latent_dim" json:"latent_dim"`
	OutputWidth  int    `yaml:"output_width" json:"output_width"`
	OutputHeight int    `yaml:"output_height" json:"output_height"`
	Seed         uint64 `yaml:"seed" json:"seed"`
	// Range is the value span of the network output, "tanh" for [-1, 1]
	// or "unit" for [0, 1].
	Range string `yaml:"range,omitempty" json:"range,omitempty"`
}

// LoadManifest reads a manifest and resolves model paths against the
// manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m := &Manifest{LatentDim: DefaultDim, Range: "tanh"}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	m.Model = resolve(dir, m.Model)
	if m.Config != "" {
		m.Config = resolve(dir, m.Config)
	}
	return m, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func (m *Manifest) Validate() error {
	var errs []error
	if m.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if m.LatentDim <= 0 {
		errs = append(errs, fmt.Errorf("%w: latent_dim %d", ErrDimension, m.LatentDim))
	}
	if m.OutputWidth <= 0 || m.OutputHeight <= 0 {
		errs = append(errs, fmt.Errorf("output size %dx%d", m.OutputWidth, m.OutputHeight))
	}
	if m.Range != "tanh" && m.Range != "unit" {
		errs = append(errs, fmt.Errorf("unknown range %q", m.Range))
	}
	return errors.Join(errs...)
}
