package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/teamfinger/internal/sketch"
	"github.com/ayusman/teamfinger/internal/store"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List and save sketch presets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and stored presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		return listPresets(cmd, st)
	},
}

var presetsSaveCmd = &cobra.Command{
	Use:   "save FILE",
	Short: "Store the preset record in a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := readPreset(args[0])
		if err != nil {
			return err
		}
		saved, err := savePreset(st, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", saved.Name, saved.ID)
		return nil
	},
}

func init() {
	presetsCmd.AddCommand(presetsListCmd, presetsSaveCmd)
	rootCmd.AddCommand(presetsCmd)
}

func listPresets(cmd *cobra.Command, st *store.Store) error {
	active, _ := st.Settings().Get(store.SettingActivePreset)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEFFECT\tALPHA\tSOURCE\t")
	row := func(p sketch.Preset, source string) {
		name := p.Name
		if name == active {
			name += " *"
		}
		fmt.Fprintf(w, "%s\t%s\t%g\t%s\t\n", name, p.Effect.Kind, p.SmoothingAlpha, source)
	}
	for _, name := range sketch.Builtins() {
		p, _ := sketch.Lookup(name)
		row(p, "builtin")
	}

	stored, err := st.Presets().List()
	if err != nil {
		return err
	}
	for _, p := range stored {
		row(p.Config, "stored")
	}
	return w.Flush()
}

func readPreset(path string) (sketch.Preset, error) {
	var p sketch.Preset
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// savePreset creates p, or replaces the stored preset of the same name.
func savePreset(st *store.Store, p sketch.Preset) (*store.Preset, error) {
	if _, err := sketch.Lookup(p.Name); err == nil {
		return nil, fmt.Errorf("%q is a built-in preset name", p.Name)
	}

	existing, err := st.Presets().GetByName(p.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		rec := &store.Preset{Name: p.Name, Config: p}
		return rec, st.Presets().Create(rec)
	case err != nil:
		return nil, err
	}
	existing.Config = p
	return existing, st.Presets().Update(existing)
}
