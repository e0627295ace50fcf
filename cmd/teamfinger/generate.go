package main

import (
	"errors"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/teamfinger/internal/latent"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render one image from the latent walk",
	Long: `Loads the generator manifest, interpolates between its two seeded latent
vectors at --t and writes the result as PNG.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if _, err := newLogger(cfg); err != nil {
			return err
		}

		manifest, _ := cmd.Flags().GetString("manifest")
		walk, closeWalk, err := loadWalk(cfg, manifest)
		if err != nil {
			return err
		}
		defer closeWalk()
		if walk == nil {
			return errors.New("no generator manifest: set generator.manifest or --manifest")
		}

		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			walk = latent.NewWalk(walk.Gen, seed)
		}

		t, _ := cmd.Flags().GetFloat64("t")
		img, err := walk.Image(t)
		if err != nil {
			return err
		}

		out, _ := cmd.Flags().GetString("output")
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return fmt.Errorf("encode %s: %w", out, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (t=%g)\n", out, t)
		return nil
	},
}

func init() {
	generateCmd.Flags().Float64("t", 0.5, "Slider position in [0, 1]")
	generateCmd.Flags().StringP("output", "o", "latent.png", "Output PNG path")
	generateCmd.Flags().String("manifest", "", "Generator manifest (default from config)")
	generateCmd.Flags().Uint64("seed", 0, "Override the manifest seed")
	rootCmd.AddCommand(generateCmd)
}
