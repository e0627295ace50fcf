package detector

import (
	"context"
	"errors"

	"gocv.io/x/gocv"
)

// ErrModelLoad is returned when the hand model cannot be made ready.
var ErrModelLoad = errors.New("hand model failed to load")

// Detector finds hands in a frame. No hand is an empty slice.
type Detector interface {
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)
	Close() error
}

// Loader is implemented by detectors with an explicit warm-up step.
type Loader interface {
	Load(ctx context.Context) error
}

// Config holds hand detection options.
type Config struct {
	MaxHands      int
	MinConfidence float64
	// Script is the path of the Python hand service. Empty searches the
	// usual install locations.
	Script string
	// Python is the interpreter. Empty prefers a local venv, then python3.
	Python string
}

func DefaultConfig() Config {
	return Config{
		MaxHands:      1,
		MinConfidence: 0.5,
	}
}

// filter drops hands below the confidence floor and caps the count.
func (c Config) filter(hands []HandLandmarks) []HandLandmarks {
	out := hands[:0]
	for _, h := range hands {
		if h.Score < c.MinConfidence {
			continue
		}
		out = append(out, h)
		if c.MaxHands > 0 && len(out) == c.MaxHands {
			break
		}
	}
	return out
}
