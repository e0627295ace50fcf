package latent

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Generator turns a latent vector into an image.
type Generator interface {
	Generate(v Vector) (image.Image, error)
	Dim() int
	Close() error
}

// DNNGenerator runs the model through OpenCV's DNN module.
type DNNGenerator struct {
	manifest *Manifest

	mu  sync.Mutex
	net gocv.Net
}

// Load reads the manifest at path and loads its network.
func Load(path string) (*DNNGenerator, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(m.Model); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	net := gocv.ReadNet(m.Model, m.Config)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("load model %s: network is empty", m.Model)
	}
	return &DNNGenerator{manifest: m, net: net}, nil
}

func (g *DNNGenerator) Dim() int { return g.manifest.LatentDim }

func (g *DNNGenerator) Manifest() Manifest { return *g.manifest }

// Generate feeds v as a 1xN float32 blob and decodes the NCHW output.
func (g *DNNGenerator) Generate(v Vector) (image.Image, error) {
	if len(v) != g.manifest.LatentDim {
		return nil, fmt.Errorf("%w: got %d, model takes %d", ErrDimension, len(v), g.manifest.LatentDim)
	}

	raw := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(float32(x)))
	}
	blob, err := gocv.NewMatFromBytes(1, len(v), gocv.MatTypeCV32F, raw)
	if err != nil {
		return nil, fmt.Errorf("latent blob: %w", err)
	}
	defer blob.Close()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.net.SetInput(blob, "")
	out := g.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}
	return TensorImage(data, g.manifest.OutputWidth, g.manifest.OutputHeight, g.manifest.Range)
}

func (g *DNNGenerator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.net.Close()
}

// TensorImage converts a CHW tensor with one or three channels into an
// image. Values span [-1, 1] for "tanh" and [0, 1] for "unit".
func TensorImage(data []float32, width, height int, valueRange string) (image.Image, error) {
	plane := width * height
	if plane <= 0 {
		return nil, errors.New("empty output size")
	}
	channels := len(data) / plane
	if len(data)%plane != 0 || (channels != 1 && channels != 3) {
		return nil, fmt.Errorf("%w: %d values for %dx%d output", ErrDimension, len(data), width, height)
	}

	toByte := func(x float32) uint8 {
		f := float64(x)
		if valueRange == "tanh" {
			f = (f + 1) / 2
		}
		return uint8(math.Round(math.Max(0, math.Min(1, f)) * 255))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			r := toByte(data[i])
			gr, b := r, r
			if channels == 3 {
				gr = toByte(data[plane+i])
				b = toByte(data[2*plane+i])
			}
			img.SetRGBA(x, y, color.RGBA{R: r, G: gr, B: b, A: 255})
		}
	}
	return img, nil
}
