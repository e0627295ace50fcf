package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

const scriptName = "hand_service.py"

// MediaPipeDetector runs hand landmark inference in a Python
// subprocess. Frames go out as 4-byte big-endian length plus JPEG;
// results come back as one JSON line per frame.
type MediaPipeDetector struct {
	config Config
	logger *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	ready  bool
}

func NewMediaPipeDetector(config Config, logger *slog.Logger) (*MediaPipeDetector, error) {
	if config.Script == "" {
		config.Script = findScript()
	}
	if config.Script == "" {
		return nil, fmt.Errorf("%w: %s not found", ErrModelLoad, scriptName)
	}
	if config.Python == "" {
		config.Python = findVenvPython()
	}
	if config.Python == "" {
		config.Python = "python3"
	}
	return &MediaPipeDetector{config: config, logger: logger}, nil
}

// Load starts the service and blocks until it reports the model ready.
func (d *MediaPipeDetector) Load(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ready {
		return nil
	}

	cmd := exec.CommandContext(ctx, d.config.Python, d.config.Script,
		"--max-hands", strconv.Itoa(max(d.config.MaxHands, 1)),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64),
	)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrModelLoad, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", ErrModelLoad, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", ErrModelLoad, d.config.Script, err)
	}

	reader := bufio.NewReader(stdout)
	lines := make(chan readyLine, 1)
	go func() {
		line, err := reader.ReadBytes('\n')
		lines <- readyLine{line, err}
	}()

	select {
	case <-ctx.Done():
		stdin.Close()
		cmd.Wait()
		return ctx.Err()
	case rl := <-lines:
		if err := parseReady(rl); err != nil {
			stdin.Close()
			cmd.Wait()
			return err
		}
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = reader
	d.ready = true
	d.logger.Info("hand model ready", "script", d.config.Script, "pid", cmd.Process.Pid)
	return nil
}

type readyLine struct {
	data []byte
	err  error
}

func parseReady(rl readyLine) error {
	if rl.err != nil {
		return fmt.Errorf("%w: waiting for ready: %v", ErrModelLoad, rl.err)
	}
	var msg struct {
		Ready bool   `json:"ready"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rl.data, &msg); err != nil {
		return fmt.Errorf("%w: bad ready line: %v", ErrModelLoad, err)
	}
	if !msg.Ready {
		return fmt.Errorf("%w: %s", ErrModelLoad, msg.Error)
	}
	return nil
}

// Detect returns hands with landmarks scaled to the frame's pixels.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.ready {
		return nil, fmt.Errorf("%w: detector not loaded", ErrModelLoad)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	data := buf.GetBytes()

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := d.stdin.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeHands(line, float64(frame.Cols()), float64(frame.Rows()), d.config)
}

func decodeHands(line []byte, width, height float64, cfg Config) ([]HandLandmarks, error) {
	var resp struct {
		Hands []HandLandmarks `json:"hands"`
		Error string          `json:"error"`
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("hand service: %s", resp.Error)
	}
	hands := cfg.filter(resp.Hands)
	for i := range hands {
		hands[i].Scale(width, height)
	}
	return hands, nil
}

// Close stops the service.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cmd == nil {
		return nil
	}
	d.stdin.Close()
	err := d.cmd.Wait()
	d.cmd, d.stdin, d.stdout = nil, nil, nil
	d.ready = false
	return err
}

func findScript() string {
	var execDir string
	if p, err := os.Executable(); err == nil {
		execDir = filepath.Dir(p)
	}
	home, _ := os.UserHomeDir()
	return firstExisting(
		filepath.Join("scripts", scriptName),
		filepath.Join("..", "scripts", scriptName),
		filepath.Join(execDir, "scripts", scriptName),
		filepath.Join(home, ".teamfinger", "scripts", scriptName),
	)
}

func findVenvPython() string {
	var execDir string
	if p, err := os.Executable(); err == nil {
		execDir = filepath.Dir(p)
	}
	home, _ := os.UserHomeDir()
	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(home, ".teamfinger", "venv", "bin", "python"),
	)
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return ""
}
