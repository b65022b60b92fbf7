// Package ocr recognizes text in receipt images.
//
// Recognition is optional. When no engine is configured Detect returns a
// nil Engine and callers skip recognition.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrUnavailable means no recognition engine can be used.
	ErrUnavailable = errors.New("text recognition unavailable")
	// ErrRecognition means the engine ran and failed on this image.
	ErrRecognition = errors.New("text recognition failed")
)

// Engine extracts text from image bytes.
type Engine interface {
	ExtractText(ctx context.Context, img []byte) (string, error)
	Name() string
}

const (
	ModeAuto      = "auto"
	ModeTesseract = "tesseract"
	ModeHTTP      = "http"
	ModeNone      = "none"
)

// Config selects and parameterizes an engine.
type Config struct {
	Mode           string // auto, tesseract, http or none
	TesseractPath  string
	TesseractLangs string
	URL            string
	APIKey         string
	Model          string
	Timeout        time.Duration
}

// ValidateImage checks that img decodes as PNG, JPEG or GIF and returns the
// format name.
func ValidateImage(img []byte) (string, error) {
	if len(img) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrRecognition)
	}
	_, format, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("%w: decode image: %v", ErrRecognition, err)
	}
	return format, nil
}

// Detect checks which engine can run on this host. In auto mode the local
// tesseract binary wins over a remote endpoint. A nil Engine with a nil
// error means recognition is switched off.
func Detect(cfg Config) (Engine, error) {
	return detect(cfg, exec.LookPath)
}

func detect(cfg Config, lookPath func(string) (string, error)) (Engine, error) {
	bin := cfg.TesseractPath
	if bin == "" {
		bin = "tesseract"
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case ModeNone:
		return nil, nil
	case ModeTesseract:
		path, err := lookPath(bin)
		if err != nil {
			return nil, fmt.Errorf("%w: %s not found: %v", ErrUnavailable, bin, err)
		}
		return NewTesseract(path, cfg.TesseractLangs), nil
	case ModeHTTP:
		if cfg.URL == "" {
			return nil, fmt.Errorf("%w: OCR_URL is empty", ErrUnavailable)
		}
		return NewHTTPEngine(cfg.URL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	case ModeAuto, "":
		if path, err := lookPath(bin); err == nil {
			return NewTesseract(path, cfg.TesseractLangs), nil
		}
		if cfg.URL != "" {
			return NewHTTPEngine(cfg.URL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown OCR engine %q", cfg.Mode)
}
