package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultLangs covers English and Indonesian receipts.
const DefaultLangs = "eng+ind"

// Tesseract runs the tesseract CLI, feeding the image on stdin.
type Tesseract struct {
	path  string
	langs string
}

func NewTesseract(path, langs string) *Tesseract {
	if langs == "" {
		langs = DefaultLangs
	}
	return &Tesseract{path: path, langs: langs}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) ExtractText(ctx context.Context, img []byte) (string, error) {
	if _, err := ValidateImage(img); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, t.path, "stdin", "stdout", "-l", t.langs)
	cmd.Stdin = bytes.NewReader(img)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", ErrRecognition, ctx.Err())
		}
		return "", fmt.Errorf("%w: tesseract: %v: %s", ErrRecognition, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
