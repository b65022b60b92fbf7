package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	defaultModel   = "typhoon-ocr"
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// HTTPEngine posts the image to a remote OCR endpoint.
type HTTPEngine struct {
	url    string
	apiKey string
	model  string
	client *http.Client
}

func NewHTTPEngine(url, apiKey, model string, timeout time.Duration) *HTTPEngine {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPEngine{
		url:    url,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

func (e *HTTPEngine) Name() string { return "http" }

func (e *HTTPEngine) ExtractText(ctx context.Context, img []byte) (string, error) {
	format, err := ValidateImage(img)
	if err != nil {
		return "", err
	}

	body, contentType, err := e.encodeRequest(img, format)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecognition, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, body)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", contentType)
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrRecognition, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrRecognition, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed ocrResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrRecognition, err)
	}
	return collectText(parsed)
}

func (e *HTTPEngine) encodeRequest(img []byte, format string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", "receipt."+format)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img); err != nil {
		return nil, "", err
	}

	params, err := json.Marshal(ocrParams{
		Model:       e.model,
		TaskType:    "default",
		MaxTokens:   16000,
		Temperature: 0.1,
		TopP:        0.6,
	})
	if err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("params", string(params)); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// collectText joins the content of every successful result in page order.
func collectText(resp ocrResponse) (string, error) {
	var parts []string
	for _, r := range resp.Results {
		if !r.Success || r.Message == nil {
			continue
		}
		for _, c := range r.Message.Choices {
			if s := strings.TrimSpace(c.Message.Content); s != "" {
				parts = append(parts, s)
			}
		}
	}
	if len(parts) == 0 && len(resp.Results) > 0 {
		return "", fmt.Errorf("%w: no page recognized", ErrRecognition)
	}
	return strings.Join(parts, "\n"), nil
}
