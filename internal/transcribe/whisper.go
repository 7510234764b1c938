package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"localrag/internal/domain"
)

// WhisperClient transcribes audio through a local whisper server exposing
// the OpenAI-compatible /v1/audio/transcriptions endpoint (whisper.cpp
// server, faster-whisper-server and similar).
type WhisperClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// WhisperConfig configures the whisper client.
type WhisperConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewWhisperClient creates a client for the configured whisper server.
func NewWhisperClient(cfg WhisperConfig) *WhisperClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-1"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &WhisperClient{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Transcribe uploads one audio file and returns its transcription.
func (c *WhisperClient) Transcribe(ctx context.Context, filename string, audio []byte) (domain.Transcription, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return domain.Transcription{}, fmt.Errorf("whisper: build form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return domain.Transcription{}, fmt.Errorf("whisper: build form: %w", err)
	}
	_ = form.WriteField("model", c.model)
	_ = form.WriteField("response_format", "verbose_json")
	if err := form.Close(); err != nil {
		return domain.Transcription{}, fmt.Errorf("whisper: build form: %w", err)
	}

	url := c.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return domain.Transcription{}, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.Transcription{}, fmt.Errorf("whisper: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return domain.Transcription{}, fmt.Errorf("whisper: server returned %s: %s", resp.Status, payload)
	}

	var out struct {
		Text     string  `json:"text"`
		Language string  `json:"language"`
		Duration float64 `json:"duration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Transcription{}, fmt.Errorf("whisper: decode response: %w", err)
	}
	return domain.Transcription{
		Filename: filename,
		Text:     out.Text,
		Language: out.Language,
		Duration: out.Duration,
	}, nil
}
