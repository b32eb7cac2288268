package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/stewardlabs/steward/internal/audio"
)

const defaultWhisperURL = "https://api.openai.com/v1/audio/transcriptions"

// WhisperClient implements the Client interface against a Whisper-compatible
// HTTP transcription API. Each window is wrapped in a mono 16kHz 16-bit WAV
// container and uploaded as multipart form data.
type WhisperClient struct {
	apiKey     string
	apiURL     string
	model      string
	sampleRate int
	httpClient *http.Client
}

// WhisperConfig holds configuration for the Whisper client.
type WhisperConfig struct {
	APIKey     string
	APIURL     string // defaults to the OpenAI transcription endpoint
	Model      string // e.g., "whisper-1"
	SampleRate int    // e.g., 16000
	Timeout    time.Duration
}

// NewWhisperClient creates a new Whisper transcription client.
func NewWhisperClient(cfg WhisperConfig) *WhisperClient {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultWhisperURL
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}
	sampleRate := cfg.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &WhisperClient{
		apiKey:     cfg.APIKey,
		apiURL:     apiURL,
		model:      model,
		sampleRate: sampleRate,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// whisperResponse is the verbose_json response body: full text plus the
// ordered segment list with per-segment timestamps.
type whisperResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

// Transcribe uploads one PCM window and returns its transcription. All
// failure modes collapse to *TranscriptionError; the caller treats the
// window as lost and continues.
func (c *WhisperClient) Transcribe(ctx context.Context, pcm []byte) (*Result, error) {
	wav, err := audio.EncodeWAV(pcm, c.sampleRate)
	if err != nil {
		return nil, &TranscriptionError{Msg: "failed to encode WAV", Err: err}
	}

	body, contentType, err := c.buildMultipart(wav)
	if err != nil {
		return nil, &TranscriptionError{Msg: "failed to build request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, body)
	if err != nil {
		return nil, &TranscriptionError{Msg: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TranscriptionError{Msg: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &TranscriptionError{
			Msg: fmt.Sprintf("API returned %s: %s", resp.Status, string(respBody)),
		}
	}

	var whisperResp whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&whisperResp); err != nil {
		return nil, &TranscriptionError{Msg: "failed to parse response", Err: err}
	}

	result := &Result{Text: whisperResp.Text}
	for _, seg := range whisperResp.Segments {
		result.Segments = append(result.Segments, TimedSegment{
			Text:  seg.Text,
			Start: seg.Start,
			End:   seg.End,
		})
	}
	return result, nil
}

func (c *WhisperClient) buildMultipart(wav []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", "segment.wav")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fileWriter.Write(wav); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := writer.WriteField("model", c.model); err != nil {
		return nil, "", fmt.Errorf("failed to write model field: %w", err)
	}
	// verbose_json includes the timestamped segments the merger depends on.
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", fmt.Errorf("failed to write response_format field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
