package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIClient implements the Client interface using OpenAI's chat API.
type OpenAIClient struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
}

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey  string
	APIURL  string // defaults to the OpenAI chat completions endpoint
	Model   string // e.g., "gpt-4o"
	Timeout time.Duration
}

// NewOpenAIClient creates a new OpenAI analysis client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = defaultOpenAIURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		apiURL:     apiURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// chatRequest represents an OpenAI chat completion request.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat requests a bare JSON object, so the content parses without
// any code-fence cleanup.
type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse represents an OpenAI chat completion response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze derives structured state from the full transcript. Malformed model
// output fails closed with *AnalysisError; no partial recovery is attempted.
func (c *OpenAIClient) Analyze(ctx context.Context, transcript string, knownIssues []string) (*AnalysisResult, error) {
	content, err := c.complete(ctx, analysisSystemPrompt, buildAnalysisPrompt(transcript, knownIssues), true)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.DisallowUnknownFields()

	var result AnalysisResult
	if err := dec.Decode(&result); err != nil {
		return nil, &AnalysisError{Msg: "failed to parse analysis result", Err: err}
	}

	// The sentiment enumeration is closed; anything else becomes null.
	if result.Emotion != nil && !ValidEmotion(*result.Emotion) {
		result.Emotion = nil
	}
	return &result, nil
}

// Diarize labels speaker turns in the transcript.
func (c *OpenAIClient) Diarize(ctx context.Context, transcript string) (string, error) {
	return c.complete(ctx, diarizationSystemPrompt, buildDiarizationPrompt(transcript), false)
}

func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userPrompt string, jsonOutput bool) (string, error) {
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.2,
	}
	if jsonOutput {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", &AnalysisError{Msg: "failed to marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", &AnalysisError{Msg: "failed to create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &AnalysisError{Msg: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &AnalysisError{Msg: fmt.Sprintf("API returned %s: %s", resp.Status, string(respBody))}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &AnalysisError{Msg: "failed to decode response", Err: err}
	}
	if len(chatResp.Choices) == 0 {
		return "", &AnalysisError{Msg: "no choices in response"}
	}
	return chatResp.Choices[0].Message.Content, nil
}
