package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/HammerMeetNail/resumebuilder/internal/config"
	"github.com/HammerMeetNail/resumebuilder/internal/logging"
)

// Generator produces a raw completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, UsageStats, error)
}

type UsageStats struct {
	Model        string
	TokensInput  int
	TokensOutput int
	Duration     time.Duration
}

// GenerationConfig holds the sampling parameters sent with every request.
type GenerationConfig struct {
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

// DefaultGenerationConfig is used when configuration leaves a value unset.
var DefaultGenerationConfig = GenerationConfig{
	Temperature:     0.7,
	TopK:            40,
	TopP:            0.9,
	MaxOutputTokens: 300,
}

// GeminiClient calls the Gemini generateContent REST endpoint. It makes
// exactly one HTTP request per Generate call.
type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	gen     GenerationConfig
	client  *http.Client
}

func NewGeminiClient(cfg config.AIConfig) *GeminiClient {
	gen := GenerationConfig{
		Temperature:     cfg.Temperature,
		TopK:            cfg.TopK,
		TopP:            cfg.TopP,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
	if gen.TopK == 0 {
		gen.TopK = DefaultGenerationConfig.TopK
	}
	if gen.TopP == 0 {
		gen.TopP = DefaultGenerationConfig.TopP
	}
	if gen.MaxOutputTokens == 0 {
		gen.MaxOutputTokens = DefaultGenerationConfig.MaxOutputTokens
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	baseURL := strings.TrimRight(cfg.GeminiBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	}
	model := cfg.GeminiModel
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &GeminiClient{
		apiKey:  strings.TrimSpace(cfg.GeminiAPIKey),
		baseURL: baseURL,
		model:   model,
		gen:     gen,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *GeminiClient) Model() string {
	return c.model
}

// Gemini API Request/Response structs

type geminiRequest struct {
	Contents          []geminiContent          `json:"contents"`
	GenerationConfig  geminiGenerationConfig   `json:"generationConfig"`
	SafetySettings    []geminiSafetySetting    `json:"safetySettings"`
	SystemInstruction *geminiSystemInstruction `json:"systemInstruction,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiSystemInstruction struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Usage      geminiUsage       `json:"usageMetadata"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *GeminiClient) Generate(ctx context.Context, prompt Prompt) (string, UsageStats, error) {
	start := time.Now()
	stats := UsageStats{Model: c.model}

	if c.apiKey == "" {
		logging.FromContext(ctx).Warn("Gemini API key missing; AI generation unavailable")
		return "", stats, &ProviderError{Kind: ErrNotConfigured}
	}

	reqBody := geminiRequest{
		SystemInstruction: &geminiSystemInstruction{
			Parts: []geminiPart{{Text: prompt.System}},
		},
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: prompt.User}},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     c.gen.Temperature,
			TopK:            c.gen.TopK,
			TopP:            c.gen.TopP,
			MaxOutputTokens: c.gen.MaxOutputTokens,
		},
		SafetySettings: []geminiSafetySetting{
			{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
			{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", stats, &ProviderError{Kind: ErrUnexpected, Detail: "failed to marshal request"}
	}

	// Request metadata only; prompts carry user data.
	logging.FromContext(ctx).Info("Sending request to Gemini", map[string]interface{}{
		"model":         c.model,
		"prompt_length": len(prompt.User),
	})

	url := fmt.Sprintf("%s/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", stats, &ProviderError{Kind: ErrUnexpected, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	stats.Duration = time.Since(start)
	if err != nil {
		return "", stats, classifyTransportError(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		logging.FromContext(ctx).Error("Gemini non-200 response", map[string]interface{}{
			"status": resp.StatusCode,
			"body":   string(bodyBytes),
		})
		return "", stats, classifyStatus(resp.StatusCode, bodyBytes)
	}

	var geminiResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		if isTimeout(err) {
			return "", stats, &ProviderError{Kind: ErrTimeout, Detail: err.Error()}
		}
		return "", stats, &ProviderError{Kind: ErrUnexpected, StatusCode: resp.StatusCode, Detail: "failed to decode response"}
	}

	stats.TokensInput = geminiResp.Usage.PromptTokenCount
	stats.TokensOutput = geminiResp.Usage.CandidatesTokenCount
	stats.Duration = time.Since(start)

	if len(geminiResp.Candidates) == 0 {
		return "", stats, &ProviderError{Kind: ErrUnexpected, StatusCode: resp.StatusCode, Detail: "no candidates returned"}
	}

	candidate := geminiResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", stats, &ProviderError{Kind: ErrUnexpected, StatusCode: resp.StatusCode, Detail: "response blocked by safety filters"}
	}
	if len(candidate.Content.Parts) == 0 {
		return "", stats, &ProviderError{Kind: ErrUnexpected, StatusCode: resp.StatusCode, Detail: "empty content parts"}
	}

	text := candidate.Content.Parts[0].Text
	logging.FromContext(ctx).Info("Received response from Gemini", map[string]interface{}{
		"model":           c.model,
		"response_length": len(text),
		"tokens_input":    stats.TokensInput,
		"tokens_output":   stats.TokensOutput,
	})

	return text, stats, nil
}

func classifyStatus(status int, body []byte) *ProviderError {
	pe := &ProviderError{StatusCode: status}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		pe.Kind = ErrAuth
	case http.StatusTooManyRequests:
		pe.Kind = ErrRateLimited
	case http.StatusServiceUnavailable:
		pe.Kind = ErrOverloaded
	case http.StatusBadRequest:
		pe.Kind = ErrMalformedRequest
		var errBody geminiErrorBody
		if json.Unmarshal(body, &errBody) == nil && errBody.Error.Message != "" {
			pe.Detail = errBody.Error.Message
		} else {
			pe.Detail = strings.TrimSpace(string(body))
		}
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		pe.Kind = ErrTimeout
	default:
		pe.Kind = ErrUnexpected
	}
	return pe
}

func classifyTransportError(err error) *ProviderError {
	if isTimeout(err) {
		return &ProviderError{Kind: ErrTimeout, Detail: err.Error()}
	}
	return &ProviderError{Kind: ErrConnectivity, Detail: err.Error()}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
