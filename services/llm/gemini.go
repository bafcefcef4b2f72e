// Copyright (C) 2025 Bakutransit Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides the language-model client used for intent
// classification and response generation.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// ErrRateLimited is returned when the upstream model API signals
// throttling (HTTP 429). Callers decide the retry policy.
var ErrRateLimited = errors.New("llm: rate limited")

// Message is one turn of a conversation sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client generates text from prompts or conversations. Implementations
// must be safe for concurrent use.
type Client interface {
	// Generate produces text for a single prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Chat produces the next model turn for a conversation.
	Chat(ctx context.Context, messages []Message) (string, error)
}

// GeminiClient implements Client over the Gemini REST API
// (generateContent).
//
// Thread Safety: GeminiClient is safe for concurrent use.
type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewGeminiClient creates a GeminiClient from environment variables
// (GEMINI_API_KEY, GEMINI_MODEL). Defaults to "gemini-1.5-flash" when
// GEMINI_MODEL is not set.
func NewGeminiClient() (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is missing (GEMINI_API_KEY)")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-1.5-flash"
		slog.Info("GEMINI_MODEL not set, defaulting to gemini-1.5-flash")
	}

	return NewGeminiClientWithConfig(apiKey, model, "https://generativelanguage.googleapis.com/v1beta"), nil
}

// NewGeminiClientWithConfig creates a GeminiClient with explicit
// configuration. Useful for tests with mock servers.
func NewGeminiClientWithConfig(apiKey, model, baseURL string) *GeminiClient {
	return &GeminiClient{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
	}
}

// geminiRequest is the request payload for the generateContent API.
type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Generate implements Client.Generate.
func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	return g.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}})
}

// RoleUser and RoleModel are the conversation roles the Gemini API
// understands.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Chat implements Client.Chat using the generateContent endpoint. An HTTP
// 429 maps to ErrRateLimited.
func (g *GeminiClient) Chat(ctx context.Context, messages []Message) (string, error) {
	contents := make([]geminiContent, 0, len(messages))
	for _, msg := range messages {
		contents = append(contents, geminiContent{
			Role:  msg.Role,
			Parts: []geminiPart{{Text: msg.Content}},
		})
	}

	reqBody, err := json.Marshal(geminiRequest{Contents: contents})
	if err != nil {
		return "", fmt.Errorf("gemini: marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("gemini: creating HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	slog.Debug("Sending request to Gemini",
		slog.String("model", g.model),
		slog.Int("content_count", len(contents)),
	)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gemini: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("gemini: reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("gemini: API returned status 429: %w", ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: API returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return "", fmt.Errorf("gemini: parsing response JSON: %w", err)
	}
	if apiResp.Error != nil {
		if apiResp.Error.Code == http.StatusTooManyRequests {
			return "", fmt.Errorf("gemini: API error %s: %w", apiResp.Error.Status, ErrRateLimited)
		}
		return "", fmt.Errorf("gemini: API error [%d] %s: %s", apiResp.Error.Code, apiResp.Error.Status, apiResp.Error.Message)
	}
	if len(apiResp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: returned no candidates")
	}

	var textParts []string
	for _, part := range apiResp.Candidates[0].Content.Parts {
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
	}

	result := strings.Join(textParts, "")
	if result == "" {
		return "", fmt.Errorf("gemini: returned empty text content")
	}

	slog.Debug("Received Gemini response",
		slog.String("model", g.model),
		slog.Int("response_len", len(result)),
	)
	return result, nil
}
