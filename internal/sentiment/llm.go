package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrLLMFailure covers provider errors, quota exhaustion and parse
// failures; the caller falls back to the lexicon for the whole batch.
var ErrLLMFailure = errors.New("sentiment: llm failure")

// moroccoSystemPrompt is the Morocco-contextual instruction given to the
// model: positive axis is international recognition, investment, job
// creation, Western Sahara sovereignty affirmations and diplomatic
// normalization; negative axis is sanctions, disinvestment, sovereignty
// contestation and social unrest. The model must emit a fixed four-field
// block.
const moroccoSystemPrompt = `You are a financial sentiment analyst scoring news for their impact on Moroccan economic and geopolitical confidence.

Positive signals: international recognition of Morocco's positions, new investment or job creation in Morocco, affirmations of Moroccan sovereignty over Western Sahara, diplomatic normalization with Morocco.

Negative signals: sanctions or diplomatic pressure against Morocco, disinvestment or plant closures, contestation of Moroccan sovereignty, social unrest or strikes.

Respond with exactly four lines, nothing else:
SCORE: <float from -1.0 to 1.0>
LABEL: <Very Negative|Negative|Neutral|Positive|Very Positive>
CONFIDENCE: <float from 0.0 to 1.0>
REASONING: <one sentence>`

// Client calls a chat-completion endpoint directly over HTTP; no SDK is
// used, matching the rest of the example pack's hand-rolled LLM calls.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	endpoint   string
}

// NewClient builds an LLM client. endpoint defaults to the OpenAI-style
// chat completions URL when empty.
func NewClient(apiKey, model, endpoint string) *Client {
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1/chat/completions"
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		model:      model,
		endpoint:   endpoint,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// LLMResult is the parsed four-field model output.
type LLMResult struct {
	Score      float64
	Label      string
	Confidence float64
	Reasoning  string
}

// ScoreArticle sends one chat-completion call and parses the fixed
// four-field block defensively.
func (c *Client) ScoreArticle(ctx context.Context, title, summary string) (LLMResult, error) {
	userPrompt := fmt.Sprintf("Title: %s\nSummary: %s", title, summary)

	reqBody, err := json.Marshal(chatRequest{
		Model:       c.model,
		Temperature: 0.2,
		Messages: []chatMessage{
			{Role: "system", Content: moroccoSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return LLMResult{}, fmt.Errorf("%w: %v", ErrLLMFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return LLMResult{}, fmt.Errorf("%w: %v", ErrLLMFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LLMResult{}, fmt.Errorf("%w: %v", ErrLLMFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LLMResult{}, fmt.Errorf("%w: status %d", ErrLLMFailure, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return LLMResult{}, fmt.Errorf("%w: decode: %v", ErrLLMFailure, err)
	}
	if len(parsed.Choices) == 0 {
		return LLMResult{}, fmt.Errorf("%w: empty response", ErrLLMFailure)
	}

	return parseBlock(parsed.Choices[0].Message.Content), nil
}

// parseBlock parses the SCORE/LABEL/CONFIDENCE/REASONING block
// defensively: missing fields default (score 0, confidence 0.5, label
// Neutral), score is clamped to [-1,1].
func parseBlock(text string) LLMResult {
	result := LLMResult{Score: 0, Label: "Neutral", Confidence: 0.5}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(strings.ToUpper(line), "SCORE:"):
			v, err := strconv.ParseFloat(strings.TrimSpace(line[len("SCORE:"):]), 64)
			if err == nil {
				result.Score = clamp(v, -1, 1)
			}
		case strings.HasPrefix(strings.ToUpper(line), "LABEL:"):
			result.Label = strings.TrimSpace(line[len("LABEL:"):])
		case strings.HasPrefix(strings.ToUpper(line), "CONFIDENCE:"):
			v, err := strconv.ParseFloat(strings.TrimSpace(line[len("CONFIDENCE:"):]), 64)
			if err == nil {
				result.Confidence = clamp(v, 0, 1)
			}
		case strings.HasPrefix(strings.ToUpper(line), "REASONING:"):
			result.Reasoning = strings.TrimSpace(line[len("REASONING:"):])
		}
	}

	return result
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
