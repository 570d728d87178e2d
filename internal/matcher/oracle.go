package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"

	oracleSystemPrompt = "You are a word similarity checker. Determine if two single words are similar enough to be considered the same answer in a word game. Consider:\n" +
		"- Spelling variations (color/colour, theater/theatre)\n" +
		"- Plural/singular forms (dog/dogs)\n" +
		"- Common synonyms (car/automobile, dog/puppy)\n" +
		"- Different forms of the same word (run/running)\n\n" +
		"Respond with only 'YES' or 'NO'."
)

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenAIOracle asks an OpenAI chat model whether two words are the same answer.
type OpenAIOracle struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

// NewOpenAIOracle returns an oracle for the given key, or nil when the key is
// blank so callers can leave the capability switched off.
func NewOpenAIOracle(apiKey, model string) *OpenAIOracle {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIOracle{
		APIKey:  strings.TrimSpace(apiKey),
		Model:   model,
		BaseURL: defaultOpenAIBaseURL,
		Client:  &http.Client{},
	}
}

// Similar implements Oracle. The caller is expected to bound ctx.
func (o *OpenAIOracle) Similar(ctx context.Context, a, b string) (bool, error) {
	if o == nil || o.APIKey == "" {
		return false, errors.New("OpenAI API key is not configured")
	}
	reqBody := openAIChatRequest{
		Model: o.Model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: oracleSystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Are '%s' and '%s' similar enough to be considered the same answer? Answer YES or NO only.", a, b)},
		},
		Temperature: 0.1,
		MaxTokens:   10,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return false, fmt.Errorf("failed to build OpenAI request: %w", err)
	}

	baseURL := strings.TrimRight(o.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("failed to build OpenAI request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach OpenAI: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read OpenAI response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("OpenAI request failed (%d)", resp.StatusCode)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, fmt.Errorf("failed to parse OpenAI response: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return false, fmt.Errorf("OpenAI error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return false, errors.New("OpenAI returned no choices")
	}
	answer := strings.ToUpper(strings.TrimSpace(parsed.Choices[0].Message.Content))
	return answer == "YES", nil
}
