package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"audio-diary/config"
)

// Summarizer produces a structured summary for a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Strategy is one summarization backend. Strategies are tried in priority
// order; the first available one that returns a non-empty result wins.
type Strategy interface {
	Name() string
	Available() bool
	Summarize(ctx context.Context, text string) (string, error)
}

type chainSummarizer struct {
	strategies []Strategy
}

// NewSummarizer builds the backend chain: DeepSeek, then OpenAI, then
// Gemini, then the local extractive fallback which is always available.
func NewSummarizer(cfg config.Summarize) Summarizer {
	return &chainSummarizer{strategies: []Strategy{
		newChatStrategy("deepseek", cfg.DeepSeekBaseURL, cfg.DeepSeekAPIKey, cfg.DeepSeekModel, cfg.Temperature),
		newChatStrategy("openai", cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.Temperature),
		&geminiStrategy{apiKey: cfg.GeminiAPIKey, model: cfg.GeminiModel},
		&textRankStrategy{sentenceCount: 5},
	}}
}

// NewChain wires an explicit strategy list, mainly for tests.
func NewChain(strategies ...Strategy) Summarizer {
	return &chainSummarizer{strategies: strategies}
}

func (c *chainSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	var lastErr error
	for _, s := range c.strategies {
		if !s.Available() {
			continue
		}
		out, err := s.Summarize(ctx, text)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("strategy", s.Name()).Msg("summarization strategy failed")
			lastErr = err
			continue
		}
		if strings.TrimSpace(out) != "" {
			return out, nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", errors.New("no summarization strategy produced a result")
}

const promptEN = `Based on the transcript below, produce a structured summary with the following sections:
Title:
Key Points: bullet list (3-8 items)
Action Items: bullet list (use "None" if no clear actions)
Conclusions: 1-2 short paragraphs
Constraints: concise, clear, no irrelevant content.

`

const promptZH = `请根据下面的转写文本生成结构化总结，严格按照以下格式输出：
标题：
要点：按项目符号列出（3-8条）
行动项：按项目符号列出（如无则写"无"）
结论：1-2段概括
要求：用中文、简洁清晰、避免无关内容。

`

func summaryPrompt(text string) string {
	if mostlyHan(text) {
		return promptZH + text
	}
	return promptEN + text
}

// mostlyHan is a cheap language pick between the Chinese and English
// prompts: proportion of Han runes among letters.
func mostlyHan(text string) bool {
	var letters, han int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	return letters > 0 && han*2 > letters
}

// chatStrategy calls an OpenAI-compatible chat completions endpoint.
type chatStrategy struct {
	name        string
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

func newChatStrategy(name, baseURL, apiKey, model string, temperature float64) *chatStrategy {
	return &chatStrategy{
		name:        name,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		client:      &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *chatStrategy) Name() string {
	return s.name
}

func (s *chatStrategy) Available() bool {
	return s.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *chatStrategy) Summarize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You are a helpful summarization assistant."},
			{Role: "user", Content: summaryPrompt(text)},
		},
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var content string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%s server error: %s", s.name, strings.TrimSpace(string(raw)))
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("%s returned %d: %s", s.name, resp.StatusCode, strings.TrimSpace(string(raw))))
		}

		var parsed chatResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s response: %w", s.name, err))
		}
		if len(parsed.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("%s returned no choices", s.name))
		}
		content = parsed.Choices[0].Message.Content
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 150 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return content, nil
}

// geminiStrategy calls the Gemini API through the genai SDK.
type geminiStrategy struct {
	apiKey string
	model  string
}

func (s *geminiStrategy) Name() string {
	return "gemini"
}

func (s *geminiStrategy) Available() bool {
	return s.apiKey != ""
}

func (s *geminiStrategy) Summarize(ctx context.Context, text string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(summaryPrompt(text)), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", errors.New("empty response from gemini")
	}

	var out strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		out.WriteString(part.Text)
	}
	return out.String(), nil
}
