package hint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are a helpful math tutor for teenagers. Your job is to give friendly, encouraging hints when students get math problems wrong.

Guidelines:
- Keep hints teen-friendly and encouraging
- Don't give away the exact answer
- Help them understand their mistake
- Use casual, supportive language
- Include emojis to keep it fun
- Keep hints concise (1-2 sentences max)
- Focus on the thinking process, not just the answer`

// OpenAIConfig configures an OpenAI-compatible chat completion endpoint.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// OpenAIGenerator implements Generator with the OpenAI chat API.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 6 * time.Second
	}
	config.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 150
	}

	return &OpenAIGenerator{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Generate asks the model for a hint. An empty completion is returned as ""
// with no error.
func (g *OpenAIGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(p)},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai status %d: %w", apiErr.HTTPStatusCode, err)
		}
		return "", fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func userPrompt(p Prompt) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s\n", p.Question)
	fmt.Fprintf(&b, "Student's answer: %s\n", p.UserAnswer)
	fmt.Fprintf(&b, "Problem type: %s\n", p.Type)
	if len(p.Options) > 0 {
		fmt.Fprintf(&b, "Available options: %s\n", strings.Join(p.Options, ", "))
	}
	b.WriteString("\nThe student got this wrong. Give them a helpful hint to guide them toward the correct approach without revealing the answer.")
	return b.String()
}
