package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

// Ensure OpenAIQuizGenerator implements QuizGenerator
var _ driven.QuizGenerator = (*OpenAIQuizGenerator)(nil)

// Defaults for the OpenAI quiz generator
const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000

	// TestAPIKey makes the generator answer with a canned quiz without calling the API
	TestAPIKey = "sk-test-key"
)

const systemPrompt = "You are a quiz generation assistant. Reply with a single JSON object and nothing else."

// Config holds OpenAI generator settings
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
	Logger      *slog.Logger
}

// OpenAIQuizGenerator implements QuizGenerator with the chat completions API
type OpenAIQuizGenerator struct {
	client      *openai.Client
	httpClient  *http.Client
	model       string
	temperature float32
	maxTokens   int
	testMode    bool
	logger      *slog.Logger
}

// NewOpenAIQuizGenerator creates a new OpenAI quiz generator
func NewOpenAIQuizGenerator(cfg Config) (*OpenAIQuizGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.HTTPClient = httpClient
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &OpenAIQuizGenerator{
		client:      openai.NewClientWithConfig(clientCfg),
		httpClient:  httpClient,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		testMode:    cfg.APIKey == TestAPIKey,
		logger:      logger,
	}, nil
}

// Generate asks the model for a quiz over the prompt content
func (g *OpenAIQuizGenerator) Generate(ctx context.Context, prompt domain.QuizPrompt) (*domain.QuizDraft, error) {
	if g.testMode {
		return cannedQuiz(g.model), nil
	}

	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(prompt)},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, g.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: OpenAI returned no choices", domain.ErrServiceUnavailable)
	}

	draft, err := parseDraft(resp.Choices[0].Message.Content)
	if err != nil {
		g.logger.Error("failed to parse quiz response", "model", g.model, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}
	draft.Model = resp.Model
	if draft.Model == "" {
		draft.Model = g.model
	}

	g.logger.Debug("quiz completion received",
		"model", draft.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"duration", time.Since(start),
	)
	return draft, nil
}

// Model returns the model name being used
func (g *OpenAIQuizGenerator) Model() string {
	return g.model
}

// Ping lists models to verify the API key and endpoint
func (g *OpenAIQuizGenerator) Ping(ctx context.Context) error {
	if g.testMode {
		return nil
	}
	if _, err := g.client.ListModels(ctx); err != nil {
		return g.wrapError(err)
	}
	return nil
}

// Close releases idle HTTP connections
func (g *OpenAIQuizGenerator) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

func (g *OpenAIQuizGenerator) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: OpenAI rate limit exceeded, try again later", domain.ErrServiceUnavailable)
		}
		return fmt.Errorf("%w: OpenAI API error (status %d): %s", domain.ErrServiceUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: OpenAI request failed (status %d): %v", domain.ErrServiceUnavailable, reqErr.HTTPStatusCode, reqErr.Err)
	}
	return fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
}

func buildPrompt(p domain.QuizPrompt) string {
	var b strings.Builder
	questionType := strings.ReplaceAll(string(p.QuestionType), "_", " ")
	fmt.Fprintf(&b, "Generate a %s difficulty quiz with %d %s questions based on the following content.\n",
		p.Difficulty, p.NumQuestions, questionType)
	if p.Title != "" {
		fmt.Fprintf(&b, "The content comes from a document titled %q.\n", p.Title)
	}
	if p.QuestionType == domain.QuestionTypeTrueFalse {
		b.WriteString("Every question must have exactly the options \"True\" and \"False\".\n")
	}
	b.WriteString("\nContent:\n")
	b.WriteString(p.Content)
	b.WriteString(`

Respond with JSON of this shape:
{
  "title": "Quiz title",
  "description": "Quiz description",
  "questions": [
    {
      "question": "Question text",
      "options": ["Option 1", "Option 2", "Option 3", "Option 4"],
      "correct_answer": "Correct option, copied exactly from options",
      "explanation": "Why the answer is correct"
    }
  ]
}`)
	return b.String()
}

// parseDraft decodes the model's reply, tolerating a markdown code fence
func parseDraft(content string) (*domain.QuizDraft, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var draft domain.QuizDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("decode quiz JSON: %w", err)
	}
	if len(draft.Questions) == 0 {
		return nil, fmt.Errorf("quiz JSON has no questions")
	}
	return &draft, nil
}

func cannedQuiz(model string) *domain.QuizDraft {
	return &domain.QuizDraft{
		Title:       "Test Quiz",
		Description: "A test quiz generated with mock API key",
		Model:       model,
		Questions: []domain.Question{
			{
				Question:      "What is Python?",
				Options:       []string{"A programming language", "A snake", "A game", "A database"},
				CorrectAnswer: "A programming language",
				Explanation:   "Python is a high-level programming language.",
			},
			{
				Question:      "What is Python known for?",
				Options:       []string{"Simplicity", "Complexity", "Speed", "Memory usage"},
				CorrectAnswer: "Simplicity",
				Explanation:   "Python is known for its simplicity and readability.",
			},
		},
	}
}
