package driven

import (
	"context"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// QuizGenerator produces quiz questions from text via a large language model
type QuizGenerator interface {
	// Generate asks the model for a quiz over the prompt content
	Generate(ctx context.Context, prompt domain.QuizPrompt) (*domain.QuizDraft, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the LLM service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the generator
	Close() error
}

// QuizStore handles quiz persistence (PostgreSQL)
type QuizStore interface {
	// Save creates or updates a quiz
	Save(ctx context.Context, quiz *domain.Quiz) error

	// Get retrieves a quiz by ID
	Get(ctx context.Context, id string) (*domain.Quiz, error)

	// List retrieves a user's quizzes, newest first
	List(ctx context.Context, userID string, limit, offset int) ([]*domain.Quiz, error)

	// Delete deletes a quiz
	Delete(ctx context.Context, id string) error
}
