package driving

import (
	"context"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// QuizService generates and stores quizzes
type QuizService interface {
	// Generate builds a quiz from a file's parsed content or from raw content.
	// Returns domain.ErrServiceUnavailable when no generator is configured.
	Generate(ctx context.Context, auth *domain.AuthContext, req domain.GenerateQuizRequest) (*domain.Quiz, error)

	// Get retrieves a quiz owned by the caller
	Get(ctx context.Context, auth *domain.AuthContext, id string) (*domain.Quiz, error)

	// List retrieves the caller's quizzes, newest first
	List(ctx context.Context, auth *domain.AuthContext, limit, offset int) ([]*domain.Quiz, error)

	// Delete deletes a quiz owned by the caller
	Delete(ctx context.Context, auth *domain.AuthContext, id string) error
}
