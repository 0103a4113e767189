package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

// Ensure Services can stand in for the quiz generator
var _ driven.QuizGenerator = (*Services)(nil)

// Services holds references to dynamically configurable services.
// The quiz generator can be replaced at runtime; callers holding
// Services always reach the current one.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	// Dynamic service (can be nil, updated at runtime)
	generator driven.QuizGenerator
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// QuizGenerator returns the current quiz generator (may be nil)
func (s *Services) QuizGenerator() driven.QuizGenerator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generator
}

// SetQuizGenerator updates the quiz generator.
// Closes the old generator if present. Updates config flags.
func (s *Services) SetQuizGenerator(gen driven.QuizGenerator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generator != nil && s.generator != gen {
		_ = s.generator.Close()
	}

	s.generator = gen
	s.config.SetLLMAvailable(gen != nil)
}

// ValidateAndSetGenerator validates connectivity before setting the generator
func (s *Services) ValidateAndSetGenerator(ctx context.Context, gen driven.QuizGenerator) error {
	if gen == nil {
		s.SetQuizGenerator(nil)
		return nil
	}

	if err := gen.Ping(ctx); err != nil {
		_ = gen.Close()
		return err
	}

	s.SetQuizGenerator(gen)
	return nil
}

// Generate delegates to the current generator
func (s *Services) Generate(ctx context.Context, prompt domain.QuizPrompt) (*domain.QuizDraft, error) {
	gen := s.QuizGenerator()
	if gen == nil {
		return nil, fmt.Errorf("%w: no quiz generator configured", domain.ErrServiceUnavailable)
	}
	return gen.Generate(ctx, prompt)
}

// Model returns the current generator's model, or "" when none is set
func (s *Services) Model() string {
	gen := s.QuizGenerator()
	if gen == nil {
		return ""
	}
	return gen.Model()
}

// Ping verifies the current generator is reachable
func (s *Services) Ping(ctx context.Context) error {
	gen := s.QuizGenerator()
	if gen == nil {
		return fmt.Errorf("%w: no quiz generator configured", domain.ErrServiceUnavailable)
	}
	return gen.Ping(ctx)
}

// Close shuts down all services
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generator != nil {
		_ = s.generator.Close()
		s.generator = nil
	}
	s.config.SetLLMAvailable(false)

	return nil
}
