package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
	"github.com/quizforge/quizforge-core/internal/core/ports/driving"
)

// DefaultPromptBudget is the number of characters of document text sent to the generator
const DefaultPromptBudget = 12000

// Ensure quizService implements QuizService
var _ driving.QuizService = (*quizService)(nil)

// quizService implements the QuizService interface
type quizService struct {
	files     driving.FileService
	quizStore driven.QuizStore
	generator driven.QuizGenerator
	budget    int
	logger    *slog.Logger
}

// QuizServiceConfig holds dependencies for the quiz service.
// Generator may be nil, in which case Generate reports ErrServiceUnavailable.
type QuizServiceConfig struct {
	Files        driving.FileService
	QuizStore    driven.QuizStore
	Generator    driven.QuizGenerator
	PromptBudget int
	Logger       *slog.Logger
}

// NewQuizService creates a new QuizService
func NewQuizService(cfg QuizServiceConfig) driving.QuizService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	budget := cfg.PromptBudget
	if budget <= 0 {
		budget = DefaultPromptBudget
	}
	return &quizService{
		files:     cfg.Files,
		quizStore: cfg.QuizStore,
		generator: cfg.Generator,
		budget:    budget,
		logger:    logger,
	}
}

// Generate builds and stores a quiz
func (s *quizService) Generate(ctx context.Context, auth *domain.AuthContext, req domain.GenerateQuizRequest) (*domain.Quiz, error) {
	if auth == nil {
		return nil, domain.ErrUnauthorized
	}
	if !auth.CanWrite() {
		return nil, domain.ErrForbidden
	}
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no quiz generator configured", domain.ErrServiceUnavailable)
	}
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	prompt := domain.QuizPrompt{
		NumQuestions: req.NumQuestions,
		Difficulty:   req.Difficulty,
		QuestionType: req.QuestionType,
	}

	if req.FileID != "" {
		content, err := s.files.GetParsed(ctx, auth, req.FileID)
		if errors.Is(err, domain.ErrNotFound) {
			if _, ferr := s.files.Get(ctx, auth, req.FileID); ferr == nil {
				return nil, fmt.Errorf("%w: file has no parsed content", domain.ErrInvalidInput)
			}
		}
		if err != nil {
			return nil, err
		}
		prompt.Title = content.Title
		prompt.Content = truncateSections(content.Sections, content.Content, s.budget)
	} else {
		prompt.Content = truncateRunes(strings.TrimSpace(req.Content), s.budget)
	}

	if strings.TrimSpace(prompt.Content) == "" {
		return nil, fmt.Errorf("%w: content is empty", domain.ErrInvalidInput)
	}

	start := time.Now()
	draft, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("quiz generation failed", "file_id", req.FileID, "error", err)
		return nil, fmt.Errorf("generate quiz: %w", err)
	}

	questions, err := validateDraft(draft, req)
	if err != nil {
		s.logger.Warn("generator returned an invalid quiz", "file_id", req.FileID, "error", err)
		return nil, err
	}

	title := strings.TrimSpace(draft.Title)
	if title == "" {
		title = prompt.Title
	}
	if title == "" {
		title = "Quiz"
	}

	quiz := &domain.Quiz{
		ID:           uuid.NewString(),
		UserID:       auth.UserID,
		FileID:       req.FileID,
		Title:        title,
		Description:  strings.TrimSpace(draft.Description),
		Difficulty:   req.Difficulty,
		QuestionType: req.QuestionType,
		Questions:    questions,
		Model:        draft.Model,
		CreatedAt:    time.Now(),
	}

	if err := s.quizStore.Save(ctx, quiz); err != nil {
		return nil, fmt.Errorf("save quiz: %w", err)
	}

	s.logger.Info("quiz generated",
		"quiz_id", quiz.ID,
		"file_id", quiz.FileID,
		"questions", len(quiz.Questions),
		"model", quiz.Model,
		"duration", time.Since(start),
	)
	return quiz, nil
}

// Get retrieves a quiz owned by the caller
func (s *quizService) Get(ctx context.Context, auth *domain.AuthContext, id string) (*domain.Quiz, error) {
	quiz, err := s.quizStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if auth == nil || (quiz.UserID != auth.UserID && !auth.IsAdmin()) {
		return nil, domain.ErrNotFound
	}
	return quiz, nil
}

// List retrieves the caller's quizzes
func (s *quizService) List(ctx context.Context, auth *domain.AuthContext, limit, offset int) ([]*domain.Quiz, error) {
	if auth == nil {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.quizStore.List(ctx, auth.UserID, limit, offset)
}

// Delete deletes a quiz owned by the caller
func (s *quizService) Delete(ctx context.Context, auth *domain.AuthContext, id string) error {
	if _, err := s.Get(ctx, auth, id); err != nil {
		return err
	}
	return s.quizStore.Delete(ctx, id)
}

// validateDraft checks every question and trims extras beyond the request.
func validateDraft(draft *domain.QuizDraft, req domain.GenerateQuizRequest) ([]domain.Question, error) {
	if draft == nil || len(draft.Questions) == 0 {
		return nil, fmt.Errorf("%w: generator returned no questions", domain.ErrServiceUnavailable)
	}

	questions := draft.Questions
	if len(questions) > req.NumQuestions {
		questions = questions[:req.NumQuestions]
	}
	for i := range questions {
		q := &questions[i]
		if req.QuestionType == domain.QuestionTypeTrueFalse && len(q.Options) == 0 {
			q.Options = []string{"True", "False"}
		}
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return questions, nil
}

// truncateSections keeps whole sections, in order, while they fit the budget.
// A first section that alone exceeds the budget is cut.
func truncateSections(sections []domain.Section, content string, budget int) string {
	if len([]rune(content)) <= budget || len(sections) == 0 {
		return truncateRunes(content, budget)
	}

	var b strings.Builder
	used := 0
	for i, sec := range sections {
		block := sec.Content
		if sec.Title != "" {
			block = sec.Title + "\n" + sec.Content
		}
		n := len([]rune(block))
		if i > 0 {
			n += 2
		}
		if used+n > budget {
			if i == 0 {
				return truncateRunes(block, budget)
			}
			break
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block)
		used += n
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
