package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

var (
	_ driven.QuizGenerator = (*MockQuizGenerator)(nil)
	_ driven.QuizStore     = (*MockQuizStore)(nil)
)

// MockQuizGenerator returns canned questions and records the last prompt
type MockQuizGenerator struct {
	mu         sync.Mutex
	LastPrompt *domain.QuizPrompt
	Err        error
	Draft      *domain.QuizDraft
}

// NewMockQuizGenerator creates a generator that answers with one question per requested question
func NewMockQuizGenerator() *MockQuizGenerator {
	return &MockQuizGenerator{}
}

func (m *MockQuizGenerator) Generate(ctx context.Context, prompt domain.QuizPrompt) (*domain.QuizDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := prompt
	m.LastPrompt = &p
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Draft != nil {
		return m.Draft, nil
	}
	draft := &domain.QuizDraft{
		Title:       "Test Quiz",
		Description: "Generated for " + prompt.Title,
		Model:       m.Model(),
	}
	for i := 0; i < prompt.NumQuestions; i++ {
		draft.Questions = append(draft.Questions, domain.Question{
			Question:      "What is Go?",
			Options:       []string{"A programming language", "A board game only", "A database", "An editor"},
			CorrectAnswer: "A programming language",
			Explanation:   "Go is a programming language.",
		})
	}
	return draft, nil
}

func (m *MockQuizGenerator) Model() string { return "mock-model" }

func (m *MockQuizGenerator) Ping(ctx context.Context) error { return nil }

func (m *MockQuizGenerator) Close() error { return nil }

// MockQuizStore is an in-memory QuizStore for testing
type MockQuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]*domain.Quiz
}

// NewMockQuizStore creates a new MockQuizStore
func NewMockQuizStore() *MockQuizStore {
	return &MockQuizStore{quizzes: make(map[string]*domain.Quiz)}
}

func (m *MockQuizStore) Save(ctx context.Context, quiz *domain.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[quiz.ID] = quiz
	return nil
}

func (m *MockQuizStore) Get(ctx context.Context, id string) (*domain.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return q, nil
}

func (m *MockQuizStore) List(ctx context.Context, userID string, limit, offset int) ([]*domain.Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Quiz
	for _, q := range m.quizzes {
		if q.UserID == userID {
			result = append(result, q)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if offset >= len(result) {
		return []*domain.Quiz{}, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockQuizStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.quizzes[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.quizzes, id)
	return nil
}
