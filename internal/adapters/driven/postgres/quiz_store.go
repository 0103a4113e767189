package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.QuizStore = (*QuizStore)(nil)

const quizColumns = `id, user_id, file_id, title, description, difficulty, question_type, questions, model, created_at`

// QuizStore implements driven.QuizStore using PostgreSQL
type QuizStore struct {
	db *DB
}

// NewQuizStore creates a new QuizStore
func NewQuizStore(db *DB) *QuizStore {
	return &QuizStore{db: db}
}

// Save creates or updates a quiz
func (s *QuizStore) Save(ctx context.Context, quiz *domain.Quiz) error {
	questions, err := json.Marshal(quiz.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	var fileID *string
	if quiz.FileID != "" {
		fileID = &quiz.FileID
	}

	query := `
		INSERT INTO quizzes (` + quizColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			questions = EXCLUDED.questions
	`

	_, err = s.db.ExecContext(ctx, query,
		quiz.ID,
		quiz.UserID,
		NullString(fileID),
		quiz.Title,
		quiz.Description,
		string(quiz.Difficulty),
		string(quiz.QuestionType),
		questions,
		quiz.Model,
		quiz.CreatedAt,
	)
	return mapError(err)
}

// Get retrieves a quiz by ID
func (s *QuizStore) Get(ctx context.Context, id string) (*domain.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = $1`
	return scanQuiz(s.db.QueryRowContext(ctx, query, id))
}

// List retrieves a user's quizzes, newest first
func (s *QuizStore) List(ctx context.Context, userID string, limit, offset int) ([]*domain.Quiz, error) {
	query := `
		SELECT ` + quizColumns + `
		FROM quizzes
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := make([]*domain.Quiz, 0)
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return quizzes, nil
}

// Delete deletes a quiz
func (s *QuizStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectRows(result)
}

func scanQuiz(row rowScanner) (*domain.Quiz, error) {
	var quiz domain.Quiz
	var fileID sql.NullString
	var questions []byte

	err := row.Scan(
		&quiz.ID,
		&quiz.UserID,
		&fileID,
		&quiz.Title,
		&quiz.Description,
		&quiz.Difficulty,
		&quiz.QuestionType,
		&questions,
		&quiz.Model,
		&quiz.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if p := StringPtr(fileID); p != nil {
		quiz.FileID = *p
	}
	if err := json.Unmarshal(questions, &quiz.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return &quiz, nil
}
