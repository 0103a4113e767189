package domain

import (
	"fmt"
	"time"
)

// Difficulty is the requested difficulty of a generated quiz
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// QuestionType is the kind of questions in a quiz
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
)

// Quiz bounds
const (
	DefaultNumQuestions = 5
	MaxNumQuestions     = 20
)

// Question is a single quiz question
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// Validate checks that the question is answerable from its options
func (q *Question) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("%w: empty question", ErrInvalidInput)
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: question %q has fewer than 2 options", ErrInvalidInput, q.Question)
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return nil
		}
	}
	return fmt.Errorf("%w: correct answer for %q is not among the options", ErrInvalidInput, q.Question)
}

// Quiz is a generated set of questions
type Quiz struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	FileID       string       `json:"file_id,omitempty"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Difficulty   Difficulty   `json:"difficulty"`
	QuestionType QuestionType `json:"question_type"`
	Questions    []Question   `json:"questions"`
	Model        string       `json:"model,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// GenerateQuizRequest asks for a quiz over a file's parsed content or raw text
type GenerateQuizRequest struct {
	FileID       string       `json:"file_id,omitempty"`
	Content      string       `json:"content,omitempty"`
	NumQuestions int          `json:"num_questions"`
	Difficulty   Difficulty   `json:"difficulty"`
	QuestionType QuestionType `json:"question_type"`
}

// Normalize fills defaults and rejects out-of-range values
func (r *GenerateQuizRequest) Normalize() error {
	if r.FileID == "" && r.Content == "" {
		return fmt.Errorf("%w: file_id or content is required", ErrInvalidInput)
	}
	if r.NumQuestions == 0 {
		r.NumQuestions = DefaultNumQuestions
	}
	if r.NumQuestions < 1 || r.NumQuestions > MaxNumQuestions {
		return fmt.Errorf("%w: num_questions must be between 1 and %d", ErrInvalidInput, MaxNumQuestions)
	}
	switch r.Difficulty {
	case "":
		r.Difficulty = DifficultyMedium
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, r.Difficulty)
	}
	switch r.QuestionType {
	case "":
		r.QuestionType = QuestionTypeMultipleChoice
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
	default:
		return fmt.Errorf("%w: unknown question type %q", ErrInvalidInput, r.QuestionType)
	}
	return nil
}

// QuizPrompt is what the quiz generator receives
type QuizPrompt struct {
	Title        string
	Content      string
	NumQuestions int
	Difficulty   Difficulty
	QuestionType QuestionType
}

// QuizDraft is the generator's raw answer before it is stored
type QuizDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	Model       string     `json:"-"`
}
