package domain

import (
	"errors"
	"testing"
)

func TestGenerateQuizRequest_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		req     GenerateQuizRequest
		wantErr bool
		want    GenerateQuizRequest
	}{
		{
			name: "defaults",
			req:  GenerateQuizRequest{FileID: "f1"},
			want: GenerateQuizRequest{FileID: "f1", NumQuestions: 5, Difficulty: DifficultyMedium, QuestionType: QuestionTypeMultipleChoice},
		},
		{
			name: "explicit values kept",
			req:  GenerateQuizRequest{Content: "x", NumQuestions: 20, Difficulty: DifficultyHard, QuestionType: QuestionTypeTrueFalse},
			want: GenerateQuizRequest{Content: "x", NumQuestions: 20, Difficulty: DifficultyHard, QuestionType: QuestionTypeTrueFalse},
		},
		{name: "no source", req: GenerateQuizRequest{}, wantErr: true},
		{name: "too many questions", req: GenerateQuizRequest{Content: "x", NumQuestions: 21}, wantErr: true},
		{name: "negative questions", req: GenerateQuizRequest{Content: "x", NumQuestions: -1}, wantErr: true},
		{name: "bad difficulty", req: GenerateQuizRequest{Content: "x", Difficulty: "insane"}, wantErr: true},
		{name: "bad question type", req: GenerateQuizRequest{Content: "x", QuestionType: "essay"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := req.Normalize()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Fatalf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if req != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, req)
			}
		})
	}
}

func TestQuestion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		wantErr bool
	}{
		{"valid", Question{Question: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4"}, false},
		{"empty question", Question{Options: []string{"a", "b"}, CorrectAnswer: "a"}, true},
		{"one option", Question{Question: "q", Options: []string{"a"}, CorrectAnswer: "a"}, true},
		{"answer missing", Question{Question: "q", Options: []string{"a", "b"}, CorrectAnswer: "c"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFormatIsBinary(t *testing.T) {
	binary := map[Format]bool{
		FormatText: false, FormatCSV: false, FormatJSON: false,
		FormatXML: false, FormatPDF: true, FormatDOCX: true,
	}
	for f, want := range binary {
		if f.IsBinary() != want {
			t.Errorf("%s.IsBinary() = %v, want %v", f, f.IsBinary(), want)
		}
	}
}
