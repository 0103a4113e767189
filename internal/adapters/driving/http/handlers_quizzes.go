package http

import (
	"encoding/json"
	"net/http"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// handleGenerateQuiz godoc
// @Summary      Generate quiz
// @Description  Generates a quiz from a file's parsed content or from content in the request
// @Tags         Quizzes
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      domain.GenerateQuizRequest  true  "Quiz options"
// @Success      201      {object}  domain.Quiz
// @Failure      400      {object}  ErrorResponse  "Invalid input"
// @Failure      404      {object}  ErrorResponse  "File not found"
// @Failure      503      {object}  ErrorResponse  "Quiz generation unavailable"
// @Router       /quizzes [post]
func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quiz, err := s.quizService.Generate(r.Context(), GetAuthContext(r.Context()), req)
	if err != nil {
		s.writeServiceError(w, err, "failed to generate quiz")
		return
	}

	writeJSON(w, http.StatusCreated, quiz)
}

// handleListQuizzes godoc
// @Summary      List quizzes
// @Description  Lists the caller's quizzes, newest first
// @Tags         Quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "Page size (max 100)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {array}  domain.Quiz
// @Router       /quizzes [get]
func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	quizzes, err := s.quizService.List(r.Context(), GetAuthContext(r.Context()), limit, offset)
	if err != nil {
		s.writeServiceError(w, err, "failed to list quizzes")
		return
	}
	if quizzes == nil {
		quizzes = []*domain.Quiz{}
	}

	writeJSON(w, http.StatusOK, quizzes)
}

// handleGetQuiz godoc
// @Summary      Get quiz
// @Tags         Quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Quiz ID"
// @Success      200  {object}  domain.Quiz
// @Failure      404  {object}  ErrorResponse  "Quiz not found"
// @Router       /quizzes/{id} [get]
func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := s.quizService.Get(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to get quiz")
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

// handleDeleteQuiz godoc
// @Summary      Delete quiz
// @Tags         Quizzes
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Quiz ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "Quiz not found"
// @Router       /quizzes/{id} [delete]
func (s *Server) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := s.quizService.Delete(r.Context(), GetAuthContext(r.Context()), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err, "failed to delete quiz")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
