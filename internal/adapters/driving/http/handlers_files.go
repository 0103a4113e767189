package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// FileListResponse is a page of the caller's files
// @Description Paginated file list
type FileListResponse struct {
	Files  []*domain.File `json:"files"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// handleListFormats godoc
// @Summary      Supported formats
// @Description  Lists every format the parser selector knows and whether it is currently available
// @Tags         Files
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.FormatInfo
// @Router       /formats [get]
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.fileService.Formats())
}

// handleUploadFile godoc
// @Summary      Upload a file
// @Description  Stores the file and parses it when its type is supported. A failed parse is reported on the file, not as an error.
// @Tags         Files
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        file         formData  file    true   "Document"
// @Param        title        formData  string  false  "Title"
// @Param        description  formData  string  false  "Description"
// @Success      201  {object}  domain.UploadResult
// @Failure      400  {object}  ErrorResponse  "Missing file"
// @Failure      413  {object}  ErrorResponse  "File too large"
// @Router       /files [post]
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}

	result, err := s.fileService.Upload(r.Context(), authCtx, domain.UploadRequest{
		Filename:    header.Filename,
		MimeType:    mimeType,
		Data:        data,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	})
	if err != nil {
		s.writeServiceError(w, err, "failed to upload file")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleListFiles godoc
// @Summary      List files
// @Description  Lists the caller's files, newest first
// @Tags         Files
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (max 100)"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  FileListResponse
// @Router       /files [get]
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	files, total, err := s.fileService.List(r.Context(), GetAuthContext(r.Context()), limit, offset)
	if err != nil {
		s.writeServiceError(w, err, "failed to list files")
		return
	}
	if files == nil {
		files = []*domain.File{}
	}

	writeJSON(w, http.StatusOK, FileListResponse{Files: files, Total: total, Limit: limit, Offset: offset})
}

// handleGetFile godoc
// @Summary      Get file
// @Description  Returns file metadata including parse status
// @Tags         Files
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "File ID"
// @Success      200  {object}  domain.File
// @Failure      404  {object}  ErrorResponse  "File not found"
// @Router       /files/{id} [get]
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	file, err := s.fileService.Get(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to get file")
		return
	}

	writeJSON(w, http.StatusOK, file)
}

// handleUpdateFile godoc
// @Summary      Update file
// @Description  Edits the title and description of a file
// @Tags         Files
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "File ID"
// @Param        request  body      domain.UpdateFileRequest  true  "Fields to change"
// @Success      200      {object}  domain.File
// @Failure      404      {object}  ErrorResponse  "File not found"
// @Router       /files/{id} [patch]
func (s *Server) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	file, err := s.fileService.Update(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"), req)
	if err != nil {
		s.writeServiceError(w, err, "failed to update file")
		return
	}

	writeJSON(w, http.StatusOK, file)
}

// handleDeleteFile godoc
// @Summary      Delete file
// @Description  Deletes a file with its parsed content
// @Tags         Files
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "File ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse  "File not found"
// @Router       /files/{id} [delete]
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.fileService.Delete(r.Context(), GetAuthContext(r.Context()), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err, "failed to delete file")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleDownloadFile godoc
// @Summary      Download file
// @Description  Returns the raw bytes as uploaded
// @Tags         Files
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path  string  true  "File ID"
// @Success      200
// @Failure      404  {object}  ErrorResponse  "File not found"
// @Router       /files/{id}/download [get]
func (s *Server) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	file, err := s.fileService.Download(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to download file")
		return
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// handleGetFileContent godoc
// @Summary      Parsed content
// @Description  Returns the text, sections and metadata extracted from a file
// @Tags         Files
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "File ID"
// @Success      200  {object}  domain.ParsedContent
// @Failure      404  {object}  ErrorResponse  "File not found or not parsed"
// @Router       /files/{id}/content [get]
func (s *Server) handleGetFileContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.fileService.GetParsed(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to get parsed content")
		return
	}

	writeJSON(w, http.StatusOK, content)
}

// handlePreviewFile godoc
// @Summary      Preview file
// @Description  Extracts the plain text of a file without storing anything
// @Tags         Files
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "File ID"
// @Success      200  {object}  domain.FilePreview
// @Failure      415  {object}  ErrorResponse  "Unsupported file type"
// @Failure      422  {object}  ErrorResponse  "File could not be parsed"
// @Router       /files/{id}/preview [get]
func (s *Server) handlePreviewFile(w http.ResponseWriter, r *http.Request) {
	preview, err := s.fileService.Preview(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to preview file")
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// handleReparseFile godoc
// @Summary      Reparse file
// @Description  Runs the parser again over the stored bytes
// @Tags         Files
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "File ID"
// @Success      200  {object}  domain.UploadResult
// @Failure      409  {object}  ErrorResponse  "File is being parsed"
// @Router       /files/{id}/reparse [post]
func (s *Server) handleReparseFile(w http.ResponseWriter, r *http.Request) {
	result, err := s.fileService.Reparse(r.Context(), GetAuthContext(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err, "failed to reparse file")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
