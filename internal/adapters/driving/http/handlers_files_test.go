package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

func TestHandleUploadFile_Success(t *testing.T) {
	ts := newTestServer(t)
	var got domain.UploadRequest
	ts.files.uploadFn = func(ctx context.Context, auth *domain.AuthContext, req domain.UploadRequest) (*domain.UploadResult, error) {
		if auth == nil || auth.UserID != "user-1" {
			t.Errorf("expected caller user-1, got %+v", auth)
		}
		got = req
		return &domain.UploadResult{
			File:   &domain.File{ID: "file-1", Filename: req.Filename, ParseStatus: domain.ParseStatusParsed},
			Parsed: &domain.ParsedContent{FileID: "file-1", Content: string(req.Data)},
		}, nil
	}

	body, contentType := multipartBody(t, "notes.txt", "text/plain", []byte("hello"), map[string]string{
		"title":       "My notes",
		"description": "week 1",
	})
	rr := ts.do("POST", "/api/v1/files", "member-token", body, contentType)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.Filename != "notes.txt" || got.MimeType != "text/plain" || string(got.Data) != "hello" {
		t.Errorf("unexpected upload request: %+v", got)
	}
	if got.Title != "My notes" || got.Description != "week 1" {
		t.Errorf("expected form fields to be passed, got %+v", got)
	}

	var result domain.UploadResult
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.File.ID != "file-1" || result.Parsed == nil {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestHandleUploadFile_OctetStreamDropped(t *testing.T) {
	ts := newTestServer(t)
	var mimeType string
	ts.files.uploadFn = func(ctx context.Context, auth *domain.AuthContext, req domain.UploadRequest) (*domain.UploadResult, error) {
		mimeType = req.MimeType
		return &domain.UploadResult{File: &domain.File{ID: "file-1"}}, nil
	}

	body, contentType := multipartBody(t, "data.csv", "application/octet-stream", []byte("a,b"), nil)
	rr := ts.do("POST", "/api/v1/files", "member-token", body, contentType)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}
	if mimeType != "" {
		t.Errorf("expected generic media type to be dropped, got %q", mimeType)
	}
}

func TestHandleUploadFile_MissingFile(t *testing.T) {
	ts := newTestServer(t)

	body, contentType := multipartBody(t, "", "", nil, map[string]string{"title": "x"})
	rr := ts.do("POST", "/api/v1/files", "member-token", body, contentType)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleUploadFile_NotMultipart(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do("POST", "/api/v1/files", "member-token", strings.NewReader("{}"), "application/json")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleUploadFile_TooLarge(t *testing.T) {
	ts := newTestServer(t)
	ts.files.uploadFn = func(ctx context.Context, auth *domain.AuthContext, req domain.UploadRequest) (*domain.UploadResult, error) {
		if len(req.Data) > 1024 {
			return nil, domain.ErrFileTooLarge
		}
		return &domain.UploadResult{File: &domain.File{ID: "file-1"}}, nil
	}

	body, contentType := multipartBody(t, "big.txt", "text/plain", bytes.Repeat([]byte("a"), 2048), nil)
	rr := ts.do("POST", "/api/v1/files", "member-token", body, contentType)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status 413, got %d", rr.Code)
	}
}

func TestHandleUploadFile_ViewerForbidden(t *testing.T) {
	ts := newTestServer(t)
	ts.files.uploadFn = func(ctx context.Context, auth *domain.AuthContext, req domain.UploadRequest) (*domain.UploadResult, error) {
		t.Error("upload should not reach the service")
		return nil, nil
	}

	body, contentType := multipartBody(t, "notes.txt", "text/plain", []byte("hello"), nil)
	rr := ts.do("POST", "/api/v1/files", "viewer-token", body, contentType)

	if rr.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", rr.Code)
	}
}

func TestHandleListFiles(t *testing.T) {
	ts := newTestServer(t)
	ts.files.listFn = func(ctx context.Context, auth *domain.AuthContext, limit, offset int) ([]*domain.File, int, error) {
		if limit != 5 || offset != 10 {
			t.Errorf("expected limit 5 offset 10, got %d %d", limit, offset)
		}
		return []*domain.File{{ID: "f1"}, {ID: "f2"}}, 12, nil
	}

	rr := ts.do("GET", "/api/v1/files?limit=5&offset=10", "member-token", nil, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var response FileListResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Files) != 2 || response.Total != 12 {
		t.Errorf("unexpected list response: %+v", response)
	}
}

func TestHandleListFiles_Empty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do("GET", "/api/v1/files", "member-token", nil, "")

	if !strings.Contains(rr.Body.String(), `"files":[]`) {
		t.Errorf("expected empty array, got %s", rr.Body.String())
	}
}

func TestHandleGetFile_NotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do("GET", "/api/v1/files/missing", "member-token", nil, "")

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

func TestHandleGetFile_Success(t *testing.T) {
	ts := newTestServer(t)
	ts.files.getFn = func(ctx context.Context, auth *domain.AuthContext, id string) (*domain.File, error) {
		return &domain.File{ID: id, Filename: "a.txt", Data: []byte("secret"), UploadedAt: time.Now()}, nil
	}

	rr := ts.do("GET", "/api/v1/files/file-7", "member-token", nil, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "secret") {
		t.Error("raw bytes must not appear in metadata")
	}
}

func TestHandleDownloadFile(t *testing.T) {
	ts := newTestServer(t)
	ts.files.downloadFn = func(ctx context.Context, auth *domain.AuthContext, id string) (*domain.File, error) {
		return &domain.File{ID: id, Filename: "report final.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}, nil
	}

	rr := ts.do("GET", "/api/v1/files/file-1/download", "member-token", nil, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("unexpected content type %s", rr.Header().Get("Content-Type"))
	}
	if rr.Header().Get("Content-Disposition") != `attachment; filename="report final.pdf"` {
		t.Errorf("unexpected disposition %s", rr.Header().Get("Content-Disposition"))
	}
	if rr.Body.String() != "%PDF-1.4" {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

func TestHandleGetFileContent(t *testing.T) {
	ts := newTestServer(t)
	ts.files.getParsedFn = func(ctx context.Context, auth *domain.AuthContext, id string) (*domain.ParsedContent, error) {
		return &domain.ParsedContent{
			FileID:   id,
			Format:   domain.FormatText,
			Content:  "INTRO\nbody",
			Sections: []domain.Section{{Title: "INTRO", Content: "body", Level: 1}},
		}, nil
	}

	rr := ts.do("GET", "/api/v1/files/file-1/content", "member-token", nil, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var content domain.ParsedContent
	if err := json.NewDecoder(rr.Body).Decode(&content); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(content.Sections) != 1 || content.Sections[0].Title != "INTRO" {
		t.Errorf("unexpected sections: %+v", content.Sections)
	}
}

func TestHandlePreviewFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unsupported", domain.NewParseError(domain.ErrUnsupportedType, "", nil), http.StatusUnsupportedMediaType},
		{"corrupt", domain.NewParseError(domain.ErrStructuralParse, domain.FormatPDF, nil), http.StatusUnprocessableEntity},
		{"timeout", domain.NewParseError(domain.ErrParseTimeout, domain.FormatPDF, nil), http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.files.previewFn = func(ctx context.Context, auth *domain.AuthContext, id string) (*domain.FilePreview, error) {
				return nil, tt.err
			}

			rr := ts.do("GET", "/api/v1/files/file-1/preview", "member-token", nil, "")
			if rr.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestHandleReparseFile_Conflict(t *testing.T) {
	ts := newTestServer(t)
	ts.files.reparseFn = func(ctx context.Context, auth *domain.AuthContext, id string) (*domain.UploadResult, error) {
		return nil, domain.ErrConflict
	}

	rr := ts.do("POST", "/api/v1/files/file-1/reparse", "member-token", nil, "")

	if rr.Code != http.StatusConflict {
		t.Errorf("expected status 409, got %d", rr.Code)
	}
}

func TestHandleUpdateFile(t *testing.T) {
	ts := newTestServer(t)
	ts.files.updateFn = func(ctx context.Context, auth *domain.AuthContext, id string, req domain.UpdateFileRequest) (*domain.File, error) {
		if req.Title == nil || *req.Title != "Renamed" {
			t.Errorf("expected title Renamed, got %v", req.Title)
		}
		if req.Description != nil {
			t.Error("expected description to be untouched")
		}
		return &domain.File{ID: id, Title: *req.Title}, nil
	}

	rr := ts.do("PATCH", "/api/v1/files/file-1", "member-token", strings.NewReader(`{"title":"Renamed"}`), "application/json")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestHandleDeleteFile(t *testing.T) {
	ts := newTestServer(t)
	deleted := ""
	ts.files.deleteFn = func(ctx context.Context, auth *domain.AuthContext, id string) error {
		deleted = id
		return nil
	}

	rr := ts.do("DELETE", "/api/v1/files/file-3", "member-token", nil, "")

	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if deleted != "file-3" {
		t.Errorf("expected file-3 to be deleted, got %q", deleted)
	}
}

func TestHandleListFormats(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.do("GET", "/api/v1/formats", "viewer-token", nil, "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var formats []domain.FormatInfo
	if err := json.NewDecoder(rr.Body).Decode(&formats); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(formats) != 2 || formats[1].Available {
		t.Errorf("unexpected formats: %+v", formats)
	}
}
