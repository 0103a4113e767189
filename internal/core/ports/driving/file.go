package driving

import (
	"context"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// FileService manages uploaded files and their parsed content.
// Every call is scoped to the caller: non-owners get domain.ErrNotFound, admins see all files.
type FileService interface {
	// Upload stores the file and parses it when a parser is registered for its type.
	// A failed parse is recorded on the file and does not fail the upload.
	Upload(ctx context.Context, auth *domain.AuthContext, req domain.UploadRequest) (*domain.UploadResult, error)

	// Get retrieves file metadata
	Get(ctx context.Context, auth *domain.AuthContext, id string) (*domain.File, error)

	// List retrieves the caller's files, newest first, and the total count
	List(ctx context.Context, auth *domain.AuthContext, limit, offset int) ([]*domain.File, int, error)

	// Download retrieves a file with its raw bytes
	Download(ctx context.Context, auth *domain.AuthContext, id string) (*domain.File, error)

	// GetParsed retrieves the parsed content of a file
	GetParsed(ctx context.Context, auth *domain.AuthContext, id string) (*domain.ParsedContent, error)

	// Preview extracts the plain text of a file without storing anything
	Preview(ctx context.Context, auth *domain.AuthContext, id string) (*domain.FilePreview, error)

	// Reparse runs the parser again over the stored bytes
	Reparse(ctx context.Context, auth *domain.AuthContext, id string) (*domain.UploadResult, error)

	// Update edits title and description
	Update(ctx context.Context, auth *domain.AuthContext, id string, req domain.UpdateFileRequest) (*domain.File, error)

	// Delete removes a file with its parsed content
	Delete(ctx context.Context, auth *domain.AuthContext, id string) error

	// Formats lists the supported formats and whether each is currently available
	Formats() []domain.FormatInfo
}
