package driven

import (
	"context"

	"github.com/quizforge/quizforge-core/internal/core/domain"
)

// FileStore handles uploaded file persistence (PostgreSQL)
type FileStore interface {
	// Save creates or updates a file including its raw bytes
	Save(ctx context.Context, file *domain.File) error

	// Get retrieves file metadata by ID without the raw bytes
	Get(ctx context.Context, id string) (*domain.File, error)

	// GetWithData retrieves a file by ID including its raw bytes
	GetWithData(ctx context.Context, id string) (*domain.File, error)

	// List retrieves files owned by a user, newest first.
	// An empty ownerID lists every file.
	List(ctx context.Context, ownerID string, limit, offset int) ([]*domain.File, error)

	// Count returns the number of files owned by a user (all files if ownerID is empty)
	Count(ctx context.Context, ownerID string) (int, error)

	// UpdateParseStatus records the outcome of a parse
	UpdateParseStatus(ctx context.Context, id string, format domain.Format, status domain.ParseStatus, parseErr string) error

	// Touch updates the last accessed timestamp
	Touch(ctx context.Context, id string) error

	// Delete deletes a file
	Delete(ctx context.Context, id string) error
}

// ParsedContentStore handles parsed content persistence (PostgreSQL)
type ParsedContentStore interface {
	// Save creates or replaces the parsed content of a file
	Save(ctx context.Context, content *domain.ParsedContent) error

	// GetByFile retrieves the parsed content of a file
	GetByFile(ctx context.Context, fileID string) (*domain.ParsedContent, error)

	// DeleteByFile deletes the parsed content of a file
	DeleteByFile(ctx context.Context, fileID string) error
}

// ContentCache caches parsed content by file ID with a fixed TTL (Redis or in-memory)
type ContentCache interface {
	// Get returns domain.ErrNotFound on a miss
	Get(ctx context.Context, fileID string) (*domain.ParsedContent, error)

	// Set stores content under its file ID
	Set(ctx context.Context, content *domain.ParsedContent) error

	// Delete evicts a file's entry
	Delete(ctx context.Context, fileID string) error

	// Ping verifies the cache backend is reachable
	Ping(ctx context.Context) error
}
