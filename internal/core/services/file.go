package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
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

// Upload and parse defaults
const (
	DefaultMaxUploadBytes = 20 << 20
	DefaultParseTimeout   = 60 * time.Second
	maxListLimit          = 100
	defaultListLimit      = 20
	parseLockGrace        = 30 * time.Second
)

// Ensure fileService implements FileService
var _ driving.FileService = (*fileService)(nil)

// fileService implements the FileService interface
type fileService struct {
	fileStore      driven.FileStore
	contentStore   driven.ParsedContentStore
	cache          driven.ContentCache
	selector       driven.ParserSelector
	lock           driven.DistributedLock
	maxUploadBytes int64
	parseTimeout   time.Duration
	logger         *slog.Logger
}

// FileServiceConfig holds dependencies for the file service.
// Cache and Lock are optional.
type FileServiceConfig struct {
	FileStore      driven.FileStore
	ContentStore   driven.ParsedContentStore
	Cache          driven.ContentCache
	Selector       driven.ParserSelector
	Lock           driven.DistributedLock
	MaxUploadBytes int64
	ParseTimeout   time.Duration
	Logger         *slog.Logger
}

// NewFileService creates a new FileService
func NewFileService(cfg FileServiceConfig) driving.FileService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	timeout := cfg.ParseTimeout
	if timeout <= 0 {
		timeout = DefaultParseTimeout
	}

	return &fileService{
		fileStore:      cfg.FileStore,
		contentStore:   cfg.ContentStore,
		cache:          cfg.Cache,
		selector:       cfg.Selector,
		lock:           cfg.Lock,
		maxUploadBytes: maxUpload,
		parseTimeout:   timeout,
		logger:         logger,
	}
}

// Upload stores the file, then parses it if a parser matches
func (s *fileService) Upload(ctx context.Context, auth *domain.AuthContext, req domain.UploadRequest) (*domain.UploadResult, error) {
	if auth == nil {
		return nil, domain.ErrUnauthorized
	}
	if !auth.CanWrite() {
		return nil, domain.ErrForbidden
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" || len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: filename and file data are required", domain.ErrInvalidInput)
	}
	if int64(len(req.Data)) > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", domain.ErrFileTooLarge, len(req.Data), s.maxUploadBytes)
	}

	sum := sha256.Sum256(req.Data)
	now := time.Now()
	file := &domain.File{
		ID:          uuid.NewString(),
		OwnerID:     auth.UserID,
		Filename:    filename,
		ContentType: req.MimeType,
		Size:        int64(len(req.Data)),
		Checksum:    hex.EncodeToString(sum[:]),
		Data:        req.Data,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		ParseStatus: domain.ParseStatusPending,
		UploadedAt:  now,
		UpdatedAt:   now,
	}

	if err := s.fileStore.Save(ctx, file); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	s.logger.Info("file uploaded", "file_id", file.ID, "filename", filename, "size", file.Size)

	parsed, err := s.parseAndStore(ctx, file)
	if err != nil {
		return nil, err
	}

	file.Data = nil
	return &domain.UploadResult{File: file, Parsed: parsed}, nil
}

// Get retrieves file metadata
func (s *fileService) Get(ctx context.Context, auth *domain.AuthContext, id string) (*domain.File, error) {
	file, err := s.fileStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !file.CanAccess(auth) {
		return nil, domain.ErrNotFound
	}
	return file, nil
}

// List retrieves the caller's files; admins see every file
func (s *fileService) List(ctx context.Context, auth *domain.AuthContext, limit, offset int) ([]*domain.File, int, error) {
	if auth == nil {
		return nil, 0, domain.ErrUnauthorized
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

	ownerID := auth.UserID
	if auth.IsAdmin() {
		ownerID = ""
	}

	files, err := s.fileStore.List(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.fileStore.Count(ctx, ownerID)
	if err != nil {
		return nil, 0, err
	}
	return files, total, nil
}

// Download retrieves a file with its raw bytes and records the access
func (s *fileService) Download(ctx context.Context, auth *domain.AuthContext, id string) (*domain.File, error) {
	file, err := s.fileStore.GetWithData(ctx, id)
	if err != nil {
		return nil, err
	}
	if !file.CanAccess(auth) {
		return nil, domain.ErrNotFound
	}

	if err := s.fileStore.Touch(ctx, id); err != nil {
		s.logger.Warn("failed to record file access", "file_id", id, "error", err)
	}
	return file, nil
}

// GetParsed reads through the cache to the parsed content store
func (s *fileService) GetParsed(ctx context.Context, auth *domain.AuthContext, id string) (*domain.ParsedContent, error) {
	if _, err := s.Get(ctx, auth, id); err != nil {
		return nil, err
	}

	if s.cache != nil {
		content, err := s.cache.Get(ctx, id)
		if err == nil {
			return content, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("content cache read failed", "file_id", id, "error", err)
		}
	}

	content, err := s.contentStore.GetByFile(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheContent(ctx, content)
	return content, nil
}

// Preview extracts the plain text of a file
func (s *fileService) Preview(ctx context.Context, auth *domain.AuthContext, id string) (*domain.FilePreview, error) {
	file, err := s.fileStore.GetWithData(ctx, id)
	if err != nil {
		return nil, err
	}
	if !file.CanAccess(auth) {
		return nil, domain.ErrNotFound
	}

	parser := s.selector.Get(file.Filename, file.ContentType)
	if parser == nil {
		return nil, domain.NewParseError(domain.ErrUnsupportedType, "", fmt.Errorf("no parser for %q (%s)", file.Filename, file.ContentType))
	}

	text, err := runWithTimeout(ctx, s.parseTimeout, parser.Format(), func() (string, error) {
		return parser.FullText(parseInputFor(file))
	})
	if err != nil {
		return nil, err
	}

	return &domain.FilePreview{FileID: file.ID, Format: parser.Format(), Content: text}, nil
}

// Reparse runs the parser again over the stored bytes
func (s *fileService) Reparse(ctx context.Context, auth *domain.AuthContext, id string) (*domain.UploadResult, error) {
	file, err := s.fileStore.GetWithData(ctx, id)
	if err != nil {
		return nil, err
	}
	if !file.CanAccess(auth) {
		return nil, domain.ErrNotFound
	}
	if !auth.CanWrite() {
		return nil, domain.ErrForbidden
	}

	parsed, err := s.parseAndStore(ctx, file)
	if err != nil {
		return nil, err
	}

	file.Data = nil
	return &domain.UploadResult{File: file, Parsed: parsed}, nil
}

// Update edits title and description
func (s *fileService) Update(ctx context.Context, auth *domain.AuthContext, id string, req domain.UpdateFileRequest) (*domain.File, error) {
	file, err := s.fileStore.GetWithData(ctx, id)
	if err != nil {
		return nil, err
	}
	if !file.CanAccess(auth) {
		return nil, domain.ErrNotFound
	}
	if !auth.CanWrite() {
		return nil, domain.ErrForbidden
	}

	if req.Title != nil {
		file.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		file.Description = strings.TrimSpace(*req.Description)
	}
	file.UpdatedAt = time.Now()

	if err := s.fileStore.Save(ctx, file); err != nil {
		return nil, err
	}

	file.Data = nil
	return file, nil
}

// Delete removes a file, its parsed content and its cache entry
func (s *fileService) Delete(ctx context.Context, auth *domain.AuthContext, id string) error {
	file, err := s.fileStore.Get(ctx, id)
	if err != nil {
		return err
	}
	if !file.CanAccess(auth) {
		return domain.ErrNotFound
	}
	if !auth.CanWrite() {
		return domain.ErrForbidden
	}

	if err := s.contentStore.DeleteByFile(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("delete parsed content: %w", err)
	}
	s.evict(ctx, id)
	if err := s.fileStore.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("file deleted", "file_id", id)
	return nil
}

// Formats lists the supported formats
func (s *fileService) Formats() []domain.FormatInfo {
	return s.selector.Formats()
}

// parseAndStore parses file and records the outcome on it.
// Only storage failures are returned; parse failures land in file.ParseStatus.
func (s *fileService) parseAndStore(ctx context.Context, file *domain.File) (*domain.ParsedContent, error) {
	parser := s.selector.Get(file.Filename, file.ContentType)
	if parser == nil {
		file.ParseStatus = domain.ParseStatusUnsupported
		file.ParseError = ""
		if err := s.fileStore.UpdateParseStatus(ctx, file.ID, "", file.ParseStatus, ""); err != nil {
			return nil, fmt.Errorf("update parse status: %w", err)
		}
		s.logger.Info("no parser for file", "file_id", file.ID, "content_type", file.ContentType)
		return nil, nil
	}

	if s.lock != nil {
		name := "parse:" + file.ID
		acquired, err := s.lock.Acquire(ctx, name, s.parseTimeout+parseLockGrace)
		switch {
		case err != nil:
			s.logger.Warn("parse lock unavailable, parsing unlocked", "file_id", file.ID, "error", err)
		case !acquired:
			return nil, fmt.Errorf("%w: file %s is already being parsed", domain.ErrConflict, file.ID)
		default:
			defer func() {
				if err := s.lock.Release(context.WithoutCancel(ctx), name); err != nil {
					s.logger.Warn("failed to release parse lock", "file_id", file.ID, "error", err)
				}
			}()
		}
	}

	start := time.Now()
	result, err := runWithTimeout(ctx, s.parseTimeout, parser.Format(), func() (*domain.ParserResult, error) {
		return parser.Parse(parseInputFor(file))
	})

	file.Format = parser.Format()
	if err != nil {
		file.ParseStatus = domain.ParseStatusFailed
		file.ParseError = err.Error()
		s.logger.Warn("parse failed",
			"file_id", file.ID,
			"format", parser.Format(),
			"error", err,
		)
		if uerr := s.fileStore.UpdateParseStatus(ctx, file.ID, file.Format, file.ParseStatus, file.ParseError); uerr != nil {
			return nil, fmt.Errorf("update parse status: %w", uerr)
		}
		// Content from an earlier successful parse no longer matches the file status.
		if derr := s.contentStore.DeleteByFile(ctx, file.ID); derr != nil && !errors.Is(derr, domain.ErrNotFound) {
			return nil, fmt.Errorf("delete stale parsed content: %w", derr)
		}
		s.evict(ctx, file.ID)
		return nil, nil
	}

	content := &domain.ParsedContent{
		ID:       uuid.NewString(),
		FileID:   file.ID,
		Format:   parser.Format(),
		Title:    result.Title,
		Content:  result.Content,
		Sections: result.Sections,
		Metadata: result.Metadata,
		ParsedAt: time.Now(),
	}
	if err := s.contentStore.Save(ctx, content); err != nil {
		return nil, fmt.Errorf("save parsed content: %w", err)
	}

	file.ParseStatus = domain.ParseStatusParsed
	file.ParseError = ""
	if err := s.fileStore.UpdateParseStatus(ctx, file.ID, file.Format, file.ParseStatus, ""); err != nil {
		return nil, fmt.Errorf("update parse status: %w", err)
	}
	s.cacheContent(ctx, content)

	s.logger.Info("file parsed",
		"file_id", file.ID,
		"format", content.Format,
		"sections", len(content.Sections),
		"duration", time.Since(start),
	)
	return content, nil
}

func (s *fileService) cacheContent(ctx context.Context, content *domain.ParsedContent) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, content); err != nil {
		s.logger.Warn("content cache write failed", "file_id", content.FileID, "error", err)
	}
}

func (s *fileService) evict(ctx context.Context, fileID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, fileID); err != nil {
		s.logger.Warn("content cache evict failed", "file_id", fileID, "error", err)
	}
}

func parseInputFor(file *domain.File) domain.ParseInput {
	return domain.ParseInput{
		Data:     file.Data,
		Filename: file.Filename,
		MimeType: file.ContentType,
	}
}

// runWithTimeout runs a parser call in its own goroutine and gives up
// after timeout. A panicking parser is reported as a structural error.
// The goroutine is left to finish on its own after a timeout.
func runWithTimeout[T any](ctx context.Context, timeout time.Duration, format domain.Format, fn func() (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		val T
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: domain.NewParseError(domain.ErrStructuralParse, format, fmt.Errorf("parser panic: %v", r))}
			}
		}()
		val, err := fn()
		done <- outcome{val: val, err: err}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-ctx.Done():
		var zero T
		return zero, domain.NewParseError(domain.ErrParseTimeout, format, ctx.Err())
	}
}
