package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FileStore = (*FileStore)(nil)

const fileColumns = `id, owner_id, filename, content_type, size, checksum, title, description,
	format, parse_status, parse_error, uploaded_at, updated_at, last_accessed_at`

// errNoCipher is returned when an encrypted row is read without a key
var errNoCipher = errors.New("file data is encrypted but no encryption key is configured")

// FileStore implements driven.FileStore using PostgreSQL.
// Raw bytes live in a BYTEA column and are only read by GetWithData.
// With a cipher configured, bytes are sealed before they are written.
type FileStore struct {
	db     *DB
	cipher *BlobCipher
}

// NewFileStore creates a new FileStore. cipher may be nil to store bytes as is.
func NewFileStore(db *DB, cipher *BlobCipher) *FileStore {
	return &FileStore{db: db, cipher: cipher}
}

// Save creates or updates a file including its raw bytes
func (s *FileStore) Save(ctx context.Context, file *domain.File) error {
	data := file.Data
	encrypted := false
	if s.cipher != nil {
		sealed, err := s.cipher.Seal(file.Data)
		if err != nil {
			return fmt.Errorf("encrypt file data: %w", err)
		}
		data = sealed
		encrypted = true
	}

	query := `
		INSERT INTO files (` + fileColumns + `, data, encrypted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			content_type = EXCLUDED.content_type,
			size = EXCLUDED.size,
			checksum = EXCLUDED.checksum,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			format = EXCLUDED.format,
			parse_status = EXCLUDED.parse_status,
			parse_error = EXCLUDED.parse_error,
			updated_at = EXCLUDED.updated_at,
			last_accessed_at = EXCLUDED.last_accessed_at,
			data = EXCLUDED.data,
			encrypted = EXCLUDED.encrypted
	`

	_, err := s.db.ExecContext(ctx, query,
		file.ID,
		file.OwnerID,
		file.Filename,
		file.ContentType,
		file.Size,
		file.Checksum,
		file.Title,
		file.Description,
		string(file.Format),
		string(file.ParseStatus),
		file.ParseError,
		file.UploadedAt,
		file.UpdatedAt,
		NullTime(file.LastAccessedAt),
		data,
		encrypted,
	)
	return mapError(err)
}

// Get retrieves file metadata by ID
func (s *FileStore) Get(ctx context.Context, id string) (*domain.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(s.db.QueryRowContext(ctx, query, id))
}

// GetWithData retrieves a file with its raw bytes
func (s *FileStore) GetWithData(ctx context.Context, id string) (*domain.File, error) {
	query := `SELECT ` + fileColumns + `, data, encrypted FROM files WHERE id = $1`

	var encrypted bool
	file, err := scanFile(s.db.QueryRowContext(ctx, query, id), &encrypted)
	if err != nil {
		return nil, err
	}
	if !encrypted {
		return file, nil
	}
	if s.cipher == nil {
		return nil, errNoCipher
	}

	plain, err := s.cipher.Open(file.Data)
	if err != nil {
		return nil, fmt.Errorf("decrypt file %s: %w", id, err)
	}
	file.Data = plain
	return file, nil
}

// List retrieves files newest first. An empty ownerID lists every file.
func (s *FileStore) List(ctx context.Context, ownerID string, limit, offset int) ([]*domain.File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE ($1 = '' OR owner_id = $1)
		ORDER BY uploaded_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]*domain.File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return files, nil
}

// Count returns the number of files owned by ownerID, or all files if empty
func (s *FileStore) Count(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM files WHERE ($1 = '' OR owner_id = $1)`, ownerID,
	).Scan(&n)
	return n, err
}

// UpdateParseStatus records the outcome of a parse
func (s *FileStore) UpdateParseStatus(ctx context.Context, id string, format domain.Format, status domain.ParseStatus, parseErr string) error {
	query := `
		UPDATE files
		SET format = $1, parse_status = $2, parse_error = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query, string(format), string(status), parseErr, time.Now(), id)
	if err != nil {
		return err
	}
	return expectRows(result)
}

// Touch updates the last accessed timestamp
func (s *FileStore) Touch(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE files SET last_accessed_at = $1 WHERE id = $2`, time.Now(), id)
	if err != nil {
		return err
	}
	return expectRows(result)
}

// Delete removes a file and its parsed content in one transaction
func (s *FileStore) Delete(ctx context.Context, id string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM parsed_contents WHERE file_id = $1`, id); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return expectRows(result)
	})
}

// scanFile reads the metadata columns. When encrypted is non-nil the row
// also carries the data and encrypted columns.
func scanFile(row rowScanner, encrypted ...*bool) (*domain.File, error) {
	var file domain.File
	var lastAccessedAt sql.NullTime

	dest := []any{
		&file.ID,
		&file.OwnerID,
		&file.Filename,
		&file.ContentType,
		&file.Size,
		&file.Checksum,
		&file.Title,
		&file.Description,
		&file.Format,
		&file.ParseStatus,
		&file.ParseError,
		&file.UploadedAt,
		&file.UpdatedAt,
		&lastAccessedAt,
	}
	if len(encrypted) > 0 && encrypted[0] != nil {
		dest = append(dest, &file.Data, encrypted[0])
	}

	if err := row.Scan(dest...); err != nil {
		return nil, mapError(err)
	}

	file.LastAccessedAt = TimePtr(lastAccessedAt)
	return &file, nil
}
