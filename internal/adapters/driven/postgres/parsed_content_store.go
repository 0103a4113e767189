package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ParsedContentStore = (*ParsedContentStore)(nil)

// ParsedContentStore implements driven.ParsedContentStore using PostgreSQL.
// Sections and metadata are stored as JSONB.
type ParsedContentStore struct {
	db *DB
}

// NewParsedContentStore creates a new ParsedContentStore
func NewParsedContentStore(db *DB) *ParsedContentStore {
	return &ParsedContentStore{db: db}
}

// Save creates or replaces the parsed content of a file
func (s *ParsedContentStore) Save(ctx context.Context, content *domain.ParsedContent) error {
	sections, err := json.Marshal(content.Sections)
	if err != nil {
		return fmt.Errorf("marshal sections: %w", err)
	}
	metadata, err := json.Marshal(content.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO parsed_contents (id, file_id, format, title, content, sections, metadata, parsed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (file_id) DO UPDATE SET
			id = EXCLUDED.id,
			format = EXCLUDED.format,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			sections = EXCLUDED.sections,
			metadata = EXCLUDED.metadata,
			parsed_at = EXCLUDED.parsed_at
	`

	_, err = s.db.ExecContext(ctx, query,
		content.ID,
		content.FileID,
		string(content.Format),
		content.Title,
		content.Content,
		sections,
		metadata,
		content.ParsedAt,
	)
	return mapError(err)
}

// GetByFile retrieves the parsed content of a file
func (s *ParsedContentStore) GetByFile(ctx context.Context, fileID string) (*domain.ParsedContent, error) {
	query := `
		SELECT id, file_id, format, title, content, sections, metadata, parsed_at
		FROM parsed_contents
		WHERE file_id = $1
	`

	var content domain.ParsedContent
	var sections, metadata []byte

	err := s.db.QueryRowContext(ctx, query, fileID).Scan(
		&content.ID,
		&content.FileID,
		&content.Format,
		&content.Title,
		&content.Content,
		&sections,
		&metadata,
		&content.ParsedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if err := json.Unmarshal(sections, &content.Sections); err != nil {
		return nil, fmt.Errorf("unmarshal sections: %w", err)
	}
	if err := json.Unmarshal(metadata, &content.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}

	return &content, nil
}

// DeleteByFile deletes the parsed content of a file
func (s *ParsedContentStore) DeleteByFile(ctx context.Context, fileID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM parsed_contents WHERE file_id = $1`, fileID)
	return err
}
