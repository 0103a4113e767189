package domain

import "time"

// ParseStatus tracks the outcome of parsing an uploaded file
type ParseStatus string

const (
	ParseStatusPending     ParseStatus = "pending"
	ParseStatusParsed      ParseStatus = "parsed"
	ParseStatusFailed      ParseStatus = "failed"
	ParseStatusUnsupported ParseStatus = "unsupported"
)

// File is an uploaded file with its raw bytes
type File struct {
	ID             string      `json:"id"`
	OwnerID        string      `json:"owner_id"`
	Filename       string      `json:"filename"`
	ContentType    string      `json:"content_type"`
	Size           int64       `json:"size"`
	Checksum       string      `json:"checksum"`
	Data           []byte      `json:"-"` // Served only via download
	Title          string      `json:"title,omitempty"`
	Description    string      `json:"description,omitempty"`
	Format         Format      `json:"format,omitempty"`
	ParseStatus    ParseStatus `json:"parse_status"`
	ParseError     string      `json:"parse_error,omitempty"`
	UploadedAt     time.Time   `json:"uploaded_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	LastAccessedAt *time.Time  `json:"last_accessed_at,omitempty"`
}

// CanAccess reports whether the caller may read or modify the file
func (f *File) CanAccess(auth *AuthContext) bool {
	if auth == nil {
		return false
	}
	return auth.IsAdmin() || f.OwnerID == auth.UserID
}

// UploadRequest carries a new file from a client
type UploadRequest struct {
	Filename    string
	MimeType    string
	Data        []byte
	Title       string
	Description string
}

// UploadResult is returned after an upload; Parsed is nil unless parsing succeeded
type UploadResult struct {
	File   *File          `json:"file"`
	Parsed *ParsedContent `json:"parsed,omitempty"`
}

// UpdateFileRequest edits descriptive fields of a file
type UpdateFileRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// FilePreview is the plain text view of a file
type FilePreview struct {
	FileID  string `json:"file_id"`
	Format  Format `json:"format"`
	Content string `json:"content"`
}
