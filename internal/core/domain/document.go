package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusIndexed    DocumentStatus = "indexed"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID         string         `json:"id"`
	FileName   string         `json:"file_name"`
	BlobName   string         `json:"blob_name"`
	MimeType   string         `json:"mime_type"`
	TenantID   string         `json:"tenant_id,omitempty"`
	ChunkCount int            `json:"chunk_count"`
	Status     DocumentStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
