package model

import (
	"context"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPageSize is the number of records per history page.
	DefaultPageSize = 20
	// MaxRows caps the number of table rows passed to content generation.
	MaxRows = 5000
)

// PageOffset returns the row offset of a 1-based page. ok is false when the
// offset does not fit in an int, in which case the page is past the end.
func PageOffset(page, pageSize int) (offset int, ok bool) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page-1 > math.MaxInt/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}

// ReportStore defines persistence operations for report records.
type ReportStore interface {
	Create(ctx context.Context, record ReportRecord) (ReportRecord, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]ReportRecord, error)
	GetByOwnerAndName(ctx context.Context, ownerID uuid.UUID, storedName string) (ReportRecord, error)
}

// ReportRecord is persisted metadata of one generated artifact.
type ReportRecord struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	StoredName string
	CreatedAt  time.Time
}

// GeneratedReport is the result of a successful generation.
type GeneratedReport struct {
	Record      ReportRecord
	Artifact    []byte
	ContentType string
	// Degraded is set when the PDF renderer failed and HTML was stored instead.
	Degraded bool
}

// Artifact is an opened stored artifact. Callers must close Body.
type Artifact struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// ArtifactStore persists artifact bytes partitioned by owner.
type ArtifactStore interface {
	Save(ctx context.Context, ownerID uuid.UUID, name, contentType string, data []byte) (string, error)
	Open(ctx context.Context, ownerID uuid.UUID, storedName string) (Artifact, error)
	Delete(ctx context.Context, ownerID uuid.UUID, storedName string) error
}

// ContentGenerator produces report text from a prompt.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Renderer converts report HTML into a binary artifact.
type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// Mailer delivers account emails.
type Mailer interface {
	SendVerification(ctx context.Context, email, token string) error
}
