package artifacts

import (
	"context"

	"github.com/google/uuid"

	"github.com/tarunvipparti/DFS/internal/analyzer"
	"github.com/tarunvipparti/DFS/pkg/pagination"
)

// System defines the public contract for artifact domain operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Artifact], error)

	Find(ctx context.Context, id uuid.UUID) (*Artifact, error)
	Create(ctx context.Context, cmd CreateCommand) (*Artifact, error)
	CreateBatch(ctx context.Context, cmds []CreateCommand) []BatchResult
	Delete(ctx context.Context, id uuid.UUID) error

	// ExtractPayload produces the analyzable bytes for an artifact: the raw
	// file for images, a representative frame for videos.
	ExtractPayload(ctx context.Context, id uuid.UUID) ([]byte, analyzer.MediaKind, error)
}
