package reports

import (
	"context"

	"github.com/google/uuid"

	"github.com/tarunvipparti/DFS/pkg/pagination"
)

// System defines the public contract for report persistence. Append-only:
// saved reports are immutable.
type System interface {
	Handler() *Handler

	Save(ctx context.Context, cmd CreateCommand) (*Report, error)

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Report], error)

	Find(ctx context.Context, id uuid.UUID) (*Report, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Clear(ctx context.Context) error
}
