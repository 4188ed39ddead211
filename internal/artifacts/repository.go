package artifacts

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tarunvipparti/DFS/pkg/pagination"
	"github.com/tarunvipparti/DFS/pkg/query"
	"github.com/tarunvipparti/DFS/pkg/repository"
	"github.com/tarunvipparti/DFS/pkg/storage"
)

const batchUploadWorkers = 4

type repo struct {
	db         *sql.DB
	storage    storage.System
	grabber    FrameGrabber
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an artifact repository implementing the System interface.
func New(
	db *sql.DB,
	store storage.System,
	grabber FrameGrabber,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		grabber:    grabber,
		logger:     logger.With("system", "artifacts"),
		pagination: pagination,
	}
}

func (r *repo) Handler(maxUploadSize int64) *Handler {
	return NewHandler(r, r.logger, r.pagination, maxUploadSize)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Artifact], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Filename", "ContentType")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count artifacts: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanArtifact)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanArtifact)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Artifact, error) {
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidFile)
	}

	id := uuid.New()
	key := buildStorageKey(id, sanitizeFilename(cmd.Filename))
	kind := kindFromContentType(cmd.ContentType)

	if err := r.storage.Upload(ctx, key, bytes.NewReader(cmd.Data), cmd.ContentType); err != nil {
		return nil, fmt.Errorf("upload artifact blob: %w", err)
	}

	q := `
		INSERT INTO artifacts(id, filename, content_type, kind, size_bytes, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, filename, content_type, kind, size_bytes, storage_key, uploaded_at, updated_at`

	insertArgs := []any{
		id,
		cmd.Filename,
		cmd.ContentType,
		kind,
		int64(len(cmd.Data)),
		key,
	}

	a, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Artifact, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanArtifact)
	})

	if err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("artifact created", "id", a.ID, "filename", a.Filename, "kind", a.Kind)
	return &a, nil
}

// CreateBatch uploads multiple artifacts concurrently. Each file succeeds or
// fails independently; results preserve input order.
func (r *repo) CreateBatch(ctx context.Context, cmds []CreateCommand) []BatchResult {
	results := make([]BatchResult, len(cmds))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchUploadWorkers)

	for i, cmd := range cmds {
		g.Go(func() error {
			artifact, err := r.Create(gctx, cmd)

			mu.Lock()
			defer mu.Unlock()

			results[i] = BatchResult{Filename: cmd.Filename}
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Artifact = artifact
			return nil
		})
	}

	g.Wait()
	return results
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	artifact, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM artifacts WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if delErr := r.storage.Delete(ctx, artifact.StorageKey); delErr != nil {
		r.logger.Warn(
			"blob delete failed after DB delete",
			"key", artifact.StorageKey,
			"error", delErr,
		)
	}

	r.logger.Info("artifact deleted", "id", id)
	return nil
}

func kindFromContentType(contentType string) string {
	if strings.HasPrefix(contentType, "video/") {
		return KindVideo
	}
	return KindImage
}

func buildStorageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("artifacts/%s/%s", id, filename)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "" {
		name = "artifact"
	}
	return url.PathEscape(name)
}
