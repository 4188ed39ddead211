package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tarunvipparti/DFS/pkg/pagination"
	"github.com/tarunvipparti/DFS/pkg/query"
	"github.com/tarunvipparti/DFS/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a report repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "reports"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Save(ctx context.Context, cmd CreateCommand) (*Report, error) {
	if cmd.Verdict == nil {
		return nil, fmt.Errorf("%w: verdict required", ErrInvalid)
	}

	verdictJSON, err := json.Marshal(cmd.Verdict)
	if err != nil {
		return nil, fmt.Errorf("marshal verdict: %w", err)
	}

	q := `
		INSERT INTO reports(id, artifact_id, fingerprint, classification, authenticity_score, threat_score, alert, summary, verdict)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, artifact_id, fingerprint, classification, authenticity_score, threat_score, alert, summary, verdict, created_at`

	insertArgs := []any{
		uuid.New(),
		cmd.ArtifactID,
		cmd.Verdict.Fingerprint,
		cmd.Verdict.Classification,
		cmd.Verdict.AuthenticityScore,
		cmd.Decision.ThreatScore,
		cmd.Decision.Alert,
		cmd.Verdict.Summary,
		verdictJSON,
	}

	report, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Report, error) {
		return repository.QueryOne(ctx, tx, q, insertArgs, scanReport)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info(
		"report saved",
		"id", report.ID,
		"artifact_id", report.ArtifactID,
		"classification", report.Classification,
		"alert", report.Alert,
	)
	return &report, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Report], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Summary", "Classification")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count reports: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanReport)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Report, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	report, err := repository.QueryOne(ctx, r.db, q, args, scanReport)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &report, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		if err := repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM reports WHERE id = $1",
			id,
		); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})

	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("report deleted", "id", id)
	return nil
}

func (r *repo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM reports"); err != nil {
		return fmt.Errorf("clear reports: %w", err)
	}

	r.logger.Info("reports cleared")
	return nil
}
