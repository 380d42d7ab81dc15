package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/passari/web-ui/internal/domain"
)

// PreservationPendingPredicate selects objects eligible for preservation.
// It expects museum_object aliased as o and its latest package LEFT JOINed as p.
const PreservationPendingPredicate = `(NOT o.frozen AND COALESCE(
    (o.latest_package_id IS NULL AND NOT o.preserved)
    OR p.cancelled
    OR (p.preserved AND p.object_modified_date IS NOT NULL AND o.modified_date > p.object_modified_date),
    FALSE))`

const latestPackageJoin = `museum_object o LEFT JOIN museum_package p ON p.id = o.latest_package_id`

const objectColumns = `o.id, COALESCE(o.title, ''), o.preserved, o.frozen, o.freeze_reason, o.freeze_source,
       o.created_date, o.modified_date, o.latest_package_id`

// ObjectCounts are the database side of the overview statistics.
type ObjectCounts struct {
	Total     int
	Frozen    int
	Submitted int
	Rejected  int
	Preserved int
}

// ObjectRepository reads museum objects.
type ObjectRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.MuseumObject, error)
	ListFrozen(ctx context.Context, search SearchTerm, page PageRequest) (Page[domain.MuseumObject], error)
	Counts(ctx context.Context) (ObjectCounts, error)
	CountPreservationPending(ctx context.Context) (int, error)
	PreservationPendingIDs(ctx context.Context, exclude []int64, limit int) ([]int64, error)
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
	FrozenWithReasonExists(ctx context.Context, reason string) (bool, error)
	FreezeReasonCounts(ctx context.Context) ([]domain.FreezeReasonCount, error)
	FilterPreservationPending(ctx context.Context, ids []int64) ([]int64, error)

	Freeze(ctx context.Context, ids []int64, reason string, source domain.FreezeSource) (int, error)
	CancelLatestPackages(ctx context.Context, ids []int64) (int, error)
	Unfreeze(ctx context.Context, reason *string, ids []int64) ([]int64, error)
	ClearLatestPackage(ctx context.Context, id int64) error
}

type objectRepository struct {
	db Querier
}

// NewObjectRepository returns a Postgres-backed implementation.
func NewObjectRepository(pool *pgxpool.Pool) ObjectRepository {
	return &objectRepository{db: pool}
}

// NewObjectRepositoryWith binds the repository to an arbitrary querier, such as a transaction.
func NewObjectRepositoryWith(db Querier) ObjectRepository {
	return &objectRepository{db: db}
}

func (r *objectRepository) GetByID(ctx context.Context, id int64) (*domain.MuseumObject, error) {
	query := `SELECT ` + objectColumns + ` FROM museum_object o WHERE o.id=$1`
	obj, err := scanObject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// buildFrozenFilter returns the WHERE clause and arguments of the frozen object listing.
func buildFrozenFilter(search SearchTerm) (string, []any) {
	clauses := []string{"o.frozen"}
	args := []any{}

	if search.ObjectID != nil {
		args = append(args, *search.ObjectID)
		clauses = append(clauses, fmt.Sprintf("o.id=$%d", len(args)))
	} else if search.Pattern != nil {
		args = append(args, *search.Pattern)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(o.freeze_reason ILIKE %s OR o.title ILIKE %s)", placeholder, placeholder))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *objectRepository) ListFrozen(ctx context.Context, search SearchTerm, page PageRequest) (Page[domain.MuseumObject], error) {
	page = page.Normalize()
	where, args := buildFrozenFilter(search)

	var total int
	countQuery := `SELECT COUNT(*) FROM museum_object o WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return Page[domain.MuseumObject]{}, fmt.Errorf("count frozen objects: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM museum_object o WHERE %s ORDER BY o.id LIMIT %d OFFSET %d`,
		objectColumns, where, page.PerPage, page.Offset())
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return Page[domain.MuseumObject]{}, fmt.Errorf("list frozen objects: %w", err)
	}
	defer rows.Close()

	var objects []domain.MuseumObject
	for rows.Next() {
		obj, err := scanObject(rows)
		if err != nil {
			return Page[domain.MuseumObject]{}, err
		}
		objects = append(objects, *obj)
	}
	if err := rows.Err(); err != nil {
		return Page[domain.MuseumObject]{}, err
	}
	return NewPage(objects, page, total), nil
}

// Counts computes every database-backed overview figure in one round trip.
// Submitted and rejected look at the latest package only; preserved excludes
// objects that have changed since they were preserved.
func (r *objectRepository) Counts(ctx context.Context) (ObjectCounts, error) {
	query := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE o.frozen),
            COUNT(*) FILTER (WHERE p.id IS NOT NULL AND p.uploaded AND NOT p.rejected AND NOT p.preserved),
            COUNT(*) FILTER (WHERE p.id IS NOT NULL AND p.rejected),
            COUNT(*) FILTER (WHERE o.preserved AND NOT ` + PreservationPendingPredicate + `)
        FROM ` + latestPackageJoin

	var counts ObjectCounts
	if err := r.db.QueryRow(ctx, query).Scan(
		&counts.Total,
		&counts.Frozen,
		&counts.Submitted,
		&counts.Rejected,
		&counts.Preserved,
	); err != nil {
		return ObjectCounts{}, fmt.Errorf("count objects: %w", err)
	}
	return counts, nil
}

func (r *objectRepository) CountPreservationPending(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM ` + latestPackageJoin + ` WHERE ` + PreservationPendingPredicate
	var count int
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending objects: %w", err)
	}
	return count, nil
}

// PreservationPendingIDs returns up to limit pending object ids in ascending
// order, skipping the excluded ids.
func (r *objectRepository) PreservationPendingIDs(ctx context.Context, exclude []int64, limit int) ([]int64, error) {
	if limit <= 0 {
		return []int64{}, nil
	}
	if exclude == nil {
		exclude = []int64{}
	}
	query := `SELECT o.id FROM ` + latestPackageJoin + `
        WHERE ` + PreservationPendingPredicate + ` AND NOT (o.id = ANY($1))
        ORDER BY o.id
        LIMIT $2`
	rows, err := r.db.Query(ctx, query, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending objects: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *objectRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	rows, err := r.db.Query(ctx, `SELECT id FROM museum_object WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("select object ids: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *objectRepository) FrozenWithReasonExists(ctx context.Context, reason string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM museum_object WHERE frozen AND freeze_reason=$1)`, reason,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check freeze reason: %w", err)
	}
	return exists, nil
}

func (r *objectRepository) FreezeReasonCounts(ctx context.Context) ([]domain.FreezeReasonCount, error) {
	const query = `
        SELECT freeze_reason, COUNT(freeze_reason)
        FROM museum_object
        WHERE frozen AND freeze_reason IS NOT NULL
        GROUP BY freeze_reason
        ORDER BY COUNT(freeze_reason) DESC, freeze_reason`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count freeze reasons: %w", err)
	}
	defer rows.Close()

	result := []domain.FreezeReasonCount{}
	for rows.Next() {
		var entry domain.FreezeReasonCount
		if err := rows.Scan(&entry.Reason, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func scanObject(row pgx.Row) (*domain.MuseumObject, error) {
	var (
		obj    domain.MuseumObject
		source *string
	)
	if err := row.Scan(
		&obj.ID,
		&obj.Title,
		&obj.Preserved,
		&obj.Frozen,
		&obj.FreezeReason,
		&source,
		&obj.CreatedDate,
		&obj.ModifiedDate,
		&obj.LatestPackageID,
	); err != nil {
		return nil, err
	}
	if source != nil {
		fs := domain.FreezeSource(*source)
		obj.FreezeSource = &fs
	}
	return &obj, nil
}

// FilterPreservationPending returns the given ids that are eligible for preservation.
func (r *objectRepository) FilterPreservationPending(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	query := `SELECT o.id FROM ` + latestPackageJoin + `
        WHERE ` + PreservationPendingPredicate + ` AND o.id = ANY($1)
        ORDER BY o.id`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("filter pending objects: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func (r *objectRepository) Freeze(ctx context.Context, ids []int64, reason string, source domain.FreezeSource) (int, error) {
	const query = `
        UPDATE museum_object SET frozen=TRUE, freeze_reason=$2, freeze_source=$3
        WHERE id = ANY($1)`
	cmd, err := r.db.Exec(ctx, query, ids, reason, string(source))
	if err != nil {
		return 0, fmt.Errorf("freeze objects: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}

// CancelLatestPackages cancels the latest packages of the given objects
// unless they already reached a final state.
func (r *objectRepository) CancelLatestPackages(ctx context.Context, ids []int64) (int, error) {
	const query = `
        UPDATE museum_package p SET cancelled=TRUE
        FROM museum_object o
        WHERE o.latest_package_id = p.id
          AND o.id = ANY($1)
          AND NOT p.preserved AND NOT p.rejected AND NOT p.cancelled`
	cmd, err := r.db.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("cancel packages: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}

// Unfreeze unfreezes frozen objects matching every given filter and returns
// their ids. A nil reason or empty ids leaves that filter out.
func (r *objectRepository) Unfreeze(ctx context.Context, reason *string, ids []int64) ([]int64, error) {
	clauses := []string{"frozen"}
	args := []any{}
	if reason != nil {
		args = append(args, *reason)
		clauses = append(clauses, fmt.Sprintf("freeze_reason=$%d", len(args)))
	}
	if len(ids) > 0 {
		args = append(args, ids)
		clauses = append(clauses, fmt.Sprintf("id = ANY($%d)", len(args)))
	}

	query := `UPDATE museum_object SET frozen=FALSE, freeze_reason=NULL, freeze_source=NULL
        WHERE ` + strings.Join(clauses, " AND ") + ` RETURNING id`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unfreeze objects: %w", err)
	}
	unfrozen, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	sort.Slice(unfrozen, func(i, j int) bool { return unfrozen[i] < unfrozen[j] })
	return unfrozen, nil
}

func (r *objectRepository) ClearLatestPackage(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE museum_object SET latest_package_id=NULL WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("clear latest package: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
