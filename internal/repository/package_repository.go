package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/passari/web-ui/internal/domain"
)

// PackageFilter captures the SIP listing parameters.
type PackageFilter struct {
	OnlyLatest bool
	Preserved  bool
	Rejected   bool
	Cancelled  bool
	Processing bool
	Search     SearchTerm
	Page       PageRequest
}

// statusFilterActive reports whether the status flags narrow the result set.
// Selecting none and selecting all four both mean "don't filter".
func (f PackageFilter) statusFilterActive() bool {
	selected := 0
	for _, on := range []bool{f.Preserved, f.Rejected, f.Cancelled, f.Processing} {
		if on {
			selected++
		}
	}
	return selected != 0 && selected != 4
}

// PackageRepository reads museum packages together with their objects.
type PackageRepository interface {
	List(ctx context.Context, filter PackageFilter) (Page[domain.PackageWithObject], error)
	GetWithObject(ctx context.Context, id int64) (*domain.PackageWithObject, error)
	GetByFilename(ctx context.Context, filename string) (*domain.MuseumPackage, error)
	GetByObjectAndSIPID(ctx context.Context, objectID int64, sipID string) (*domain.MuseumPackage, error)
}

type packageRepository struct {
	db Querier
}

// NewPackageRepository returns a Postgres-backed implementation.
func NewPackageRepository(pool *pgxpool.Pool) PackageRepository {
	return &packageRepository{db: pool}
}

const packageColumns = `p.id, p.sip_filename, COALESCE(p.sip_id, ''), p.museum_object_id, p.object_modified_date,
       p.downloaded, p.packaged, p.uploaded, p.rejected, p.preserved, p.cancelled, p.created_date`

const packageWithObjectColumns = packageColumns + `,
       ` + objectColumns

// buildPackageListQuery returns the FROM/WHERE part shared by the count and
// list queries, along with its arguments.
func buildPackageListQuery(filter PackageFilter) (string, []any) {
	from := "museum_package p "
	if filter.OnlyLatest {
		from += "JOIN museum_object o ON p.id = o.latest_package_id"
	} else {
		from += "JOIN museum_object o ON p.museum_object_id = o.id"
	}

	clauses := []string{"1=1"}
	args := []any{}

	if filter.statusFilterActive() {
		var statusClauses []string
		if filter.Preserved {
			statusClauses = append(statusClauses, "p.preserved")
		}
		if filter.Rejected {
			statusClauses = append(statusClauses, "p.rejected")
		}
		if filter.Cancelled {
			statusClauses = append(statusClauses, "p.cancelled")
		}
		if filter.Processing {
			statusClauses = append(statusClauses, "(NOT p.preserved AND NOT p.rejected AND NOT p.cancelled)")
		}
		clauses = append(clauses, "("+strings.Join(statusClauses, " OR ")+")")
	}

	if filter.Search.ObjectID != nil {
		args = append(args, *filter.Search.ObjectID)
		clauses = append(clauses, fmt.Sprintf("p.museum_object_id=$%d", len(args)))
	} else if filter.Search.Pattern != nil {
		args = append(args, *filter.Search.Pattern)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(p.sip_filename ILIKE %s OR o.title ILIKE %s)", placeholder, placeholder))
	}

	return fmt.Sprintf("%s WHERE %s", from, strings.Join(clauses, " AND ")), args
}

func (r *packageRepository) List(ctx context.Context, filter PackageFilter) (Page[domain.PackageWithObject], error) {
	page := filter.Page.Normalize()
	fromWhere, args := buildPackageListQuery(filter)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+fromWhere, args...).Scan(&total); err != nil {
		return Page[domain.PackageWithObject]{}, fmt.Errorf("count packages: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY p.created_date DESC, p.id DESC LIMIT %d OFFSET %d`,
		packageWithObjectColumns, fromWhere, page.PerPage, page.Offset())
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return Page[domain.PackageWithObject]{}, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var items []domain.PackageWithObject
	for rows.Next() {
		item, err := scanPackageWithObject(rows)
		if err != nil {
			return Page[domain.PackageWithObject]{}, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return Page[domain.PackageWithObject]{}, err
	}
	return NewPage(items, page, total), nil
}

func (r *packageRepository) GetWithObject(ctx context.Context, id int64) (*domain.PackageWithObject, error) {
	query := `SELECT ` + packageWithObjectColumns + `
        FROM museum_package p JOIN museum_object o ON p.museum_object_id = o.id
        WHERE p.id=$1`
	return scanPackageWithObject(r.db.QueryRow(ctx, query, id))
}

func (r *packageRepository) GetByFilename(ctx context.Context, filename string) (*domain.MuseumPackage, error) {
	query := `SELECT ` + packageColumns + ` FROM museum_package p WHERE p.sip_filename=$1`
	return scanPackage(r.db.QueryRow(ctx, query, filename))
}

func (r *packageRepository) GetByObjectAndSIPID(ctx context.Context, objectID int64, sipID string) (*domain.MuseumPackage, error) {
	query := `SELECT ` + packageColumns + ` FROM museum_package p WHERE p.museum_object_id=$1 AND p.sip_id=$2`
	return scanPackage(r.db.QueryRow(ctx, query, objectID, sipID))
}

func scanPackage(row pgx.Row) (*domain.MuseumPackage, error) {
	var pkg domain.MuseumPackage
	if err := row.Scan(packageDest(&pkg)...); err != nil {
		return nil, err
	}
	return &pkg, nil
}

func scanPackageWithObject(row pgx.Row) (*domain.PackageWithObject, error) {
	var (
		item   domain.PackageWithObject
		source *string
	)
	dest := packageDest(&item.Package)
	dest = append(dest,
		&item.Object.ID,
		&item.Object.Title,
		&item.Object.Preserved,
		&item.Object.Frozen,
		&item.Object.FreezeReason,
		&source,
		&item.Object.CreatedDate,
		&item.Object.ModifiedDate,
		&item.Object.LatestPackageID,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if source != nil {
		fs := domain.FreezeSource(*source)
		item.Object.FreezeSource = &fs
	}
	return &item, nil
}

func packageDest(pkg *domain.MuseumPackage) []any {
	return []any{
		&pkg.ID,
		&pkg.SIPFilename,
		&pkg.SIPID,
		&pkg.MuseumObjectID,
		&pkg.ObjectModifiedDate,
		&pkg.Downloaded,
		&pkg.Packaged,
		&pkg.Uploaded,
		&pkg.Rejected,
		&pkg.Preserved,
		&pkg.Cancelled,
		&pkg.CreatedDate,
	}
}
