//go:build container

package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/passari/web-ui/internal/domain"
	"github.com/passari/web-ui/internal/persistence"
	"github.com/passari/web-ui/internal/repository"
	"github.com/passari/web-ui/internal/testhelpers"
)

type fixture struct {
	t    *testing.T
	ctx  context.Context
	pool *pgxpool.Pool
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, ctx: context.Background(), pool: testhelpers.StartPostgres(t)}
}

func (f *fixture) exec(sql string, args ...any) {
	f.t.Helper()
	_, err := f.pool.Exec(f.ctx, sql, args...)
	require.NoError(f.t, err)
}

func (f *fixture) object(id int64, title string) {
	f.t.Helper()
	f.exec(`INSERT INTO museum_object (id, title) VALUES ($1, $2)`, id, title)
}

func (f *fixture) frozen(id int64, reason string) {
	f.t.Helper()
	f.object(id, "")
	f.exec(`UPDATE museum_object SET frozen=TRUE, freeze_reason=$2, freeze_source='user' WHERE id=$1`, id, reason)
}

// pkg adds a package in the given status: processing, submitted, rejected,
// preserved or cancelled.
func (f *fixture) pkg(objectID int64, filename, status string, latest bool) int64 {
	f.t.Helper()
	var id int64
	err := f.pool.QueryRow(f.ctx, `
        INSERT INTO museum_package (sip_filename, sip_id, museum_object_id, uploaded, rejected, preserved, cancelled)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`,
		filename, filename+"-sip", objectID,
		status == "submitted" || status == "rejected" || status == "preserved",
		status == "rejected", status == "preserved", status == "cancelled",
	).Scan(&id)
	require.NoError(f.t, err)
	if latest {
		f.exec(`UPDATE museum_object SET latest_package_id=$1 WHERE id=$2`, id, objectID)
	}
	return id
}

func TestPackageStatusFilters(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewPackageRepository(f.pool)

	statuses := []string{"preserved", "rejected", "cancelled", "processing"}
	id := int64(1)
	for _, status := range statuses {
		for i := 0; i < 2; i++ {
			f.object(id, "Object")
			f.pkg(id, fmt.Sprintf("%d-%s.tar", id, status), status, true)
			id++
		}
	}

	cases := []struct {
		name   string
		filter repository.PackageFilter
		total  int
	}{
		{name: "no filter", filter: repository.PackageFilter{}, total: 8},
		{name: "all four", filter: repository.PackageFilter{Preserved: true, Rejected: true, Cancelled: true, Processing: true}, total: 8},
		{name: "preserved", filter: repository.PackageFilter{Preserved: true}, total: 2},
		{name: "rejected or cancelled", filter: repository.PackageFilter{Rejected: true, Cancelled: true}, total: 4},
		{name: "processing", filter: repository.PackageFilter{Processing: true}, total: 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := repo.List(f.ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.total, page.Total)
			assert.Len(t, page.Items, tc.total)
		})
	}

	page, err := repo.List(f.ctx, repository.PackageFilter{Processing: true})
	require.NoError(t, err)
	for _, item := range page.Items {
		assert.Equal(t, domain.PackageStatusProcessing, item.Package.Status())
	}
}

func TestPackageListOnlyLatestAndSearch(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewPackageRepository(f.pool)

	f.object(1, "Painting")
	f.pkg(1, "1-old.tar", "rejected", false)
	newest := f.pkg(1, "1-new.tar", "processing", true)
	f.object(2, "Statue")
	f.pkg(2, "2-orphan.tar", "cancelled", false)

	page, err := repo.List(f.ctx, repository.PackageFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	page, err = repo.List(f.ctx, repository.PackageFilter{OnlyLatest: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, newest, page.Items[0].Package.ID)
	assert.True(t, page.Items[0].Package.IsLatestFor(&page.Items[0].Object))

	page, err = repo.List(f.ctx, repository.PackageFilter{Search: repository.ParseSearch("1")})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = repo.List(f.ctx, repository.PackageFilter{Search: repository.ParseSearch("STATUE")})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "2-orphan.tar", page.Items[0].Package.SIPFilename)

	page, err = repo.List(f.ctx, repository.PackageFilter{Page: repository.PageRequest{Page: 2, PerPage: 2}})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Pages())

	pkg, err := repo.GetByObjectAndSIPID(f.ctx, 1, "1-new.tar-sip")
	require.NoError(t, err)
	assert.Equal(t, newest, pkg.ID)

	byName, err := repo.GetByFilename(f.ctx, "1-old.tar")
	require.NoError(t, err)
	assert.True(t, byName.Rejected)
}

func TestUnfreezeMatchesEveryFilter(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewObjectRepository(f.pool)

	f.frozen(1, "A")
	f.frozen(2, "B")
	f.frozen(3, "A")
	f.frozen(4, "B")

	reason := "A"
	unfrozen, err := repo.Unfreeze(f.ctx, &reason, []int64{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, unfrozen)

	obj, err := repo.GetByID(f.ctx, 3)
	require.NoError(t, err)
	assert.False(t, obj.Frozen)
	assert.Nil(t, obj.FreezeReason)
	assert.Equal(t, "unknown", obj.FreezeSourceLabel())

	exists, err := repo.FrozenWithReasonExists(f.ctx, "A")
	require.NoError(t, err)
	assert.True(t, exists)

	unfrozen, err = repo.Unfreeze(f.ctx, nil, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, unfrozen)

	exists, err = repo.FrozenWithReasonExists(f.ctx, "A")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFrozenListingAndReasonCounts(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewObjectRepository(f.pool)

	f.frozen(10, "Broken image")
	f.frozen(11, "Broken image")
	f.frozen(12, "Missing 100%")
	f.object(13, "Not frozen")

	page, err := repo.ListFrozen(f.ctx, repository.SearchTerm{}, repository.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	page, err = repo.ListFrozen(f.ctx, repository.ParseSearch("broken"), repository.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = repo.ListFrozen(f.ctx, repository.ParseSearch("100%"), repository.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 12, page.Items[0].ID)
	require.NotNil(t, page.Items[0].FreezeSource)
	assert.Equal(t, domain.FreezeSourceUser, *page.Items[0].FreezeSource)

	page, err = repo.ListFrozen(f.ctx, repository.ParseSearch("13"), repository.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.NotNil(t, page.Items)

	page, err = repo.ListFrozen(f.ctx, repository.SearchTerm{}, repository.PageRequest{Page: 1 << 60, PerPage: 1 << 40})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, repository.MaxPage, page.Page)
	assert.Empty(t, page.Items)

	counts, err := repo.FreezeReasonCounts(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.FreezeReasonCount{
		{Reason: "Broken image", Count: 2},
		{Reason: "Missing 100%", Count: 1},
	}, counts)
}

func TestPreservationPending(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewObjectRepository(f.pool)

	f.object(1, "never packaged")
	f.frozen(2, "hold")
	f.object(3, "cancelled")
	f.pkg(3, "3.tar", "cancelled", true)
	f.object(4, "modified after preservation")
	f.pkg(4, "4.tar", "preserved", true)
	f.exec(`UPDATE museum_object SET preserved=TRUE, modified_date=NOW() WHERE id=4`)
	f.exec(`UPDATE museum_package SET object_modified_date=NOW() - INTERVAL '1 day' WHERE sip_filename='4.tar'`)
	f.object(5, "preserved")
	f.pkg(5, "5.tar", "preserved", true)
	f.exec(`UPDATE museum_object SET preserved=TRUE, modified_date='2020-01-01' WHERE id=5`)
	f.exec(`UPDATE museum_package SET object_modified_date='2020-01-01' WHERE sip_filename='5.tar'`)
	f.object(6, "processing")
	f.pkg(6, "6.tar", "processing", true)

	count, err := repo.CountPreservationPending(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	ids, err := repo.PreservationPendingIDs(f.ctx, []int64{3}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids)

	ids, err = repo.PreservationPendingIDs(f.ctx, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	ids, err = repo.FilterPreservationPending(f.ctx, []int64{1, 2, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)

	existing, err := repo.ExistingIDs(f.ctx, []int64{6, 1, 99})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 6}, existing)

	counts, err := repo.Counts(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, repository.ObjectCounts{Total: 6, Frozen: 1, Preserved: 1}, counts)
}

func TestFreezeCancelsUnfinishedLatestPackages(t *testing.T) {
	f := newFixture(t)
	repo := repository.NewObjectRepository(f.pool)

	f.object(1, "processing")
	f.pkg(1, "1.tar", "processing", true)
	f.object(2, "preserved")
	f.pkg(2, "2.tar", "preserved", true)
	f.object(3, "no package")

	frozen, err := repo.Freeze(f.ctx, []int64{1, 2, 3}, "hold", domain.FreezeSourceUser)
	require.NoError(t, err)
	assert.Equal(t, 3, frozen)

	cancelled, err := repo.CancelLatestPackages(f.ctx, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	packages := repository.NewPackageRepository(f.pool)
	pkg, err := packages.GetByFilename(f.ctx, "1.tar")
	require.NoError(t, err)
	assert.True(t, pkg.Cancelled)

	require.NoError(t, repo.ClearLatestPackage(f.ctx, 1))
	obj, err := repo.GetByID(f.ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, obj.LatestPackageID)
}

func TestUserRepository(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, persistence.RunMigrations(f.ctx, f.pool, zap.NewNop()))
	repo := repository.NewUserRepository(f.pool)

	user := &domain.User{Email: "Admin@Example.com", PasswordHash: "hash", Active: true}
	require.NoError(t, repo.Create(f.ctx, user))
	require.NotZero(t, user.ID)

	role, err := repo.FindOrCreateRole(f.ctx, "admin")
	require.NoError(t, err)
	again, err := repo.FindOrCreateRole(f.ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, role.ID, again.ID)
	require.NoError(t, repo.AddRole(f.ctx, user.ID, role.ID))
	require.NoError(t, repo.AddRole(f.ctx, user.ID, role.ID))

	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateLoginInfo(f.ctx, user.ID, "10.0.0.1", first))
	require.NoError(t, repo.UpdateLoginInfo(f.ctx, user.ID, "10.0.0.2", first.Add(time.Hour)))

	loaded, err := repo.GetByEmail(f.ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loaded.ID)
	assert.Equal(t, 2, loaded.LoginCount)
	assert.True(t, loaded.HasRole("admin"))
	require.NotNil(t, loaded.LastLoginIP)
	assert.Equal(t, "10.0.0.1", *loaded.LastLoginIP)
	require.NotNil(t, loaded.CurrentLoginIP)
	assert.Equal(t, "10.0.0.2", *loaded.CurrentLoginIP)
}
