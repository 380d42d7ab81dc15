package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearch(t *testing.T) {
	assert.True(t, ParseSearch("").IsEmpty())
	assert.True(t, ParseSearch("   ").IsEmpty())

	byID := ParseSearch(" 1234 ")
	require.NotNil(t, byID.ObjectID)
	assert.EqualValues(t, 1234, *byID.ObjectID)
	assert.Nil(t, byID.Pattern)

	byText := ParseSearch("Sword")
	require.NotNil(t, byText.Pattern)
	assert.Equal(t, "%Sword%", *byText.Pattern)
	assert.Nil(t, byText.ObjectID)

	escaped := ParseSearch(`50%_off\`)
	require.NotNil(t, escaped.Pattern)
	assert.Equal(t, `%50\%\_off\\%`, *escaped.Pattern)
}

func TestBuildFrozenFilter(t *testing.T) {
	where, args := buildFrozenFilter(SearchTerm{})
	assert.Equal(t, "o.frozen", where)
	assert.Empty(t, args)

	where, args = buildFrozenFilter(ParseSearch("7"))
	assert.Equal(t, "o.frozen AND o.id=$1", where)
	assert.Equal(t, []any{int64(7)}, args)

	where, args = buildFrozenFilter(ParseSearch("broken"))
	assert.Equal(t, "o.frozen AND (o.freeze_reason ILIKE $1 OR o.title ILIKE $1)", where)
	assert.Equal(t, []any{"%broken%"}, args)
}

func TestBuildPackageListQuery(t *testing.T) {
	t.Run("only latest joins on latest package", func(t *testing.T) {
		query, args := buildPackageListQuery(PackageFilter{OnlyLatest: true})
		assert.Contains(t, query, "JOIN museum_object o ON p.id = o.latest_package_id")
		assert.NotContains(t, query, "p.preserved")
		assert.Empty(t, args)
	})

	t.Run("all statuses selected means no status filter", func(t *testing.T) {
		query, _ := buildPackageListQuery(PackageFilter{Preserved: true, Rejected: true, Cancelled: true, Processing: true})
		assert.Contains(t, query, "JOIN museum_object o ON p.museum_object_id = o.id")
		assert.NotContains(t, query, "p.rejected")
	})

	t.Run("selected statuses are OR-ed", func(t *testing.T) {
		query, _ := buildPackageListQuery(PackageFilter{Preserved: true, Processing: true})
		assert.Contains(t, query, "(p.preserved OR (NOT p.preserved AND NOT p.rejected AND NOT p.cancelled))")
		assert.NotContains(t, query, "p.rejected OR")
	})

	t.Run("numeric search matches object id", func(t *testing.T) {
		query, args := buildPackageListQuery(PackageFilter{Rejected: true, Search: ParseSearch("12")})
		assert.Contains(t, query, "(p.rejected) AND p.museum_object_id=$1")
		assert.Equal(t, []any{int64(12)}, args)
	})

	t.Run("text search matches filename or title", func(t *testing.T) {
		query, args := buildPackageListQuery(PackageFilter{Search: ParseSearch("tar")})
		assert.Contains(t, query, "(p.sip_filename ILIKE $1 OR o.title ILIKE $1)")
		assert.Equal(t, []any{"%tar%"}, args)
	})
}
