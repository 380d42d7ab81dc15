package repository

import (
	"strconv"
	"strings"
)

// SearchTerm is a parsed free-text search. A term that parses as an integer
// always means an exact object id; anything else is a substring match.
type SearchTerm struct {
	ObjectID *int64
	Pattern  *string
}

// ParseSearch parses user input. Blank input yields an empty SearchTerm.
func ParseSearch(raw string) SearchTerm {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SearchTerm{}
	}
	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return SearchTerm{ObjectID: &id}
	}
	pattern := "%" + escapeLike(trimmed) + "%"
	return SearchTerm{Pattern: &pattern}
}

// IsEmpty reports whether no search was requested.
func (s SearchTerm) IsEmpty() bool {
	return s.ObjectID == nil && s.Pattern == nil
}

// escapeLike makes LIKE wildcards in user input match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
