package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/passari/web-ui/internal/repository"
)

var errInvalidID = errors.New("invalid object id")

// pageRequest reads page and limit. Missing or malformed values fall back
// to the defaults.
func pageRequest(c *fiber.Ctx) repository.PageRequest {
	req := repository.PageRequest{
		Page:    queryInt(c, "page"),
		PerPage: queryInt(c, "limit"),
	}
	return req.Normalize()
}

func queryInt(c *fiber.Ctx, key string) int {
	val, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return val
}

// parseBool accepts true/1 and false/0. Anything else is false.
func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1":
		return true
	default:
		return false
	}
}

// parseIDList splits raw on sep and parses each non-blank entry.
func parseIDList(raw, sep string) ([]int64, error) {
	ids := []int64{}
	for _, entry := range strings.Split(raw, sep) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, err := strconv.ParseInt(entry, 10, 64)
		if err != nil {
			return nil, errInvalidID
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}

// freezeReason normalizes a freeze reason the same way for freezing and
// unfreezing, so a reason can always be matched with what was stored.
func freezeReason(raw string) string {
	return strings.TrimSpace(raw)
}
