package store

import (
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/gosimple/slug"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

var wineColumns = []string{
	"id", "slug", "winery_id", "name", "vineyard", "region", "country", "varietal",
	"vintage", "description", "alcohol_content", "image", "rating", "rating_count", "price",
	"created_at", "updated_at",
}

var wineryColumns = []string{
	"id", "slug", "name", "address", "city", "region", "country", "phone", "website",
	"description", "created_at", "updated_at",
}

var wineSortColumns = map[string]string{
	"name":    "name",
	"rating":  "rating",
	"price":   "price",
	"vintage": "vintage",
}

// dialect captures the differences between the SQLite and Postgres builders.
type dialect struct {
	placeholder sq.PlaceholderFormat
	// contains builds a case-insensitive substring match on col. SQLite's
	// LIKE already ignores ASCII case.
	contains func(col, needle string) sq.Sqlizer
}

var sqliteDialect = dialect{
	placeholder: sq.Question,
	contains: func(col, needle string) sq.Sqlizer {
		return sq.Expr(col+` LIKE ? ESCAPE '\'`, likePattern(needle))
	},
}

var postgresDialect = dialect{
	placeholder: sq.Dollar,
	contains: func(col, needle string) sq.Sqlizer {
		return sq.Expr(col+` ILIKE ? ESCAPE '\'`, likePattern(needle))
	},
}

func (d dialect) listWines(f WineFilter) sq.SelectBuilder {
	q := sq.Select(wineColumns...).From("wines").PlaceholderFormat(d.placeholder)

	if f.Varietal != "" {
		q = q.Where(sq.Eq{"varietal": f.Varietal})
	}
	if f.Country != "" {
		q = q.Where(sq.Eq{"country": f.Country})
	}
	if f.Region != "" {
		q = q.Where(sq.Eq{"region": f.Region})
	}
	if f.WineryID != "" {
		q = q.Where(sq.Eq{"winery_id": f.WineryID})
	}
	if f.MinRating > 0 {
		q = q.Where(sq.GtOrEq{"rating": f.MinRating})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where(sq.Or{d.contains("name", s), d.contains("vineyard", s), d.contains("varietal", s)})
	}

	return q.OrderBy(wineOrder(f.Sort), "id ASC").
		Limit(uint64(clampLimit(f.Limit))).
		Offset(uint64(max(f.Offset, 0)))
}

func (d dialect) listWineries(f WineryFilter) sq.SelectBuilder {
	q := sq.Select(wineryColumns...).From("wineries").PlaceholderFormat(d.placeholder)

	if f.Region != "" {
		q = q.Where(sq.Eq{"region": f.Region})
	}
	if f.Country != "" {
		q = q.Where(sq.Eq{"country": f.Country})
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q = q.Where(sq.Or{d.contains("name", s), d.contains("city", s)})
	}

	return q.OrderBy("name ASC").
		Limit(uint64(clampLimit(f.Limit))).
		Offset(uint64(max(f.Offset, 0)))
}

// findWineryByToken returns the first winery, by name, whose name contains token.
func (d dialect) findWineryByToken(token string) sq.SelectBuilder {
	return sq.Select(wineryColumns...).From("wineries").
		PlaceholderFormat(d.placeholder).
		Where(d.contains("name", token)).
		OrderBy("name ASC").
		Limit(1)
}

func wineOrder(sort string) string {
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		dir = "DESC"
		sort = sort[1:]
	}
	col, ok := wineSortColumns[sort]
	if !ok {
		return "name ASC"
	}
	return col + " " + dir
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultListLimit
	case n > maxListLimit:
		return maxListLimit
	default:
		return n
	}
}

// likePattern escapes LIKE wildcards in s and wraps it for a substring match.
// Callers pair it with ESCAPE '\'.
func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
	return "%" + s + "%"
}

func winerySlug(name string) string {
	return slug.Make(name)
}

func wineSlug(name string, vintage *int) string {
	label := "nv"
	if vintage != nil {
		label = strconv.Itoa(*vintage)
	}
	return slug.Make(name + " " + label)
}

const statsQuery = `SELECT
	(SELECT COUNT(*) FROM wineries),
	(SELECT COUNT(*) FROM wines),
	(SELECT COUNT(*) FROM wines WHERE winery_id IS NOT NULL),
	(SELECT COUNT(*) FROM wines WHERE description IS NULL OR TRIM(description) = '')`
