package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cellar-app/cellar/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Pragmas are per connection; seeding is sequential so one is enough.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS wineries (
	id          TEXT PRIMARY KEY,
	slug        TEXT NOT NULL,
	name        TEXT NOT NULL UNIQUE,
	address     TEXT,
	city        TEXT,
	region      TEXT NOT NULL,
	country     TEXT NOT NULL,
	phone       TEXT,
	website     TEXT,
	description TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS wines (
	id              TEXT PRIMARY KEY,
	slug            TEXT NOT NULL,
	winery_id       TEXT REFERENCES wineries(id) ON DELETE SET NULL,
	name            TEXT NOT NULL,
	vineyard        TEXT NOT NULL DEFAULT '',
	region          TEXT NOT NULL DEFAULT '',
	country         TEXT NOT NULL DEFAULT '',
	varietal        TEXT NOT NULL DEFAULT '',
	vintage         INTEGER,
	description     TEXT,
	alcohol_content REAL,
	image           TEXT,
	rating          REAL,
	rating_count    INTEGER,
	price           REAL,
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_wines_name_vintage ON wines(name, vintage);
CREATE INDEX IF NOT EXISTS idx_wines_winery_id ON wines(winery_id);
CREATE INDEX IF NOT EXISTS idx_wines_varietal ON wines(varietal);
CREATE INDEX IF NOT EXISTS idx_wineries_region ON wineries(region);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FindWineryByName(ctx context.Context, name string) (*model.Winery, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+strings.Join(wineryColumns, ", ")+` FROM wineries WHERE name = ?`,
		name,
	)
	w, err := scanWinery(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, eris.Wrapf(err, "sqlite: find winery %q", name)
}

func (s *SQLiteStore) FindWineryByToken(ctx context.Context, token string) (*model.Winery, error) {
	query, args, err := sqliteDialect.findWineryByToken(token).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build winery token query")
	}
	w, err := scanWinery(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, eris.Wrapf(err, "sqlite: find winery by token %q", token)
}

func (s *SQLiteStore) CreateWinery(ctx context.Context, rec model.WineryRecord) (*model.Winery, error) {
	w := &model.Winery{
		ID:           uuid.New().String(),
		Slug:         winerySlug(rec.Name),
		WineryRecord: rec,
		CreatedAt:    time.Now().UTC(),
	}
	w.UpdatedAt = w.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wineries (id, slug, name, address, city, region, country, phone, website, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Slug, rec.Name, rec.Address, rec.City, rec.Region, rec.Country,
		rec.Phone, rec.Website, rec.Description, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert winery %q", rec.Name)
	}
	return w, nil
}

func (s *SQLiteStore) ListWineries(ctx context.Context, filter WineryFilter) ([]model.Winery, error) {
	query, args, err := sqliteDialect.listWineries(filter).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list wineries")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list wineries")
	}
	defer rows.Close()

	var out []model.Winery
	for rows.Next() {
		w, err := scanWinery(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan winery")
		}
		out = append(out, *w)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list wineries iterate")
}

func (s *SQLiteStore) FindWine(ctx context.Context, name string, vintage *int) (*model.Wine, error) {
	// IS compares NULL vintages as equal.
	row := s.db.QueryRowContext(ctx,
		`SELECT `+strings.Join(wineColumns, ", ")+` FROM wines WHERE name = ? AND vintage IS ? LIMIT 1`,
		name, vintage,
	)
	w, err := scanWine(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, eris.Wrapf(err, "sqlite: find wine %q", name)
}

func (s *SQLiteStore) CreateWine(ctx context.Context, rec model.WineRecord, wineryID *string) (*model.Wine, error) {
	w := &model.Wine{
		ID:         uuid.New().String(),
		Slug:       wineSlug(rec.Name, rec.Vintage),
		WineryID:   wineryID,
		WineRecord: rec,
		CreatedAt:  time.Now().UTC(),
	}
	w.UpdatedAt = w.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wines (id, slug, winery_id, name, vineyard, region, country, varietal, vintage,
		 description, alcohol_content, image, rating, rating_count, price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Slug, wineryID, rec.Name, rec.Vineyard, rec.Region, rec.Country, rec.Varietal, rec.Vintage,
		rec.Description, rec.AlcoholContent, rec.Image, rec.Rating, rec.RatingCount, rec.Price,
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert wine %q", rec.Name)
	}
	return w, nil
}

func (s *SQLiteStore) PatchWine(ctx context.Context, id string, patch model.WinePatch) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE wines SET
		   description = COALESCE(?, description),
		   alcohol_content = COALESCE(?, alcohol_content),
		   image = COALESCE(?, image),
		   updated_at = ?
		 WHERE id = ?`,
		patch.Description, patch.AlcoholContent, patch.Image, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: patch wine %s", id)
	}
	return checkRowsAffected(res, "wine", id)
}

func (s *SQLiteStore) ListWines(ctx context.Context, filter WineFilter) ([]model.Wine, error) {
	query, args, err := sqliteDialect.listWines(filter).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list wines")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list wines")
	}
	defer rows.Close()

	var out []model.Wine
	for rows.Next() {
		w, err := scanWine(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan wine")
		}
		out = append(out, *w)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list wines iterate")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*model.CatalogStats, error) {
	var st model.CatalogStats
	err := s.db.QueryRowContext(ctx, statsQuery).Scan(&st.Wineries, &st.Wines, &st.LinkedWines, &st.UndescribedWines)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}
	return &st, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanWinery(row scannable) (*model.Winery, error) {
	var w model.Winery
	var address, city, phone, website, description sql.NullString

	err := row.Scan(&w.ID, &w.Slug, &w.Name, &address, &city, &w.Region, &w.Country,
		&phone, &website, &description, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	w.Address = nullString(address)
	w.City = nullString(city)
	w.Phone = nullString(phone)
	w.Website = nullString(website)
	w.Description = nullString(description)
	return &w, nil
}

func scanWine(row scannable) (*model.Wine, error) {
	var w model.Wine
	var wineryID, description, image sql.NullString
	var vintage, ratingCount sql.NullInt64
	var alcohol, rating, price sql.NullFloat64

	err := row.Scan(&w.ID, &w.Slug, &wineryID, &w.Name, &w.Vineyard, &w.Region, &w.Country, &w.Varietal,
		&vintage, &description, &alcohol, &image, &rating, &ratingCount, &price,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	w.WineryID = nullString(wineryID)
	w.Vintage = nullInt(vintage)
	w.Description = nullString(description)
	w.AlcoholContent = nullFloat(alcohol)
	w.Image = nullString(image)
	w.Rating = nullFloat(rating)
	w.RatingCount = nullInt(ratingCount)
	w.Price = nullFloat(price)
	return &w, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	return &nf.Float64
}
