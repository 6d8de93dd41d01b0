package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cellar-app/cellar/internal/db"
	"github.com/cellar-app/cellar/internal/model"
	"github.com/cellar-app/cellar/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool. The initial
// ping is retried on transient errors so a database that is still starting
// does not fail the run.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	err = resilience.Do(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS wineries (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	slug        TEXT NOT NULL,
	name        TEXT NOT NULL UNIQUE,
	address     TEXT,
	city        TEXT,
	region      TEXT NOT NULL,
	country     TEXT NOT NULL,
	phone       TEXT,
	website     TEXT,
	description TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS wines (
	id              TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	slug            TEXT NOT NULL,
	winery_id       TEXT REFERENCES wineries(id) ON DELETE SET NULL,
	name            TEXT NOT NULL,
	vineyard        TEXT NOT NULL DEFAULT '',
	region          TEXT NOT NULL DEFAULT '',
	country         TEXT NOT NULL DEFAULT '',
	varietal        TEXT NOT NULL DEFAULT '',
	vintage         INTEGER,
	description     TEXT,
	alcohol_content DOUBLE PRECISION,
	image           TEXT,
	rating          DOUBLE PRECISION,
	rating_count    INTEGER,
	price           DOUBLE PRECISION,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_wines_name_vintage ON wines(name, vintage);
CREATE INDEX IF NOT EXISTS idx_wines_winery_id ON wines(winery_id);
CREATE INDEX IF NOT EXISTS idx_wines_varietal ON wines(varietal);
CREATE INDEX IF NOT EXISTS idx_wineries_region ON wineries(region);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) FindWineryByName(ctx context.Context, name string) (*model.Winery, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+strings.Join(wineryColumns, ", ")+` FROM wineries WHERE name = $1`,
		name,
	)
	w, err := scanPgWinery(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, eris.Wrapf(err, "postgres: find winery %q", name)
}

func (s *PostgresStore) FindWineryByToken(ctx context.Context, token string) (*model.Winery, error) {
	query, args, err := postgresDialect.findWineryByToken(token).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build winery token query")
	}
	w, err := scanPgWinery(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, eris.Wrapf(err, "postgres: find winery by token %q", token)
}

func (s *PostgresStore) CreateWinery(ctx context.Context, rec model.WineryRecord) (*model.Winery, error) {
	w := &model.Winery{
		ID:           uuid.New().String(),
		Slug:         winerySlug(rec.Name),
		WineryRecord: rec,
		CreatedAt:    time.Now().UTC(),
	}
	w.UpdatedAt = w.CreatedAt

	_, err := s.pool.Exec(ctx,
		`INSERT INTO wineries (id, slug, name, address, city, region, country, phone, website, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		w.ID, w.Slug, rec.Name, rec.Address, rec.City, rec.Region, rec.Country,
		rec.Phone, rec.Website, rec.Description, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert winery %q", rec.Name)
	}
	return w, nil
}

func (s *PostgresStore) ListWineries(ctx context.Context, filter WineryFilter) ([]model.Winery, error) {
	query, args, err := postgresDialect.listWineries(filter).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list wineries")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list wineries")
	}
	defer rows.Close()

	var out []model.Winery
	for rows.Next() {
		w, err := scanPgWinery(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan winery")
		}
		out = append(out, *w)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list wineries iterate")
}

func (s *PostgresStore) FindWine(ctx context.Context, name string, vintage *int) (*model.Wine, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+strings.Join(wineColumns, ", ")+` FROM wines
		 WHERE name = $1 AND vintage IS NOT DISTINCT FROM $2 LIMIT 1`,
		name, vintage,
	)
	w, err := scanPgWine(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, eris.Wrapf(err, "postgres: find wine %q", name)
}

func (s *PostgresStore) CreateWine(ctx context.Context, rec model.WineRecord, wineryID *string) (*model.Wine, error) {
	w := &model.Wine{
		ID:         uuid.New().String(),
		Slug:       wineSlug(rec.Name, rec.Vintage),
		WineryID:   wineryID,
		WineRecord: rec,
		CreatedAt:  time.Now().UTC(),
	}
	w.UpdatedAt = w.CreatedAt

	_, err := s.pool.Exec(ctx,
		`INSERT INTO wines (id, slug, winery_id, name, vineyard, region, country, varietal, vintage,
		 description, alcohol_content, image, rating, rating_count, price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		w.ID, w.Slug, wineryID, rec.Name, rec.Vineyard, rec.Region, rec.Country, rec.Varietal, rec.Vintage,
		rec.Description, rec.AlcoholContent, rec.Image, rec.Rating, rec.RatingCount, rec.Price,
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert wine %q", rec.Name)
	}
	return w, nil
}

func (s *PostgresStore) PatchWine(ctx context.Context, id string, patch model.WinePatch) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE wines SET
		   description = COALESCE($1, description),
		   alcohol_content = COALESCE($2, alcohol_content),
		   image = COALESCE($3, image),
		   updated_at = $4
		 WHERE id = $5`,
		patch.Description, patch.AlcoholContent, patch.Image, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: patch wine %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "wine %s", id)
	}
	return nil
}

func (s *PostgresStore) ListWines(ctx context.Context, filter WineFilter) ([]model.Wine, error) {
	query, args, err := postgresDialect.listWines(filter).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list wines")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list wines")
	}
	defer rows.Close()

	var out []model.Wine
	for rows.Next() {
		w, err := scanPgWine(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan wine")
		}
		out = append(out, *w)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list wines iterate")
}

func (s *PostgresStore) Stats(ctx context.Context) (*model.CatalogStats, error) {
	var st model.CatalogStats
	err := s.pool.QueryRow(ctx, statsQuery).Scan(&st.Wineries, &st.Wines, &st.LinkedWines, &st.UndescribedWines)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}
	return &st, nil
}

// pgx scans NULL into pointer fields directly.

func scanPgWinery(row pgx.Row) (*model.Winery, error) {
	var w model.Winery
	err := row.Scan(&w.ID, &w.Slug, &w.Name, &w.Address, &w.City, &w.Region, &w.Country,
		&w.Phone, &w.Website, &w.Description, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func scanPgWine(row pgx.Row) (*model.Wine, error) {
	var w model.Wine
	err := row.Scan(&w.ID, &w.Slug, &w.WineryID, &w.Name, &w.Vineyard, &w.Region, &w.Country, &w.Varietal,
		&w.Vintage, &w.Description, &w.AlcoholContent, &w.Image, &w.Rating, &w.RatingCount, &w.Price,
		&w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
