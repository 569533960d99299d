package storage

import (
	"context"
	"embed"
	stdsql "database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver for database/sql (migration runner)
)

//go:embed migrations
var migrationsFS embed.FS

// PostgresStore implements Store over a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a pooled connection, runs pending migrations, and
// returns a ready-to-use Store.
func NewPostgresStore(ctx context.Context, cfg Config) (*PostgresStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode, cfg.MaxOpenConns,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing pool config: %w", err)
	}
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("opening pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := runMigrations(cfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() { s.pool.Close() }

// Pool exposes the raw pool for health checks.
func (s *PostgresStore) Pool() *pgxpool.Pool { return s.pool }

func runMigrations(cfg Config) error {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("creating postgres migrate driver: %w", err)
	}
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, cfg.Database, driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return sourceDriver.Close()
}

// Put implements Store.
func (s *PostgresStore) Put(ctx context.Context, collection, userID, id string, data []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (collection, user_id, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (collection, user_id, id)
		DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, collection, userID, id, data)
	if err != nil {
		return fmt.Errorf("put %s/%s/%s: %w", collection, userID, id, err)
	}
	return nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, collection, userID, id string) (Document, error) {
	var doc Document
	doc.Collection, doc.UserID, doc.ID = collection, userID, id
	row := s.pool.QueryRow(ctx, `
		SELECT data, created_at, updated_at FROM documents
		WHERE collection = $1 AND user_id = $2 AND id = $3
	`, collection, userID, id)
	if err := row.Scan(&doc.Data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err.Error() == "no rows in result set" {
			return Document{}, &ErrNotFound{Collection: collection, UserID: userID, ID: id}
		}
		return Document{}, fmt.Errorf("get %s/%s/%s: %w", collection, userID, id, err)
	}
	return doc, nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, collection, userID, id string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM documents WHERE collection = $1 AND user_id = $2 AND id = $3
	`, collection, userID, id)
	if err != nil {
		return fmt.Errorf("delete %s/%s/%s: %w", collection, userID, id, err)
	}
	return nil
}

// Query implements Store.
func (s *PostgresStore) Query(ctx context.Context, collection, userID string, filters []Filter, order *Order, limit int) ([]Document, error) {
	return s.query(ctx, collection, &userID, filters, order, limit)
}

// QueryAllUsers implements Store.
func (s *PostgresStore) QueryAllUsers(ctx context.Context, collection string, filters []Filter, order *Order, limit int) ([]Document, error) {
	return s.query(ctx, collection, nil, filters, order, limit)
}

func (s *PostgresStore) query(ctx context.Context, collection string, userID *string, filters []Filter, order *Order, limit int) ([]Document, error) {
	query := `SELECT user_id, id, data, created_at, updated_at FROM documents WHERE collection = $1`
	args := []any{collection}
	if userID != nil {
		args = append(args, *userID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	for _, f := range filters {
		args = append(args, f.Value)
		op := "="
		switch f.Op {
		case OpLT:
			op = "<"
		case OpGT:
			op = ">"
		}
		query += fmt.Sprintf(" AND data->>'%s' %s $%d", f.Field, op, len(args))
	}
	if order != nil {
		dir := "ASC"
		if order.Dir == Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY data->>'%s' %s", order.Field, dir)
	}
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		d.Collection = collection
		if err := rows.Scan(&d.UserID, &d.ID, &d.Data, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", collection, err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// ClaimNext implements Store using a CTE + FOR UPDATE SKIP LOCKED claim,
// so concurrent worker pods never double-claim the same task.
func (s *PostgresStore) ClaimNext(ctx context.Context, collection, statusField, fromStatus, toStatus, claimedBy string) (Document, bool, error) {
	row := s.pool.QueryRow(ctx, `
		WITH next AS (
			SELECT user_id, id FROM documents
			WHERE collection = $1 AND data->>$2 = $3
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE documents d
		SET data = jsonb_set(
				jsonb_set(
					jsonb_set(d.data, array[$2], to_jsonb($4::text)),
					'{claimed_by}', to_jsonb($5::text)
				),
				'{claimed_at}', to_jsonb(now()::text)
			),
			updated_at = now()
		FROM next
		WHERE d.collection = $1 AND d.user_id = next.user_id AND d.id = next.id
		RETURNING d.user_id, d.id, d.data, d.created_at, d.updated_at
	`, collection, statusField, fromStatus, toStatus, claimedBy)

	var doc Document
	doc.Collection = collection
	if err := row.Scan(&doc.UserID, &doc.ID, &doc.Data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if err.Error() == "no rows in result set" {
			return Document{}, false, nil
		}
		return Document{}, false, fmt.Errorf("claim next %s: %w", collection, err)
	}
	return doc, true, nil
}

// Health reports connection pool statistics, mirroring the shape used
// elsewhere in this codebase for readiness probes.
type Health struct {
	Status            string        `json:"status"`
	ResponseTime      time.Duration `json:"response_time_ms"`
	AcquiredConns     int32         `json:"acquired_conns"`
	IdleConns         int32         `json:"idle_conns"`
	MaxConns          int32         `json:"max_conns"`
}

// CheckHealth pings the pool and reports its stats.
func (s *PostgresStore) CheckHealth(ctx context.Context) (*Health, error) {
	start := time.Now()
	if err := s.pool.Ping(ctx); err != nil {
		return &Health{Status: "unhealthy", ResponseTime: time.Since(start)}, err
	}
	stat := s.pool.Stat()
	return &Health{
		Status:        "healthy",
		ResponseTime:  time.Since(start),
		AcquiredConns: stat.AcquiredConns(),
		IdleConns:     stat.IdleConns(),
		MaxConns:      stat.MaxConns(),
	}, nil
}
