package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLStore keeps documents as JSON rows in one table. The SQLite flavour is
// the local mock database; Postgres serves the same schema remotely.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewPostgresStore connects with a libpq connection string or URL.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &SQLStore{db: db, driver: DriverPostgres}, nil
}

func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// one writer at a time for the file database
	db.SetMaxOpenConns(1)
	return &SQLStore{db: db, driver: DriverSQLite}, nil
}

func (s *SQLStore) RunMigrations(migrationsPath string) error {
	var (
		driver database.Driver
		err    error
	)
	switch s.driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(s.db, &postgres.Config{
			MigrationsTable: "storefront_schema_migrations",
		})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", s.driver)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		s.driver,
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (s *SQLStore) List(ctx context.Context, collection string) ([]Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1 ORDER BY position, id`

	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		fields := map[string]any{}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("unmarshal document %s: %w", id, err)
		}
		docs = append(docs, Document{ID: id, Fields: fields})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

func (s *SQLStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if collection == "" {
		return "", fmt.Errorf("%w: empty collection", ErrInvalidPath)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	id := uuid.NewString()
	now := time.Now().UTC()
	query := `INSERT INTO documents (id, collection, data, position, updated_at) VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.db.ExecContext(ctx, query, id, collection, string(data), nextPosition(), now); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (s *SQLStore) Update(ctx context.Context, docPath string, fields map[string]any) error {
	collection, id, err := SplitDocPath(docPath)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrDocumentNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var data []byte
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE id = $1 AND collection = $2`, id, collection).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDocumentNotFound
	}
	if err != nil {
		return fmt.Errorf("query document: %w", err)
	}

	current := map[string]any{}
	if err := json.Unmarshal(data, &current); err != nil {
		return fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	for k, v := range fields {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET data = $1, updated_at = $2 WHERE id = $3 AND collection = $4`,
		string(merged), time.Now().UTC(), id, collection); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return tx.Commit()
}

func (s *SQLStore) Delete(ctx context.Context, docPath string) error {
	collection, id, err := SplitDocPath(docPath)
	if err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return ErrDocumentNotFound
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND collection = $2`, id, collection)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if affected == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
