package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"hybrid-rag/internal/config"
)

// Template is the relational record kept for template-type documents. This
// core only reads it; the write path belongs to the template CRUD
// collaborator.
type Template struct {
	bun.BaseModel `bun:"table:templates,alias:t"`
	ID            string    `bun:"id,pk"`
	Type          string    `bun:"type,notnull"`
	Name          string    `bun:"name,notnull"`
	TenantID      string    `bun:"tenant_id"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	return sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN),
		pgdriver.WithPassword(cfg.Password),
	)), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// InitDB creates the templates table for dev setups.
func InitDB(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*Template)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Store exposes the read-only existence checks the reconciler needs.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ExistsByID(ctx context.Context, id string) (bool, error) {
	return s.db.NewSelect().
		Model((*Template)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

func (s *Store) ExistsByTypeAndName(ctx context.Context, docType, name string) (bool, error) {
	return s.db.NewSelect().
		Model((*Template)(nil)).
		Where("type = ?", docType).
		Where("name = ?", name).
		Exists(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
