package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/shiftmate/mediaflow-service/internal/config"
	"github.com/shiftmate/mediaflow-service/internal/types"
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	pg := &Postgres{Db: db}
	err = pg.CreateTables()
	if err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS owners (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) UNIQUE NOT NULL,
			api_secret TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS storage_prefs (
			owner_id INTEGER NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
			context_type VARCHAR(50) NOT NULL CHECK (context_type IN ('task_proof', 'cancellation_evidence', 'incident_evidence')),
			mode VARCHAR(50) NOT NULL CHECK (mode IN ('telegram', 'object_store', 'both')),
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (owner_id, context_type)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS stored_files (
			id SERIAL PRIMARY KEY,
			owner_id INTEGER NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
			flow_id VARCHAR(64) NOT NULL,
			context_type VARCHAR(50) NOT NULL,
			context_id VARCHAR(255) NOT NULL,
			kind VARCHAR(50) NOT NULL,
			backend VARCHAR(50) NOT NULL,
			reference TEXT NOT NULL,
			size BIGINT NOT NULL,
			mime_type VARCHAR(255),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (backend, reference)
		);
		`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) CreateOwner(name, secretHash string) (string, error) {
	var ownerID int
	query := `
	INSERT INTO owners (name, api_secret)
	VALUES ($1, $2)
	RETURNING id
	`

	err := p.Db.QueryRow(query, name, secretHash).Scan(&ownerID)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d", ownerID), nil
}

func (p *Postgres) GetOwnerByName(name string) (string, string, error) {
	var ownerID int
	var secretHash string

	query := `SELECT id, api_secret FROM owners WHERE name = $1`

	err := p.Db.QueryRow(query, name).Scan(&ownerID, &secretHash)
	if err != nil {
		return "", "", err
	}

	return fmt.Sprintf("%d", ownerID), secretHash, nil
}

// GetStorageMode returns the owner's configured mode for the context type.
// Owners without an explicit preference default to telegram-only storage.
func (p *Postgres) GetStorageMode(ownerID string, contextType types.ContextType) (types.StorageMode, error) {
	var mode string

	query := `SELECT mode FROM storage_prefs WHERE owner_id = $1 AND context_type = $2`

	err := p.Db.QueryRow(query, ownerID, string(contextType)).Scan(&mode)
	if err == sql.ErrNoRows {
		return types.StorageModeTelegram, nil
	}
	if err != nil {
		return "", err
	}

	return types.StorageMode(mode), nil
}

func (p *Postgres) SetStorageMode(ownerID string, contextType types.ContextType, mode types.StorageMode) error {
	query := `
	INSERT INTO storage_prefs (owner_id, context_type, mode, updated_at)
	VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
	ON CONFLICT (owner_id, context_type)
	DO UPDATE SET mode = EXCLUDED.mode, updated_at = CURRENT_TIMESTAMP
	`

	_, err := p.Db.Exec(query, ownerID, string(contextType), string(mode))
	return err
}

// RecordStoredFiles writes a persisted batch to the file ledger in one
// transaction. Re-recording the same reference is a no-op so retried
// finishes stay idempotent.
func (p *Postgres) RecordStoredFiles(ownerID string, flow *types.MediaFlow, files []types.StoredFile) error {
	tx, err := p.Db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
	INSERT INTO stored_files (owner_id, flow_id, context_type, context_id, kind, backend, reference, size, mime_type)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (backend, reference) DO NOTHING
	`

	for _, f := range files {
		_, err := tx.Exec(query, ownerID, flow.ID, string(flow.ContextType), flow.ContextID,
			string(f.Kind), string(f.Backend), f.Reference, f.Size, f.MimeType)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// IsObjectCommitted reports whether an object-store key belongs to a
// successfully persisted batch. Used by the orphan sweeper.
func (p *Postgres) IsObjectCommitted(objectKey string) (bool, error) {
	var count int

	query := `SELECT COUNT(*) FROM stored_files WHERE backend = $1 AND reference = $2`

	err := p.Db.QueryRow(query, string(types.BackendObjectStore), objectKey).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
