package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for the cluster registry.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a cluster Store backed by the given pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const infoColumns = `id, name, description, api_server_url, version, status,
	created_at, last_checked, node_count, namespace_count, pod_count`

func scanInfoRow(row pgx.Row) (Info, error) {
	var info Info
	err := row.Scan(
		&info.ID, &info.Name, &info.Description, &info.APIServerURL,
		&info.Version, &info.Status, &info.CreatedAt, &info.LastChecked,
		&info.NodeCount, &info.NamespaceCount, &info.PodCount,
	)
	return info, err
}

// CreateCluster persists the config and initial info atomically. Either both
// rows land or neither does.
func (s *Store) CreateCluster(ctx context.Context, cfg Config, info Info) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `INSERT INTO cluster_configs (
		id, name, description, api_server_url, token, ca_cert_data
	) VALUES ($1, $2, $3, $4, $5, $6)`,
		cfg.ID, cfg.Name, cfg.Description, cfg.APIServerURL, cfg.BearerToken, cfg.CACertData,
	)
	if err != nil {
		return fmt.Errorf("inserting cluster config: %w", err)
	}

	_, err = tx.Exec(ctx, `INSERT INTO cluster_infos (
		id, name, description, api_server_url, version, status,
		created_at, last_checked, node_count, namespace_count, pod_count
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		info.ID, info.Name, info.Description, info.APIServerURL, info.Version,
		info.Status, info.CreatedAt, info.LastChecked,
		info.NodeCount, info.NamespaceCount, info.PodCount,
	)
	if err != nil {
		return fmt.Errorf("inserting cluster info: %w", err)
	}

	return tx.Commit(ctx)
}

// ListInfos returns all cluster snapshots ordered by creation time.
func (s *Store) ListInfos(ctx context.Context) ([]Info, error) {
	rows, err := s.db.Query(ctx, `SELECT `+infoColumns+` FROM cluster_infos ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing cluster infos: %w", err)
	}
	defer rows.Close()

	var items []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(
			&info.ID, &info.Name, &info.Description, &info.APIServerURL,
			&info.Version, &info.Status, &info.CreatedAt, &info.LastChecked,
			&info.NodeCount, &info.NamespaceCount, &info.PodCount,
		); err != nil {
			return nil, fmt.Errorf("scanning cluster info row: %w", err)
		}
		items = append(items, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cluster info rows: %w", err)
	}
	return items, nil
}

// GetInfo returns one cluster snapshot by id.
func (s *Store) GetInfo(ctx context.Context, id uuid.UUID) (Info, error) {
	row := s.db.QueryRow(ctx, `SELECT `+infoColumns+` FROM cluster_infos WHERE id = $1`, id)
	return scanInfoRow(row)
}

// GetConfig returns one cluster's registration credentials by id.
func (s *Store) GetConfig(ctx context.Context, id uuid.UUID) (Config, error) {
	var cfg Config
	err := s.db.QueryRow(ctx, `SELECT id, name, description, api_server_url, token, ca_cert_data
		FROM cluster_configs WHERE id = $1`, id).Scan(
		&cfg.ID, &cfg.Name, &cfg.Description, &cfg.APIServerURL, &cfg.BearerToken, &cfg.CACertData,
	)
	return cfg, err
}

// ListConfigs returns all registered cluster credentials. Used by startup
// reconciliation.
func (s *Store) ListConfigs(ctx context.Context) ([]Config, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, description, api_server_url, token, ca_cert_data
		FROM cluster_configs ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing cluster configs: %w", err)
	}
	defer rows.Close()

	var items []Config
	for rows.Next() {
		var cfg Config
		if err := rows.Scan(&cfg.ID, &cfg.Name, &cfg.Description, &cfg.APIServerURL,
			&cfg.BearerToken, &cfg.CACertData); err != nil {
			return nil, fmt.Errorf("scanning cluster config row: %w", err)
		}
		items = append(items, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cluster config rows: %w", err)
	}
	return items, nil
}

// UpdateInfo writes a refreshed snapshot (status, version, inventory,
// last_checked) after a successful probe.
func (s *Store) UpdateInfo(ctx context.Context, info Info) error {
	tag, err := s.db.Exec(ctx, `UPDATE cluster_infos
		SET version = $2, status = $3, last_checked = $4,
		    node_count = $5, namespace_count = $6, pod_count = $7
		WHERE id = $1`,
		info.ID, info.Version, info.Status, info.LastChecked,
		info.NodeCount, info.NamespaceCount, info.PodCount,
	)
	if err != nil {
		return fmt.Errorf("updating cluster info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateStatus writes only status and last_checked. A failed probe must not
// roll back the last successful inventory snapshot.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, lastChecked time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE cluster_infos
		SET status = $2, last_checked = $3 WHERE id = $1`,
		id, status, lastChecked,
	)
	if err != nil {
		return fmt.Errorf("updating cluster status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Delete removes both registry rows for a cluster.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cluster_infos WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting cluster info: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM cluster_configs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting cluster config: %w", err)
	}

	return tx.Commit(ctx)
}
