package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/legal-ai-assistant/internal/core/domain"
)

// ProviderRepository persists switchable provider configurations.
type ProviderRepository struct {
	db *sql.DB
}

func NewProviderRepository(db *sql.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ProviderRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across replica startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS provider_configs (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	enabled BOOLEAN NOT NULL DEFAULT TRUE,
	api_key TEXT,
	base_url TEXT,
	model TEXT NOT NULL,
	embedding_model TEXT NOT NULL,
	temperature DOUBLE PRECISION NOT NULL DEFAULT 0,
	max_tokens INTEGER NOT NULL DEFAULT 0,
	dimensions INTEGER NOT NULL DEFAULT 0,
	extra JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_provider_configs_enabled ON provider_configs(enabled);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const providerColumns = `id, name, kind, enabled, api_key, base_url, model, embedding_model, temperature, max_tokens, dimensions, extra`

func (r *ProviderRepository) ListEnabled(ctx context.Context) ([]domain.ProviderConfig, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+providerColumns+`
FROM provider_configs
WHERE enabled = TRUE
ORDER BY name
`)
	if err != nil {
		return nil, fmt.Errorf("query enabled providers: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ProviderConfig, 0)
	for rows.Next() {
		cfg, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate providers: %w", err)
	}
	return out, nil
}

func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*domain.ProviderConfig, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+providerColumns+`
FROM provider_configs
WHERE id = $1
`, id)

	cfg, err := scanProvider(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrConfigNotFound, "get provider config",
				fmt.Errorf("provider %s", id))
		}
		return nil, err
	}
	return cfg, nil
}

func (r *ProviderRepository) Save(ctx context.Context, cfg *domain.ProviderConfig) error {
	extraJSON, err := json.Marshal(extraOrEmpty(cfg.Extra))
	if err != nil {
		return fmt.Errorf("marshal extra: %w", err)
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
INSERT INTO provider_configs (
	id, name, kind, enabled, api_key, base_url, model, embedding_model, temperature, max_tokens, dimensions, extra, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	kind = EXCLUDED.kind,
	enabled = EXCLUDED.enabled,
	api_key = EXCLUDED.api_key,
	base_url = EXCLUDED.base_url,
	model = EXCLUDED.model,
	embedding_model = EXCLUDED.embedding_model,
	temperature = EXCLUDED.temperature,
	max_tokens = EXCLUDED.max_tokens,
	dimensions = EXCLUDED.dimensions,
	extra = EXCLUDED.extra,
	updated_at = EXCLUDED.updated_at
`,
		cfg.ID, cfg.Name, string(cfg.Kind), cfg.Enabled, cfg.APIKey, cfg.BaseURL,
		cfg.Model, cfg.EmbeddingModel, cfg.Temperature, cfg.MaxTokens, cfg.Dimensions, extraJSON, now,
	)
	if err != nil {
		return fmt.Errorf("upsert provider config: %w", err)
	}
	return nil
}

func (r *ProviderRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM provider_configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete provider config: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete provider rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrConfigNotFound, "delete provider config",
			fmt.Errorf("provider %s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (*domain.ProviderConfig, error) {
	var cfg domain.ProviderConfig
	var kind string
	var apiKey, baseURL sql.NullString
	var extraRaw []byte

	err := row.Scan(
		&cfg.ID, &cfg.Name, &kind, &cfg.Enabled, &apiKey, &baseURL,
		&cfg.Model, &cfg.EmbeddingModel, &cfg.Temperature, &cfg.MaxTokens, &cfg.Dimensions, &extraRaw,
	)
	if err != nil {
		return nil, err
	}

	cfg.Kind = domain.ProviderKind(kind)
	cfg.APIKey = apiKey.String
	cfg.BaseURL = baseURL.String
	if len(extraRaw) > 0 {
		if err := json.Unmarshal(extraRaw, &cfg.Extra); err != nil {
			return nil, fmt.Errorf("unmarshal extra: %w", err)
		}
	}
	return &cfg, nil
}

func extraOrEmpty(extra map[string]string) map[string]string {
	if extra == nil {
		return map[string]string{}
	}
	return extra
}
