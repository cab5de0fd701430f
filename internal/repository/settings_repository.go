package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vuhungthcssuoilu-cloud/tracuudiemthi/internal/models"
)

// SettingsRepository persists the singleton portal settings document.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings document as raw JSON.
// Returns sql.ErrNoRows when the document was never saved.
func (r *SettingsRepository) Get(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := r.db.GetContext(ctx, &raw, "SELECT data FROM portal_settings WHERE id = $1", models.SettingsID); err != nil {
		return nil, err
	}
	return raw, nil
}

// Save writes the settings document wholesale.
func (r *SettingsRepository) Save(ctx context.Context, data json.RawMessage) error {
	const query = `INSERT INTO portal_settings (id, data, updated_at) VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, models.SettingsID, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
