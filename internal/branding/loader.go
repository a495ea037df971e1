package branding

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/odyssey-orders/internal/platform/db"
)

// DBLoader reads branding keys from the settings table.
type DBLoader struct {
	db db.Querier
}

// NewDBLoader constructs a DBLoader.
func NewDBLoader(q db.Querier) *DBLoader {
	return &DBLoader{db: q}
}

// LoadSettings implements Loader.
func (l *DBLoader) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := l.db.Query(ctx, `SELECT key, value FROM settings WHERE key = ANY($1)`, []string{KeyCurrency, KeyCompanyName, KeyLocale})
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}
