package cli

import (
	"context"
	"fmt"
	"log"

	"bakehouse/internal/config"
	"bakehouse/internal/db"
	"bakehouse/internal/store"
)

// openHistory builds the configured History backend. The returned
// cleanup func must be called when the command finishes.
func openHistory(ctx context.Context, cfg config.Config, logger *log.Logger) (store.History, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, fmt.Errorf("connect db: %w", err)
		}
		return store.NewPostgres(pool, logger), pool.Close, nil

	case "airtable":
		if cfg.AirtableBaseID == "" || cfg.AirtableAPIKey == "" {
			return nil, nil, fmt.Errorf("airtable backend requires AIRTABLE_BASE_ID and AIRTABLE_API_KEY")
		}
		h := store.NewAirtable(store.AirtableConfig{
			BaseID: cfg.AirtableBaseID,
			APIKey: cfg.AirtableAPIKey,
			Table:  cfg.AirtableTable,
		}, nil, logger)
		return h, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
