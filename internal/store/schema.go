package store

import (
	"fmt"

	"github.com/seo-hub/backend/pkg/logger"
)

// Bootstrap DDL per store. The collection jobs that populate these tables
// live outside this service; the bootstrap exists so a fresh deployment has
// real tables to introspect and query.
var storeSchemas = map[StoreID]string{
	StoreRankings: `
	CREATE TABLE IF NOT EXISTS keywords (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword TEXT UNIQUE NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS rankings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword_id INTEGER NOT NULL,
		keyword TEXT NOT NULL,
		domain TEXT NOT NULL,
		position INTEGER,
		url TEXT,
		check_date TEXT NOT NULL,
		FOREIGN KEY (keyword_id) REFERENCES keywords(id)
	);
	CREATE INDEX IF NOT EXISTS idx_rankings_keyword ON rankings(keyword_id);
	CREATE INDEX IF NOT EXISTS idx_rankings_date ON rankings(check_date);
	`,

	StoreContent: `
	CREATE TABLE IF NOT EXISTS urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT UNIQUE NOT NULL,
		domain TEXT,
		status TEXT NOT NULL DEFAULT 'Pending',
		summary TEXT,
		category TEXT,
		primary_keyword TEXT,
		word_count INTEGER,
		date_published TEXT,
		date_modified TEXT,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_urls_domain ON urls(domain);
	CREATE INDEX IF NOT EXISTS idx_urls_status ON urls(status);
	CREATE INDEX IF NOT EXISTS idx_urls_published ON urls(date_published);
	`,

	StoreMentions: `
	CREATE TABLE IF NOT EXISTS keyword_rankings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		keyword TEXT NOT NULL,
		model_name TEXT NOT NULL,
		answer TEXT,
		brand_mentioned INTEGER NOT NULL DEFAULT 0,
		check_date TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_mentions_keyword ON keyword_rankings(keyword);
	CREATE INDEX IF NOT EXISTS idx_mentions_date ON keyword_rankings(check_date);
	`,
}

// InitSchemas creates the canonical tables of each store when absent.
func (s *Stores) InitSchemas() error {
	for _, id := range AllStoreIDs() {
		db := s.dbs[id]
		if _, err := db.Exec(storeSchemas[id]); err != nil {
			return fmt.Errorf("failed to initialize %s schema: %w", id, err)
		}
	}
	logger.Info("Store schemas initialized")
	return nil
}
