package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/seo-hub/backend/pkg/logger"
	"github.com/seo-hub/backend/pkg/utils"
)

// Stores owns one SQLite connection per logical store. Queries always target
// exactly one store; the registry never joins across connections.
type Stores struct {
	dbs          map[StoreID]*sql.DB
	queryTimeout time.Duration
}

type Paths struct {
	Rankings string
	Content  string
	Mentions string
}

func Open(paths Paths, queryTimeout time.Duration) (*Stores, error) {
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}

	s := &Stores{
		dbs:          make(map[StoreID]*sql.DB, 3),
		queryTimeout: queryTimeout,
	}

	for id, path := range map[StoreID]string{
		StoreRankings: paths.Rankings,
		StoreContent:  paths.Content,
		StoreMentions: paths.Mentions,
	} {
		db, err := openSQLite(path)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to open %s store: %w", id, err)
		}
		s.dbs[id] = db
		logger.Info("Store opened", zap.String("store", string(id)), zap.String("path", path))
	}

	return s, nil
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return db, nil
}

func (s *Stores) Close() error {
	var firstErr error
	for id, db := range s.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s store: %w", id, err)
		}
	}
	return firstErr
}

// DB exposes a store's connection for schema introspection.
func (s *Stores) DB(id StoreID) (*sql.DB, error) {
	db, ok := s.dbs[id]
	if !ok {
		return nil, fmt.Errorf("unknown store %q", id)
	}
	return db, nil
}

// Query runs a prefix-stripped SQL statement against exactly one store with
// the registry's per-query timeout.
func (s *Stores) Query(ctx context.Context, id StoreID, sqlText string) (*ResultSet, error) {
	db, err := s.DB(id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query against %s store failed: %w", id, err)
	}
	defer rows.Close()

	rs, err := scanResultSet(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s store result: %w", id, err)
	}

	logger.Debug("Store query executed",
		zap.String("store", string(id)),
		zap.Int("rows", len(rs.Rows)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return rs, nil
}

// Tables lists the user tables of one store.
func (s *Stores) Tables(ctx context.Context, id StoreID) ([]string, error) {
	db, err := s.DB(id)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s tables: %w", id, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// StructureChecksum hashes every reachable store's DDL. The checksum changes
// whenever any table or column changes, which makes it a safe cache key for
// derived schema descriptions. Unreachable stores contribute an error marker
// so their recovery also changes the key.
func (s *Stores) StructureChecksum(ctx context.Context) string {
	var parts []string
	for _, id := range AllStoreIDs() {
		db := s.dbs[id]
		rows, err := db.QueryContext(ctx,
			"SELECT COALESCE(sql, '') FROM sqlite_master WHERE type = 'table' ORDER BY name")
		if err != nil {
			parts = append(parts, string(id)+":unreachable")
			continue
		}
		for rows.Next() {
			var ddl string
			if err := rows.Scan(&ddl); err == nil {
				parts = append(parts, string(id)+":"+ddl)
			}
		}
		rows.Close()
	}
	sort.Strings(parts)

	joined := ""
	for _, p := range parts {
		joined += p + "\n"
	}
	return utils.HashString(joined)
}
