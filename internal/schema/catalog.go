package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seo-hub/backend/internal/metrics"
	"github.com/seo-hub/backend/internal/store"
	"github.com/seo-hub/backend/pkg/logger"
)

// DescriptionCache stores rendered schema descriptions keyed by the
// structure checksum of the underlying stores. Because the checksum changes
// whenever any table's DDL changes, cached descriptions can never go stale.
type DescriptionCache interface {
	GetSchemaDescription(ctx context.Context, checksum string) (string, bool, error)
	SetSchemaDescription(ctx context.Context, checksum, description string, ttl time.Duration) error
}

// Catalog renders a prompt-ready description of every table across all
// stores, with each table name carrying its store prefix.
type Catalog struct {
	stores *store.Stores
	cache  DescriptionCache
}

func NewCatalog(stores *store.Stores, cache DescriptionCache) *Catalog {
	return &Catalog{stores: stores, cache: cache}
}

// storePurposes is the one-line role of each store, shown above its tables.
var storePurposes = map[store.StoreID]string{
	store.StoreRankings: "Search engine ranking positions for tracked keywords over time.",
	store.StoreContent:  "Analyzed site pages: status, category, summary and publication dates.",
	store.StoreMentions: "Brand mention checks across AI assistant models.",
}

// Describe returns the full multi-store schema description. A store that
// cannot be introspected contributes an inline note instead of failing the
// whole description.
func (c *Catalog) Describe(ctx context.Context) string {
	checksum := c.stores.StructureChecksum(ctx)

	if c.cache != nil {
		if cached, ok, err := c.cache.GetSchemaDescription(ctx, checksum); err == nil && ok {
			metrics.CacheHits.WithLabelValues("schema", "hit").Inc()
			return cached
		}
		metrics.CacheHits.WithLabelValues("schema", "miss").Inc()
	}

	var b strings.Builder

	for _, id := range store.AllStoreIDs() {
		prefix := strings.TrimSuffix(store.PrefixesFor(id)[0], ".")

		b.WriteString(fmt.Sprintf("## Store %q (prefix: %s.)\n", id, prefix))
		b.WriteString(storePurposes[id])
		b.WriteString("\n\n")

		if err := c.describeStore(ctx, &b, id, prefix); err != nil {
			logger.Warn("Schema introspection failed",
				zap.String("store", string(id)),
				zap.Error(err),
			)
			b.WriteString(fmt.Sprintf("(schema unavailable: %v)\n", err))
		}

		b.WriteString("\n")
	}

	description := strings.TrimRight(b.String(), "\n") + "\n"

	if c.cache != nil {
		if err := c.cache.SetSchemaDescription(ctx, checksum, description, 24*time.Hour); err != nil {
			logger.Warn("Failed to cache schema description", zap.Error(err))
		}
	}

	return description
}

func (c *Catalog) describeStore(ctx context.Context, b *strings.Builder, id store.StoreID, prefix string) error {
	tables, err := c.stores.Tables(ctx, id)
	if err != nil {
		return err
	}

	sort.Strings(tables)

	db, err := c.stores.DB(id)
	if err != nil {
		return err
	}

	for _, table := range tables {
		columns, err := tableColumns(ctx, db, table)
		if err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}

		fks, err := foreignKeys(ctx, db, table)
		if err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}

		b.WriteString(fmt.Sprintf("Table %s.%s:\n", prefix, table))
		for _, col := range columns {
			b.WriteString("  - " + col.render(prefix, fks))
			b.WriteString("\n")
		}
	}

	return nil
}

type column struct {
	Name    string
	Type    string
	NotNull bool
	PK      bool
	Default sql.NullString
}

func (col column) render(prefix string, fks map[string]string) string {
	parts := []string{col.Name, strings.ToUpper(col.Type)}
	if col.PK {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.NotNull && !col.PK {
		parts = append(parts, "NOT NULL")
	}
	if col.Default.Valid {
		parts = append(parts, "DEFAULT "+col.Default.String)
	}
	if ref, ok := fks[col.Name]; ok {
		parts = append(parts, fmt.Sprintf("REFERENCES %s.%s", prefix, ref))
	}
	return strings.Join(parts, " ")
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	defer rows.Close()

	var columns []column

	for rows.Next() {
		var (
			cid     int
			col     column
			notNull int
			pk      int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &col.Default, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.NotNull = notNull != 0
		col.PK = pk != 0
		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// foreignKeys maps local column name to "referenced_table(referenced_column)".
func foreignKeys(ctx context.Context, db *sql.DB, table string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys: %w", err)
	}
	defer rows.Close()

	fks := make(map[string]string)

	for rows.Next() {
		var (
			id, seq            int
			refTable, from, to string
			onUpdate, onDelete string
			match              string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fks[from] = fmt.Sprintf("%s(%s)", refTable, to)
	}

	return fks, rows.Err()
}
