package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/seo-hub/backend/pkg/logger"
)

// MilvusIndex backs the pattern store with an external Milvus (or Zilliz
// Cloud) instance. Unlike MemoryIndex it requires an embedding for every
// entry and query.
type MilvusIndex struct {
	client client.Client
	dim    int
}

func NewMilvusIndex(ctx context.Context, endpoint, apiKey string, dim int) (*MilvusIndex, error) {
	c, err := client.NewClient(ctx, client.Config{
		Address: endpoint,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	logger.Info("Milvus index connected", zap.String("endpoint", endpoint))

	return &MilvusIndex{client: c, dim: dim}, nil
}

func (m *MilvusIndex) ensureCollection(ctx context.Context, collection string) error {
	has, err := m.client.HasCollection(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: collection,
		AutoID:         false,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				TypeParams: map[string]string{entity.TypeParamMaxLength: "64"},
			},
			{
				Name:       "text",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{entity.TypeParamMaxLength: "8192"},
			},
			{
				Name:       "metadata",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{entity.TypeParamMaxLength: "4096"},
			},
			{
				Name:       "embedding",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{entity.TypeParamDim: strconv.Itoa(m.dim)},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, 1); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
	if err != nil {
		return fmt.Errorf("failed to build index spec: %w", err)
	}
	if err := m.client.CreateIndex(ctx, collection, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, collection, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

func (m *MilvusIndex) Add(ctx context.Context, collection string, entry Entry, embedding []float32) error {
	if embedding == nil {
		return fmt.Errorf("milvus index requires an embedding")
	}
	if len(embedding) != m.dim {
		return fmt.Errorf("embedding dimension %d does not match index dimension %d", len(embedding), m.dim)
	}

	if err := m.ensureCollection(ctx, collection); err != nil {
		return err
	}

	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	_, err = m.client.Insert(ctx, collection, "",
		entity.NewColumnVarChar("id", []string{entry.ID}),
		entity.NewColumnVarChar("text", []string{entry.Text}),
		entity.NewColumnVarChar("metadata", []string{string(metadata)}),
		entity.NewColumnFloatVector("embedding", m.dim, [][]float32{embedding}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	return nil
}

func (m *MilvusIndex) Search(ctx context.Context, collection string, _ string, embedding []float32, topK int) ([]SearchResult, error) {
	if embedding == nil {
		return nil, fmt.Errorf("milvus index requires a query embedding")
	}

	has, err := m.client.HasCollection(ctx, collection)
	if err != nil || !has {
		return nil, err
	}

	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	searchResults, err := m.client.Search(ctx, collection, nil, "",
		[]string{"id", "text", "metadata"},
		[]entity.Vector{entity.FloatVector(embedding)},
		"embedding", entity.COSINE, topK, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection: %w", err)
	}

	var results []SearchResult

	for _, sr := range searchResults {
		ids, _ := sr.Fields.GetColumn("id").(*entity.ColumnVarChar)
		texts, _ := sr.Fields.GetColumn("text").(*entity.ColumnVarChar)
		metas, _ := sr.Fields.GetColumn("metadata").(*entity.ColumnVarChar)
		if ids == nil || texts == nil {
			continue
		}

		for i := 0; i < sr.ResultCount; i++ {
			id, err := ids.ValueByIdx(i)
			if err != nil {
				continue
			}
			text, err := texts.ValueByIdx(i)
			if err != nil {
				continue
			}

			metadata := make(map[string]string)
			if metas != nil {
				if raw, err := metas.ValueByIdx(i); err == nil && raw != "" {
					if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
						logger.Warn("Failed to decode entry metadata",
							zap.String("id", id),
							zap.Error(err),
						)
					}
				}
			}

			results = append(results, SearchResult{
				Entry: Entry{ID: id, Text: text, Metadata: metadata},
				Score: sr.Scores[i],
			})
		}
	}

	return results, nil
}

func (m *MilvusIndex) Count(ctx context.Context, collection string) (int, error) {
	has, err := m.client.HasCollection(ctx, collection)
	if err != nil {
		return 0, err
	}
	if !has {
		return 0, nil
	}

	stats, err := m.client.GetCollectionStatistics(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("failed to read collection statistics: %w", err)
	}

	count, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, fmt.Errorf("unexpected row_count value %q: %w", stats["row_count"], err)
	}

	return count, nil
}

func (m *MilvusIndex) Close() error {
	return m.client.Close()
}
