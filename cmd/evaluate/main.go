package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/seo-hub/backend/internal/evaluation"
	"github.com/seo-hub/backend/internal/knowledge"
	"github.com/seo-hub/backend/internal/llm"
	"github.com/seo-hub/backend/internal/planner"
	"github.com/seo-hub/backend/internal/schema"
	"github.com/seo-hub/backend/internal/store"
	"github.com/seo-hub/backend/pkg/config"
	appLogger "github.com/seo-hub/backend/pkg/logger"
)

// Runs the planning pipeline against a labeled dataset and prints routing
// accuracy and SQL fragment recall. Meant for checking prompt or exemplar
// changes before deploying them.
func main() {
	datasetPath := flag.String("dataset", "evaluation/dataset.json", "path to the labeled dataset")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	stores, err := store.Open(store.Paths{
		Rankings: cfg.Stores.RankingsPath,
		Content:  cfg.Stores.ContentPath,
		Mentions: cfg.Stores.MentionsPath,
	}, time.Duration(cfg.Stores.QueryTimeout)*time.Second)
	if err != nil {
		appLogger.Fatal("Failed to open stores", zap.Error(err))
	}
	defer stores.Close()

	if err := stores.InitSchemas(); err != nil {
		appLogger.Fatal("Failed to initialize store schemas", zap.Error(err))
	}

	llmClient := llm.NewClient(llm.Options{
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Temperature:    cfg.LLM.Temperature,
		TopP:           cfg.LLM.TopP,
		MaxTokens:      cfg.LLM.MaxTokens,
		Timeout:        time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})

	ctx := context.Background()

	patterns, err := knowledge.NewPatternStore(ctx, knowledge.NewMemoryIndex(), llmClient, cfg.Vector.CollectionPrefix)
	if err != nil {
		appLogger.Fatal("Failed to initialize pattern store", zap.Error(err))
	}
	if err := knowledge.LoadKnowledgeBase(ctx, patterns, cfg.Knowledge.Dir); err != nil {
		appLogger.Warn("Knowledge base load incomplete", zap.Error(err))
	}

	catalog := schema.NewCatalog(stores, nil)
	queryPlanner := planner.New(llmClient, catalog, patterns, cfg.Knowledge.Exemplars)

	dataset, err := evaluation.LoadDataset(*datasetPath)
	if err != nil {
		appLogger.Fatal("Failed to load dataset", zap.Error(err))
	}

	report, err := evaluation.NewEvaluator(queryPlanner).Run(ctx, dataset)
	if err != nil {
		appLogger.Fatal("Evaluation failed", zap.Error(err))
	}

	fmt.Println(report.Format())
}
