package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Stores    StoresConfig
	Redis     RedisConfig
	LLM       LLMConfig
	Vector    VectorConfig
	Knowledge KnowledgeConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
}

// StoresConfig holds the paths of the three logical SQLite stores.
type StoresConfig struct {
	RankingsPath string
	ContentPath  string
	MentionsPath string
	QueryTimeout int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type LLMConfig struct {
	Provider       string
	Model          string
	APIKey         string
	Temperature    float32
	TopP           float32
	MaxTokens      int
	TimeoutSec     int
	EmbeddingModel string
	EmbeddingDim   int
}

// VectorConfig selects the similarity engine behind the pattern store.
// Provider "memory" keeps everything in process; "milvus" uses an external
// Milvus/Zilliz deployment.
type VectorConfig struct {
	Provider         string
	Endpoint         string
	APIKey           string
	CollectionPrefix string
	VectorDim        int
}

type KnowledgeConfig struct {
	Dir       string
	Exemplars int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/seo-hub")

	viper.SetEnvPrefix("SEO_HUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 60)
	viper.SetDefault("server.bodyLimit", 1048576)

	viper.SetDefault("stores.rankingsPath", "./data/rankings.db")
	viper.SetDefault("stores.contentPath", "./data/urls_analysis.db")
	viper.SetDefault("stores.mentionsPath", "./data/aimodels.db")
	viper.SetDefault("stores.queryTimeout", 30)

	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4")
	viper.SetDefault("llm.temperature", 0.2)
	viper.SetDefault("llm.topP", 0.95)
	viper.SetDefault("llm.maxTokens", 2048)
	viper.SetDefault("llm.timeoutSec", 60)
	viper.SetDefault("llm.embeddingModel", "text-embedding-3-small")
	viper.SetDefault("llm.embeddingDim", 1536)

	viper.SetDefault("vector.provider", "memory")
	viper.SetDefault("vector.endpoint", "localhost:19530")
	viper.SetDefault("vector.collectionPrefix", "seo_hub")
	viper.SetDefault("vector.vectorDim", 1536)

	viper.SetDefault("knowledge.dir", "./knowledge_base")
	viper.SetDefault("knowledge.exemplars", 5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
