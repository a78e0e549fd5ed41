package main

import (
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/smallnest/compintel/config"
	"github.com/smallnest/compintel/embedding"
	clog "github.com/smallnest/compintel/log"
	"github.com/smallnest/compintel/rag"
	"github.com/smallnest/compintel/vectorstore"
)

func buildEmbedder(cfg *config.AppConfig) (embedding.Embedder, error) {
	switch cfg.Embedder.Type {
	case "local":
		return embedding.NewLocalEmbedder(0), nil
	case "openai":
		oc := cfg.Embedder.OpenAI
		return embedding.NewOpenAIEmbedder(embedding.OpenAIOptions{
			APIKey:  oc.APIKey(),
			BaseURL: oc.BaseURL,
			Model:   oc.Model,
			Timeout: time.Duration(oc.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedder type %q", cfg.Embedder.Type)
	}
}

func buildStore(cfg *config.AppConfig) (vectorstore.Store, error) {
	switch cfg.VectorStore.Type {
	case "memory":
		return vectorstore.NewMemoryStore(), nil
	case "redis":
		rc := cfg.VectorStore.Redis
		return vectorstore.NewRedisStore(vectorstore.RedisOptions{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
			Prefix:   rc.Prefix,
			TTL:      time.Duration(rc.TTLSecs) * time.Second,
		}), nil
	case "sqlite":
		return vectorstore.NewSQLiteStore(vectorstore.SQLiteOptions{
			Path: cfg.VectorStore.SQLite.Path,
		})
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.VectorStore.Type)
	}
}

func buildLLM(cfg *config.AppConfig) (llms.Model, error) {
	opts := []openai.Option{openai.WithModel(cfg.LLM.Model)}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.LLM.BaseURL))
	}
	if key := cfg.LLM.APIKey(); key != "" {
		opts = append(opts, openai.WithToken(key))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	}
	return model, nil
}

func buildRAGService(cfg *config.AppConfig, logger clog.Logger) (*rag.Service, vectorstore.Store, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}
	store, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	svc := rag.NewService(embedder, store, rag.Options{
		Timeout: time.Duration(cfg.RAG.TimeoutSecs) * time.Second,
		Logger:  logger,
	})
	return svc, store, nil
}
