// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/northbound/hive-rag/internal/audit"
	"github.com/northbound/hive-rag/internal/chunker"
	"github.com/northbound/hive-rag/internal/config"
	"github.com/northbound/hive-rag/internal/container"
	"github.com/northbound/hive-rag/internal/conversation"
	"github.com/northbound/hive-rag/internal/embeddings"
	"github.com/northbound/hive-rag/internal/enhancer"
	"github.com/northbound/hive-rag/internal/foldermonitor"
	"github.com/northbound/hive-rag/internal/graphstore"
	"github.com/northbound/hive-rag/internal/heartbeat"
	"github.com/northbound/hive-rag/internal/herr"
	"github.com/northbound/hive-rag/internal/httpapi"
	"github.com/northbound/hive-rag/internal/ingestion"
	"github.com/northbound/hive-rag/internal/llm"
	"github.com/northbound/hive-rag/internal/logger"
	"github.com/northbound/hive-rag/internal/metadatastore"
	"github.com/northbound/hive-rag/internal/processor"
	"github.com/northbound/hive-rag/internal/query"
	"github.com/northbound/hive-rag/internal/rerank"
	"github.com/northbound/hive-rag/internal/vectorstore"
	"github.com/northbound/hive-rag/internal/workerpool"
)

var configPath = flag.String("config", "", "path to config.yaml (defaults to ~/.hive-rag/config.yaml)")

func main() {
	flag.Parse()

	logFile := "hive-rag-server.log"
	if _, err := logger.Init(logFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v, using stdout only\n", err)
	}

	if err := godotenv.Load(); err != nil {
		logger.Printf("no .env file found, using environment variables: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration: %v", err)
	}
	logger.GetDefault().SetLevel(logger.ParseLevel(os.Getenv("RAG_LOG_LEVEL")))

	c := registerServices(cfg)

	ingestEngine := mustGet[*ingestion.Engine](c, "ingestion")
	queryEngine := mustGet[*query.Engine](c, "query")
	convEngine := mustGet[*conversation.Engine](c, "conversation")
	meta := mustGet[*metadatastore.Store](c, "metadatastore")
	store := mustGet[vectorstore.Store](c, "vectorstore")
	folderMon := mustGet[*foldermonitor.Monitor](c, "foldermonitor")
	hb := mustGet[*heartbeat.Monitor](c, "heartbeat")
	auditLog := mustGet[*audit.Log](c, "audit")
	graph := mustGet[*graphstore.Store](c, "graphstore")
	pool := mustGet[*workerpool.Pool](c, "workerpool")
	errTracker := herr.NewTracker(50)

	registerHeartbeatProbes(hb, store, cfg)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	pool.Start(rootCtx)
	hb.Start(rootCtx)
	if err := folderMon.Start(rootCtx); err != nil {
		logger.Warnf("folder monitor failed to start: %v", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Config:       cfg,
		Ingestion:    ingestEngine,
		Query:        queryEngine,
		Conversation: convEngine,
		Meta:         meta,
		Vectors:      store,
		FolderMon:    folderMon,
		Heartbeat:    hb,
		Audit:        auditLog,
		Graph:        graph,
		Errors:       errTracker,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown(httpServer, store, pool, hb, folderMon)
}

// registerServices builds the container and registers a singleton
// factory per component: storage and providers first, then the engines
// that depend on them, then the surfaces that depend on the engines.
func registerServices(cfg *config.Config) *container.Container {
	c := container.New()

	c.RegisterInstance("config", cfg)

	c.Register("vectorstore", func(c *container.Container) (any, error) {
		return newVectorStore(cfg)
	}, true)

	c.Register("metadatastore", func(c *container.Container) (any, error) {
		return metadatastore.New(cfg.DataRoot)
	}, true)

	c.Register("embedder", func(c *container.Container) (any, error) {
		return embeddings.New(embeddings.Config{
			Provider: cfg.Embedding.Provider,
			Model:    cfg.Embedding.Model,
			APIKey:   cfg.Embedding.APIKey,
			BaseURL:  cfg.Embedding.BaseURL,
		})
	}, true)

	c.Register("llm", func(c *container.Container) (any, error) {
		return llm.New(llm.Config{
			Provider: cfg.LLM.Provider,
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
	}, true)

	c.Register("chunker", func(c *container.Container) (any, error) {
		embedder := mustGet[embeddings.Embedder](c, "embedder")
		method := chunker.MethodSize
		if cfg.Chunking.Strategy == "semantic" {
			method = chunker.MethodSemantic
		}
		return chunker.New(chunker.Config{
			Method:              method,
			ChunkSize:           cfg.Chunking.ChunkSize,
			ChunkOverlap:        cfg.Chunking.ChunkOverlap,
			SimilarityThreshold: float32(cfg.Chunking.SimilarityThreshold),
		}, embedder), nil
	}, true)

	c.Register("workerpool", func(c *container.Container) (any, error) {
		pool := workerpool.New(workerpool.NewMemoryQueue(100), cfg.Workers.PoolSize)
		llmClient := mustGet[llm.Client](c, "llm")
		store := mustGet[vectorstore.Store](c, "vectorstore")
		pool.RegisterHandler(workerpool.JobTypeTagging, workerpool.NewTaggingHandler(llmClient, store))
		return pool, nil
	}, true)

	c.Register("ingestion", func(c *container.Container) (any, error) {
		engine := ingestion.New(
			mustGet[vectorstore.Store](c, "vectorstore"),
			mustGet[*metadatastore.Store](c, "metadatastore"),
			processor.NewRegistry(),
			mustGet[*chunker.Chunker](c, "chunker"),
			mustGet[embeddings.Embedder](c, "embedder"),
		)
		engine.SetTagger(mustGet[*workerpool.Pool](c, "workerpool"))
		return engine, nil
	}, true)

	c.Register("query", func(c *container.Container) (any, error) {
		return query.New(
			mustGet[vectorstore.Store](c, "vectorstore"),
			mustGet[embeddings.Embedder](c, "embedder"),
			mustGet[llm.Client](c, "llm"),
			enhancer.New(),
			rerank.New(),
			query.Config{
				SimilarityThreshold: cfg.Retrieval.SimilarityThreshold,
				RerankEnabled:       cfg.Retrieval.RerankEnabled,
				RerankTopK:          cfg.Retrieval.RerankTopK,
			},
		), nil
	}, true)

	c.Register("conversationstore", func(c *container.Container) (any, error) {
		return conversation.NewStore(cfg.DataRoot)
	}, true)

	c.Register("conversation", func(c *container.Container) (any, error) {
		return conversation.New(
			mustGet[*conversation.Store](c, "conversationstore"),
			mustGet[*query.Engine](c, "query"),
		), nil
	}, true)

	c.Register("foldermonitor", func(c *container.Container) (any, error) {
		interval := time.Duration(cfg.FolderWatch.CheckIntervalSeconds) * time.Second
		return foldermonitor.New(mustGet[*ingestion.Engine](c, "ingestion"), interval), nil
	}, true)

	c.Register("heartbeat", func(c *container.Container) (any, error) {
		return heartbeat.New(30 * time.Second), nil
	}, true)

	c.Register("audit", func(c *container.Container) (any, error) {
		return audit.Open(cfg.DataRoot + "/logs/events.json")
	}, true)

	c.Register("graphstore", func(c *container.Container) (any, error) {
		return graphstore.Open(cfg.DataRoot + "/metadata/graph.db")
	}, true)

	return c
}

func newVectorStore(cfg *config.Config) (vectorstore.Store, error) {
	dim := 1536
	if cfg.Embedding.Provider == "mock" || cfg.Embedding.Provider == "" {
		dim = 384
	}
	return vectorstore.NewLocalStore(dim, cfg.DataRoot), nil
}

// mustGet resolves name from the container and asserts it to T,
// terminating the process on failure: every factory above is registered
// by this same main(), so a type mismatch or missing registration is a
// wiring bug, not a runtime condition to recover from.
func mustGet[T any](c *container.Container, name string) T {
	v, err := c.Get(name)
	if err != nil {
		logger.Fatalf("failed to resolve service %q: %v", name, err)
	}
	typed, ok := v.(T)
	if !ok {
		logger.Fatalf("service %q has unexpected type %T", name, v)
	}
	return typed
}

// registerHeartbeatProbes wires a probe for the vector store, surfaced
// through GET /heartbeat/status.
func registerHeartbeatProbes(hb *heartbeat.Monitor, store vectorstore.Store, cfg *config.Config) {
	hb.Register("vectorstore", func(ctx context.Context) error {
		_, err := store.GetStats(ctx)
		return err
	})
}

func waitForShutdown(httpServer *http.Server, store vectorstore.Store, pool *workerpool.Pool, hb *heartbeat.Monitor, folderMon *foldermonitor.Monitor) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	folderMon.Stop()
	hb.Stop()
	pool.Stop()

	if err := store.Persist(ctx); err != nil {
		logger.Warnf("failed to persist vector store on shutdown: %v", err)
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}
	if err := logger.GetDefault().Close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", err)
	}
}
