package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"remedyrag/internal/chat"
	"remedyrag/internal/config"
	"remedyrag/internal/domain"
	"remedyrag/internal/embedding/openai"
	"remedyrag/internal/generation"
	"remedyrag/internal/search"
	"remedyrag/internal/server"
	"remedyrag/internal/vectorstore/endee"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/remedyrag/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if *cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(*cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	encoder, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Encoder.BaseURL,
		APIKeyEnv: cfg.Encoder.APIKeyEnv,
		Model:     cfg.Encoder.Model,
		Dimension: cfg.Index.Dimension,
		Timeout:   time.Duration(cfg.Encoder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("encoder init failed: %v", err)
	}
	if err := encoder.Check(ctx); err != nil {
		log.Fatalf("encoder unavailable: %v", err)
	}

	store := endee.NewClient(endee.Config{
		Host:    cfg.Endee.Host,
		Port:    cfg.Endee.Port,
		Timeout: time.Duration(cfg.Endee.TimeoutSecs) * time.Second,
	})
	log.Printf("using index service at %s", store.BaseURL())

	// An unreachable or missing index does not kill the process; the
	// API starts anyway and reports the condition on the health
	// endpoint until the operator runs ingestion.
	var searcher domain.Searcher
	notReady := ""
	handle, err := store.Get(ctx, cfg.Index.Name)
	if err != nil {
		notReady = err.Error()
		log.Printf("index %q unavailable: %v", cfg.Index.Name, err)
	} else {
		searcher = search.New(encoder, handle)
	}

	var orch *chat.Orchestrator
	gen, err := generation.NewClient(generation.Config{
		BaseURL:   cfg.Generator.BaseURL,
		APIKeyEnv: cfg.Generator.APIKeyEnv,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}
	if gen == nil {
		log.Printf("no %s set, chat endpoint disabled", cfg.Generator.APIKeyEnv)
	} else if searcher != nil {
		orch = chat.New(searcher, gen, cfg.Generator.Models,
			time.Duration(cfg.Generator.AttemptTimeoutSecs)*time.Second, log.Printf)
	}

	app := server.NewApp(searcher, orch, store, cfg.Index.Name, cfg.Index.Dimension, cfg.Index.SpaceType, notReady)

	log.Printf("listening on %s", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, app.Routes()); err != nil {
		log.Fatal(err)
	}
}
