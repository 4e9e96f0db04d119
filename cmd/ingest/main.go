package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"remedyrag/internal/chunker"
	"remedyrag/internal/config"
	"remedyrag/internal/corpus"
	"remedyrag/internal/domain"
	"remedyrag/internal/embedding/openai"
	"remedyrag/internal/ingest"
	"remedyrag/internal/tui"
	"remedyrag/internal/vectorstore/endee"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath  = flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/remedyrag/config.yaml if not provided)")
		recreate = flag.Bool("recreate", false, "Delete and recreate an existing index without prompting")
		reuse    = flag.Bool("reuse", false, "Reuse an existing index without prompting")
		fromText = flag.String("from-text", "", "Build the corpus from a directory of raw remedy .txt files before ingesting")
		window   = flag.Int("window", 5, "Sentences per chunk when building the corpus")
		overlap  = flag.Int("overlap", 1, "Overlapping sentences between chunks when building the corpus")
	)
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

	if *fromText != "" {
		log.Printf("building corpus from %s", *fromText)
		chunks, err := corpus.Build(*fromText, chunker.NewFlatWindow(*window, *overlap))
		if err != nil {
			log.Fatalf("build corpus failed: %v", err)
		}
		if err := corpus.Save(cfg.CorpusPath, chunks); err != nil {
			log.Fatalf("save corpus failed: %v", err)
		}
		log.Printf("wrote %d chunks to %s", len(chunks), cfg.CorpusPath)
	}

	chunks, err := corpus.Load(cfg.CorpusPath)
	if err != nil {
		log.Fatalf("load corpus failed: %v", err)
	}
	log.Printf("loaded %d chunks from %s", len(chunks), cfg.CorpusPath)

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

	decide := func(info domain.IndexInfo) (bool, error) {
		switch {
		case *recreate:
			return true, nil
		case *reuse:
			return false, nil
		default:
			question := fmt.Sprintf("Index %q already exists (%d records). Delete and recreate?", info.Name, info.TotalElements)
			return tui.Confirm(question)
		}
	}

	ing := ingest.New(encoder, store, ingest.Options{
		IndexName: cfg.Index.Name,
		Dimension: cfg.Index.Dimension,
		SpaceType: cfg.Index.SpaceType,
		Precision: cfg.Index.Precision,
		BatchSize: cfg.Index.BatchSize,
	}, decide, log.Printf)

	report, err := ing.Run(ctx, chunks)
	if err != nil {
		log.Fatalf("ingestion failed: %v", err)
	}
	log.Printf("ingestion complete: %d chunks in %d batches into index %q", report.Chunks, report.Batches, report.IndexName)
}
