package main

import (
	"context"
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"remedyrag/internal/config"
	"remedyrag/internal/corpus"
	"remedyrag/internal/embedding/openai"
	"remedyrag/internal/ingest"
	"remedyrag/internal/search"
	"remedyrag/internal/tui"
	"remedyrag/internal/vectorstore/memory"
)

// Standalone interactive search: encodes the corpus into an in-process
// index and serves queries from a terminal UI, no Endee server needed.
func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", "", "Path to YAML config file (optional; uses ~/.config/remedyrag/config.yaml if not provided)")
	topK := flag.Int("top", 10, "Number of results per query")
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

	corpusPath := cfg.CorpusPath
	if args := flag.Args(); len(args) > 0 {
		corpusPath = args[0]
	}

	chunks, err := corpus.Load(corpusPath)
	if err != nil {
		log.Fatalf("load corpus failed: %v", err)
	}
	log.Printf("loaded %d chunks from %s", len(chunks), corpusPath)

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

	ctx := context.Background()
	if err := encoder.Check(ctx); err != nil {
		log.Fatalf("encoder unavailable: %v", err)
	}

	store := memory.NewStore()
	ing := ingest.New(encoder, store, ingest.Options{
		IndexName: cfg.Index.Name,
		Dimension: cfg.Index.Dimension,
		SpaceType: cfg.Index.SpaceType,
		Precision: cfg.Index.Precision,
		BatchSize: cfg.Index.BatchSize,
	}, nil, log.Printf)
	if _, err := ing.Run(ctx, chunks); err != nil {
		log.Fatalf("ingest failed: %v", err)
	}

	handle, err := store.Get(ctx, cfg.Index.Name)
	if err != nil {
		log.Fatalf("get index failed: %v", err)
	}

	m := tui.New(search.New(encoder, handle), *topK)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
