package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"localrag/internal/app"
	"localrag/internal/config"
	"localrag/internal/docproc"
	"localrag/internal/service"
	"localrag/internal/summarizer"
	"localrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/localrag/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	svc, err := app.NewService(cfg)
	if err != nil {
		log.Fatalf("failed to assemble service: %v", err)
	}

	summary := "No documents loaded yet. Tab switches between ask and add-text mode."
	if files := flag.Args(); len(files) > 0 {
		summary, err = ingestFiles(context.Background(), svc, cfg, files)
		if err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
	}

	m := tui.New(svc, summary, app.QueryOptions(cfg))
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal(err)
	}
}

// ingestFiles parses each file into document units, adds them to the store
// and returns a short digest of the loaded corpus.
func ingestFiles(ctx context.Context, svc *service.RAGService, cfg *config.AppConfig, paths []string) (string, error) {
	processor := docproc.NewProcessor(cfg.Ingest.TextFields)
	total := 0
	var corpus strings.Builder
	for _, path := range paths {
		units, err := processor.Process(path)
		if err != nil {
			return "", err
		}
		added, err := svc.AddDocuments(ctx, units, nil)
		if err != nil {
			return "", err
		}
		total += added
		for _, unit := range units {
			corpus.WriteString(unit)
			corpus.WriteString("\n")
		}
	}
	digest := summarizer.NewDigest().Summarize(corpus.String(), 3)
	return fmt.Sprintf("Loaded %d documents from %d file(s). %s", total, len(paths), digest), nil
}
