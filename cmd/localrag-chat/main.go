package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"localrag/internal/app"
	"localrag/internal/config"
	"localrag/internal/docproc"
	"localrag/internal/service"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file")
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

	ctx := context.Background()
	if files := flag.Args(); len(files) > 0 {
		if err := ingestWithProgress(ctx, svc, cfg, files); err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
	}

	runMenu(ctx, svc, app.QueryOptions(cfg))
}

// ingestWithProgress parses and embeds the given files, showing a progress
// bar per file.
func ingestWithProgress(ctx context.Context, svc *service.RAGService, cfg *config.AppConfig, paths []string) error {
	processor := docproc.NewProcessor(cfg.Ingest.TextFields)
	bar := progressbar.Default(int64(len(paths)), "ingesting")
	total := 0
	for _, path := range paths {
		units, err := processor.Process(path)
		if err != nil {
			return err
		}
		added, err := svc.AddDocuments(ctx, units, nil)
		if err != nil {
			return err
		}
		total += added
		_ = bar.Add(1)
	}
	fmt.Printf("Loaded %d documents from %d file(s).\n", total, len(paths))
	return nil
}

func runMenu(ctx context.Context, svc *service.RAGService, opts service.QueryOptions) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Println()
		fmt.Println(bold("=== Local RAG Assistant ==="))
		fmt.Println("1. Add text")
		fmt.Println("2. Ask a question")
		fmt.Println("3. Exit")
		fmt.Print("\nChoose an action (1-3): ")

		if !scanner.Scan() {
			return
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			fmt.Println("Enter text:")
			if !scanner.Scan() {
				return
			}
			text := scanner.Text()
			fmt.Print("Enter metadata as JSON (or press Enter to skip): ")
			if !scanner.Scan() {
				return
			}
			metadata, err := parseMetadata(scanner.Text())
			if err != nil {
				fmt.Println(yellow("Invalid JSON metadata, text not added."))
				continue
			}
			if strings.TrimSpace(text) == "" {
				fmt.Println(yellow("Text must not be empty."))
				continue
			}
			if _, err := svc.AddDocuments(ctx, []string{text}, metadata); err != nil {
				fmt.Println(yellow("Failed to add text: " + err.Error()))
				continue
			}
			fmt.Println(green("Text added."))

		case "2":
			fmt.Println("Enter your question:")
			if !scanner.Scan() {
				return
			}
			query := scanner.Text()
			result, err := svc.GenerateResponse(ctx, query, opts)
			if err != nil {
				fmt.Println(yellow("Failed to answer: " + err.Error()))
				continue
			}
			fmt.Println()
			fmt.Println(green("Answer:"), result.Response)
			if len(result.Documents) > 0 {
				fmt.Println(cyan("\nSources:"))
				for i, doc := range result.Documents {
					fmt.Printf("%d. (similarity %.3f) %s\n", i+1, doc.Similarity, clip(doc.Document.Text, 200))
					if len(doc.Document.Metadata) > 0 {
						fmt.Printf("   metadata: %v\n", doc.Document.Metadata)
					}
				}
			}

		case "3":
			fmt.Println("Goodbye!")
			return

		default:
			fmt.Println(yellow("Please choose 1, 2 or 3."))
		}
	}
}

// parseMetadata turns an optional JSON object line into the store's metadata
// shape. An empty line means no metadata.
func parseMetadata(line string) ([]map[string]any, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(line), &meta); err != nil {
		return nil, err
	}
	return []map[string]any{meta}, nil
}

func clip(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
