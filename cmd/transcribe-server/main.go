package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"localrag/internal/config"
	"localrag/internal/transcribe"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, addr string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file")
	flag.StringVar(&addr, "addr", "", "Listen address (overrides config)")
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
	if addr == "" {
		addr = cfg.Transcribe.ListenAddr
	}

	whisper := transcribe.NewWhisperClient(transcribe.WhisperConfig{
		BaseURL: cfg.Transcribe.WhisperURL,
		Model:   cfg.Transcribe.Model,
		Timeout: time.Duration(cfg.Transcribe.TimeoutSecs) * time.Second,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/transcribe", transcribe.NewHandler(whisper))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Transcription API is running.")
	})

	server := &http.Server{Addr: addr, Handler: mux}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-done
		log.Println("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("transcription server listening on %s (whisper at %s)", addr, cfg.Transcribe.WhisperURL)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
