package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/taifuranowar/linkedin-positive-toxicity/analyzer"
	"github.com/taifuranowar/linkedin-positive-toxicity/cmd"
	"github.com/taifuranowar/linkedin-positive-toxicity/config"
	"github.com/taifuranowar/linkedin-positive-toxicity/db"
	"github.com/taifuranowar/linkedin-positive-toxicity/db/repository"
	"github.com/taifuranowar/linkedin-positive-toxicity/db/service"
	"github.com/taifuranowar/linkedin-positive-toxicity/logger"
)

func main() {
	flags := cmd.ParseAnalyzerFlags()

	if err := config.EnsureConfigExists(config.GetConfigPath()); err != nil {
		log.Fatal(err)
	}
	cfg, err := config.LoadConfig(config.GetConfigPath())
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		log.Fatal(err)
	}

	dbPath := cfg.Options.DatabasePath
	if flags.Database != "" {
		dbPath = flags.Database
	}
	batchSize := cfg.Analyzer.BatchSize
	if flags.BatchSize > 0 {
		batchSize = flags.BatchSize
	}

	token, err := cmd.ResolveCredential(flags.Token, "HF_TOKEN", "model-access token", true)
	if err != nil {
		log.Fatal(err)
	}

	database, err := db.NewDatabase(dbPath)
	if err != nil {
		logger.Logger.Fatal(err)
	}
	defer database.Close()
	logger.Logger.Printf("Connected to database: %s", dbPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		color.Yellow("Received interrupt signal. Finishing current post...")
		cancel()
	}()

	postService := service.NewPostService(repository.NewPostRepository(database.DB))
	client := analyzer.NewClient(cfg.Analyzer.Endpoint, token)

	logger.Logger.Printf("Starting severity analysis against %s (model %s)", cfg.Analyzer.Endpoint, cfg.Analyzer.Model)

	processed, err := analyzer.New(postService, client, batchSize).Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		color.Yellow("Analysis interrupted after %d posts. Unscored posts remain for the next run.", processed)
	case err != nil:
		logger.Logger.Printf("[ERROR] Analysis failed after %d posts: %v", processed, err)
		os.Exit(1)
	default:
		color.Green("Analysis complete. Scored %d posts.", processed)
	}
}
