package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/taifuranowar/linkedin-positive-toxicity/browser"
	"github.com/taifuranowar/linkedin-positive-toxicity/checkpoint"
	"github.com/taifuranowar/linkedin-positive-toxicity/cmd"
	"github.com/taifuranowar/linkedin-positive-toxicity/config"
	"github.com/taifuranowar/linkedin-positive-toxicity/db"
	"github.com/taifuranowar/linkedin-positive-toxicity/db/repository"
	"github.com/taifuranowar/linkedin-positive-toxicity/db/service"
	"github.com/taifuranowar/linkedin-positive-toxicity/logger"
	"github.com/taifuranowar/linkedin-positive-toxicity/scraper"
	"github.com/taifuranowar/linkedin-positive-toxicity/updater"
)

const version = "v0.3.1"

func main() {
	flags := cmd.ParseScraperFlags()

	if flags.Update {
		if err := updater.CheckForUpdate(version); err != nil {
			log.Fatal(err)
		}
		return
	}

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
	logger.Logger.Printf("Starting LinkedIn post scraper %s", version)

	queries, err := resolveQueries(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	applyOverrides(cfg, flags)

	if flags.Password != "" {
		color.Yellow("WARNING: Supplying passwords via command line arguments is not secure!")
		color.Yellow("         Consider using environment variables instead.")
	}

	email, err := cmd.ResolveCredential(flags.Username, "LINKEDIN_EMAIL", "LinkedIn email", false)
	if err != nil {
		log.Fatal(err)
	}
	password, err := cmd.ResolveCredential(flags.Password, "LINKEDIN_PASSWORD", "LinkedIn password", true)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		color.Yellow("Received interrupt signal. Flushing pending posts and checkpointing...")
		cancel()
	}()

	store, cleanup, err := openStore(cfg, flags)
	if err != nil {
		logger.Logger.Fatal(err)
	}
	defer cleanup()

	timeout := time.Duration(cfg.Scraper.Timeout) * time.Millisecond
	session, err := browser.NewChromeSession(ctx, timeout, !flags.Headful)
	if err != nil {
		logger.Logger.Fatal(err)
	}
	defer session.Close()

	ckpt := checkpoint.NewStore(config.CheckpointPath())
	s := scraper.New(session, store, ckpt, cfg.Scraper, email)

	status, err := s.Login(ctx, email, password)
	if err != nil {
		logger.Logger.Printf("[ERROR] Login error: %v", err)
		os.Exit(1)
	}
	if status == scraper.LoginFailed {
		color.Red("Login failed. Please check your credentials.")
		os.Exit(1)
	}

	switch err := s.Run(ctx, queries, flags.Resume); {
	case errors.Is(err, scraper.ErrInterrupted):
		color.Yellow("Run interrupted; progress checkpointed. Re-run with --resume to continue.")
	case err != nil:
		logger.Logger.Printf("[ERROR] Scrape session failed: %v", err)
		os.Exit(1)
	default:
		color.Green("All queries completed.")
	}
}

// resolveQueries turns the CLI surface into the ordered query list. Exits
// with an error when neither a query nor a query file was supplied.
func resolveQueries(flags cmd.ScraperFlags) ([]string, error) {
	if flags.SearchQuery != "" {
		return []string{flags.SearchQuery}, nil
	}
	if flags.QueryFile == "" {
		return nil, errors.New("either a search query (-s) or a query file (--queries) is required")
	}

	file, err := os.Open(flags.QueryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open query file: %w", err)
	}
	defer file.Close()

	var queries []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		q := strings.TrimSpace(sc.Text())
		if q != "" {
			queries = append(queries, q)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("query file %s contains no queries", flags.QueryFile)
	}
	return queries, nil
}

func applyOverrides(cfg *config.Config, flags cmd.ScraperFlags) {
	if flags.MaxPosts > 0 {
		cfg.Scraper.MaxPosts = flags.MaxPosts
	}
	if flags.ScrollDelay > 0 {
		cfg.Scraper.ScrollDelay = flags.ScrollDelay
	}
	if flags.Timeout > 0 {
		cfg.Scraper.Timeout = flags.Timeout
	}
	if flags.BatchSize > 0 {
		cfg.Scraper.BatchSize = flags.BatchSize
	}
	if flags.Database != "" {
		cfg.Options.DatabasePath = flags.Database
	}
}

// openStore picks the flush sink: the flat text file when one was asked for,
// else the posts database.
func openStore(cfg *config.Config, flags cmd.ScraperFlags) (scraper.Storage, func(), error) {
	if flags.Output != "" {
		writer, err := scraper.NewPostWriter(flags.Output)
		if err != nil {
			return nil, nil, err
		}
		logger.Logger.Printf("Writing posts to %s", writer.Name())
		return writer, func() { writer.Close() }, nil
	}

	database, err := db.NewDatabase(cfg.Options.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	logger.Logger.Printf("Connected to database: %s", cfg.Options.DatabasePath)
	postService := service.NewPostService(repository.NewPostRepository(database.DB))
	return postService, func() { database.Close() }, nil
}
