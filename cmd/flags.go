package cmd

import (
	"flag"
)

// ScraperFlags carries the ingestion CLI surface. Zero values mean "fall
// back to the config file default".
type ScraperFlags struct {
	Username    string
	Password    string
	SearchQuery string
	QueryFile   string
	MaxPosts    int
	ScrollDelay int
	Timeout     int
	Database    string
	BatchSize   int
	Resume      bool
	Output      string
	Headful     bool
	Update      bool
}

func ParseScraperFlags() ScraperFlags {
	flags := ScraperFlags{}

	flag.StringVar(&flags.Username, "u", "", "LinkedIn username/email")
	flag.StringVar(&flags.Username, "username", "", "LinkedIn username/email")
	flag.StringVar(&flags.Password, "p", "", "LinkedIn password")
	flag.StringVar(&flags.Password, "password", "", "LinkedIn password")
	flag.StringVar(&flags.SearchQuery, "s", "", "Search query to find specific posts")
	flag.StringVar(&flags.SearchQuery, "search", "", "Search query to find specific posts")
	flag.StringVar(&flags.QueryFile, "queries", "", "File with one search query per line")
	flag.IntVar(&flags.MaxPosts, "m", 0, "Maximum number of posts to scrape per query")
	flag.IntVar(&flags.MaxPosts, "max", 0, "Maximum number of posts to scrape per query")
	flag.IntVar(&flags.ScrollDelay, "d", 0, "Delay between scrolls in seconds")
	flag.IntVar(&flags.ScrollDelay, "delay", 0, "Delay between scrolls in seconds")
	flag.IntVar(&flags.Timeout, "t", 0, "Timeout for page operations in milliseconds")
	flag.IntVar(&flags.Timeout, "timeout", 0, "Timeout for page operations in milliseconds")
	flag.StringVar(&flags.Database, "database", "", "SQLite database path")
	flag.IntVar(&flags.BatchSize, "batch-size", 0, "Posts per storage flush")
	flag.BoolVar(&flags.Resume, "resume", false, "Resume from the last checkpoint")
	flag.StringVar(&flags.Output, "o", "", "Output text file (used when no database is requested)")
	flag.StringVar(&flags.Output, "output", "", "Output text file (used when no database is requested)")
	flag.BoolVar(&flags.Headful, "headful", false, "Run the browser with a visible window")
	flag.BoolVar(&flags.Update, "update", false, "Update the program to the latest release and exit")

	flag.Parse()

	return flags
}

// AnalyzerFlags carries the analysis CLI surface.
type AnalyzerFlags struct {
	BatchSize int
	Database  string
	Token     string
}

func ParseAnalyzerFlags() AnalyzerFlags {
	flags := AnalyzerFlags{}

	flag.IntVar(&flags.BatchSize, "batch", 0, "Batch size")
	flag.StringVar(&flags.Database, "database", "", "SQLite database path")
	flag.StringVar(&flags.Token, "token", "", "Model-access token (can also use HF_TOKEN)")

	flag.Parse()

	return flags
}
