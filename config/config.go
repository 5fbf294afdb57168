package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Scraper  ScraperConfig  `toml:"scraper"`
	Analyzer AnalyzerConfig `toml:"analyzer"`
	Options  OptionsConfig  `toml:"options"`
}

type ScraperConfig struct {
	MaxPosts      int `toml:"max_posts"`
	ScrollDelay   int `toml:"scroll_delay"`   // seconds between scrolls
	Timeout       int `toml:"timeout"`        // page operation timeout, milliseconds
	BatchSize     int `toml:"batch_size"`     // posts per storage flush
	QueryCooldown int `toml:"query_cooldown"` // seconds between queries
}

type AnalyzerConfig struct {
	Endpoint  string `toml:"endpoint"` // local text-generation-inference URL
	Model     string `toml:"model"`
	BatchSize int    `toml:"batch_size"`
}

type OptionsConfig struct {
	SaveLocation string `toml:"save_location"`
	DatabasePath string `toml:"database_path"`
}

func GetConfigPath() string {
	currentDirConfig := "config.toml"
	if _, err := os.Stat(currentDirConfig); err == nil {
		return currentDirConfig
	}

	return filepath.Join(GetConfigDir(), "config.toml")
}

func GetConfigDir() string {
	var configDir string
	var err error

	if runtime.GOOS == "darwin" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		configDir = filepath.Join(homeDir, ".config")
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			log.Fatal(err)
		}
	}

	return filepath.Join(configDir, "linkedin-scraper")
}

// CheckpointPath is the fixed well-known location of the ingestion
// checkpoint file. Absence means "no checkpoint".
func CheckpointPath() string {
	return filepath.Join(GetConfigDir(), "scraper_checkpoint.json")
}

func SaveConfig(cfg *Config) error {
	configPath := GetConfigPath()
	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(cfg)
}

func EnsureConfigExists(configPath string) error {
	if _, err := os.Stat(filepath.Dir(configPath)); os.IsNotExist(err) {
		err = os.MkdirAll(filepath.Dir(configPath), os.ModePerm)
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultConfig := CreateDefaultConfig()
		if err := SaveConfig(defaultConfig); err != nil {
			return err
		}
	}

	return nil
}

func LoadConfig(configPath string) (*Config, error) {
	var config Config
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return nil, err
	}

	applyDefaults(&config)

	config.Options.SaveLocation = filepath.ToSlash(config.Options.SaveLocation)

	return &config, nil
}

func CreateDefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Scraper.MaxPosts == 0 {
		cfg.Scraper.MaxPosts = 50
	}
	if cfg.Scraper.ScrollDelay == 0 {
		cfg.Scraper.ScrollDelay = 2
	}
	if cfg.Scraper.Timeout == 0 {
		cfg.Scraper.Timeout = 60000
	}
	if cfg.Scraper.BatchSize == 0 {
		cfg.Scraper.BatchSize = 10
	}
	if cfg.Scraper.QueryCooldown == 0 {
		cfg.Scraper.QueryCooldown = 30
	}
	if cfg.Analyzer.Endpoint == "" {
		cfg.Analyzer.Endpoint = "http://localhost:8080"
	}
	if cfg.Analyzer.Model == "" {
		cfg.Analyzer.Model = "mistralai/Mistral-7B-Instruct-v0.2"
	}
	if cfg.Analyzer.BatchSize == 0 {
		cfg.Analyzer.BatchSize = 10
	}
	if cfg.Options.SaveLocation == "" {
		cfg.Options.SaveLocation = "."
	}
	if cfg.Options.DatabasePath == "" {
		cfg.Options.DatabasePath = "linkedin_posts.db"
	}
}
