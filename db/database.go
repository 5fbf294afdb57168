package db

import (
	"database/sql"
	"fmt"

	"github.com/taifuranowar/linkedin-positive-toxicity/db/models"
	"github.com/taifuranowar/linkedin-positive-toxicity/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// Database represents the database connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (or creates) the posts database at dbPath. Two schema
// variants of linkedin_posts exist in the wild: an early one without the
// severity, reasons and search_query columns, and the current superset. The
// old variant is widened in place before GORM migrations run.
func NewDatabase(dbPath string) (*Database, error) {
	missing, err := missingAnalysisColumns(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check database schema: %w", err)
	}

	logConfig := gormlogger.Config{
		LogLevel: gormlogger.Warn, // Log only warnings and errors
		Colorful: true,
	}

	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.New(
			logger.Logger,
			logConfig,
		),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, col := range missing {
		if err := gdb.Exec(fmt.Sprintf("ALTER TABLE linkedin_posts ADD COLUMN %s TEXT", col)).Error; err != nil {
			return nil, fmt.Errorf("failed to add column %s: %w", col, err)
		}
		logger.Logger.Printf("Widened legacy linkedin_posts schema with column %s", col)
	}

	if err := gdb.AutoMigrate(&models.Post{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Database{DB: gdb}, nil
}

// missingAnalysisColumns probes an existing database file for the legacy
// schema variant and reports which superset columns it lacks. A missing file
// or missing table needs no widening; AutoMigrate creates everything.
func missingAnalysisColumns(dbPath string) ([]string, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, nil
	}
	defer sqlDB.Close()

	var tableSQL string
	err = sqlDB.QueryRow(`SELECT sql FROM sqlite_master
                         WHERE type='table' AND name='linkedin_posts'`).Scan(&tableSQL)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := sqlDB.Query(`SELECT name FROM pragma_table_info('linkedin_posts')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		have[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []string
	for _, col := range []string{"severity", "reasons", "search_query"} {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	return missing, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
