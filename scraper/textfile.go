package scraper

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/taifuranowar/linkedin-positive-toxicity/db/models"
	"github.com/taifuranowar/linkedin-positive-toxicity/logger"
)

// PostWriter is the storage sink used when no database is requested: a flat
// text file with one numbered block per post. It satisfies Storage, so the
// loop does not care which sink it flushes to.
type PostWriter struct {
	file  *os.File
	count int
}

// DefaultOutputFilename returns the timestamped filename used when the
// caller does not name one.
func DefaultOutputFilename() string {
	return fmt.Sprintf("linkedin_posts_%s.txt", time.Now().Format("20060102_150405"))
}

func NewPostWriter(filename string) (*PostWriter, error) {
	if filename == "" {
		filename = DefaultOutputFilename()
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &PostWriter{file: file}, nil
}

// SaveBatch appends each post as a numbered block. The file has no identity
// index, so nothing is ever skipped.
func (w *PostWriter) SaveBatch(posts []models.Post) (saved, skipped int) {
	divider := strings.Repeat("=", 80)
	for _, post := range posts {
		w.count++
		if _, err := fmt.Fprintf(w.file, "Post %d:\n%s\n\n%s\n\n", w.count, post.Text, divider); err != nil {
			logger.Logger.Printf("[WARN] Error writing post %d, skipping: %v", w.count, err)
			skipped++
			continue
		}
		saved++
	}
	return saved, skipped
}

func (w *PostWriter) Name() string {
	return w.file.Name()
}

func (w *PostWriter) Close() error {
	return w.file.Close()
}
