package service

import (
	"errors"

	"github.com/taifuranowar/linkedin-positive-toxicity/db/models"
	"github.com/taifuranowar/linkedin-positive-toxicity/db/repository"
	"github.com/taifuranowar/linkedin-positive-toxicity/logger"
)

// PostService handles post persistence with insert-or-skip semantics.
type PostService struct {
	repo repository.PostRepository
}

// NewPostService creates a new post service
func NewPostService(repo repository.PostRepository) *PostService {
	return &PostService{repo: repo}
}

// SaveOrSkip attempts to insert a post and reports whether it was saved. An
// identity already present yields a skip, and so does any other storage
// fault: a single bad record must never abort the ingestion loop.
func (s *PostService) SaveOrSkip(post *models.Post) bool {
	exists, err := s.repo.ExistsByPostID(post.PostID)
	if err != nil {
		logger.Logger.Printf("[WARN] Error checking if post %s exists: %v", post.PostID, err)
	}
	if exists {
		return false
	}

	if err := s.repo.Create(post); err != nil {
		if !errors.Is(err, repository.ErrDuplicatePost) {
			logger.Logger.Printf("[WARN] Error saving post %s, skipping: %v", post.PostID, err)
		}
		return false
	}
	return true
}

// SaveBatch inserts a batch of posts and returns how many were saved and how
// many were skipped.
func (s *PostService) SaveBatch(posts []models.Post) (saved, skipped int) {
	for i := range posts {
		if s.SaveOrSkip(&posts[i]) {
			saved++
		} else {
			skipped++
		}
	}
	return saved, skipped
}

// PostExists checks if a post has already been stored
func (s *PostService) PostExists(postID string) bool {
	exists, err := s.repo.ExistsByPostID(postID)
	if err != nil {
		logger.Logger.Printf("[WARN] Error checking if post exists: %v", err)
		return false // Fail-safe: attempt the insert if the DB check fails
	}
	return exists
}

// FetchUnscored returns up to limit posts that still need analysis.
func (s *PostService) FetchUnscored(limit int) ([]models.Post, error) {
	return s.repo.FetchUnscored(limit)
}

// UpdateSeverity records the analyzer verdict for a post.
func (s *PostService) UpdateSeverity(postID, severity, reasons string) error {
	return s.repo.UpdateSeverity(postID, severity, reasons)
}
