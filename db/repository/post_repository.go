package repository

import (
	"errors"

	"github.com/taifuranowar/linkedin-positive-toxicity/db/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post storage operations
type PostRepository interface {
	Create(post *models.Post) error
	ExistsByPostID(postID string) (bool, error)
	FetchUnscored(limit int) ([]models.Post, error)
	UpdateSeverity(postID, severity, reasons string) error
}

// ErrDuplicatePost reports an insert that collided with an existing post_id.
var ErrDuplicatePost = errors.New("post already exists")

// GormPostRepository implements PostRepository using GORM
type GormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &GormPostRepository{db: db}
}

// Create inserts a new post. A primary-key collision is reported as
// ErrDuplicatePost so callers can treat it as a skip rather than a fault.
func (r *GormPostRepository) Create(post *models.Post) error {
	err := r.db.Create(post).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicatePost
	}
	return err
}

// ExistsByPostID checks if a post exists in the database by its PostID
func (r *GormPostRepository) ExistsByPostID(postID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("post_id = ?", postID).Count(&count).Error
	return count > 0, err
}

// FetchUnscored returns up to limit posts whose severity has not been
// assigned yet, in storage-native order.
func (r *GormPostRepository) FetchUnscored(limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Where("severity IS NULL OR severity = ''").Limit(limit).Find(&posts).Error
	return posts, err
}

// UpdateSeverity writes the analyzer's verdict back onto a post. The update
// is unconditional; the ingestion loop never touches these columns.
func (r *GormPostRepository) UpdateSeverity(postID, severity, reasons string) error {
	return r.db.Model(&models.Post{}).Where("post_id = ?", postID).
		Updates(map[string]any{"severity": severity, "reasons": reasons}).Error
}
