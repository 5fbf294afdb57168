package models

// Post is a single scraped post. PostID is the URN-derived activity
// identifier when the page exposed one, else a generated UUID. The ingestion
// loop only ever inserts; Severity and Reasons are filled in later by the
// analyzer.
type Post struct {
	PostID          string  `gorm:"primaryKey"`
	Text            string  `gorm:"not null"`
	PostDate        *string `gorm:"column:post_date"`
	PostAuthor      *string `gorm:"column:post_author"`
	ProfileHeadline *string `gorm:"column:profile_headline"`
	PostURL         *string `gorm:"column:post_url"`
	Hashtags        *string
	SearchQuery     *string `gorm:"column:search_query"`
	Severity        *string
	Reasons         *string
}

// TableName overrides the table name
func (Post) TableName() string {
	return "linkedin_posts"
}
