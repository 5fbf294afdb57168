package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taifuranowar/linkedin-positive-toxicity/db/models"
)

func TestNewDatabaseCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.db")

	database, err := NewDatabase(path)
	require.NoError(t, err)
	defer database.Close()

	post := models.Post{PostID: "7000000", Text: "rise and grind"}
	require.NoError(t, database.DB.Create(&post).Error)

	var count int64
	require.NoError(t, database.DB.Model(&models.Post{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestNewDatabaseWidensLegacySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.db")

	// An early database variant without the analysis columns.
	legacy, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = legacy.Exec(`CREATE TABLE linkedin_posts (
		post_id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		post_date TEXT,
		post_author TEXT,
		profile_headline TEXT,
		post_url TEXT,
		hashtags TEXT
	)`)
	require.NoError(t, err)
	_, err = legacy.Exec(`INSERT INTO linkedin_posts (post_id, text) VALUES ('1', 'old post')`)
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	database, err := NewDatabase(path)
	require.NoError(t, err)
	defer database.Close()

	// The legacy row is intact and now queryable through the full model.
	var post models.Post
	require.NoError(t, database.DB.First(&post, "post_id = ?", "1").Error)
	assert.Equal(t, "old post", post.Text)
	assert.Nil(t, post.Severity)

	// The widened columns are writable.
	require.NoError(t, database.DB.Model(&models.Post{}).
		Where("post_id = ?", "1").
		Updates(map[string]any{"severity": "2", "reasons": "- hollow cheer", "search_query": "hustle"}).Error)
}

func TestMissingAnalysisColumns(t *testing.T) {
	t.Run("missing file needs no widening", func(t *testing.T) {
		missing, err := missingAnalysisColumns(filepath.Join(t.TempDir(), "nope.db"))
		require.NoError(t, err)
		assert.Empty(t, missing)
	})

	t.Run("legacy table reports the analysis columns", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "posts.db")
		legacy, err := sql.Open("sqlite", path)
		require.NoError(t, err)
		_, err = legacy.Exec(`CREATE TABLE linkedin_posts (post_id TEXT PRIMARY KEY, text TEXT NOT NULL)`)
		require.NoError(t, err)
		require.NoError(t, legacy.Close())

		missing, err := missingAnalysisColumns(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"severity", "reasons", "search_query"}, missing)
	})
}
