package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taifuranowar/linkedin-positive-toxicity/db/models"
)

func newTestRepo(t *testing.T) PostRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posts.db")
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.Post{}))
	return NewPostRepository(gdb)
}

func strptr(s string) *string { return &s }

func TestCreateAndExists(t *testing.T) {
	repo := newTestRepo(t)

	exists, err := repo.ExistsByPostID("7000000")
	require.NoError(t, err)
	assert.False(t, exists)

	post := &models.Post{PostID: "7000000", Text: "rise and grind"}
	require.NoError(t, repo.Create(post))

	exists, err = repo.ExistsByPostID("7000000")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateDuplicateReturnsErrDuplicatePost(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(&models.Post{PostID: "7000000", Text: "first"}))

	err := repo.Create(&models.Post{PostID: "7000000", Text: "second"})
	assert.ErrorIs(t, err, ErrDuplicatePost)

	// The original row is untouched.
	unscored, err := repo.FetchUnscored(10)
	require.NoError(t, err)
	require.Len(t, unscored, 1)
	assert.Equal(t, "first", unscored[0].Text)
}

func TestFetchUnscoredSkipsScoredRows(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(&models.Post{PostID: "1", Text: "unscored"}))
	require.NoError(t, repo.Create(&models.Post{
		PostID:   "2",
		Text:     "scored",
		Severity: strptr("2"),
		Reasons:  strptr("- dismissive"),
	}))
	require.NoError(t, repo.Create(&models.Post{PostID: "3", Text: "also unscored"}))

	unscored, err := repo.FetchUnscored(10)
	require.NoError(t, err)
	require.Len(t, unscored, 2)
	for _, p := range unscored {
		assert.NotEqual(t, "2", p.PostID)
	}
}

func TestFetchUnscoredHonorsLimit(t *testing.T) {
	repo := newTestRepo(t)

	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, repo.Create(&models.Post{PostID: id, Text: "post " + id}))
	}

	unscored, err := repo.FetchUnscored(2)
	require.NoError(t, err)
	assert.Len(t, unscored, 2)
}

func TestUpdateSeverity(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(&models.Post{PostID: "7000000", Text: "good vibes only"}))
	require.NoError(t, repo.UpdateSeverity("7000000", "3", "- denies all negative emotion"))

	unscored, err := repo.FetchUnscored(10)
	require.NoError(t, err)
	assert.Empty(t, unscored, "a scored post no longer surfaces as unscored")
}
