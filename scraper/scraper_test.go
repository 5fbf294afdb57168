package scraper

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taifuranowar/linkedin-positive-toxicity/browser"
	"github.com/taifuranowar/linkedin-positive-toxicity/checkpoint"
	"github.com/taifuranowar/linkedin-positive-toxicity/config"
	"github.com/taifuranowar/linkedin-positive-toxicity/db/models"
)

// fakeSession serves pre-scripted extraction passes. Each QueryAll against
// the primary container selector pops one page from the queue; every other
// selector matches nothing, so one pop stands for one extraction pass.
type fakeSession struct {
	pages    [][]browser.Element
	pageIdx  int
	alerts   []browser.Element
	location string

	navigated  []string
	scrolls    int
	filled     map[string]string
	onScroll   func()
	onNavigate func()
}

func newFakeSession() *fakeSession {
	return &fakeSession{filled: make(map[string]string)}
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	if f.onNavigate != nil {
		f.onNavigate()
	}
	return nil
}

func (f *fakeSession) Location(ctx context.Context) (string, error) {
	return f.location, nil
}

func (f *fakeSession) WaitVisible(ctx context.Context, selector string) error { return nil }

func (f *fakeSession) Fill(ctx context.Context, selector, value string) error {
	f.filled[selector] = value
	return nil
}

func (f *fakeSession) Click(ctx context.Context, selector string) error { return nil }

func (f *fakeSession) ClickAll(ctx context.Context, selector string) (int, error) { return 0, nil }

func (f *fakeSession) QueryAll(ctx context.Context, q browser.Query) ([]browser.Element, error) {
	if q.Selector == loginErrorSelector {
		return f.alerts, nil
	}
	if q.Selector != defaultStrategies[0].Container {
		return nil, nil
	}
	if f.pageIdx >= len(f.pages) {
		return nil, nil
	}
	page := f.pages[f.pageIdx]
	f.pageIdx++
	return page, nil
}

func (f *fakeSession) ScrollByViewport(ctx context.Context) error {
	f.scrolls++
	if f.onScroll != nil {
		f.onScroll()
	}
	return nil
}

func (f *fakeSession) Close() error { return nil }

type fakeStore struct {
	batches [][]models.Post
}

func (f *fakeStore) SaveBatch(posts []models.Post) (saved, skipped int) {
	batch := make([]models.Post, len(posts))
	copy(batch, posts)
	f.batches = append(f.batches, batch)
	return len(posts), 0
}

func (f *fakeStore) total() int {
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

// feedElements fabricates n container snapshots with distinct texts and
// activity URNs starting at start.
func feedElements(start, n int) []browser.Element {
	els := make([]browser.Element, n)
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("Post number %d about rising and grinding #hustle", start+i)
		els[i] = browser.Element{
			Text: text,
			Fields: map[string]string{
				"text":     text,
				"author":   "Jane Doe • 3rd+",
				"date":     "3d",
				"headline": "Chief Vibes Officer",
			},
			Attrs: map[string]string{
				"data-urn": fmt.Sprintf("urn:li:activity:%d", 7000000+start+i),
			},
		}
	}
	return els
}

func newTestScraper(t *testing.T, session browser.Session, store Storage, cfg config.ScraperConfig) *Scraper {
	t.Helper()
	ckpt := checkpoint.NewStore(filepath.Join(t.TempDir(), "scraper_checkpoint.json"))
	s := New(session, store, ckpt, cfg, "user@example.com")
	s.settleSearch = 0
	s.settleFeed = 0
	s.settleLogin = 0
	s.expandPause = 0
	s.retryPause = 0
	s.waitForOperator = func() {}
	return s
}

func testConfig() config.ScraperConfig {
	return config.ScraperConfig{
		MaxPosts:      50,
		ScrollDelay:   0,
		Timeout:       60000,
		BatchSize:     10,
		QueryCooldown: 0,
	}
}

func TestScrapeQueryFlushesFullBatchesAndCheckpoints(t *testing.T) {
	session := newFakeSession()
	session.pages = [][]browser.Element{
		feedElements(0, 6),
		feedElements(6, 6),
	}
	store := &fakeStore{}

	cfg := testConfig()
	cfg.MaxPosts = 12
	s := newTestScraper(t, session, store, cfg)

	collected, err := s.ScrapeQuery(context.Background(), "toxic positivity", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, collected)

	// One full batch at the threshold, one final partial flush.
	require.Len(t, store.batches, 2)
	assert.Len(t, store.batches[0], 10)
	assert.Len(t, store.batches[1], 2)

	// Checkpoint reflects the last flush and names the in-flight query.
	completed, current, count := s.ckpt.Load()
	assert.Empty(t, completed)
	assert.Equal(t, "toxic positivity", current)
	assert.Equal(t, 12, count)

	first := store.batches[0][0]
	assert.Equal(t, "7000000", first.PostID)
	assert.Equal(t, "Post number 0 about rising and grinding #hustle", first.Text)
	require.NotNil(t, first.PostAuthor)
	assert.Equal(t, "Jane Doe", *first.PostAuthor)
	require.NotNil(t, first.PostURL)
	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:activity:7000000/", *first.PostURL)
	require.NotNil(t, first.Hashtags)
	assert.Equal(t, "#hustle", *first.Hashtags)
	require.NotNil(t, first.SearchQuery)
	assert.Equal(t, "toxic positivity", *first.SearchQuery)
	require.NotNil(t, first.PostDate)
}

func TestScrapeQuerySkipsRepeatedPosts(t *testing.T) {
	repeated := feedElements(0, 3)
	session := newFakeSession()
	session.pages = [][]browser.Element{repeated, repeated, repeated, repeated}
	store := &fakeStore{}

	s := newTestScraper(t, session, store, testConfig())

	collected, err := s.ScrapeQuery(context.Background(), "grindset", nil, 0)
	require.NoError(t, err)

	// The three repeats yield nothing new, so the query exhausts after the
	// empty-scroll threshold.
	assert.Equal(t, 3, collected)
	assert.Equal(t, 3, store.total())
}

func TestScrapeQueryStopsAfterConsecutiveEmptyScrolls(t *testing.T) {
	session := newFakeSession()
	session.pages = [][]browser.Element{feedElements(0, 3)}
	store := &fakeStore{}

	s := newTestScraper(t, session, store, testConfig())

	collected, err := s.ScrapeQuery(context.Background(), "blessed", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, collected)
	assert.Equal(t, 3, session.scrolls)
	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 3)
}

func TestScrapeQueryInterruptFlushesPendingAndCheckpoints(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	session := newFakeSession()
	session.pages = [][]browser.Element{feedElements(0, 4)}
	session.onScroll = cancel
	store := &fakeStore{}

	s := newTestScraper(t, session, store, testConfig())

	collected, err := s.ScrapeQuery(ctx, "gratitude", nil, 0)
	require.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, 4, collected)

	// Nothing in flight is lost: the pending batch reaches storage and the
	// checkpoint survives for a later resume.
	assert.Equal(t, 4, store.total())
	assert.True(t, s.ckpt.Exists())
	_, current, count := s.ckpt.Load()
	assert.Equal(t, "gratitude", current)
	assert.Equal(t, 4, count)
}

func TestScrapeQueryGeneratesIDWhenNoURN(t *testing.T) {
	session := newFakeSession()
	session.pages = [][]browser.Element{{
		{Text: "Anonymous motivation #blessed"},
	}}
	store := &fakeStore{}

	s := newTestScraper(t, session, store, testConfig())

	collected, err := s.ScrapeQuery(context.Background(), "", nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, collected)

	require.Equal(t, 1, store.total())
	post := store.batches[0][0]
	_, parseErr := uuid.Parse(post.PostID)
	assert.NoError(t, parseErr, "identity-less posts get a generated UUID")
	assert.Nil(t, post.PostURL)
	assert.Nil(t, post.SearchQuery)
}

func TestRunResumeSkipsCompletedAndAppliesOffset(t *testing.T) {
	session := newFakeSession()
	session.pages = [][]browser.Element{feedElements(0, 2)}
	store := &fakeStore{}

	cfg := testConfig()
	cfg.MaxPosts = 9
	s := newTestScraper(t, session, store, cfg)

	// A prior run finished "a" and was interrupted 7 posts into "b".
	require.NoError(t, s.ckpt.Save([]string{"a"}, "b", 7, "user@example.com"))

	err := s.Run(context.Background(), []string{"a", "b", "c"}, true)
	require.NoError(t, err)

	// "a" is never revisited; "b" resumes at 7 and stops at the maximum
	// after two more posts; "c" runs and comes up empty.
	require.Len(t, session.navigated, 2)
	assert.Contains(t, session.navigated[0], "keywords=b")
	assert.Contains(t, session.navigated[1], "keywords=c")
	assert.Equal(t, 2, store.total())

	// A full pass clears the checkpoint.
	assert.False(t, s.ckpt.Exists())
}

func TestRunReordersInFlightQueryFirst(t *testing.T) {
	session := newFakeSession()
	store := &fakeStore{}
	s := newTestScraper(t, session, store, testConfig())

	require.NoError(t, s.ckpt.Save([]string{}, "c", 3, "user@example.com"))

	err := s.Run(context.Background(), []string{"b", "c"}, true)
	require.NoError(t, err)

	require.Len(t, session.navigated, 2)
	assert.Contains(t, session.navigated[0], "keywords=c")
	assert.Contains(t, session.navigated[1], "keywords=b")
}

func TestRunInterruptDuringNavigateKeepsQueryInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	session := newFakeSession()
	session.onNavigate = cancel
	store := &fakeStore{}

	s := newTestScraper(t, session, store, testConfig())

	err := s.Run(ctx, []string{"hustle"}, false)
	require.ErrorIs(t, err, ErrInterrupted)

	// The cancelled query must not be recorded as completed; a resumed run
	// has to pick it up again.
	completed, current, count := s.ckpt.Load()
	assert.Empty(t, completed)
	assert.Equal(t, "hustle", current)
	assert.Equal(t, 0, count)
}

func TestRunResumeIgnoresOffsetOfAbsentQuery(t *testing.T) {
	session := newFakeSession()
	session.pages = [][]browser.Element{
		feedElements(0, 3),
		feedElements(3, 3),
		feedElements(6, 3),
	}
	store := &fakeStore{}

	cfg := testConfig()
	cfg.MaxPosts = 9
	s := newTestScraper(t, session, store, cfg)

	// The checkpointed in-flight query was removed from the query file; its
	// offset must not pre-consume the fresh query's budget.
	require.NoError(t, s.ckpt.Save([]string{}, "old-query", 7, "user@example.com"))

	require.NoError(t, s.Run(context.Background(), []string{"fresh"}, true))
	assert.Equal(t, 9, store.total())
}

func TestRunInterruptedKeepsCheckpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	session := newFakeSession()
	session.pages = [][]browser.Element{feedElements(0, 2)}
	session.onScroll = cancel
	store := &fakeStore{}

	s := newTestScraper(t, session, store, testConfig())

	err := s.Run(ctx, []string{"hustle"}, false)
	require.ErrorIs(t, err, ErrInterrupted)
	assert.True(t, s.ckpt.Exists())
}

func TestRunEncodesQueryInSearchURL(t *testing.T) {
	session := newFakeSession()
	store := &fakeStore{}
	s := newTestScraper(t, session, store, testConfig())

	require.NoError(t, s.Run(context.Background(), []string{"toxic positivity"}, false))

	require.Len(t, session.navigated, 1)
	assert.Contains(t, session.navigated[0], "keywords=toxic+positivity")
	assert.True(t, strings.HasPrefix(session.navigated[0], "https://www.linkedin.com/search/results/content/"))
}

func TestLoginClassification(t *testing.T) {
	t.Run("redirect to feed is success", func(t *testing.T) {
		session := newFakeSession()
		session.location = "https://www.linkedin.com/feed/"
		s := newTestScraper(t, session, &fakeStore{}, testConfig())

		status, err := s.Login(context.Background(), "user@example.com", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, LoginOk, status)
		assert.Equal(t, "user@example.com", session.filled[`input#username`])
		assert.Equal(t, "hunter2", session.filled[`input#password`])
	})

	t.Run("checkpoint waits for the operator", func(t *testing.T) {
		session := newFakeSession()
		session.location = "https://www.linkedin.com/checkpoint/challenge/xyz"
		s := newTestScraper(t, session, &fakeStore{}, testConfig())

		waited := false
		s.waitForOperator = func() { waited = true }

		status, err := s.Login(context.Background(), "user@example.com", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, LoginCheckpointChallenge, status)
		assert.True(t, waited)
	})

	t.Run("login page with error banner fails", func(t *testing.T) {
		session := newFakeSession()
		session.location = "https://www.linkedin.com/login"
		session.alerts = []browser.Element{{Text: "Wrong email or password."}}
		s := newTestScraper(t, session, &fakeStore{}, testConfig())

		status, err := s.Login(context.Background(), "user@example.com", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, LoginFailed, status)
	})

	t.Run("login page without banner continues", func(t *testing.T) {
		session := newFakeSession()
		session.location = "https://www.linkedin.com/login"
		s := newTestScraper(t, session, &fakeStore{}, testConfig())

		status, err := s.Login(context.Background(), "user@example.com", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, LoginOk, status)
	})
}
