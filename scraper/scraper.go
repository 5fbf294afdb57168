package scraper

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"github.com/taifuranowar/linkedin-positive-toxicity/browser"
	"github.com/taifuranowar/linkedin-positive-toxicity/checkpoint"
	"github.com/taifuranowar/linkedin-positive-toxicity/config"
	"github.com/taifuranowar/linkedin-positive-toxicity/db/models"
	"github.com/taifuranowar/linkedin-positive-toxicity/extract"
	"github.com/taifuranowar/linkedin-positive-toxicity/logger"
)

const (
	loginURL        = "https://www.linkedin.com/login"
	feedURL         = "https://www.linkedin.com/feed/"
	searchURLFormat = "https://www.linkedin.com/search/results/content/?keywords=%s&origin=CLUSTER_EXPANSION&sid=Pfc"

	loginErrorSelector = ".alert, .form__alert--error"

	// Consecutive scroll-extract cycles with zero new posts before a query
	// is considered exhausted.
	maxEmptyScrolls = 3
)

// ErrInterrupted reports that the run stopped on an external interrupt after
// flushing pending work and writing a checkpoint.
var ErrInterrupted = errors.New("scrape interrupted")

// LoginStatus classifies where the browser landed after submitting
// credentials.
type LoginStatus int

const (
	LoginOk LoginStatus = iota
	LoginCheckpointChallenge
	LoginFailed
)

// Storage is the flush sink for extracted batches. The database service and
// the flat-file writer both satisfy it.
type Storage interface {
	SaveBatch(posts []models.Post) (saved, skipped int)
}

// Scraper drives one browser session through login, navigation, extraction
// and scrolling, flushing batches to storage and checkpointing after every
// flush. It is strictly sequential; the only asynchronous input is context
// cancellation, checked at every suspension point.
type Scraper struct {
	session    browser.Session
	store      Storage
	ckpt       *checkpoint.Store
	cfg        config.ScraperConfig
	username   string
	strategies []Strategy

	// Fixed settle delays. The page offers no reliable readiness signal, so
	// these stand in for one; tests shrink them.
	settleSearch time.Duration
	settleFeed   time.Duration
	settleLogin  time.Duration
	expandPause  time.Duration
	retryPause   time.Duration

	// waitForOperator blocks until a human has cleared a security challenge.
	waitForOperator func()

	// in-run dedupe state, reset per query
	seenIDs   map[string]bool
	seenTexts map[string]bool
}

// New creates a scraper over an established browser session. store may be
// the database service or a flat-file writer.
func New(session browser.Session, store Storage, ckpt *checkpoint.Store, cfg config.ScraperConfig, username string) *Scraper {
	return &Scraper{
		session:      session,
		store:        store,
		ckpt:         ckpt,
		cfg:          cfg,
		username:     username,
		strategies:   defaultStrategies,
		settleSearch: 5 * time.Second,
		settleFeed:   3 * time.Second,
		settleLogin:  2 * time.Second,
		expandPause:  300 * time.Millisecond,
		retryPause:   3 * time.Second,
		waitForOperator: func() {
			fmt.Println("Press Enter after completing the security verification...")
			bufio.NewReader(os.Stdin).ReadString('\n')
		},
	}
}

// Login submits credentials and classifies the resulting location. A
// security checkpoint blocks here until the operator clears it manually.
func (s *Scraper) Login(ctx context.Context, email, password string) (LoginStatus, error) {
	logger.Logger.Printf("Navigating to login page")
	if err := s.session.Navigate(ctx, loginURL); err != nil {
		return LoginFailed, fmt.Errorf("failed to open login page: %w", err)
	}
	if err := s.session.WaitVisible(ctx, `input#username`); err != nil {
		return LoginFailed, fmt.Errorf("login form never became visible: %w", err)
	}

	if err := s.session.Fill(ctx, `input#username`, email); err != nil {
		return LoginFailed, fmt.Errorf("failed to fill username: %w", err)
	}
	if err := s.session.Fill(ctx, `input#password`, password); err != nil {
		return LoginFailed, fmt.Errorf("failed to fill password: %w", err)
	}
	if err := s.session.Click(ctx, `button[type="submit"]`); err != nil {
		return LoginFailed, fmt.Errorf("failed to submit login: %w", err)
	}

	// Let the redirect start before reading the location.
	if err := sleepCtx(ctx, s.settleLogin); err != nil {
		return LoginFailed, err
	}

	loc, err := s.session.Location(ctx)
	if err != nil {
		return LoginFailed, fmt.Errorf("failed to read location after login: %w", err)
	}
	logger.Logger.Printf("Current URL after login attempt: %s", loc)

	switch {
	case strings.Contains(loc, "checkpoint"):
		color.Yellow("Security checkpoint detected. Please complete the verification manually.")
		s.waitForOperator()
		return LoginCheckpointChallenge, nil
	case strings.Contains(loc, "login"):
		alerts, qerr := s.session.QueryAll(ctx, browser.Query{Selector: loginErrorSelector})
		if qerr == nil && len(alerts) > 0 {
			for _, alert := range alerts {
				logger.Logger.Printf("[ERROR] Login error message: %s", alert.Text)
			}
			return LoginFailed, nil
		}
		logger.Logger.Printf("[WARN] Still on login page with no error message, continuing anyway")
		return LoginOk, nil
	default:
		logger.Logger.Printf("Login appears successful")
		return LoginOk, nil
	}
}

// Run executes the full multi-query session: resumes from a checkpoint when
// asked to, scrapes each query in order with a fixed cooldown between them,
// and clears the checkpoint only after an uninterrupted full pass.
func (s *Scraper) Run(ctx context.Context, queries []string, resume bool) error {
	var completed []string
	var current string
	resumeOffset := 0

	if resume {
		completed, current, resumeOffset = s.ckpt.Load()

		remaining := make([]string, 0, len(queries))
		for _, q := range queries {
			if slices.Contains(completed, q) {
				logger.Logger.Printf("Skipping already completed query: %q", q)
				continue
			}
			remaining = append(remaining, q)
		}
		// The in-flight query runs first so its resume offset applies.
		if idx := slices.Index(remaining, current); idx > 0 {
			remaining = append([]string{current}, slices.Delete(remaining, idx, idx+1)...)
		}
		queries = remaining
	}

	cooldown := rate.NewLimiter(rate.Every(time.Duration(s.cfg.QueryCooldown)*time.Second), 1)

	for i, query := range queries {
		offset := 0
		// The stored offset belongs to the checkpoint's in-flight query only;
		// a query list edited between runs must not inherit it.
		if resume && i == 0 && query == current {
			offset = resumeOffset
			if offset > 0 {
				logger.Logger.Printf("Resuming query %q with %d posts already collected", query, offset)
			}
		}

		if err := cooldown.Wait(ctx); err != nil {
			return s.interrupted(completed, query, offset)
		}

		collected, err := s.ScrapeQuery(ctx, query, completed, offset)
		switch {
		case errors.Is(err, ErrInterrupted):
			return err
		case err != nil:
			// Fatal for this query only; move on with zero/partial count.
			logger.Logger.Printf("[ERROR] Query %q aborted after %d posts: %v", query, collected, err)
		}

		completed = append(completed, query)
		if err := s.ckpt.Save(completed, "", 0, s.username); err != nil {
			logger.Logger.Printf("[WARN] Failed to save checkpoint: %v", err)
		}
	}

	if ctx.Err() != nil {
		return ErrInterrupted
	}
	if err := s.ckpt.Clear(); err != nil {
		logger.Logger.Printf("[WARN] Failed to clear checkpoint: %v", err)
	}
	return nil
}

// ScrapeQuery runs the extract-scroll-flush loop for one query until the
// configured maximum is reached or the feed stops yielding new posts.
// Returns the number of posts collected this run.
func (s *Scraper) ScrapeQuery(ctx context.Context, query string, completed []string, offset int) (int, error) {
	if err := s.navigate(ctx, query); err != nil {
		// An interrupt while navigating checkpoints the query as in-flight,
		// the same as one caught inside the loop.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return offset, s.interrupted(completed, query, offset)
		}
		return 0, err
	}

	s.seenIDs = make(map[string]bool)
	s.seenTexts = make(map[string]bool)

	var pending []models.Post
	collected := offset

	bar := progressbar.NewOptions(s.cfg.MaxPosts,
		progressbar.OptionSetDescription(fmt.Sprintf("Collecting posts for %q", query)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		saved, skipped := s.store.SaveBatch(pending)
		logger.Logger.Printf("Flushed batch for %q: %d saved, %d skipped", query, saved, skipped)
		pending = nil
		if err := s.ckpt.Save(completed, query, collected, s.username); err != nil {
			logger.Logger.Printf("[WARN] Failed to save checkpoint: %v", err)
		}
	}

	stop := func(cause error) (int, error) {
		if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
			if len(pending) > 0 {
				flush()
			} else if err := s.ckpt.Save(completed, query, collected, s.username); err != nil {
				logger.Logger.Printf("[WARN] Failed to save checkpoint on interrupt: %v", err)
			}
			return collected, ErrInterrupted
		}
		flush()
		return collected, cause
	}

	ingest := func(posts []models.Post) {
		for _, post := range posts {
			pending = append(pending, post)
			collected++
			bar.Add(1)
			if len(pending) >= s.cfg.BatchSize {
				flush()
			}
		}
	}

	// Initial extraction, retried a few times while the page settles.
	for attempt := 1; attempt <= 3; attempt++ {
		if err := ctx.Err(); err != nil {
			return stop(err)
		}
		posts := s.extractVisiblePosts(ctx, query)
		if len(posts) > 0 {
			ingest(posts)
			break
		}
		logger.Logger.Printf("No posts found on attempt %d/3, waiting", attempt)
		if err := sleepCtx(ctx, s.retryPause); err != nil {
			return stop(err)
		}
	}

	emptyScrolls := 0
	for collected < s.cfg.MaxPosts && emptyScrolls < maxEmptyScrolls {
		if err := ctx.Err(); err != nil {
			return stop(err)
		}

		if err := s.session.ScrollByViewport(ctx); err != nil {
			logger.Logger.Printf("[WARN] Scroll failed: %v", err)
			emptyScrolls++
			continue
		}
		if err := sleepCtx(ctx, time.Duration(s.cfg.ScrollDelay)*time.Second); err != nil {
			return stop(err)
		}

		posts := s.extractVisiblePosts(ctx, query)
		if len(posts) == 0 {
			emptyScrolls++
			logger.Logger.Printf("No new posts after scrolling (%d/%d)", emptyScrolls, maxEmptyScrolls)
			continue
		}
		emptyScrolls = 0
		ingest(posts)
	}

	if err := ctx.Err(); err != nil {
		return stop(err)
	}

	flush()
	return collected, nil
}

func (s *Scraper) navigate(ctx context.Context, query string) error {
	if query != "" {
		searchURL := fmt.Sprintf(searchURLFormat, url.QueryEscape(query))
		logger.Logger.Printf("Navigating to search results for %q", query)
		if err := s.session.Navigate(ctx, searchURL); err != nil {
			return fmt.Errorf("failed to open search results: %w", err)
		}
		return sleepCtx(ctx, s.settleSearch)
	}

	logger.Logger.Printf("No search query provided, navigating to feed")
	if err := s.session.Navigate(ctx, feedURL); err != nil {
		return fmt.Errorf("failed to open feed: %w", err)
	}
	return sleepCtx(ctx, s.settleFeed)
}

// extractVisiblePosts runs one visible-extraction pass: expand truncated
// posts, locate containers with the first selector strategy that matches,
// and turn each unseen container into a record. Failures here are
// per-cycle-recoverable; an empty result just counts toward the abort
// threshold.
func (s *Scraper) extractVisiblePosts(ctx context.Context, query string) []models.Post {
	if clicked, err := s.session.ClickAll(ctx, expandMoreSelector); err == nil && clicked > 0 {
		logger.Logger.Printf("Expanded %d truncated posts", clicked)
		if err := sleepCtx(ctx, s.expandPause); err != nil {
			return nil
		}
	}

	var elements []browser.Element
	var used Strategy
	for _, strategy := range s.strategies {
		els, err := s.session.QueryAll(ctx, strategy.query())
		if err != nil {
			logger.Logger.Printf("[WARN] Selector strategy %s failed: %v", strategy.Name, err)
			continue
		}
		if len(els) > 0 {
			elements = els
			used = strategy
			break
		}
	}
	if len(elements) == 0 {
		logger.Logger.Printf("No posts found with any selector strategy")
		return nil
	}
	logger.Logger.Printf("Found %d containers using strategy %s", len(elements), used.Name)

	var posts []models.Post
	for _, el := range elements {
		post, ok := s.buildPost(el, used, query)
		if !ok {
			continue
		}
		posts = append(posts, post)

		preview := post.Text
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		logger.Logger.Printf("Post %d: %s", len(s.seenTexts), preview)
	}
	return posts
}

// buildPost derives a candidate record from one container snapshot. Empty
// text and anything already seen this run are dropped. Containers without an
// extractable identity get a generated UUID and are treated as always new.
func (s *Scraper) buildPost(el browser.Element, st Strategy, query string) (models.Post, bool) {
	text := el.Text
	if st.TextSel != "" {
		if sub := el.Fields["text"]; sub != "" {
			text = sub
		}
	}
	text = extract.RemoveDuplicatedText(text)
	if text == "" || s.seenTexts[text] {
		return models.Post{}, false
	}
	s.seenTexts[text] = true

	var postID, postURL string
	urn := el.Attrs["data-urn"]
	if urn == "" {
		urn = el.Attrs["data-id"]
	}
	if id := extract.PostIDFromURN(urn); id != "" {
		if s.seenIDs[id] {
			return models.Post{}, false
		}
		s.seenIDs[id] = true
		postID = id
		postURL = extract.PostURL(id)
	} else {
		postID = uuid.NewString()
	}

	post := models.Post{
		PostID:          postID,
		Text:            text,
		PostAuthor:      nullable(extract.CleanAuthorName(el.Fields["author"])),
		ProfileHeadline: nullable(extract.RemoveDuplicatedText(el.Fields["headline"])),
		PostDate:        nullable(extract.ConvertRelativeDate(el.Fields["date"], time.Now())),
		PostURL:         nullable(postURL),
		Hashtags:        nullable(extract.Hashtags(text)),
		SearchQuery:     nullable(query),
	}
	return post, true
}

func (s *Scraper) interrupted(completed []string, current string, collected int) error {
	if err := s.ckpt.Save(completed, current, collected, s.username); err != nil {
		logger.Logger.Printf("[WARN] Failed to save checkpoint on interrupt: %v", err)
	}
	return ErrInterrupted
}

func nullable(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
