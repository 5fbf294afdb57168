package analyzer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"github.com/taifuranowar/linkedin-positive-toxicity/db/service"
	"github.com/taifuranowar/linkedin-positive-toxicity/logger"
)

const promptTemplate = `You are an expert at analyzing content for toxic positivity. Analyze this LinkedIn post and rate it for toxic positivity.

Rate the severity on a scale from 0-3 where:
0 = non-toxic positive
1 = mildly toxic
2 = moderately toxic
3 = highly toxic

Provide a maximum of 5 bullet points explaining your rating. Focus on specific phrases, tone, and content that justify your severity rating.

Format your answer exactly like this:
Severity: [number]
Reasons:
- [First reason]
- [Second reason]
- [etc. up to 5 bullet points maximum]

Post:
%s`

// Generator produces a completion for a prompt. *Client satisfies it; tests
// substitute a canned one.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Analyzer scores stored posts one at a time: fetch a bounded batch of
// unscored rows, prompt the model, parse, write back. It runs independently
// of the ingestion loop and only ever touches the severity and reasons
// columns.
type Analyzer struct {
	posts     *service.PostService
	model     Generator
	batchSize int

	// pause between records so a local GPU gets a breather
	limiter *rate.Limiter
}

func New(posts *service.PostService, model Generator, batchSize int) *Analyzer {
	return &Analyzer{
		posts:     posts,
		model:     model,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
}

// Classify rates a single post text. It never fails soft-parse: a response
// the parser cannot read yields the Unknown severity and the raw response is
// returned for logging.
func (a *Analyzer) Classify(ctx context.Context, text string) (severity, reasons, rawResponse string, err error) {
	prompt := fmt.Sprintf(promptTemplate, text)
	response, err := a.model.Generate(ctx, prompt)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to generate response: %w", err)
	}
	severity, reasons = ParseResponse(response)
	return severity, reasons, response, nil
}

// Run processes unscored posts in batches until a fetch comes back empty.
// Returns the number of posts scored.
func (a *Analyzer) Run(ctx context.Context) (int, error) {
	totalProcessed := 0

	for {
		if err := ctx.Err(); err != nil {
			return totalProcessed, err
		}

		posts, err := a.posts.FetchUnscored(a.batchSize)
		if err != nil {
			return totalProcessed, fmt.Errorf("failed to fetch unscored posts: %w", err)
		}
		if len(posts) == 0 {
			logger.Logger.Printf("No more posts found that need severity analysis")
			return totalProcessed, nil
		}
		logger.Logger.Printf("Found %d posts that need severity analysis in this batch", len(posts))

		bar := progressbar.NewOptions(len(posts),
			progressbar.OptionSetDescription("Analyzing posts"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(15),
			progressbar.OptionShowCount(),
		)

		for _, post := range posts {
			if err := a.limiter.Wait(ctx); err != nil {
				bar.Finish()
				return totalProcessed, err
			}

			preview := post.Text
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}
			logger.Logger.Printf("Analyzing post %s: %s", post.PostID, preview)

			severity, reasons, raw, err := a.Classify(ctx, post.Text)
			if err != nil {
				// Recoverable per record: leave the row unscored for a
				// later pass.
				logger.Logger.Printf("[ERROR] Failed to classify post %s: %v", post.PostID, err)
				bar.Add(1)
				continue
			}
			if severity == SeverityUnknown {
				logger.Logger.Printf("[WARN] Could not extract severity for post %s, raw response: %s", post.PostID, raw)
			}

			if err := a.posts.UpdateSeverity(post.PostID, severity, reasons); err != nil {
				logger.Logger.Printf("[ERROR] Failed to update post %s: %v", post.PostID, err)
				bar.Add(1)
				continue
			}

			totalProcessed++
			bar.Add(1)
		}
		bar.Finish()

		logger.Logger.Printf("Completed batch, total posts processed: %d", totalProcessed)
	}
}
