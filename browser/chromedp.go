package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36"

// ChromeSession drives a single Chrome tab over the DevTools protocol.
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
}

// NewChromeSession launches a browser and opens one tab. The session dies
// with parent, so an interrupted run tears the browser down on its way out.
func NewChromeSession(parent context.Context, timeout time.Duration, headless bool) (*ChromeSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.WindowSize(1280, 800),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser process up front so launch failures surface here
	// rather than on the first navigation.
	startCtx, startCancel := context.WithTimeout(ctx, timeout)
	defer startCancel()
	if err := chromedp.Run(startCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &ChromeSession{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		timeout:     timeout,
	}, nil
}

func (s *ChromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, opCancel := context.WithTimeout(s.ctx, s.timeout)
	defer opCancel()
	return chromedp.Run(opCtx, actions...)
}

func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *ChromeSession) Location(ctx context.Context) (string, error) {
	var loc string
	err := s.run(ctx, chromedp.Location(&loc))
	return loc, err
}

func (s *ChromeSession) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (s *ChromeSession) Fill(ctx context.Context, selector, value string) error {
	return s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (s *ChromeSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.Click(selector, chromedp.ByQuery))
}

// ClickAll clicks every visible match in page order. Clicks happen inside
// the page so stale-handle races with re-rendering cannot occur.
func (s *ChromeSession) ClickAll(ctx context.Context, selector string) (int, error) {
	js := fmt.Sprintf(`(() => {
		let clicked = 0;
		for (const el of document.querySelectorAll(%s)) {
			const rect = el.getBoundingClientRect();
			if (rect.width > 0 && rect.height > 0 && getComputedStyle(el).visibility !== 'hidden') {
				el.click();
				clicked++;
			}
		}
		return clicked;
	})()`, jsString(selector))

	var clicked int
	err := s.run(ctx, chromedp.Evaluate(js, &clicked))
	return clicked, err
}

type elementDTO struct {
	Text   string            `json:"text"`
	Fields map[string]string `json:"fields"`
	Attrs  map[string]string `json:"attrs"`
}

func (s *ChromeSession) QueryAll(ctx context.Context, q Query) ([]Element, error) {
	var sb strings.Builder
	sb.WriteString("(() => {\n\tconst out = [];\n")
	fmt.Fprintf(&sb, "\tfor (const el of document.querySelectorAll(%s)) {\n", jsString(q.Selector))
	sb.WriteString("\t\tconst item = { text: el.innerText || '', fields: {}, attrs: {} };\n")
	for name, sub := range q.Fields {
		fmt.Fprintf(&sb, "\t\t{ const c = el.querySelector(%s); item.fields[%s] = c ? c.innerText : ''; }\n",
			jsString(sub), jsString(name))
	}
	for _, attr := range q.Attrs {
		fmt.Fprintf(&sb, "\t\t{ const h = el.closest('['+%s+']'); item.attrs[%s] = h ? h.getAttribute(%s) : ''; }\n",
			jsString(attr), jsString(attr), jsString(attr))
	}
	sb.WriteString("\t\tout.push(item);\n\t}\n\treturn out;\n})()")

	var dtos []elementDTO
	if err := s.run(ctx, chromedp.Evaluate(sb.String(), &dtos)); err != nil {
		return nil, err
	}

	elements := make([]Element, len(dtos))
	for i, dto := range dtos {
		elements[i] = Element{Text: dto.Text, Fields: dto.Fields, Attrs: dto.Attrs}
	}
	return elements, nil
}

func (s *ChromeSession) ScrollByViewport(ctx context.Context) error {
	return s.run(ctx, chromedp.Evaluate(`window.scrollBy(0, window.innerHeight)`, nil))
}

func (s *ChromeSession) Close() error {
	s.cancel()
	s.allocCancel()
	return nil
}

// jsString renders a Go string as a quoted, escaped JS string literal.
func jsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}
