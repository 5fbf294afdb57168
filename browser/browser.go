package browser

import "context"

// Element is a snapshot of a single matched page element: its rendered text,
// named sub-element texts, and resolved attributes. Snapshots are plain data
// so the ingestion loop never holds live handles into the page.
type Element struct {
	Text   string
	Fields map[string]string
	Attrs  map[string]string
}

// Query describes one QueryAll pass: the container selector, optional named
// sub-selectors whose innerText is captured per container, and optional
// attribute names resolved against the container or its closest ancestor
// that carries them.
type Query struct {
	Selector string
	Fields   map[string]string
	Attrs    []string
}

// Session is the opaque browser-automation capability the ingestion loop is
// written against. Implementations own navigation, element queries and
// scrolling; the loop owns all policy.
type Session interface {
	// Navigate loads url and returns once the DOM content has loaded.
	Navigate(ctx context.Context, url string) error
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// WaitVisible blocks until the selector matches a visible element.
	WaitVisible(ctx context.Context, selector string) error
	// Fill sets the value of the input matching selector.
	Fill(ctx context.Context, selector, value string) error
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// ClickAll clicks every currently visible element matching selector and
	// returns how many were clicked.
	ClickAll(ctx context.Context, selector string) (int, error)
	// QueryAll snapshots every element matching the query.
	QueryAll(ctx context.Context, q Query) ([]Element, error)
	// ScrollByViewport advances the viewport by one viewport height.
	ScrollByViewport(ctx context.Context) error
	// Close tears the session down.
	Close() error
}
