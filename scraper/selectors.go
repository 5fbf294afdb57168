package scraper

import "github.com/taifuranowar/linkedin-positive-toxicity/browser"

// expandMoreSelector matches the "...more" toggles that truncate post text.
// Every visible one is clicked before an extraction pass.
const expandMoreSelector = "button.feed-shared-inline-show-more-text__see-more-less-toggle.see-more"

// Strategy describes one way of locating post containers on the page. The
// list below is tried in order and the first strategy that yields at least
// one match wins; feed markup shifts often enough that new entries get
// appended here without touching the loop.
type Strategy struct {
	Name      string
	Container string
	// TextSel narrows the post body to a sub-element; empty means the
	// container's own rendered text.
	TextSel     string
	AuthorSel   string
	DateSel     string
	HeadlineSel string
}

// identityAttrs are resolved against the container or its closest ancestor;
// whichever carries the activity URN identifies the post.
var identityAttrs = []string{"data-urn", "data-id"}

var defaultStrategies = []Strategy{
	{
		Name:        "feed-update",
		Container:   "div.feed-shared-update-v2",
		TextSel:     ".update-components-text span.break-words",
		AuthorSel:   ".update-components-actor__title",
		DateSel:     ".update-components-actor__sub-description",
		HeadlineSel: ".update-components-actor__description",
	},
	{
		Name:        "search-cluster",
		Container:   ".search-results__cluster-content .feed-shared-update-v2",
		TextSel:     ".feed-shared-inline-show-more-text",
		AuthorSel:   ".update-components-actor__title",
		DateSel:     ".update-components-actor__sub-description",
		HeadlineSel: ".update-components-actor__description",
	},
	{
		Name:      "update-text",
		Container: ".update-components-text span.break-words",
	},
	{
		Name:      "show-more-text",
		Container: ".feed-shared-update-v2 .feed-shared-inline-show-more-text",
	},
	{
		Name:      "ember-description",
		Container: ".ember-view .feed-shared-update-v2__description",
	},
}

func (st Strategy) query() browser.Query {
	fields := make(map[string]string)
	if st.TextSel != "" {
		fields["text"] = st.TextSel
	}
	if st.AuthorSel != "" {
		fields["author"] = st.AuthorSel
	}
	if st.DateSel != "" {
		fields["date"] = st.DateSel
	}
	if st.HeadlineSel != "" {
		fields["headline"] = st.HeadlineSel
	}
	return browser.Query{
		Selector: st.Container,
		Fields:   fields,
		Attrs:    identityAttrs,
	}
}
