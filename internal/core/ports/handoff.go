package ports

import "context"

// BrowsingContext is a short-lived context pointed at a remote page.
type BrowsingContext interface {
	// Close tears the context down whether or not the page finished.
	Close()
}

// ContextOpener opens browsing contexts against the management app.
// Contexts opened for the same owner are started in order.
type ContextOpener interface {
	Open(ctx context.Context, owner, target string) (BrowsingContext, error)
}
