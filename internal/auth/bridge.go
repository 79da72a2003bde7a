// Package auth implements the one-shot modal authentication flow: a caller
// is suspended until exactly one matching response event arrives from the
// shared credential surface.
package auth

import "sync"

// Credentials is the payload a resolved auth request delivers.
type Credentials struct {
	Username string
	Password string
}

// Prompt is the shared modal credential surface. Present positions and shows
// it relative to the owning window and hands it the challenging URL.
type Prompt interface {
	Present(url string)
}

// Bridge suspends auth callers until a response event arrives. The underlying
// modal surface is a single shared instance per window, so at most one
// request is meaningfully in flight; a newer request supersedes the pending
// one by closing its channel.
type Bridge struct {
	mu      sync.Mutex
	prompt  Prompt
	pending chan Credentials
}

func NewBridge(prompt Prompt) *Bridge {
	return &Bridge{prompt: prompt}
}

// Request shows the credential surface for url and returns a channel that
// receives exactly one Credentials value when the user responds. The channel
// is closed without a value when a newer request supersedes this one. There
// is no timeout or cancellation here; callers that need one wrap the receive.
func (b *Bridge) Request(url string) <-chan Credentials {
	b.mu.Lock()
	if b.pending != nil {
		close(b.pending)
	}
	ch := make(chan Credentials, 1)
	b.pending = ch
	prompt := b.prompt
	b.mu.Unlock()

	if prompt != nil {
		prompt.Present(url)
	}
	return ch
}

// Resolve delivers a response event. Only the current pending request
// resolves; the listener is discarded afterwards, so a second event for the
// same or a later call never resolves a stale request.
func (b *Bridge) Resolve(c Credentials) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return
	}
	b.pending <- c
	close(b.pending)
	b.pending = nil
}

// Pending reports whether a request is waiting for a response.
func (b *Bridge) Pending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}
