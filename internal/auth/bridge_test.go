package auth

import "testing"

type recordingPrompt struct {
	urls []string
}

func (p *recordingPrompt) Present(url string) {
	p.urls = append(p.urls, url)
}

func TestRequestPresentsPrompt(t *testing.T) {
	prompt := &recordingPrompt{}
	b := NewBridge(prompt)

	b.Request("https://example.com/protected")

	if len(prompt.urls) != 1 || prompt.urls[0] != "https://example.com/protected" {
		t.Fatalf("expected prompt presented with the URL, got %v", prompt.urls)
	}
	if !b.Pending() {
		t.Fatal("expected a pending request")
	}
}

func TestResolveDeliversOnce(t *testing.T) {
	b := NewBridge(&recordingPrompt{})

	ch := b.Request("https://example.com")
	b.Resolve(Credentials{Username: "user", Password: "secret"})

	c, ok := <-ch
	if !ok {
		t.Fatal("expected credentials on the channel")
	}
	if c.Username != "user" || c.Password != "secret" {
		t.Fatalf("unexpected credentials %+v", c)
	}

	// Channel is closed after the single delivery.
	if _, ok := <-ch; ok {
		t.Fatal("expected channel closed after delivery")
	}
	if b.Pending() {
		t.Fatal("expected no pending request after resolve")
	}
}

func TestResolveWithoutRequestIsNoOp(t *testing.T) {
	b := NewBridge(&recordingPrompt{})
	b.Resolve(Credentials{Username: "user"})
}

func TestSecondResolveIsDropped(t *testing.T) {
	b := NewBridge(&recordingPrompt{})

	ch := b.Request("https://example.com")
	b.Resolve(Credentials{Username: "first"})
	b.Resolve(Credentials{Username: "second"})

	c, ok := <-ch
	if !ok || c.Username != "first" {
		t.Fatalf("expected only the first resolve delivered, got %+v ok=%v", c, ok)
	}
}

func TestNewRequestSupersedesPending(t *testing.T) {
	b := NewBridge(&recordingPrompt{})

	first := b.Request("https://a.example")
	second := b.Request("https://b.example")

	// The superseded waiter observes a closed channel, i.e. cancellation.
	if _, ok := <-first; ok {
		t.Fatal("expected the superseded channel closed without credentials")
	}

	b.Resolve(Credentials{Username: "user"})
	c, ok := <-second
	if !ok || c.Username != "user" {
		t.Fatalf("expected the new request resolved, got %+v ok=%v", c, ok)
	}
}
