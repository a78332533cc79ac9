package speech

import (
	"context"
	"errors"
	"sync"
)

// Result is the outcome of one capture.
type Result struct {
	Transcript string
	Err        error
}

// Capture runs single-utterance recognition. At most one capture is active;
// Start while listening is a no-op.
type Capture struct {
	rec     Recognizer
	locale  string
	results chan Result

	mu        sync.Mutex
	listening bool
	cancel    context.CancelFunc
	gen       uint64
}

// NewCapture creates a Capture for locale. rec may be nil.
func NewCapture(rec Recognizer, locale string) *Capture {
	return &Capture{rec: rec, locale: locale, results: make(chan Result, 1)}
}

// Available reports whether a recognizer is present.
func (c *Capture) Available() bool {
	return c != nil && c.rec != nil
}

// Results delivers the transcript or error of each finished capture.
// Stopped captures deliver nothing.
func (c *Capture) Results() <-chan Result {
	return c.results
}

// Listening reports whether a capture is active.
func (c *Capture) Listening() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// Start begins listening. It returns ErrUnsupported without a recognizer.
func (c *Capture) Start(ctx context.Context) error {
	if !c.Available() {
		return ErrUnsupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listening {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	c.gen++
	gen := c.gen
	c.listening = true
	c.cancel = cancel

	go func() {
		defer cancel()
		text, err := c.rec.Recognize(ctx, c.locale)

		c.mu.Lock()
		current := c.gen == gen
		if current {
			c.listening = false
			c.cancel = nil
		}
		c.mu.Unlock()

		if !current || errors.Is(err, context.Canceled) {
			return
		}
		c.deliver(Result{Transcript: text, Err: err})
	}()
	return nil
}

// Stop ends the active capture, discarding its result.
func (c *Capture) Stop() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	c.cancel = nil
	c.listening = false
}

// Toggle stops an active capture or starts a new one, returning whether it
// is now listening.
func (c *Capture) Toggle(ctx context.Context) (bool, error) {
	if c.Listening() {
		c.Stop()
		return false, nil
	}
	if err := c.Start(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// deliver keeps only the newest unread result.
func (c *Capture) deliver(r Result) {
	for {
		select {
		case c.results <- r:
			return
		default:
		}
		select {
		case <-c.results:
		default:
		}
	}
}
