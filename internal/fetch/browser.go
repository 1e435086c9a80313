package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/gauravRathod674/OtakuRealm/log"
)

// Session is one browser automation session. It renders a single page and
// must be closed by whoever opened it.
type Session interface {
	Navigate(url string) error
	WaitFor(selector string, timeout time.Duration) error
	Click(selector, text string, timeout time.Duration) error
	HTML() (string, error)
	Close() error
}

// Launcher opens fresh sessions. Sessions are never shared between fetches.
type Launcher interface {
	Open(ctx context.Context) (Session, error)
}

// Browser fetches targets by rendering them in a dedicated session.
type Browser struct {
	launcher Launcher
	timeout  time.Duration
}

// NewBrowser returns a Browser that waits up to timeout for conditions that do
// not set their own.
func NewBrowser(launcher Launcher, timeout time.Duration) *Browser {
	return &Browser{launcher: launcher, timeout: timeout}
}

func (b *Browser) Fetch(ctx context.Context, target Target) (html string, err error) {
	logger := log.WithFields(log.Fields{"url": target.URL, "transport": "browser"})
	logger.Debug("opening browser session")

	session, err := b.launcher.Open(ctx)
	if err != nil {
		return "", &TransportError{URL: target.URL, Err: err}
	}

	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.WithError(cerr).Warn("closing browser session")
		}
	}()

	if err := session.Navigate(target.URL); err != nil {
		return "", b.fail(target.URL, "", 0, err)
	}

	if target.Ready != nil {
		if err := b.wait(session, target.URL, *target.Ready); err != nil {
			return "", err
		}
	}

	if i := target.Interact; i != nil {
		timeout := b.or(i.Then.Timeout)
		if err := session.Click(i.Selector, i.Text, timeout); err != nil {
			return "", b.fail(target.URL, i.Selector, timeout, err)
		}

		if err := b.wait(session, target.URL, i.Then); err != nil {
			return "", err
		}
	}

	html, err = session.HTML()
	if err != nil {
		return "", &TransportError{URL: target.URL, Err: err}
	}

	return html, nil
}

func (b *Browser) wait(session Session, url string, cond Condition) error {
	timeout := b.or(cond.Timeout)
	if err := session.WaitFor(cond.Selector, timeout); err != nil {
		return b.fail(url, cond.Selector, timeout, err)
	}

	return nil
}

// fail classifies a session error. Deadlines become render timeouts.
func (b *Browser) fail(url, selector string, timeout time.Duration, err error) error {
	if errors.Is(err, context.DeadlineExceeded) && selector != "" {
		return &RenderTimeoutError{URL: url, Selector: selector, Timeout: timeout}
	}

	return &TransportError{URL: url, Err: err}
}

func (b *Browser) or(timeout time.Duration) time.Duration {
	if timeout > 0 {
		return timeout
	}

	return b.timeout
}
