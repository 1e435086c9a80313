package fetch

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodLauncher starts one Chrome process per session through rod.
type RodLauncher struct {
	// Bin is the browser executable. Empty lets rod locate or download one.
	Bin       string
	Headless  bool
	UserAgent string
}

func (r RodLauncher) Open(ctx context.Context) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(r.Headless).
		Set("disable-gpu").
		Set("blink-settings", "imagesEnabled=false").
		Set("window-size", "1920,1080").
		Set("disable-blink-features", "AutomationControlled")

	if r.Bin != "" {
		l = l.Bin(r.Bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, err
	}

	s := &rodSession{launcher: l, browser: browser, page: page}

	if r.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.UserAgent}); err != nil {
			return nil, errors.Join(err, s.Close())
		}
	}

	return s, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func (s *rodSession) Navigate(url string) error {
	return s.page.Navigate(url)
}

func (s *rodSession) WaitFor(selector string, timeout time.Duration) error {
	_, err := s.page.Timeout(timeout).Element(selector)
	return err
}

func (s *rodSession) Click(selector, text string, timeout time.Duration) error {
	el, err := s.page.Timeout(timeout).ElementR(selector, `^\s*`+regexp.QuoteMeta(text)+`\s*$`)
	if err != nil {
		return err
	}

	_, err = el.CancelTimeout().Eval(`() => this.click()`)
	return err
}

func (s *rodSession) HTML() (string, error) {
	return s.page.HTML()
}

func (s *rodSession) Close() error {
	err := errors.Join(s.page.Close(), s.browser.Close())
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}
