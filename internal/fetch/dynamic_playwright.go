package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

type dynamicProvider interface {
	Install() error
	Run() (dynamicRunner, error)
}

type dynamicRunner interface {
	ChromiumLaunch(headless bool) (dynamicBrowser, error)
	Stop() error
}

type dynamicBrowser interface {
	NewPage(userAgent string) (dynamicPage, error)
	Close() error
}

type dynamicPage interface {
	Goto(url string, timeout time.Duration) error
	WaitFor(selector string, timeout time.Duration) error
	Content() (string, error)
	SetContent(html string, timeout time.Duration) error
	Screenshot(width, height int) ([]byte, error)
	SetExtraHTTPHeaders(headers map[string]string) error
	Close() error
}

type playwrightProvider struct{}

func (playwrightProvider) Install() error {
	return playwright.Install(&playwright.RunOptions{})
}

func (playwrightProvider) Run() (dynamicRunner, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, err
	}
	return &playwrightRunner{pw: pw}, nil
}

type playwrightRunner struct {
	pw *playwright.Playwright
}

func (r *playwrightRunner) ChromiumLaunch(headless bool) (dynamicBrowser, error) {
	browser, err := r.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		return nil, err
	}
	return &playwrightBrowser{browser: browser}, nil
}

func (r *playwrightRunner) Stop() error {
	return r.pw.Stop()
}

type playwrightBrowser struct {
	browser playwright.Browser
}

func (b *playwrightBrowser) NewPage(userAgent string) (dynamicPage, error) {
	page, err := b.browser.NewPage(playwright.BrowserNewPageOptions{
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		return nil, err
	}
	return &playwrightPage{page: page}, nil
}

func (b *playwrightBrowser) Close() error {
	return b.browser.Close()
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	})
	return err
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) error {
	loc := p.page.Locator(selector)
	return loc.WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

func (p *playwrightPage) SetContent(html string, timeout time.Duration) error {
	return p.page.SetContent(html, playwright.PageSetContentOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateLoad,
	})
}

func (p *playwrightPage) Screenshot(width, height int) ([]byte, error) {
	if err := p.page.SetViewportSize(width, height); err != nil {
		return nil, err
	}
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		Type: playwright.ScreenshotTypePng,
	})
}

func (p *playwrightPage) SetExtraHTTPHeaders(headers map[string]string) error {
	return p.page.SetExtraHTTPHeaders(headers)
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

type browserSession struct {
	runner  dynamicRunner
	browser dynamicBrowser
}

func (c *Client) browser() (dynamicBrowser, error) {
	if c.session != nil {
		return c.session.browser, nil
	}
	if err := c.provider.Install(); err != nil {
		return nil, fmt.Errorf("install playwright: %w", err)
	}
	runner, err := c.provider.Run()
	if err != nil {
		return nil, err
	}
	browser, err := runner.ChromiumLaunch(c.opts.Headless)
	if err != nil {
		_ = runner.Stop()
		return nil, err
	}
	c.session = &browserSession{runner: runner, browser: browser}
	return browser, nil
}

func (c *Client) closeSession() error {
	if c.session == nil {
		return nil
	}
	s := c.session
	c.session = nil
	return errors.Join(s.browser.Close(), s.runner.Stop())
}

func (c *Client) fetchDynamic(ctx context.Context, rawURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	browser, err := c.browser()
	if err != nil {
		return "", err
	}
	page, err := browser.NewPage(c.opts.UserAgent)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = page.Close()
	}()

	if len(c.opts.Headers) > 0 {
		if err := page.SetExtraHTTPHeaders(c.opts.Headers); err != nil {
			return "", err
		}
	}

	if err := page.Goto(rawURL, c.opts.PageTimeout); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("dynamic fetch timed out after %s (try --timeout or --wait-for)", c.opts.PageTimeout)
		}
		return "", err
	}
	if c.opts.WaitForSelector != "" {
		if err := page.WaitFor(c.opts.WaitForSelector, c.opts.PageTimeout); err != nil {
			return "", fmt.Errorf("wait-for selector timed out: %s", c.opts.WaitForSelector)
		}
	}

	return page.Content()
}

// Render loads html into a blank browser page and returns a PNG screenshot
// of the given viewport.
func (c *Client) Render(ctx context.Context, html string, width, height int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	browser, err := c.browser()
	if err != nil {
		return nil, err
	}
	page, err := browser.NewPage(c.opts.UserAgent)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = page.Close()
	}()

	if err := page.SetContent(html, c.opts.PageTimeout); err != nil {
		return nil, fmt.Errorf("set content: %w", err)
	}
	return page.Screenshot(width, height)
}
