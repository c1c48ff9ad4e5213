package browser

import (
	"context"
	"encoding/base64"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/scrapebridge/scrapebridge/internal/config"
	"github.com/scrapebridge/scrapebridge/internal/rotation"
	"github.com/scrapebridge/scrapebridge/internal/validate"
)

const navigationTimeout = 30 * time.Second

// ChromeFetcher drives an isolated headless Chrome instance per call.
// Each fetch launches its own browser and tears it down on every exit
// path; nothing is shared between calls except the rotation pools.
type ChromeFetcher struct {
	cfg        *config.Config
	proxies    *rotation.Pool[string]
	userAgents *rotation.Pool[string]
}

// NewChromeFetcher creates a fetcher backed by local browser automation.
func NewChromeFetcher(cfg *config.Config, proxies, userAgents *rotation.Pool[string]) *ChromeFetcher {
	return &ChromeFetcher{cfg: cfg, proxies: proxies, userAgents: userAgents}
}

// FetchPage implements Fetcher.
func (f *ChromeFetcher) FetchPage(ctx context.Context, rawURL string, onlyMainContent bool) *ScrapedContent {
	if !validate.IsValidURL(rawURL) {
		return failedScrape(rawURL, invalidURLMessage)
	}
	target := validate.SanitizeURL(rawURL)
	result := &ScrapedContent{URL: rawURL}

	err := f.withBrowser(ctx, f.cfg.Scraping.ViewportWidth, f.cfg.Scraping.ViewportHeight, func(tabCtx context.Context) error {
		if err := f.navigate(tabCtx, target); err != nil {
			return err
		}
		if err := simulateReading(tabCtx); err != nil {
			return err
		}

		var title string
		if err := chromedp.Run(tabCtx, chromedp.Title(&title)); err != nil {
			return err
		}
		result.Title = title

		script := bodyTextScript
		if onlyMainContent {
			script = mainContentScript()
		}
		var text string
		if err := chromedp.Run(tabCtx, chromedp.Evaluate(script, &text)); err != nil {
			return err
		}
		result.Content = text
		// No real markdown conversion; the field mirrors the plain text.
		result.Markdown = text

		html, err := outerHTML(tabCtx)
		if err != nil {
			return err
		}
		result.HTML = html
		return nil
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	return result
}

// CaptureScreenshot implements Fetcher. It follows the same launch,
// navigation, and interaction choreography as FetchPage, then captures
// a rendered image returned as an inline base64 payload.
func (f *ChromeFetcher) CaptureScreenshot(ctx context.Context, rawURL string, opts ScreenshotOptions) *ScreenshotResult {
	if !validate.IsValidURL(rawURL) {
		return failedScreenshot(rawURL, opts, invalidURLMessage)
	}
	target := validate.SanitizeURL(rawURL)
	result := &ScreenshotResult{URL: rawURL, Width: opts.Width, Height: opts.Height}

	err := f.withBrowser(ctx, opts.Width, opts.Height, func(tabCtx context.Context) error {
		if err := f.navigate(tabCtx, target); err != nil {
			return err
		}
		if err := simulateReading(tabCtx); err != nil {
			return err
		}

		var buf []byte
		var action chromedp.Action
		if opts.FullPage {
			action = chromedp.FullScreenshot(&buf, 90)
		} else {
			action = chromedp.CaptureScreenshot(&buf)
		}
		if err := chromedp.Run(tabCtx, action); err != nil {
			return err
		}
		result.ImageBase64 = base64.StdEncoding.EncodeToString(buf)
		return nil
	})
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Success = true
	return result
}

// withBrowser launches an isolated browser, applies the stealth setup
// and proxy wiring, runs fn against the tab context, and guarantees the
// browser is torn down on every exit path.
func (f *ChromeFetcher) withBrowser(ctx context.Context, width, height int, fn func(tabCtx context.Context) error) error {
	proxy, hasProxy := f.proxies.Next()
	userAgent := rotation.NextUserAgent(f.userAgents)

	opts := append(chromedp.DefaultExecAllocatorOptions[:], stealthFlags...)
	opts = append(opts,
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(width, height),
	)
	if hasProxy {
		opts = append(opts, chromedp.ProxyServer(proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	log.Debug().
		Str("userAgent", userAgent).
		Bool("proxy", hasProxy).
		Int("width", width).
		Int("height", height).
		Msg("launching browser")

	// Install the anti-detection overrides before any navigation.
	if err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(c context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(stealthScript).Do(c)
		return err
	})); err != nil {
		return err
	}

	if hasProxy && f.cfg.Proxy.HasCredentials() {
		if err := f.enableProxyAuth(tabCtx); err != nil {
			return err
		}
	}

	return fn(tabCtx)
}

// enableProxyAuth answers proxy authentication challenges with the
// configured credentials via the CDP fetch domain.
func (f *ChromeFetcher) enableProxyAuth(tabCtx context.Context) error {
	username := f.cfg.Proxy.Username
	password := f.cfg.Proxy.Password

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *fetch.EventAuthRequired:
			go func() {
				c := chromedp.FromContext(tabCtx)
				execCtx := cdp.WithExecutor(tabCtx, c.Target)
				err := fetch.ContinueWithAuth(e.RequestID, &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: username,
					Password: password,
				}).Do(execCtx)
				if err != nil {
					log.Debug().Err(err).Msg("proxy auth continuation failed")
				}
			}()
		case *fetch.EventRequestPaused:
			go func() {
				c := chromedp.FromContext(tabCtx)
				execCtx := cdp.WithExecutor(tabCtx, c.Target)
				if err := fetch.ContinueRequest(e.RequestID).Do(execCtx); err != nil {
					log.Debug().Err(err).Msg("request continuation failed")
				}
			}()
		}
	})

	return chromedp.Run(tabCtx, chromedp.ActionFunc(func(c context.Context) error {
		return fetch.Enable().WithHandleAuthRequests(true).Do(c)
	}))
}

// navigate sleeps a random pre-navigation delay, then navigates and
// waits for network activity to go quiet, all under a hard 30s cap.
func (f *ChromeFetcher) navigate(tabCtx context.Context, url string) error {
	delay := randomDuration(f.cfg.Scraping.NavDelayMin, f.cfg.Scraping.NavDelayMax)
	if err := sleepCtx(tabCtx, delay); err != nil {
		return err
	}

	navCtx, cancel := context.WithTimeout(tabCtx, navigationTimeout)
	defer cancel()

	start := time.Now()
	err := chromedp.Run(navCtx, navigateAndWaitIdle(url))
	if err != nil {
		return err
	}
	log.Debug().Str("url", url).Dur("elapsed", time.Since(start)).Msg("navigation complete")
	return nil
}

// navigateAndWaitIdle navigates and blocks until the page reports the
// networkIdle lifecycle event or the context expires.
func navigateAndWaitIdle(url string) chromedp.ActionFunc {
	return func(ctx context.Context) error {
		idle := make(chan struct{}, 1)
		listenCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		chromedp.ListenTarget(listenCtx, func(ev interface{}) {
			if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
				select {
				case idle <- struct{}{}:
				default:
				}
			}
		})

		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return err
		}
		if _, _, _, err := page.Navigate(url).Do(ctx); err != nil {
			return err
		}

		select {
		case <-idle:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// simulateReading performs the fixed human-interaction choreography:
// settle, scroll down a little, pause, scroll back up, pause again.
func simulateReading(tabCtx context.Context) error {
	if err := sleepCtx(tabCtx, randomDuration(2*time.Second, 5*time.Second)); err != nil {
		return err
	}
	if err := scrollBy(tabCtx, 100+rand.Intn(301)); err != nil {
		return err
	}
	if err := sleepCtx(tabCtx, randomDuration(500*time.Millisecond, 1500*time.Millisecond)); err != nil {
		return err
	}
	if err := scrollBy(tabCtx, -(50 + rand.Intn(101))); err != nil {
		return err
	}
	return sleepCtx(tabCtx, time.Second)
}

func scrollBy(tabCtx context.Context, deltaY int) error {
	return chromedp.Run(tabCtx, chromedp.ActionFunc(func(c context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, 0, 0).
			WithDeltaX(0).
			WithDeltaY(float64(deltaY)).
			Do(c)
	}))
}

func outerHTML(tabCtx context.Context) (string, error) {
	var html string
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(c context.Context) error {
		node, err := dom.GetDocument().Do(c)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(c)
		return err
	}))
	return html, err
}

func randomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
