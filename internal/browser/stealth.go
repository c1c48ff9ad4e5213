package browser

import (
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// stealthFlags is the fixed battery of launch flags that suppresses the
// most common automation fingerprints. The list is load-bearing for
// anti-detection parity; do not reorder or trim it casually.
var stealthFlags = []chromedp.ExecAllocatorOption{
	chromedp.Flag("no-sandbox", true),
	chromedp.Flag("disable-setuid-sandbox", true),
	chromedp.Flag("disable-dev-shm-usage", true),
	chromedp.Flag("disable-accelerated-2d-canvas", true),
	chromedp.Flag("no-first-run", true),
	chromedp.Flag("no-zygote", true),
	chromedp.Flag("disable-gpu", true),
	chromedp.Flag("disable-background-timer-throttling", true),
	chromedp.Flag("disable-backgrounding-occluded-windows", true),
	chromedp.Flag("disable-renderer-backgrounding", true),
	chromedp.Flag("disable-features", "TranslateUI"),
	chromedp.Flag("disable-ipc-flooding-protection", true),
	chromedp.Flag("disable-blink-features", "AutomationControlled"),
}

// stealthScript runs on every new document before page scripts execute,
// making the usual automation-detection probes read as benign: the
// webdriver flag is undefined, the plugin and language lists are
// populated, and a chrome runtime object exists.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
window.chrome = { runtime: {} };
`

// mainContentSelectors is probed in order when a caller asks for main
// content only; the first selector whose text exceeds
// mainContentMinLength characters wins, otherwise the full body text is
// used.
var mainContentSelectors = []string{
	"main",
	"[role=\"main\"]",
	".content",
	".post-content",
	".entry-content",
	"article",
	".article-content",
	"#content",
	".main-content",
}

const mainContentMinLength = 100

// mainContentScript builds the in-page expression that implements the
// selector probe. Evaluated as a single expression returning a string.
func mainContentScript() string {
	quoted := make([]string, len(mainContentSelectors))
	for i, sel := range mainContentSelectors {
		quoted[i] = fmt.Sprintf("%q", sel)
	}
	return fmt.Sprintf(`(() => {
	const selectors = [%s];
	for (const sel of selectors) {
		const el = document.querySelector(sel);
		if (el && el.innerText && el.innerText.trim().length > %d) {
			return el.innerText.trim();
		}
	}
	return document.body ? document.body.innerText.trim() : '';
})()`, strings.Join(quoted, ", "), mainContentMinLength)
}

const bodyTextScript = `document.body ? document.body.innerText.trim() : ''`
