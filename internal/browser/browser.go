// Package browser reloads open browser tabs pointing at a local dev server.
// Everything here is best-effort: the browser may not be running, may not
// expose a debugging endpoint, or may refuse the reload, and none of that
// matters to the caller.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// DefaultDevtoolsURL is Chrome's conventional remote-debugging endpoint
// (started with --remote-debugging-port=9222).
const DefaultDevtoolsURL = "http://127.0.0.1:9222"

const reloadTimeout = 5 * time.Second

// ReloadTabs reloads every page whose URL starts with
// http://localhost:<port>, using the browser's remote-debugging protocol.
func ReloadTabs(ctx context.Context, devtoolsURL string, port int) error {
	if devtoolsURL == "" {
		devtoolsURL = DefaultDevtoolsURL
	}

	ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, devtoolsURL)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	targets, err := chromedp.Targets(browserCtx)
	if err != nil {
		return fmt.Errorf("list browser targets: %w", err)
	}

	prefix := fmt.Sprintf("http://localhost:%d", port)
	for _, t := range targets {
		if t.Type != "page" || !strings.HasPrefix(t.URL, prefix) {
			continue
		}
		tabCtx, tabCancel := chromedp.NewContext(browserCtx, chromedp.WithTargetID(t.TargetID))
		_ = chromedp.Run(tabCtx, chromedp.Reload())
		tabCancel()
	}
	return nil
}
