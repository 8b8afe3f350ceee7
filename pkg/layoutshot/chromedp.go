package layoutshot

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/root4loot/goutils/log"
)

type chromedpBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

type chromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
	stop   func() bool
}

// viewportStateScript reports the emulated screen and whether touch input is
// available, which is only enabled for mobile viewports.
const viewportStateScript = `({
	width: window.screen.width,
	height: window.screen.height,
	mobile: navigator.maxTouchPoints > 0
})`

func launchChromedp(ctx context.Context, options *Options) (Browser, error) {
	// Create custom chromedp options by appending the custom flags to the default options.
	opts := append(chromedp.DefaultExecAllocatorOptions[:], customFlags(options)...)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	bctx, cancel := chromedp.NewContext(allocCtx)

	// An empty run starts the browser process.
	if err := chromedp.Run(bctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("error launching browser: %w", err)
	}
	log.Debugf("Browser launched with %d allocator options", len(opts))

	return &chromedpBrowser{ctx: bctx, cancel: cancel, allocCancel: allocCancel}, nil
}

// customFlags returns chromedp.ExecAllocatorOptions based on the run options.
func customFlags(options *Options) []chromedp.ExecAllocatorOption {
	var flags []chromedp.ExecAllocatorOption

	if !options.Headless {
		flags = append(flags, chromedp.Flag("headless", false))
	}

	if options.NoSandbox {
		flags = append(flags, chromedp.NoSandbox)
	}

	if options.BrowserBin != "" {
		flags = append(flags, chromedp.ExecPath(options.BrowserBin))
	}

	return flags
}

func (b *chromedpBrowser) NewPage(ctx context.Context) (Page, error) {
	tctx, cancel := chromedp.NewContext(b.ctx)
	if err := chromedp.Run(tctx); err != nil {
		cancel()
		return nil, err
	}

	return &chromedpPage{ctx: tctx, cancel: cancel, stop: context.AfterFunc(ctx, cancel)}, nil
}

// Close shuts the browser down and waits for the allocator to reap it.
func (b *chromedpBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	return err
}

// PID returns the process id of the launched browser, or 0 once it is gone.
func (b *chromedpBrowser) PID() int {
	c := chromedp.FromContext(b.ctx)
	if c == nil || c.Browser == nil || c.Browser.Process() == nil {
		return 0
	}
	return c.Browser.Process().Pid
}

func (p *chromedpPage) SetViewport(v Viewport) error {
	opts := []chromedp.EmulateViewportOption{chromedp.EmulateScale(1)}
	if v.Mobile {
		opts = append(opts, chromedp.EmulateMobile, chromedp.EmulateTouch)
	}

	tasks := chromedp.Tasks{chromedp.EmulateViewport(int64(v.Width), int64(v.Height), opts...)}
	if v.Mobile {
		tasks = append(tasks, emulation.SetUserAgentOverride(mobileUserAgent))
	}

	return chromedp.Run(p.ctx, tasks)
}

func (p *chromedpPage) Navigate(url string) error {
	return chromedp.Run(p.ctx, chromedp.Navigate(url))
}

func (p *chromedpPage) Screenshot() ([]byte, error) {
	var buf []byte
	// quality 100 selects PNG
	err := chromedp.Run(p.ctx, chromedp.FullScreenshot(&buf, 100))
	return buf, err
}

func (p *chromedpPage) InspectFooter(selector string) (FooterMetrics, error) {
	var m FooterMetrics

	expr, err := footerExpression(selector)
	if err != nil {
		return m, err
	}

	err = chromedp.Run(p.ctx, chromedp.Evaluate(expr, &m))
	return m, err
}

func (p *chromedpPage) ViewportState() (Viewport, error) {
	var state Viewport
	err := chromedp.Run(p.ctx, chromedp.Evaluate(viewportStateScript, &state))
	return state, err
}

func (p *chromedpPage) Close() error {
	p.stop()
	p.cancel()
	return nil
}
