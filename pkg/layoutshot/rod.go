package layoutshot

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/root4loot/goutils/log"
)

type rodBrowser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
}

type rodPage struct {
	page *rod.Page
}

func launchRod(ctx context.Context, options *Options) (Browser, error) {
	path := options.BrowserBin
	if path == "" {
		path, _ = launcher.LookPath()
	}

	l := launcher.New().
		Context(ctx).
		Headless(options.Headless).
		NoSandbox(options.NoSandbox)

	if path != "" {
		l = l.Bin(path)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("error launching browser: %w", err)
	}
	log.Debugf("Browser launched at %s", controlURL)

	browser := rod.New().Context(ctx).ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("error connecting to browser: %w", err)
	}

	return &rodBrowser{launcher: l, browser: browser}, nil
}

func (b *rodBrowser) NewPage(ctx context.Context) (Page, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	return &rodPage{page: page.Context(ctx)}, nil
}

// Close ends the browser session, then makes sure the process is gone and
// its profile directory removed.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

// PID returns the process id of the launched browser.
func (b *rodBrowser) PID() int {
	return b.launcher.PID()
}

func (p *rodPage) SetViewport(v Viewport) error {
	if err := p.page.SetViewport(v.deviceMetrics()); err != nil {
		return fmt.Errorf("error setting viewport: %w", err)
	}

	if err := (proto.EmulationSetTouchEmulationEnabled{Enabled: v.Mobile}).Call(p.page); err != nil {
		return fmt.Errorf("error setting touch emulation: %w", err)
	}

	if v.Mobile {
		return p.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: mobileUserAgent})
	}
	return nil
}

func (p *rodPage) Navigate(url string) error {
	if err := p.page.Navigate(url); err != nil {
		return err
	}
	return p.page.WaitLoad()
}

func (p *rodPage) Screenshot() ([]byte, error) {
	return p.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
}

func (p *rodPage) InspectFooter(selector string) (FooterMetrics, error) {
	var m FooterMetrics

	res, err := p.page.Eval(footerScript, selector)
	if err != nil {
		return m, err
	}

	err = res.Value.Unmarshal(&m)
	return m, err
}

// ViewportState asks the page for the screen it is rendered on, so a
// dropped override shows up as a mismatch.
func (p *rodPage) ViewportState() (Viewport, error) {
	var v Viewport

	res, err := proto.RuntimeEvaluate{
		Expression:    viewportStateScript,
		ReturnByValue: true,
	}.Call(p.page)
	if err != nil {
		return v, err
	}
	if res.ExceptionDetails != nil {
		return v, fmt.Errorf("error reading viewport: %s", res.ExceptionDetails.Text)
	}

	err = res.Result.Value.Unmarshal(&v)
	return v, err
}

func (p *rodPage) Close() error {
	return p.page.Close()
}
