package layoutshot

import (
	"context"
	"fmt"
)

// Browser is a launched browser process owned by a single run.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is one independent page context of a Browser.
type Page interface {
	SetViewport(v Viewport) error
	// Navigate loads url and returns once the load event fired.
	Navigate(url string) error
	// Screenshot returns a full-page PNG.
	Screenshot() ([]byte, error)
	InspectFooter(selector string) (FooterMetrics, error)
	// ViewportState reports the viewport the browser is emulating.
	ViewportState() (Viewport, error)
	Close() error
}

// LaunchFunc starts a browser configured by options.
type LaunchFunc func(ctx context.Context, options *Options) (Browser, error)

const (
	EngineRod      = "rod"
	EngineChromedp = "chromedp"
)

// Launch starts the browser backend named by options.Engine.
func Launch(ctx context.Context, options *Options) (Browser, error) {
	switch options.Engine {
	case "", EngineRod:
		return launchRod(ctx, options)
	case EngineChromedp:
		return launchChromedp(ctx, options)
	default:
		return nil, fmt.Errorf("unknown engine %q", options.Engine)
	}
}
