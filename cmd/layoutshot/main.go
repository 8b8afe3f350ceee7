package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/root4loot/goutils/log"
	"github.com/root4loot/layoutshot/pkg/layoutshot"
)

const (
	version = "0.1.0"
	usage   = `USAGE:
  layoutshot [options]

Renders index.html at desktop (1280x800) and mobile (390x844) viewports,
saves full-page screenshots and checks the height of the copyright footer.

INPUT:
  -p,   --page                 HTML file to render                             (Default: index.html)
  -d,   --dir                  working directory                               (Default: current)

CONFIGURATIONS:
  -e,   --engine               browser backend: rod, chromedp                  (Default: rod)
  -s,   --selector             footer selector                                 (Default: .copyright-footer)
  -mh,  --max-height           maximum footer height on mobile (px)            (Default: 40)
  -w,   --settle               delay before capture, at least 1s               (Default: 1s)
  -to,  --timeout              deadline for the whole run, 0 for none          (Default: 0)
  -b,   --browser              browser binary                                  (Default: looked up)
  -ns,  --no-sandbox           disable the browser sandbox                     (Default: true)
        --sandbox              keep the browser sandbox enabled                (Default: false)
        --headful              show the browser window                         (Default: false)
        --strict               exit non-zero when the footer is too tall       (Default: false)

OUTPUT:
  -od,  --desktop-out          desktop screenshot file                         (Default: screenshot-desktop.png)
  -om,  --mobile-out           mobile screenshot file                          (Default: screenshot-mobile.png)
  -i,   --imprint              draw the viewport label under each screenshot   (Default: false)
        --silence              only log fatal errors
        --debug                enable debug mode
        --version              display version
`
)

type cli struct {
	*layoutshot.Runner
	Help    bool
	Version bool
}

func init() {
	log.Init("layoutshot")
}

func main() {
	cli, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	if cli.Help {
		fmt.Print(usage)
		os.Exit(0)
	}

	if cli.Version {
		fmt.Println("layoutshot", version)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	_, err = cli.Run(ctx)
	stop()

	os.Exit(handleRunError(err))
}

// parseFlags parses args into a CLI whose runner carries the resulting options.
func parseFlags(args []string, output io.Writer) (*cli, error) {
	var headful, sandbox bool

	options := layoutshot.DefaultOptions()
	c := &cli{}

	fs := flag.NewFlagSet("layoutshot", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, usage)
	}

	// INPUT
	fs.StringVar(&options.Page, "page", options.Page, "")
	fs.StringVar(&options.Page, "p", options.Page, "")
	fs.StringVar(&options.Dir, "dir", options.Dir, "")
	fs.StringVar(&options.Dir, "d", options.Dir, "")

	// CONFIGURATIONS
	fs.StringVar(&options.Engine, "engine", options.Engine, "")
	fs.StringVar(&options.Engine, "e", options.Engine, "")
	fs.StringVar(&options.Selector, "selector", options.Selector, "")
	fs.StringVar(&options.Selector, "s", options.Selector, "")
	fs.Float64Var(&options.MaxFooterHeight, "max-height", options.MaxFooterHeight, "")
	fs.Float64Var(&options.MaxFooterHeight, "mh", options.MaxFooterHeight, "")
	fs.DurationVar(&options.Settle, "settle", options.Settle, "")
	fs.DurationVar(&options.Settle, "w", options.Settle, "")
	fs.DurationVar(&options.Timeout, "timeout", options.Timeout, "")
	fs.DurationVar(&options.Timeout, "to", options.Timeout, "")
	fs.StringVar(&options.BrowserBin, "browser", options.BrowserBin, "")
	fs.StringVar(&options.BrowserBin, "b", options.BrowserBin, "")
	fs.BoolVar(&options.NoSandbox, "no-sandbox", options.NoSandbox, "")
	fs.BoolVar(&options.NoSandbox, "ns", options.NoSandbox, "")
	fs.BoolVar(&sandbox, "sandbox", false, "")
	fs.BoolVar(&headful, "headful", false, "")
	fs.BoolVar(&options.Strict, "strict", options.Strict, "")

	// OUTPUT
	fs.StringVar(&options.DesktopFile, "desktop-out", options.DesktopFile, "")
	fs.StringVar(&options.DesktopFile, "od", options.DesktopFile, "")
	fs.StringVar(&options.MobileFile, "mobile-out", options.MobileFile, "")
	fs.StringVar(&options.MobileFile, "om", options.MobileFile, "")
	fs.BoolVar(&options.Imprint, "imprint", options.Imprint, "")
	fs.BoolVar(&options.Imprint, "i", options.Imprint, "")
	fs.BoolVar(&options.Silence, "silence", false, "")
	fs.BoolVar(&options.Debug, "debug", false, "")
	fs.BoolVar(&c.Help, "help", false, "")
	fs.BoolVar(&c.Help, "h", false, "")
	fs.BoolVar(&c.Version, "version", false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	options.Headless = !headful
	if sandbox {
		options.NoSandbox = false
	}

	if options.Settle < layoutshot.MinSettle {
		log.Warnf("Settle delay %v raised to %v", options.Settle, layoutshot.MinSettle)
		options.Settle = layoutshot.MinSettle
	}

	c.Runner = layoutshot.NewRunnerWithOptions(*options)
	return c, nil
}

// handleRunError logs err by stage and returns the exit status.
func handleRunError(err error) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, layoutshot.ErrFooterTooTall) {
		log.Errorf("Strict check failed: %v", err)
		return 1
	}

	switch layoutshot.StageOf(err) {
	case layoutshot.StageLaunch:
		log.Errorf("Could not launch browser: %s", unwrapError(err))
	case layoutshot.StageNavigate:
		log.Errorf("Could not load page: %v", err)
	case layoutshot.StageCapture:
		if isTimeoutError(err) {
			log.Errorf("Timed out before capture: %v", err)
		} else if errors.Is(err, context.Canceled) {
			log.Error("Interrupted before capture")
		} else {
			log.Errorf("Could not save screenshot: %v", err)
		}
	default:
		log.Errorf("Run failed: %v", err)
	}
	return 1
}

func isTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func unwrapError(err error) string {
	rootErr := err
	for {
		unwrappedErr := errors.Unwrap(rootErr)
		if unwrappedErr == nil {
			break
		}
		rootErr = unwrappedErr
	}
	return rootErr.Error()
}
