package layoutshot

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/root4loot/goutils/log"
)

// MinSettle is the shortest pause allowed between page load and capture.
const MinSettle = time.Second

// Options contains the options for a run.
type Options struct {
	Dir             string        // Working directory for the page and artifacts ("" = current)
	Page            string        // HTML file, relative to Dir
	DesktopFile     string        // Desktop artifact, relative to Dir
	MobileFile      string        // Mobile artifact, relative to Dir
	Selector        string        // Footer selector
	MaxFooterHeight float64       // Heights above this are too tall (pixels)
	Settle          time.Duration // Pause after load before capture
	Timeout         time.Duration // Deadline for the whole run (0 = none)
	Engine          string        // Browser backend: rod or chromedp
	Headless        bool          // Run the browser headless
	NoSandbox       bool          // Disable the browser sandbox
	BrowserBin      string        // Browser binary (default: looked up)
	Imprint         bool          // Draw the viewport label under each capture
	Strict          bool          // Fail the run when the footer is too tall
	Debug           bool          // Debug logging
	Silence         bool          // Only log fatal errors
}

// Report is the outcome of a successful run.
type Report struct {
	Desktop       Capture
	Mobile        Capture
	Footer        FooterMetrics // measured on the mobile page
	DesktopFooter FooterMetrics
	Verdict       Verdict
}

// Runner renders the page at the desktop and mobile viewports.
type Runner struct {
	Options *Options
	Launch  LaunchFunc
	Out     io.Writer // console report (default: stdout)

	settle func(ctx context.Context, d time.Duration) error
}

func init() {
	log.Init("layoutshot")
}

// DefaultOptions returns default options
func DefaultOptions() *Options {
	return &Options{
		Page:            "index.html",
		DesktopFile:     "screenshot-desktop.png",
		MobileFile:      "screenshot-mobile.png",
		Selector:        DefaultFooterSelector,
		MaxFooterHeight: 40,
		Settle:          MinSettle,
		Engine:          EngineRod,
		Headless:        true,
		NoSandbox:       true,
	}
}

// NewRunner returns a new runner with default options
func NewRunner() *Runner {
	return NewRunnerWithOptions(*DefaultOptions())
}

// NewRunnerWithOptions returns a new runner with the specified options
func NewRunnerWithOptions(options Options) *Runner {
	SetLogLevel(&options)
	log.Debugf("Creating runner with %s engine", options.Engine)

	return &Runner{
		Options: &options,
		Launch:  Launch,
		Out:     os.Stdout,
		settle:  sleep,
	}
}

// TakeScreenshots runs with default options in the current directory.
func TakeScreenshots() error {
	_, err := NewRunner().Run(context.Background())
	return err
}

// SetLogLevel sets the log level based on the options
func SetLogLevel(options *Options) {
	if options.Silence {
		log.SetLevel(log.FatalLevel)
	} else if options.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// PageURL returns the file URL of the target page.
func (o *Options) PageURL() (string, error) {
	abs, err := filepath.Abs(o.path(o.Page))
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

func (o *Options) path(name string) string {
	if o.Dir == "" {
		return name
	}
	return filepath.Join(o.Dir, name)
}

func (o *Options) settleDelay() time.Duration {
	if o.Settle < MinSettle {
		return MinSettle
	}
	return o.Settle
}

// Run captures both viewports and checks the mobile footer. The browser is
// closed exactly once before Run returns, and the closing line is printed
// only after that.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Options.Timeout)
		defer cancel()
	}

	report, err := r.run(ctx)
	if report != nil {
		report.PrintSaved(r.out())
	}
	return report, err
}

func (r *Runner) run(ctx context.Context) (report *Report, err error) {
	pageURL, err := r.Options.PageURL()
	if err != nil {
		return nil, newError(StageNavigate, r.Options.Page, err)
	}

	fmt.Fprintln(r.out(), "Starting screenshot tests...")

	browser, err := r.launch(ctx)
	if err != nil {
		return nil, newError(StageLaunch, "", err)
	}

	defer func() {
		if cerr := browser.Close(); cerr != nil {
			log.Warnf("Could not close browser: %v", cerr)
		}
	}()

	report = &Report{}

	desktopPage, err := r.capture(ctx, browser, Desktop, pageURL, r.Options.DesktopFile, &report.Desktop)
	if err != nil {
		return nil, err
	}
	report.DesktopFooter = r.inspectDesktop(desktopPage)
	closePage(desktopPage)
	fmt.Fprintln(r.out(), "✅ Desktop screenshot saved")

	mobilePage, err := r.capture(ctx, browser, Mobile, pageURL, r.Options.MobileFile, &report.Mobile)
	if err != nil {
		return nil, err
	}
	defer closePage(mobilePage)
	fmt.Fprintln(r.out(), "✅ Mobile screenshot saved")

	report.Footer, err = mobilePage.InspectFooter(r.Options.Selector)
	if err != nil {
		return nil, newError(StageInspect, pageURL, err)
	}
	report.Verdict = Classify(report.Footer, r.Options.MaxFooterHeight)

	report.Print(r.out())

	if r.Options.Strict && report.Verdict == VerdictTooTall {
		return report, ErrFooterTooTall
	}
	return report, nil
}

// capture opens a page at v, loads pageURL, waits for it to settle and saves
// a full-page screenshot to file. The returned page is still open.
func (r *Runner) capture(ctx context.Context, browser Browser, v Viewport, pageURL, file string, c *Capture) (Page, error) {
	log.Debugf("Capturing %s at %s", pageURL, v)

	page, err := browser.NewPage(ctx)
	if err != nil {
		return nil, newError(StageLaunch, "", err)
	}

	if err := page.SetViewport(v); err != nil {
		closePage(page)
		return nil, newError(StageViewport, pageURL, err)
	}

	if err := page.Navigate(pageURL); err != nil {
		closePage(page)
		return nil, newError(StageNavigate, pageURL, err)
	}

	if err := r.settleFunc()(ctx, r.Options.settleDelay()); err != nil {
		closePage(page)
		return nil, newError(StageCapture, pageURL, err)
	}

	c.Viewport = v
	c.State, err = page.ViewportState()
	if err != nil {
		log.Warnf("Could not read %s viewport state: %v", v.Name, err)
	} else if !v.Matches(c.State) {
		log.Warnf("Viewport mismatch: requested %s, browser reports %dx%d (mobile=%v)",
			v, c.State.Width, c.State.Height, c.State.Mobile)
	}
	c.State.Name = v.Name

	img, err := page.Screenshot()
	if err != nil {
		closePage(page)
		return nil, newError(StageCapture, pageURL, err)
	}
	c.Image = img

	if r.Options.Imprint {
		if c.Image, err = c.Image.AddLabel(v.String()); err != nil {
			closePage(page)
			return nil, newError(StageCapture, file, err)
		}
	}

	c.Path = r.Options.path(file)
	c.Similarity = NoSimilarity
	if score, ok := c.Image.SimilarityTo(c.Path); ok {
		c.Similarity = score
		log.Debugf("%s is %d%% similar to the previous capture", c.Path, score)
	}

	if err := c.Image.SaveTo(c.Path); err != nil {
		closePage(page)
		return nil, newError(StageCapture, c.Path, err)
	}
	log.Debugf("Saved %d bytes to %s", len(c.Image), c.Path)

	return page, nil
}

// inspectDesktop measures the footer on the desktop page for the debug log.
// Failures here are not fatal.
func (r *Runner) inspectDesktop(page Page) FooterMetrics {
	m, err := page.InspectFooter(r.Options.Selector)
	if err != nil {
		log.Debugf("Could not inspect desktop footer: %v", err)
		return FooterMetrics{}
	}
	log.Debugf("Desktop footer: visible=%v height=%v bottom=%v", m.Visible, m.Height, m.Bottom)
	return m
}

func (r *Runner) launch(ctx context.Context) (Browser, error) {
	if r.Launch == nil {
		return Launch(ctx, r.Options)
	}
	return r.Launch(ctx, r.Options)
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Runner) settleFunc() func(context.Context, time.Duration) error {
	if r.settle == nil {
		return sleep
	}
	return r.settle
}

func closePage(page Page) {
	if err := page.Close(); err != nil {
		log.Debugf("Could not close page: %v", err)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
