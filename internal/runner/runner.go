// internal/runner/runner.go

// Package runner drives one unattended pass through a SCORM course: it
// launches the browser, logs in, walks to the player popup, keeps pressing
// the player's next control and tears everything down again.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valpere/scormrunner/internal/browser"
	"github.com/valpere/scormrunner/internal/config"
	rerrors "github.com/valpere/scormrunner/internal/errors"
	"github.com/valpere/scormrunner/internal/monitoring"
	"github.com/valpere/scormrunner/internal/output"
	"github.com/valpere/scormrunner/internal/utils"
)

// teardownTimeout bounds window restoration once the run context is gone.
const teardownTimeout = 30 * time.Second

// Options configures a Runner.
type Options struct {
	Config  *config.Config
	Logger  utils.Logger
	Metrics *monitoring.MetricsManager
	// Clock defaults to the system clock
	Clock browser.Clock
	// NewClient defaults to browser.NewClient
	NewClient browser.ClientFactory
}

// Runner executes a run. It is safe to call Status from other goroutines
// while Run is in progress.
type Runner struct {
	config    *config.Config
	logger    utils.Logger
	metrics   *monitoring.MetricsManager
	clock     browser.Clock
	newClient browser.ClientFactory
	next      browser.Locator

	mu     sync.Mutex
	status monitoring.RunStatus
}

// New creates a runner.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, rerrors.Errorf(rerrors.KindConfig, "new runner", "configuration is required")
	}
	next, err := toLocator(opts.Config.Selectors.NextButton)
	if err != nil {
		return nil, rerrors.Wrap(rerrors.KindConfig, "selector next_button", err)
	}

	r := &Runner{
		config:    opts.Config,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		clock:     opts.Clock,
		newClient: opts.NewClient,
		next:      next,
		status:    monitoring.RunStatus{State: monitoring.StateIdle},
	}
	if r.logger == nil {
		r.logger = utils.NewNopLogger()
	}
	if r.clock == nil {
		r.clock = browser.SystemClock{}
	}
	if r.newClient == nil {
		r.newClient = browser.NewClient
	}
	return r, nil
}

// Status returns a snapshot of the run for the health endpoint.
func (r *Runner) Status() monitoring.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Runner) setState(state string) {
	r.mu.Lock()
	r.status.State = state
	r.mu.Unlock()
	r.metrics.SetRunState(state)
}

// Run performs launch, navigation, the advance loop and teardown. The
// report is always returned. The returned error is a launch, navigation or
// teardown failure; an advance-loop click failure only ends the loop and is
// recorded in the report. Once launched, the browser is closed exactly once
// on every path.
func (r *Runner) Run(ctx context.Context) (*output.RunReport, error) {
	report := output.NewRunReport(r.config.Browser.Backend, r.clock.Now())

	r.mu.Lock()
	r.status = monitoring.RunStatus{RunID: report.RunID, State: monitoring.StateNavigating, StartedAt: report.StartedAt}
	r.mu.Unlock()
	r.metrics.SetRunState(monitoring.StateNavigating)
	r.metrics.MarkRunStarted(report.StartedAt)

	r.logger.Infof("Starting run %s with the %s backend.", report.RunID, report.Backend)

	defer func() {
		report.Finish(r.clock.Now())
		r.setState(monitoring.StateFinished)
	}()

	// fail logs err while the browser is still open; closing stays last
	fail := func(err error) (*output.RunReport, error) {
		r.recordFailure(report, err)
		return report, err
	}

	client, err := r.newClient(ctx, browserConfig(r.config.Browser))
	if err != nil {
		if rerrors.KindOf(err) != rerrors.KindSessionLaunch {
			err = rerrors.Wrap(rerrors.KindSessionLaunch, "launch browser", err)
		}
		return fail(err)
	}
	r.logger.Info("WebDriver initialized.")

	sess := browser.NewSession(client, browser.SessionOptions{
		Backend:      r.config.Browser.Backend,
		Clock:        r.clock,
		PollInterval: r.config.Wait.PollInterval,
		Logger:       r.logger,
		Metrics:      r.metrics,
	})
	defer sess.Close()

	navErr := r.navigate(ctx, sess)
	if navErr == nil {
		r.setState(monitoring.StateAdvancing)
		result := r.advancer(sess).Run(ctx)
		report.Cycles = result.Cycles
		report.StopReason = result.StopReason
		report.Clicks = result.Clicks
		if result.Err != nil {
			report.AdvanceError = result.Err.Error()
		}
	}

	// The popup may already be open when navigation fails, so the window
	// context is restored on every path before the browser is closed.
	r.setState(monitoring.StateTearingDown)
	teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()
	restoreErr := sess.RestoreWindows(teardownCtx)

	if navErr != nil {
		if restoreErr != nil {
			r.logger.Warnf("Window context not restored: %v", restoreErr)
		}
		return fail(navErr)
	}
	if restoreErr != nil {
		return fail(rerrors.Wrap(rerrors.KindNavigation, "restore windows", restoreErr))
	}

	return report, nil
}

func (r *Runner) advancer(sess *browser.Session) *Advancer {
	return &Advancer{
		sess:         sess,
		clock:        r.clock,
		logger:       r.logger,
		metrics:      r.metrics,
		next:         r.next,
		duration:     r.config.Advance.Duration,
		clickTimeout: r.config.Advance.ClickTimeout,
		interval:     r.config.Advance.Interval,
		onClick: func(rec output.CycleRecord) {
			r.mu.Lock()
			r.status.Cycles = rec.Cycle
			r.status.LastClickAt = rec.ClickedAt
			r.mu.Unlock()
		},
		onFailure: func(ctx context.Context) {
			r.logPageSource(ctx, sess)
		},
	}
}

// recordFailure is the single place a run failure is logged.
func (r *Runner) recordFailure(report *output.RunReport, err error) {
	kind := rerrors.KindOf(err)
	report.ErrorKind = kind.String()
	report.Error = err.Error()

	r.mu.Lock()
	r.status.Error = fmt.Sprintf("%s: %v", kind, err)
	r.mu.Unlock()

	r.metrics.IncError(kind.String())
	r.logger.Errorf("An error occurred: %v", err)
}

func browserConfig(c config.BrowserConfig) *browser.BrowserConfig {
	return &browser.BrowserConfig{
		Backend:        c.Backend,
		Headless:       c.Headless,
		StartMaximized: c.StartMaximized,
		ExecPath:       c.ExecPath,
		DriverPath:     c.DriverPath,
		DriverPort:     c.DriverPort,
		UserDataDir:    c.UserDataDir,
		LaunchTimeout:  c.LaunchTimeout,
	}
}
