// internal/runner/advance.go
package runner

import (
	"context"
	"errors"
	"time"

	"github.com/valpere/scormrunner/internal/browser"
	rerrors "github.com/valpere/scormrunner/internal/errors"
	"github.com/valpere/scormrunner/internal/monitoring"
	"github.com/valpere/scormrunner/internal/output"
	"github.com/valpere/scormrunner/internal/utils"
)

// errDurationReached ends a cycle whose wait ran past the advance duration.
var errDurationReached = errors.New("advance duration reached")

// LoopState is the state of the advance loop.
type LoopState string

const (
	StateRunning LoopState = "running"
	StateStopped LoopState = "stopped"
)

// AdvanceResult describes how the advance loop ended.
type AdvanceResult struct {
	Cycles     int
	StopReason string
	Elapsed    time.Duration
	Clicks     []output.CycleRecord
	// Err is the wait or click failure that stopped the loop, if any
	Err error
}

// Advancer clicks the player's next control at a fixed interval until the
// duration has elapsed or a click fails.
type Advancer struct {
	sess         *browser.Session
	clock        browser.Clock
	logger       utils.Logger
	metrics      *monitoring.MetricsManager
	next         browser.Locator
	duration     time.Duration
	clickTimeout time.Duration
	interval     time.Duration

	// onClick observes every completed click
	onClick func(output.CycleRecord)
	// onFailure runs after a click failure, before the loop stops
	onFailure func(context.Context)
}

// Run drives the loop. It never returns an error: a failed click stops the
// loop and is reported in the result.
func (a *Advancer) Run(ctx context.Context) AdvanceResult {
	result := AdvanceResult{StopReason: output.StopDurationElapsed}
	start := a.clock.Now()
	state := StateRunning

	for state == StateRunning {
		if ctx.Err() != nil {
			result.StopReason = output.StopCancelled
			break
		}

		if a.clock.Now().Sub(start) >= a.duration {
			a.logger.Infof("Advance duration of %s reached.", a.duration)
			break
		}

		record, err := a.cycle(ctx, start, result.Cycles+1)
		if errors.Is(err, errDurationReached) {
			a.logger.Infof("Advance duration of %s reached while waiting; not clicking.", a.duration)
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				result.StopReason = output.StopCancelled
				break
			}
			a.logger.Errorf("Failed to click 'ΕΠΟΜΕΝΗ': %v", err)
			a.metrics.IncError(rerrors.KindAdvanceClick.String())
			result.StopReason = output.StopClickFailed
			result.Err = rerrors.Wrap(rerrors.KindAdvanceClick, "advance", err)
			if a.onFailure != nil {
				a.onFailure(ctx)
			}
			state = StateStopped
			continue
		}

		result.Cycles++
		result.Clicks = append(result.Clicks, record)
		a.metrics.IncCycle()
		if a.onClick != nil {
			a.onClick(record)
		}

		a.logger.Infof("Waiting for %d seconds before next click.", int(a.interval.Seconds()))
		if err := a.clock.Sleep(ctx, a.interval); err != nil {
			result.StopReason = output.StopCancelled
			break
		}
	}

	result.Elapsed = a.clock.Now().Sub(start)
	a.logger.Infof("Advance loop stopped after %d cycle(s): %s.", result.Cycles, result.StopReason)
	return result
}

// cycle waits for the next control and clicks it once. No click is made
// once the duration since start has elapsed.
func (a *Advancer) cycle(ctx context.Context, start time.Time, n int) (output.CycleRecord, error) {
	url, err := a.sess.CurrentURL(ctx)
	if err != nil {
		return output.CycleRecord{}, err
	}
	a.logger.Infof("Current URL before clicking 'ΕΠΟΜΕΝΗ': %s", url)

	a.logger.Info("Waiting for 'ΕΠΟΜΕΝΗ' button inside the iframe.")
	el, err := a.sess.WaitForClickable(ctx, a.next, a.clickTimeout)
	if err != nil {
		return output.CycleRecord{}, err
	}
	if a.clock.Now().Sub(start) >= a.duration {
		return output.CycleRecord{}, errDurationReached
	}

	a.logger.Info("Clicking 'ΕΠΟΜΕΝΗ' button.")
	if err := a.sess.Click(ctx, el, "advance"); err != nil {
		return output.CycleRecord{}, err
	}

	return output.CycleRecord{Cycle: n, ClickedAt: a.clock.Now(), URL: url}, nil
}
