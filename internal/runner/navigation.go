// internal/runner/navigation.go
package runner

import (
	"context"
	"fmt"

	"github.com/valpere/scormrunner/internal/browser"
	"github.com/valpere/scormrunner/internal/config"
	rerrors "github.com/valpere/scormrunner/internal/errors"
	"github.com/valpere/scormrunner/internal/pagesource"
)

type stepAction int

const (
	actionClick stepAction = iota
	actionType
)

// step is one gated interaction of the navigation chain.
type step struct {
	name    string
	locator browser.Locator
	action  stepAction
	text    string
	secret  bool
}

func toLocator(lc config.LocatorConfig) (browser.Locator, error) {
	by, err := browser.ParseStrategy(lc.By)
	if err != nil {
		return browser.Locator{}, err
	}
	return browser.Locator{By: by, Value: lc.Value}, nil
}

// navigationSteps lists the interactions between the login page and the
// control that opens the player popup, in order.
func navigationSteps(cfg *config.Config) ([]step, error) {
	sel := cfg.Selectors
	plan := []struct {
		name    string
		locator config.LocatorConfig
		action  stepAction
		text    string
		secret  bool
	}{
		{"username", sel.Username, actionType, cfg.Portal.Username, false},
		{"password", sel.Password, actionType, cfg.Portal.Password, true},
		{"login_button", sel.LoginButton, actionClick, "", false},
		{"training_button", sel.TrainingButton, actionClick, "", false},
		{"elearning_link", sel.ELearningLink, actionClick, "", false},
		{"my_courses_link", sel.MyCoursesLink, actionClick, "", false},
		{"course_card", sel.CourseCard, actionClick, "", false},
		{"scorm_link", sel.ScormLink, actionClick, "", false},
		{"player_launch", sel.PlayerLaunch, actionClick, "", false},
	}

	steps := make([]step, 0, len(plan))
	for _, p := range plan {
		loc, err := toLocator(p.locator)
		if err != nil {
			return nil, fmt.Errorf("selector %s: %w", p.name, err)
		}
		steps = append(steps, step{name: p.name, locator: loc, action: p.action, text: p.text, secret: p.secret})
	}
	return steps, nil
}

// navigate logs in and walks to the SCORM player: it opens the portal, runs
// every step, follows the popup and enters the player frame. The first
// failure aborts the chain as KindNavigation.
func (r *Runner) navigate(ctx context.Context, sess *browser.Session) error {
	steps, err := navigationSteps(r.config)
	if err != nil {
		return rerrors.Wrap(rerrors.KindNavigation, "plan navigation", err)
	}
	frameLoc, err := toLocator(r.config.Selectors.PlayerFrame)
	if err != nil {
		return rerrors.Wrap(rerrors.KindNavigation, "plan navigation", err)
	}

	r.logger.Info("Opening the login page.")
	if err := sess.Navigate(ctx, r.config.Portal.URL); err != nil {
		return rerrors.Wrap(rerrors.KindNavigation, "open portal", err)
	}

	for _, s := range steps {
		if err := r.runStep(ctx, sess, s); err != nil {
			return rerrors.Wrap(rerrors.KindNavigation, s.name, err)
		}
	}

	if err := sess.SwitchToPopup(ctx, r.config.Wait.WindowTimeout); err != nil {
		return rerrors.Wrap(rerrors.KindNavigation, "switch to popup", err)
	}

	r.logger.Info("Switching to the iframe within the popup window.")
	frame, err := sess.WaitForElement(ctx, frameLoc, r.config.Wait.Timeout)
	if err != nil {
		return rerrors.Wrap(rerrors.KindNavigation, "player_frame", err)
	}
	if err := sess.SwitchToFrame(ctx, frame); err != nil {
		return rerrors.Wrap(rerrors.KindNavigation, "player_frame", err)
	}

	r.logger.Info("Checking if switched to iframe successfully.")
	r.logPageSource(ctx, sess)
	return nil
}

func (r *Runner) runStep(ctx context.Context, sess *browser.Session, s step) error {
	el, err := sess.WaitForElement(ctx, s.locator, r.config.Wait.Timeout)
	if err != nil {
		return err
	}

	switch s.action {
	case actionType:
		if s.secret {
			r.logger.Debugf("Typing into %s (%d characters).", s.name, len(s.text))
		} else {
			r.logger.Debugf("Typing into %s.", s.name)
		}
		return sess.Type(ctx, el, s.text)
	default:
		r.logger.Debugf("Clicking %s.", s.name)
		return sess.Click(ctx, el, "navigation")
	}
}

// logPageSource writes the current document to the debug log, preceded by a
// short summary.
func (r *Runner) logPageSource(ctx context.Context, sess *browser.Session) {
	html, err := sess.PageSource(ctx)
	if err != nil {
		r.logger.Debugf("Page source unavailable: %v", err)
		return
	}

	next := r.config.Selectors.NextButton
	summary, err := pagesource.Summarize(html, pagesource.CSSFor(next.By, next.Value))
	if err != nil {
		r.logger.Debugf("Page source could not be summarized: %v", err)
	} else {
		r.logger.Debugf("Page summary: %s", summary)
	}
	r.logger.Debug(html)
}
