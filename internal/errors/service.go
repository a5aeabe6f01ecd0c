// internal/errors/service.go - User-facing rendering of run failures
package errors

import (
	"fmt"
	"strings"
)

// Service converts classified run errors into messages and exit codes
type Service struct {
	messageHandler *MessageHandler
}

// MessageHandler converts technical errors to user-friendly messages
type MessageHandler struct {
	showTechnical bool
}

// NewService creates a new error rendering service
func NewService() *Service {
	return &Service{
		messageHandler: &MessageHandler{showTechnical: false},
	}
}

// WithVerbose enables technical error details
func (s *Service) WithVerbose(verbose bool) *Service {
	s.messageHandler.showTechnical = verbose
	return s
}

// GetUserFriendlyError converts technical errors to user-friendly messages
func (s *Service) GetUserFriendlyError(err error) (title, message string, suggestions []string) {
	if err == nil {
		return "", "", nil
	}

	// Element-not-found is usually the real cause behind a navigation failure,
	// so it wins over the outer kind.
	if Is(err, KindElementNotFound) && KindOf(err) != KindAdvanceClick {
		return "Element Not Found",
			"A page element did not appear within the wait timeout.",
			[]string{
				"Check that the portal URL and credentials are correct",
				"The portal layout may have changed; compare the selectors in the configuration",
				"Raise wait.timeout if the portal is slow",
			}
	}

	switch KindOf(err) {
	case KindSessionLaunch:
		return "Browser Launch Failed",
			"The browser or its driver could not be started.",
			[]string{
				"Check that Chrome or Chromium is installed",
				"For the selenium backend, make sure chromedriver matches the installed Chrome version",
				"Set browser.exec_path or browser.driver_path explicitly",
			}
	case KindNavigation:
		return "Navigation Failed",
			"The run stopped before reaching the course player.",
			[]string{
				"Look at the log file for the step that failed",
				"Log in manually once to confirm the account is active",
			}
	case KindAdvanceClick:
		return "Player Stopped Advancing",
			"The next control could not be clicked; the advance loop ended early.",
			[]string{
				"The course may be finished or waiting for an interaction",
				"Check the page source summary in the log file",
			}
	case KindConfig:
		return "Configuration Error",
			"The configuration is missing or invalid.",
			[]string{
				"Check YAML indentation (use spaces, not tabs)",
				"Set SCORMRUNNER_PORTAL_URL, SCORMRUNNER_USERNAME and SCORMRUNNER_PASSWORD",
				"Run 'scormrunner validate' to list every problem",
			}
	}

	return "Unexpected Error",
		"An unexpected error occurred during the run.",
		[]string{
			"Try running the command again",
			"Check your configuration file",
		}
}

// GetExitCode returns appropriate exit code for error
func (s *Service) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch KindOf(err) {
	case KindConfig:
		return 2
	case KindSessionLaunch:
		return 3
	case KindNavigation, KindElementNotFound:
		return 4
	case KindAdvanceClick:
		return 5
	default:
		return 1
	}
}

// FormatErrorForCLI formats error for command-line display
func (s *Service) FormatErrorForCLI(err error) string {
	title, message, suggestions := s.GetUserFriendlyError(err)

	var b strings.Builder
	fmt.Fprintf(&b, "✗ %s\n%s\n", title, message)

	if s.messageHandler.showTechnical {
		fmt.Fprintf(&b, "\nTechnical details: %s\n", err.Error())
	}

	if len(suggestions) > 0 {
		b.WriteString("\nSuggestions:\n")
		for _, suggestion := range suggestions {
			fmt.Fprintf(&b, "  • %s\n", suggestion)
		}
	}

	return b.String()
}
