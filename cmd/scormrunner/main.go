// cmd/scormrunner/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/valpere/scormrunner/internal/config"
	"github.com/valpere/scormrunner/internal/errors"
	"github.com/valpere/scormrunner/internal/monitoring"
	"github.com/valpere/scormrunner/internal/output"
	"github.com/valpere/scormrunner/internal/runner"
	"github.com/valpere/scormrunner/internal/utils"
)

// Version information (set by build flags)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var errorService = errors.NewService()

// runCourse performs one full run and returns the process exit code. Run
// failures are logged and still exit 0; only configuration problems exit
// non-zero.
func runCourse() int {
	errorService = errorService.WithVerbose(hasFlag("-v") || hasFlag("--verbose"))

	cfg, err := loadConfig("")
	if err != nil {
		fmt.Fprint(os.Stderr, errorService.FormatErrorForCLI(err))
		return errorService.GetExitCode(err)
	}

	logger, syncLog, err := newLogger(cfg.Logging)
	if err != nil {
		err = errors.Wrap(errors.KindConfig, "logging", err)
		fmt.Fprint(os.Stderr, errorService.FormatErrorForCLI(err))
		return errorService.GetExitCode(err)
	}
	defer syncLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *monitoring.MetricsManager
	if cfg.Metrics.Enabled {
		metrics = monitoring.NewMetricsManager(monitoring.MetricsConfig{EnableGoMetrics: true})
	}

	r, err := runner.New(runner.Options{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.Errorf("An error occurred: %v", err)
		return 0
	}

	if cfg.Metrics.Enabled {
		srvCtx, cancelSrv := context.WithCancel(context.Background())
		defer cancelSrv()
		server := monitoring.NewServer(monitoring.ServerConfig{
			ListenAddress: cfg.Metrics.ListenAddress,
			MetricsPath:   cfg.Metrics.Path,
			StallAfter:    3 * (cfg.Advance.Interval + cfg.Advance.ClickTimeout),
		}, metrics, r)
		go func() {
			if err := server.Start(srvCtx); err != nil {
				logger.Warnf("Monitoring server stopped: %v", err)
			}
		}()
		logger.Infof("Serving metrics on %s%s.", cfg.Metrics.ListenAddress, cfg.Metrics.Path)
	}

	report, err := r.Run(ctx)
	if err != nil {
		// Already logged by the runner; a failed run is not a process failure.
		logger.Debugf("Run %s ended with %s.", report.RunID, errors.KindOf(err))
	} else {
		logger.Infof("Run %s finished after %d cycle(s): %s.", report.RunID, report.Cycles, report.StopReason)
	}

	if cfg.Report.Enabled {
		writeReport(logger, &cfg.Report, report)
	}

	return 0
}

func writeReport(logger utils.Logger, cfg *config.ReportConfig, report *output.RunReport) {
	manager, err := output.NewManager(cfg)
	if err != nil {
		logger.Warnf("Report not written: %v", err)
		return
	}
	if err := manager.Write(report); err != nil {
		logger.Warnf("Report not written: %v", err)
		return
	}
	logger.Infof("Report saved to %s.", manager.File())
}

func newLogger(cfg config.LoggingConfig) (utils.Logger, func() error, error) {
	level, err := utils.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	return utils.NewLogger(utils.LogConfig{
		Level:   level,
		File:    cfg.File,
		Console: cfg.Console,
	})
}

// loadConfig resolves the configuration, reading path instead of the
// default file when it is set. Every failure is classified as KindConfig.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		if err := os.Setenv(config.EnvConfigFile, path); err != nil {
			return nil, errors.Wrap(errors.KindConfig, "load configuration", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		if errors.KindOf(err) != errors.KindConfig {
			err = errors.Wrap(errors.KindConfig, "load configuration", err)
		}
		return nil, err
	}
	return cfg, nil
}

// validateConfig checks the configuration and returns the exit code.
func validateConfig(path string) int {
	errorService = errorService.WithVerbose(hasFlag("-v") || hasFlag("--verbose"))

	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprint(os.Stderr, errorService.FormatErrorForCLI(err))
		return errorService.GetExitCode(err)
	}

	fmt.Println("✓ Configuration is valid")
	if hasFlag("-v") || hasFlag("--verbose") {
		fmt.Printf("  Portal: %s\n", cfg.Portal.URL)
		fmt.Printf("  Backend: %s\n", cfg.Browser.Backend)
		fmt.Printf("  Advance: every %s for %s\n", cfg.Advance.Interval, cfg.Advance.Duration)
	}
	return 0
}

// generateTemplate renders a configuration template as YAML.
func generateTemplate() (string, error) {
	template := config.GenerateTemplate()

	var b strings.Builder
	if err := config.SaveToWriter(&template, &b); err != nil {
		return "", fmt.Errorf("failed to marshal template to YAML: %w", err)
	}
	return b.String(), nil
}

// hasFlag checks if a flag is present in command line arguments
func hasFlag(flag string) bool {
	for _, arg := range os.Args {
		if arg == flag {
			return true
		}
	}
	return false
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-v" || os.Args[1] == "--verbose" {
		os.Exit(runCourse())
	}

	command := os.Args[1]

	switch command {
	case "validate":
		path := ""
		if len(os.Args) > 2 && os.Args[2] != "-v" && os.Args[2] != "--verbose" {
			path = os.Args[2]
		}
		os.Exit(validateConfig(path))

	case "template":
		template, err := generateTemplate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(template)

	case "version", "--version":
		printVersion()

	case "help", "--help", "-h":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command '%s'\n", command)
		printUsage()
		os.Exit(1)
	}
}

// printUsage displays help information
func printUsage() {
	fmt.Println("scormrunner - unattended SCORM course player")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  scormrunner                           Log in, open the player and advance it")
	fmt.Println("  scormrunner validate [config.yaml]    Validate the configuration")
	fmt.Println("  scormrunner template                  Print a configuration template")
	fmt.Println("  scormrunner version                   Show version information")
	fmt.Println("  scormrunner help                      Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose                         Show technical error details")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Printf("  %-30s Configuration file (default %s)\n", config.EnvConfigFile, config.DefaultConfigFile)
	fmt.Printf("  %-30s Login page URL\n", config.EnvPortalURL)
	fmt.Printf("  %-30s Portal username\n", config.EnvUsername)
	fmt.Printf("  %-30s Portal password\n", config.EnvPassword)
	fmt.Printf("  %-30s chromedp or selenium\n", config.EnvBackend)
	fmt.Printf("  %-30s debug, info, warn or error\n", config.EnvLogLevel)
	fmt.Printf("  %-30s true to run without a window\n", config.EnvHeadless)
	fmt.Printf("  %-30s chromedriver path for selenium\n", config.EnvDriverPath)
}

// printVersion displays version information
func printVersion() {
	fmt.Printf("scormrunner %s\n", version)
	fmt.Printf("Build time: %s\n", buildTime)
	fmt.Printf("Git commit: %s\n", gitCommit)
}
