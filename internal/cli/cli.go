package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/vk/dbxdeploy/internal/app"
)

// tokenEnvVar names the environment variable the API token is read from; it
// never appears on the command line.
const tokenEnvVar = "SERVICE_PRINCIPAL_TOKEN"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("dbxdeploy", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
dbxdeploy - deploys scheduled workflow jobs from a YAML configuration.

Usage:
  dbxdeploy [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a job-configuration .yaml file or a directory containing them.

The API token is read from the SERVICE_PRINCIPAL_TOKEN environment variable.

Options:
`)
		flagSet.PrintDefaults()
	}

	configFlag := flagSet.String("config", "", "Path to the job-configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the job-configuration file or directory (shorthand).")
	clusterDirFlag := flagSet.String("cluster-dir", "", "Base directory for relative cluster_config_path values.")
	stateDirFlag := flagSet.String("state-dir", "state", "Directory holding deployment state snapshots.")
	apiURLFlag := flagSet.String("api-url", "https://api.databricks.com", "Base URL of the jobs API.")
	timezoneFlag := flagSet.String("timezone", "", "Schedule timezone ID applied to every job (default Europe/London).")
	dryRunFlag := flagSet.Bool("dry-run", false, "Compute and print the plan without calling the API or writing state.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *configFlag != "" {
		path = *configFlag
	} else if *cFlag != "" {
		path = *cFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Config path determined.", "path", path)

	if path == "" {
		slog.Debug("No config path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPath: path,
		ClusterDir: *clusterDirFlag,
		StateDir:   *stateDirFlag,
		APIURL:     *apiURLFlag,
		Token:      os.Getenv(tokenEnvVar),
		TimezoneID: *timezoneFlag,
		DryRun:     *dryRunFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	})

	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
