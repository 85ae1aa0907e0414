package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string // job-configuration YAML file, or a directory of them
	ClusterDir string // base directory for relative cluster_config_path values
	StateDir   string // where deployment state snapshots live
	APIURL     string // jobs API base URL
	Token      string // service-principal token for API calls

	TimezoneID string // schedule timezone applied to every job
	DryRun     bool   // compute and print the plan without applying it

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.StateDir == "" {
		cfg.StateDir = "state"
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.databricks.com"
	}

	return &cfg, nil
}
