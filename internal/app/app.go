package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/vk/dbxdeploy/internal/config"
	"github.com/vk/dbxdeploy/internal/fsutil"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logW   io.Writer
	logger *slog.Logger
	config *Config
}

// NewApp is the constructor for the main application. Plan output goes to
// outW; logs go to logW so the two streams can be separated by the caller.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logW:   logW,
		logger: logger,
		config: cfg,
	}
}

// loadJobs loads every job definition from the configured path, which may be
// a single YAML file or a directory of them. Jobs keep file order, files are
// visited in sorted order, and a job_name reused across files is rejected.
func (a *App) loadJobs(ctx context.Context) ([]*config.JobDefinition, error) {
	paths, err := a.configFiles()
	if err != nil {
		return nil, err
	}

	var jobs []*config.JobDefinition
	seen := map[string]string{}
	for _, path := range paths {
		doc, err := config.LoadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		for _, job := range doc.Jobs {
			if prev, ok := seen[job.JobName]; ok {
				return nil, &config.ValidationError{
					Job:    job.JobName,
					Reason: "duplicate job_name: already declared in " + prev,
				}
			}
			seen[job.JobName] = path
			jobs = append(jobs, job)
		}
		a.logger.Debug("Config file loaded.", "path", path, "jobs", len(doc.Jobs))
	}

	return jobs, nil
}

func (a *App) configFiles() ([]string, error) {
	info, err := os.Stat(a.config.ConfigPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{a.config.ConfigPath}, nil
	}
	return fsutil.FindFilesByExtension(a.config.ConfigPath, ".yaml", ".yml")
}
