package payload

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/dbxdeploy/internal/config"
	"github.com/vk/dbxdeploy/internal/ctxlog"
)

// dbtCoreLibrary is pinned for every DBT task so the dbt runner is present on
// the task's cluster.
const dbtCoreLibrary = "dbt-databricks>=1.0.0,<2.0.0"

// Builder turns job definitions into API settings documents.
type Builder struct {
	// ClusterDir is the directory relative cluster_config_path values are
	// resolved against. Absolute paths are used as-is.
	ClusterDir string

	// TimezoneID is applied to every job's schedule block.
	TimezoneID string

	// AccessControl is attached to every job.
	AccessControl []AccessControl
}

// NewBuilder returns a Builder with the deployment defaults: schedules run in
// Europe/London and the platform group manages every job.
func NewBuilder(clusterDir string) *Builder {
	return &Builder{
		ClusterDir: clusterDir,
		TimezoneID: "Europe/London",
		AccessControl: []AccessControl{
			{GroupName: "data-platform", PermissionLevel: "CAN_MANAGE"},
		},
	}
}

// BuildJob assembles the full settings document for one job: every task
// payload in declaration order, job-level notification recipients aggregated
// from the tasks, and the schedule block.
func (b *Builder) BuildJob(ctx context.Context, job *config.JobDefinition) (*JobSettings, error) {
	logger := ctxlog.FromContext(ctx)

	settings := &JobSettings{
		Name:                 job.JobName,
		WebhookNotifications: map[string]any{},
		Schedule: &CronSchedule{
			QuartzCronExpression: job.Schedule,
			TimezoneID:           b.TimezoneID,
			PauseStatus:          "UNPAUSED",
		},
		MaxConcurrentRuns: 1,
		Format:            "MULTI_TASK",
		AccessControlList: b.AccessControl,
		EmailNotifications: EmailNotifications{
			OnSuccess: []string{},
			OnFailure: []string{},
		},
	}

	for _, task := range job.Tasks {
		taskPayload, err := b.buildTask(task)
		if err != nil {
			return nil, fmt.Errorf("job %q: task %q: %w", job.JobName, task.TaskName, err)
		}
		settings.Tasks = append(settings.Tasks, taskPayload)

		// Recipients are a set: aggregate across tasks without duplicates.
		settings.EmailNotifications.OnSuccess = appendUnique(settings.EmailNotifications.OnSuccess, task.EmailOnSuccess)
		settings.EmailNotifications.OnFailure = appendUnique(settings.EmailNotifications.OnFailure, task.EmailOnFailure)
	}

	logger.Debug("Job settings built.", "job_name", job.JobName, "tasks", len(settings.Tasks))
	return settings, nil
}

func (b *Builder) buildTask(task *config.TaskDefinition) (*TaskPayload, error) {
	cluster, err := b.loadClusterConfig(task.ClusterConfigPath)
	if err != nil {
		return nil, err
	}

	payload := &TaskPayload{
		TaskKey:        task.TaskName,
		NewCluster:     cluster,
		Libraries:      translateLibraries(task.Libraries),
		TimeoutSeconds: task.TimeoutSeconds,
		EmailNotifications: EmailNotifications{
			OnSuccess: orEmpty(task.EmailOnSuccess),
			OnFailure: orEmpty(task.EmailOnFailure),
		},
	}

	for _, dep := range task.DependsOn {
		payload.DependsOn = append(payload.DependsOn, TaskKey{TaskKey: dep})
	}

	switch task.TaskType {
	case config.TaskTypeNotebook, "":
		if task.Filepath == "" {
			return nil, fmt.Errorf("notebook task requires a filepath")
		}
		addGCPSparkConf(cluster, task.GCPConnection)
		payload.NotebookTask = &NotebookTask{
			NotebookPath: task.Filepath,
			Source:       "GIT",
		}
	case config.TaskTypePython:
		if task.Filepath == "" {
			return nil, fmt.Errorf("python task requires a filepath")
		}
		addGCPSparkConf(cluster, task.GCPConnection)
		payload.SparkPythonTask = &SparkPythonTask{
			PythonFile: task.Filepath,
			Parameters: orEmpty(task.Parameters),
			Source:     "GIT",
		}
	case config.TaskTypeSQL:
		if task.SQLFilePath == "" {
			return nil, fmt.Errorf("sql task requires a sql_file_path")
		}
		payload.SQLTask = &SQLTask{
			File:        SQLFile{Path: task.SQLFilePath},
			WarehouseID: task.WarehouseID,
		}
	case config.TaskTypeDBT:
		if task.Filepath == "" {
			return nil, fmt.Errorf("dbt task requires a filepath")
		}
		payload.DbtTask = &DbtTask{
			ProjectDirectory: task.Filepath,
			Commands:         orEmpty(task.Commands),
			WarehouseID:      task.WarehouseID,
		}
		payload.Libraries = append(payload.Libraries, Library{
			PyPI: &PyPILibrary{Package: dbtCoreLibrary},
		})
	default:
		return nil, fmt.Errorf("unsupported tasktype: %q", task.TaskType)
	}

	return payload, nil
}

// loadClusterConfig reads the task's cluster definition JSON. An empty path
// yields an empty cluster block.
func (b *Builder) loadClusterConfig(path string) (map[string]any, error) {
	if path == "" {
		return map[string]any{}, nil
	}
	if !filepath.IsAbs(path) && b.ClusterDir != "" {
		path = filepath.Join(b.ClusterDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load cluster config: %w", err)
	}

	var cluster map[string]any
	if err := json.Unmarshal(data, &cluster); err != nil {
		return nil, fmt.Errorf("load cluster config %q: %w", path, err)
	}
	return cluster, nil
}

// addGCPSparkConf injects the spark settings that let a cluster read from GCS
// with the task's service account. Private key material never appears in the
// payload; the values are secret-scope placeholders resolved by the platform.
func addGCPSparkConf(cluster map[string]any, conn *config.GCPConnection) {
	if conn == nil {
		return
	}

	sparkConf, ok := cluster["spark_conf"].(map[string]any)
	if !ok {
		sparkConf = map[string]any{}
		cluster["spark_conf"] = sparkConf
	}

	sparkConf["spark.hadoop.google.cloud.auth.service.account.enable"] = "true"
	sparkConf["spark.hadoop.fs.gs.auth.service.account.email"] = conn.ServiceAccountEmail
	sparkConf["spark.hadoop.fs.gs.project.id"] = conn.ProjectID
	sparkConf["spark.hadoop.fs.gs.auth.service.account.private.key"] = secretPlaceholder(conn.ServiceAccountPrivateKey)
	sparkConf["spark.hadoop.fs.gs.auth.service.account.private.key.id"] = secretPlaceholder(conn.ServiceAccountPrivateID)
}

func secretPlaceholder(name string) string {
	return fmt.Sprintf("{{secrets/scope/%s}}", name)
}

func translateLibraries(libs []config.Library) []Library {
	out := make([]Library, 0, len(libs))
	for _, lib := range libs {
		translated := Library{Whl: lib.Whl}
		if lib.PyPI != nil {
			translated.PyPI = &PyPILibrary{Package: lib.PyPI.Package, Repo: lib.PyPI.Repo}
		}
		out = append(out, translated)
	}
	return out
}

func appendUnique(dst []string, src []string) []string {
	for _, candidate := range src {
		seen := false
		for _, existing := range dst {
			if existing == candidate {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, candidate)
		}
	}
	return dst
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
