package payload

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dbxdeploy/internal/config"
)

func writeClusterConfig(t *testing.T, dir, name string, content map[string]any) string {
	t.Helper()
	data, err := json.Marshal(content)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestBuildJob(t *testing.T) {
	ctx := context.Background()
	clusterDir := t.TempDir()
	writeClusterConfig(t, clusterDir, "standard.json", map[string]any{
		"node_type_id": "n2-standard-4",
		"num_workers":  float64(2),
		"spark_conf":   map[string]any{"spark.speculation": "true"},
	})

	job := &config.JobDefinition{
		Key:      "workflow-api",
		JobName:  "workflow-api",
		Schedule: "0 0 6 * * ?",
		Tasks: []*config.TaskDefinition{
			{
				TaskName:          "api",
				Filepath:          "notebooks/ingest_api",
				ClusterConfigPath: "standard.json",
				TaskType:          config.TaskTypeNotebook,
				EmailOnFailure:    []string{"data-eng@acme.example"},
			},
			{
				TaskName:          "api2",
				Filepath:          "notebooks/enrich_api",
				ClusterConfigPath: "standard.json",
				TaskType:          config.TaskTypeNotebook,
				DependsOn:         config.StringList{"api"},
				EmailOnFailure:    []string{"data-eng@acme.example"},
				EmailOnSuccess:    []string{"analysts@acme.example"},
			},
		},
	}

	settings, err := NewBuilder(clusterDir).BuildJob(ctx, job)
	require.NoError(t, err)

	assert.Equal(t, "workflow-api", settings.Name)
	assert.Equal(t, "MULTI_TASK", settings.Format)
	assert.Equal(t, 1, settings.MaxConcurrentRuns)

	require.NotNil(t, settings.Schedule)
	assert.Equal(t, "0 0 6 * * ?", settings.Schedule.QuartzCronExpression)
	assert.Equal(t, "Europe/London", settings.Schedule.TimezoneID)
	assert.Equal(t, "UNPAUSED", settings.Schedule.PauseStatus)

	require.Len(t, settings.Tasks, 2)
	assert.Equal(t, "api", settings.Tasks[0].TaskKey)
	assert.Empty(t, settings.Tasks[0].DependsOn)
	require.Len(t, settings.Tasks[1].DependsOn, 1)
	assert.Equal(t, "api", settings.Tasks[1].DependsOn[0].TaskKey)

	// Recipients are aggregated across tasks as a set.
	assert.Equal(t, []string{"data-eng@acme.example"}, settings.EmailNotifications.OnFailure)
	assert.Equal(t, []string{"analysts@acme.example"}, settings.EmailNotifications.OnSuccess)
}

func TestBuildTaskTypes(t *testing.T) {
	ctx := context.Background()
	builder := NewBuilder("")

	t.Run("notebook", func(t *testing.T) {
		job := singleTaskJob(&config.TaskDefinition{
			TaskName: "nb",
			TaskType: config.TaskTypeNotebook,
			Filepath: "notebooks/daily",
		})
		settings, err := builder.BuildJob(ctx, job)
		require.NoError(t, err)

		task := settings.Tasks[0]
		require.NotNil(t, task.NotebookTask)
		assert.Equal(t, "notebooks/daily", task.NotebookTask.NotebookPath)
		assert.Equal(t, "GIT", task.NotebookTask.Source)
		assert.Nil(t, task.SparkPythonTask)
	})

	t.Run("empty tasktype defaults to notebook", func(t *testing.T) {
		job := singleTaskJob(&config.TaskDefinition{TaskName: "nb", Filepath: "notebooks/daily"})
		settings, err := builder.BuildJob(ctx, job)
		require.NoError(t, err)
		assert.NotNil(t, settings.Tasks[0].NotebookTask)
	})

	t.Run("python", func(t *testing.T) {
		job := singleTaskJob(&config.TaskDefinition{
			TaskName:   "py",
			TaskType:   config.TaskTypePython,
			Filepath:   "jobs/ingest.py",
			Parameters: []string{"--date", "{{ds}}"},
		})
		settings, err := builder.BuildJob(ctx, job)
		require.NoError(t, err)

		task := settings.Tasks[0]
		require.NotNil(t, task.SparkPythonTask)
		assert.Equal(t, "jobs/ingest.py", task.SparkPythonTask.PythonFile)
		assert.Equal(t, []string{"--date", "{{ds}}"}, task.SparkPythonTask.Parameters)
	})

	t.Run("sql", func(t *testing.T) {
		job := singleTaskJob(&config.TaskDefinition{
			TaskName:    "sql",
			TaskType:    config.TaskTypeSQL,
			SQLFilePath: "sql/report.sql",
			WarehouseID: "wh-123",
		})
		settings, err := builder.BuildJob(ctx, job)
		require.NoError(t, err)

		task := settings.Tasks[0]
		require.NotNil(t, task.SQLTask)
		assert.Equal(t, "sql/report.sql", task.SQLTask.File.Path)
		assert.Equal(t, "wh-123", task.SQLTask.WarehouseID)
	})

	t.Run("dbt pins the core library", func(t *testing.T) {
		job := singleTaskJob(&config.TaskDefinition{
			TaskName: "dbt",
			TaskType: config.TaskTypeDBT,
			Filepath: "dbt/acme",
			Commands: []string{"dbt run"},
		})
		settings, err := builder.BuildJob(ctx, job)
		require.NoError(t, err)

		task := settings.Tasks[0]
		require.NotNil(t, task.DbtTask)
		assert.Equal(t, "dbt/acme", task.DbtTask.ProjectDirectory)
		require.Len(t, task.Libraries, 1)
		require.NotNil(t, task.Libraries[0].PyPI)
		assert.Equal(t, dbtCoreLibrary, task.Libraries[0].PyPI.Package)
	})

	t.Run("missing filepath fails", func(t *testing.T) {
		job := singleTaskJob(&config.TaskDefinition{TaskName: "nb", TaskType: config.TaskTypeNotebook})
		_, err := builder.BuildJob(ctx, job)
		assert.ErrorContains(t, err, "requires a filepath")
		assert.ErrorContains(t, err, `task "nb"`)
	})
}

func TestGCPSparkConfInjection(t *testing.T) {
	ctx := context.Background()
	clusterDir := t.TempDir()
	writeClusterConfig(t, clusterDir, "gcp.json", map[string]any{
		"spark_conf": map[string]any{"spark.speculation": "true"},
	})

	job := singleTaskJob(&config.TaskDefinition{
		TaskName:          "nb",
		TaskType:          config.TaskTypeNotebook,
		Filepath:          "notebooks/daily",
		ClusterConfigPath: "gcp.json",
		GCPConnection: &config.GCPConnection{
			ServiceAccountEmail:      "deployer@acme-data.iam.gserviceaccount.com",
			ProjectID:                "acme-data",
			ServiceAccountPrivateKey: "deployer-key",
			ServiceAccountPrivateID:  "deployer-key-id",
		},
	})

	settings, err := NewBuilder(clusterDir).BuildJob(ctx, job)
	require.NoError(t, err)

	sparkConf := settings.Tasks[0].NewCluster["spark_conf"].(map[string]any)
	assert.Equal(t, "true", sparkConf["spark.hadoop.google.cloud.auth.service.account.enable"])
	assert.Equal(t, "deployer@acme-data.iam.gserviceaccount.com", sparkConf["spark.hadoop.fs.gs.auth.service.account.email"])
	assert.Equal(t, "acme-data", sparkConf["spark.hadoop.fs.gs.project.id"])
	assert.Equal(t, "{{secrets/scope/deployer-key}}", sparkConf["spark.hadoop.fs.gs.auth.service.account.private.key"])
	assert.Equal(t, "{{secrets/scope/deployer-key-id}}", sparkConf["spark.hadoop.fs.gs.auth.service.account.private.key.id"])
	// Pre-existing conf survives.
	assert.Equal(t, "true", sparkConf["spark.speculation"])
}

func TestLoadClusterConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file fails the build", func(t *testing.T) {
		job := singleTaskJob(&config.TaskDefinition{
			TaskName:          "nb",
			Filepath:          "notebooks/daily",
			ClusterConfigPath: "does-not-exist.json",
		})
		_, err := NewBuilder(t.TempDir()).BuildJob(ctx, job)
		assert.ErrorContains(t, err, "load cluster config")
	})

	t.Run("invalid json fails the build", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{nope"), 0o600))

		job := singleTaskJob(&config.TaskDefinition{
			TaskName:          "nb",
			Filepath:          "notebooks/daily",
			ClusterConfigPath: "bad.json",
		})
		_, err := NewBuilder(dir).BuildJob(ctx, job)
		assert.ErrorContains(t, err, "load cluster config")
	})

	t.Run("empty path yields an empty cluster block", func(t *testing.T) {
		job := singleTaskJob(&config.TaskDefinition{TaskName: "nb", Filepath: "notebooks/daily"})
		settings, err := NewBuilder("").BuildJob(ctx, job)
		require.NoError(t, err)
		assert.NotNil(t, settings.Tasks[0].NewCluster)
		assert.Empty(t, settings.Tasks[0].NewCluster)
	})
}

func TestSettingsJSONShape(t *testing.T) {
	job := singleTaskJob(&config.TaskDefinition{TaskName: "nb", Filepath: "notebooks/daily"})
	settings, err := NewBuilder("").BuildJob(context.Background(), job)
	require.NoError(t, err)

	data, err := json.Marshal(settings)
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, `"quartz_cron_expression":"0 0 6 * * ?"`)
	assert.Contains(t, body, `"on_failure":[]`)
	assert.NotContains(t, body, "null")
	assert.NotContains(t, body, "spark_python_task")
}

func singleTaskJob(task *config.TaskDefinition) *config.JobDefinition {
	return &config.JobDefinition{
		Key:      "workflow-test",
		JobName:  "workflow-test",
		Schedule: "0 0 6 * * ?",
		Tasks:    []*config.TaskDefinition{task},
	}
}
