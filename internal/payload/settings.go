package payload

// JobSettings is the job-level settings document sent to the jobs API on
// create, and under "new_settings" on reset.
type JobSettings struct {
	Name                 string             `json:"name"`
	EmailNotifications   EmailNotifications `json:"email_notifications"`
	WebhookNotifications map[string]any     `json:"webhook_notifications"`
	TimeoutSeconds       int                `json:"timeout_seconds"`
	Schedule             *CronSchedule      `json:"schedule,omitempty"`
	MaxConcurrentRuns    int                `json:"max_concurrent_runs"`
	Tasks                []*TaskPayload     `json:"tasks"`
	Format               string             `json:"format"`
	AccessControlList    []AccessControl    `json:"access_control_list,omitempty"`
}

// CronSchedule is the job-level schedule block.
type CronSchedule struct {
	QuartzCronExpression string `json:"quartz_cron_expression"`
	TimezoneID           string `json:"timezone_id"`
	PauseStatus          string `json:"pause_status"`
}

// EmailNotifications lists recipients per outcome. Slices are always non-nil
// so the API receives [] rather than null.
type EmailNotifications struct {
	OnSuccess []string `json:"on_success"`
	OnFailure []string `json:"on_failure"`
}

// AccessControl grants a permission level to a group.
type AccessControl struct {
	GroupName       string `json:"group_name"`
	PermissionLevel string `json:"permission_level"`
}

// TaskPayload is one entry of the job's task list. Exactly one of the
// type-specific task blocks is set, matching the task's tasktype.
type TaskPayload struct {
	TaskKey            string             `json:"task_key"`
	NotebookTask       *NotebookTask      `json:"notebook_task,omitempty"`
	SparkPythonTask    *SparkPythonTask   `json:"spark_python_task,omitempty"`
	SQLTask            *SQLTask           `json:"sql_task,omitempty"`
	DbtTask            *DbtTask           `json:"dbt_task,omitempty"`
	NewCluster         map[string]any     `json:"new_cluster"`
	Libraries          []Library          `json:"libraries"`
	TimeoutSeconds     int                `json:"timeout_seconds"`
	EmailNotifications EmailNotifications `json:"email_notifications"`
	DependsOn          []TaskKey          `json:"depends_on,omitempty"`
}

// TaskKey is a by-name reference to a sibling task.
type TaskKey struct {
	TaskKey string `json:"task_key"`
}

// NotebookTask runs a notebook from the linked git repository.
type NotebookTask struct {
	NotebookPath string `json:"notebook_path"`
	Source       string `json:"source"`
}

// SparkPythonTask runs a python file with optional parameters.
type SparkPythonTask struct {
	PythonFile string   `json:"python_file"`
	Parameters []string `json:"parameters"`
	Source     string   `json:"source"`
}

// SQLTask runs a SQL file on a warehouse.
type SQLTask struct {
	File        SQLFile `json:"file"`
	WarehouseID string  `json:"warehouse_id"`
}

// SQLFile points at the SQL source file.
type SQLFile struct {
	Path string `json:"path"`
}

// DbtTask runs dbt commands against a project directory.
type DbtTask struct {
	ProjectDirectory string   `json:"project_directory"`
	Commands         []string `json:"commands"`
	WarehouseID      string   `json:"warehouse_id"`
}

// Library mirrors a config library reference in API form.
type Library struct {
	Whl  string       `json:"whl,omitempty"`
	PyPI *PyPILibrary `json:"pypi,omitempty"`
}

// PyPILibrary references a package on a pypi-style registry.
type PyPILibrary struct {
	Package string `json:"package"`
	Repo    string `json:"repo,omitempty"`
}
