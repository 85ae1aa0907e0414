package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Task types understood by the payload builder.
const (
	TaskTypeNotebook = "NOTEBOOK"
	TaskTypePython   = "PYTHON"
	TaskTypeSQL      = "SQL"
	TaskTypeDBT      = "DBT"
)

// Document is the validated, in-memory form of one job-configuration file.
// Jobs appear in declaration order. A Document and everything it contains is
// an immutable value object after Load returns.
type Document struct {
	Jobs []*JobDefinition
}

// Job returns the job declared under the given top-level key, or nil.
func (d *Document) Job(key string) *JobDefinition {
	for _, j := range d.Jobs {
		if j.Key == key {
			return j
		}
	}
	return nil
}

// JobDefinition is a named, independently scheduled collection of tasks.
type JobDefinition struct {
	// Key is the top-level mapping key the job was declared under
	// (e.g. "workflow-api").
	Key string

	JobName  string
	Schedule string
	Tasks    []*TaskDefinition

	// TaskOrder holds the task names in a valid execution order: every task
	// appears after all of its dependencies, with declaration order breaking
	// ties. Populated during validation.
	TaskOrder []string
}

// Task returns the task with the given name, or nil.
func (j *JobDefinition) Task(name string) *TaskDefinition {
	for _, t := range j.Tasks {
		if t.TaskName == name {
			return t
		}
	}
	return nil
}

// TaskDefinition is a unit of work within a job. Field values are the result
// of deep-merging the document's default-settings block with the task-local
// entry.
type TaskDefinition struct {
	TaskName          string         `yaml:"task_name"`
	Filepath          string         `yaml:"filepath"`
	ClusterConfigPath string         `yaml:"cluster_config_path"`
	TaskType          string         `yaml:"tasktype"`
	GCPConnection     *GCPConnection `yaml:"gcp_connection"`
	Libraries         []Library      `yaml:"libraries"`
	EmailOnFailure    []string       `yaml:"email_on_failure"`
	EmailOnSuccess    []string       `yaml:"email_on_success"`
	DependsOn         StringList     `yaml:"depends_on"`
	Parameters        []string       `yaml:"parameters"`
	Commands          []string       `yaml:"commands"`
	SQLFilePath       string         `yaml:"sql_file_path"`
	WarehouseID       string         `yaml:"warehouse_id"`
	TimeoutSeconds    int            `yaml:"timeout_seconds"`
}

// GCPConnection carries the identity-provider references a task needs to read
// from GCS. The private key fields name secrets, not key material; the
// payload builder turns them into secret-scope placeholders.
type GCPConnection struct {
	ServiceAccountEmail      string `yaml:"service_account_email"`
	ProjectID                string `yaml:"project_id"`
	ServiceAccountPrivateKey string `yaml:"service_account_private_key"`
	ServiceAccountPrivateID  string `yaml:"service_account_private_id"`
}

// Library is a dependency descriptor: exactly one of Whl (a remote archive
// reference) or PyPI (a package-registry reference) must be set.
type Library struct {
	Whl  string       `yaml:"whl,omitempty"`
	PyPI *PyPILibrary `yaml:"pypi,omitempty"`
}

// PyPILibrary references a package on a pypi-style registry. Repo is an
// optional alternative index URL.
type PyPILibrary struct {
	Package string `yaml:"package"`
	Repo    string `yaml:"repo,omitempty"`
}

// StringList decodes either a single YAML scalar or a sequence of scalars
// into a []string. The source config historically allowed `depends_on: api`
// as shorthand for a one-element list.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*s = StringList{single}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*s = StringList(many)
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
}
