package config

import (
	"context"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vk/dbxdeploy/internal/ctxlog"
)

// Top-level keys with reserved meaning. Every key starting with jobKeyPrefix
// declares a job; defaultsKey holds the shared task defaults.
const (
	jobKeyPrefix = "workflow"
	defaultsKey  = "default-settings"
)

// Load parses and validates a job-configuration document. It is a pure
// transform: the same source always produces a structurally equal Document
// or the same error, and nothing is returned on failure.
func Load(ctx context.Context, source []byte) (*Document, error) {
	logger := ctxlog.FromContext(ctx)

	var root yaml.Node
	if err := yaml.Unmarshal(source, &root); err != nil {
		return nil, &ParseError{Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, parseErrorf("document is empty")
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, parseErrorf("top level must be a mapping, got %s", nodeKindName(mapping.Kind))
	}

	// First pass: pick up the shared defaults block so it can be merged into
	// every task regardless of where it appears in the document.
	defaults, err := decodeDefaults(mapping)
	if err != nil {
		return nil, err
	}
	logger.Debug("Defaults block decoded.", "keys", len(defaults))

	// Second pass: decode jobs in declaration order.
	doc := &Document{}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		if !strings.HasPrefix(key, jobKeyPrefix) {
			continue
		}
		job, err := decodeJob(key, mapping.Content[i+1], defaults)
		if err != nil {
			return nil, err
		}
		doc.Jobs = append(doc.Jobs, job)
	}
	logger.Debug("Jobs decoded.", "count", len(doc.Jobs))

	if err := validate(doc); err != nil {
		return nil, err
	}
	logger.Debug("Document validation passed.")

	return doc, nil
}

// LoadFile reads and loads a single configuration file.
func LoadFile(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Load(ctx, data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeDefaults(mapping *yaml.Node) (map[string]any, error) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value != defaultsKey {
			continue
		}
		var defaults map[string]any
		if err := mapping.Content[i+1].Decode(&defaults); err != nil {
			return nil, parseErrorf("block %q: %w", defaultsKey, err)
		}
		return defaults, nil
	}
	return nil, nil
}

// rawJob is the YAML-facing shape of a job body. Tasks stay as generic maps
// until the defaults merge has been applied.
type rawJob struct {
	JobName  string           `yaml:"job_name"`
	Schedule string           `yaml:"schedule"`
	Tasks    []map[string]any `yaml:"tasks"`
}

func decodeJob(key string, body *yaml.Node, defaults map[string]any) (*JobDefinition, error) {
	if body.Kind != yaml.MappingNode {
		return nil, parseErrorf("job %q: body must be a mapping, got %s", key, nodeKindName(body.Kind))
	}

	var raw rawJob
	if err := body.Decode(&raw); err != nil {
		return nil, parseErrorf("job %q: %w", key, err)
	}
	if raw.JobName == "" {
		return nil, parseErrorf("job %q: missing required key %q", key, "job_name")
	}
	if raw.Schedule == "" {
		return nil, parseErrorf("job %q: missing required key %q", key, "schedule")
	}

	job := &JobDefinition{
		Key:      key,
		JobName:  raw.JobName,
		Schedule: raw.Schedule,
	}

	for i, entry := range raw.Tasks {
		task, err := decodeTask(deepMerge(defaults, entry))
		if err != nil {
			return nil, parseErrorf("job %q: task %d: %w", key, i, err)
		}
		if task.TaskName == "" {
			return nil, parseErrorf("job %q: task %d: missing required key %q", key, i, "task_name")
		}
		job.Tasks = append(job.Tasks, task)
	}

	return job, nil
}

// decodeTask converts a merged task mapping into a typed TaskDefinition by
// round-tripping through the YAML decoder, so task fields share one set of
// struct tags with the rest of the model.
func decodeTask(merged map[string]any) (*TaskDefinition, error) {
	encoded, err := yaml.Marshal(merged)
	if err != nil {
		return nil, err
	}
	var task TaskDefinition
	if err := yaml.Unmarshal(encoded, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func nodeKindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
