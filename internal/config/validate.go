package config

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/vk/dbxdeploy/internal/dag"
)

// scheduleParser accepts the six-field, seconds-first cron form the job
// platform uses (quartz-style; '?' in the day fields is treated as '*').
var scheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// validate enforces the semantic rules over a structurally well-formed
// document. The first violation found is returned as a *ValidationError.
func validate(doc *Document) error {
	jobNames := make(map[string]string, len(doc.Jobs))

	for _, job := range doc.Jobs {
		if prev, ok := jobNames[job.JobName]; ok {
			return validationErrorf(job.JobName, "",
				"duplicate job_name: already declared under %q", prev)
		}
		jobNames[job.JobName] = job.Key

		if err := validateJob(job); err != nil {
			return err
		}
	}
	return nil
}

func validateJob(job *JobDefinition) error {
	if _, err := scheduleParser.Parse(job.Schedule); err != nil {
		return validationErrorf(job.JobName, "", "invalid schedule %q: %v", job.Schedule, err)
	}

	graph := dag.New()

	// Task names must be unique within the job; the same name may be reused
	// by a different job.
	for _, task := range job.Tasks {
		if graph.HasNode(task.TaskName) {
			return validationErrorf(job.JobName, task.TaskName, "duplicate task_name %q", task.TaskName)
		}
		graph.AddNode(task.TaskName)

		if err := validateLibraries(job, task); err != nil {
			return err
		}
		if err := validateTaskType(job, task); err != nil {
			return err
		}
	}

	// Every dependency must name a sibling task.
	for _, task := range job.Tasks {
		for _, dep := range task.DependsOn {
			if !graph.HasNode(dep) {
				return validationErrorf(job.JobName, task.TaskName,
					"depends_on references unknown task %q", dep)
			}
			if err := graph.AddEdge(dep, task.TaskName); err != nil {
				return validationErrorf(job.JobName, task.TaskName, "%v", err)
			}
		}
	}

	if err := graph.DetectCycles(); err != nil {
		return validationErrorf(job.JobName, "", "%v", err)
	}

	order, err := graph.TopoSort()
	if err != nil {
		return validationErrorf(job.JobName, "", "%v", err)
	}
	job.TaskOrder = order

	return nil
}

func validateLibraries(job *JobDefinition, task *TaskDefinition) error {
	for i, lib := range task.Libraries {
		switch {
		case lib.Whl != "" && lib.PyPI != nil:
			return validationErrorf(job.JobName, task.TaskName,
				"library %d: whl and pypi are mutually exclusive", i)
		case lib.Whl == "" && lib.PyPI == nil:
			return validationErrorf(job.JobName, task.TaskName,
				"library %d: exactly one of whl or pypi is required", i)
		case lib.PyPI != nil && lib.PyPI.Package == "":
			return validationErrorf(job.JobName, task.TaskName,
				"library %d: pypi reference is missing a package", i)
		}
	}
	return nil
}

func validateTaskType(job *JobDefinition, task *TaskDefinition) error {
	switch task.TaskType {
	case "", TaskTypeNotebook, TaskTypePython, TaskTypeSQL, TaskTypeDBT:
		return nil
	default:
		return validationErrorf(job.JobName, task.TaskName,
			"unsupported tasktype %q (want one of %s)", task.TaskType,
			fmt.Sprintf("%s, %s, %s, %s", TaskTypeNotebook, TaskTypePython, TaskTypeSQL, TaskTypeDBT))
	}
}
