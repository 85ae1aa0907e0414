package config

import "fmt"

// ParseError reports malformed input: the document is not a mapping, a block
// cannot be decoded into its expected shape, or a required key (job_name,
// schedule, task_name) is missing. Parsing is all-or-nothing, so the caller
// gets no document alongside it.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse job config: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Err: fmt.Errorf(format, args...)}
}

// ValidationError reports a semantic violation in a structurally well-formed
// document. Job and Task identify where the violation occurred; Task is empty
// for job-level problems such as a duplicate job_name.
type ValidationError struct {
	Job    string
	Task   string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("validate job %q: %s", e.Job, e.Reason)
	}
	return fmt.Sprintf("validate job %q: task %q: %s", e.Job, e.Task, e.Reason)
}

func validationErrorf(job, task, format string, args ...any) *ValidationError {
	return &ValidationError{Job: job, Task: task, Reason: fmt.Sprintf(format, args...)}
}
