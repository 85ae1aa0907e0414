// Package payload translates validated job definitions into the JSON
// settings documents the jobs REST API expects: one task payload per task
// (shape depends on the task type), wrapped in job-level settings carrying
// the schedule, notification recipients, and access control.
//
// The builder reads cluster configuration JSON from disk but performs no
// network I/O; cloud storage, clusters, and credential providers stay opaque
// configuration values.
package payload
