// Package config loads and validates the YAML job-configuration document.
//
// The document is a top-level mapping: keys beginning with "workflow" define
// jobs, and an optional "default-settings" block holds task attributes that
// are deep-merged into every task (task-local fields win; nested maps such as
// gcp_connection are merged key-by-key rather than replaced wholesale).
//
// Loading is a pure transform from text to a validated *Document: the same
// input always yields the same result or the same error, and no partial
// document is ever returned. Failures are either a *ParseError (malformed
// structure, missing required keys) or a *ValidationError (duplicate task
// names, dangling or cyclic dependencies, malformed library references,
// invalid schedules).
package config
