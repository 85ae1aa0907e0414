// Package client is a thin HTTP client for the jobs REST API: create, reset,
// delete, and list. It performs no retries — deployment is deterministic over
// static input, so a failed call is surfaced to the caller as-is.
package client
