// Package app contains the core application logic: it loads and validates
// the job configuration, builds API payloads, plans against the recorded
// deployment state, and applies the plan. It is decoupled from any specific
// entrypoint like a CLI.
package app
