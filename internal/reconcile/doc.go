// Package reconcile computes the deployment plan: given the desired jobs
// built from config, the last recorded snapshot, and the job names the API
// currently knows, it sorts every job into create, update, delete, or
// unchanged. The plan is purely computed; applying it is the app's job.
package reconcile
