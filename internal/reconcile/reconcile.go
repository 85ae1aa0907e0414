package reconcile

import (
	"context"
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/vk/dbxdeploy/internal/ctxlog"
	"github.com/vk/dbxdeploy/internal/payload"
	"github.com/vk/dbxdeploy/internal/state"
)

// Desired is one job as the configuration wants it.
type Desired struct {
	// Key is the workflow key the job is declared under; it is also the
	// state map key.
	Key      string
	Settings *payload.JobSettings
}

// Action is one planned operation on a single job.
type Action struct {
	Key      string
	JobName  string
	JobID    int64 // known for updates, deletes, and unchanged jobs
	Settings *payload.JobSettings
}

// Plan groups the planned operations. Creates, Updates, and Unchanged follow
// the desired declaration order; Deletes are sorted by workflow key.
type Plan struct {
	Creates   []Action
	Updates   []Action
	Deletes   []Action
	Unchanged []Action

	// Skipped lists jobs that exist remotely but have no recorded job ID, so
	// neither a create nor an update is safe. They need a manual import into
	// the state file.
	Skipped []Action
}

// Empty reports whether the plan changes nothing.
func (p *Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// BuildPlan diffs desired jobs against the recorded snapshot and the remote
// job names. snap may be nil for a first deployment.
func BuildPlan(ctx context.Context, desired []Desired, snap *state.Snapshot, remoteNames []string) *Plan {
	logger := ctxlog.FromContext(ctx)

	recorded := map[string]*state.JobRecord{}
	if snap != nil {
		recorded = snap.Config
	}
	remote := make(map[string]bool, len(remoteNames))
	for _, name := range remoteNames {
		remote[name] = true
	}

	plan := &Plan{}
	desiredKeys := make(map[string]bool, len(desired))

	for _, want := range desired {
		desiredKeys[want.Key] = true
		action := Action{Key: want.Key, JobName: want.Settings.Name, Settings: want.Settings}

		record, known := recorded[want.Key]
		switch {
		case known && remote[want.Settings.Name]:
			action.JobID = record.JobID
			if cmp.Equal(record.Settings, want.Settings) {
				plan.Unchanged = append(plan.Unchanged, action)
			} else {
				logger.Debug("Job settings drifted.", "job_name", want.Settings.Name,
					"diff", cmp.Diff(record.Settings, want.Settings))
				plan.Updates = append(plan.Updates, action)
			}
		case known:
			// Recorded but gone remotely: recreate it.
			plan.Creates = append(plan.Creates, action)
		case remote[want.Settings.Name]:
			// Exists remotely but we never deployed it, so we have no job ID
			// to update. Creating would duplicate the name.
			logger.Warn("Job exists remotely but is not in the state file; skipping.",
				"job_name", want.Settings.Name)
			plan.Skipped = append(plan.Skipped, action)
		default:
			plan.Creates = append(plan.Creates, action)
		}
	}

	// Anything recorded but no longer desired is deleted.
	for key, record := range recorded {
		if desiredKeys[key] {
			continue
		}
		plan.Deletes = append(plan.Deletes, Action{
			Key:      key,
			JobName:  record.Settings.Name,
			JobID:    record.JobID,
			Settings: record.Settings,
		})
	}
	sort.Slice(plan.Deletes, func(i, j int) bool { return plan.Deletes[i].Key < plan.Deletes[j].Key })

	logger.Info("Deployment plan computed.",
		"creates", len(plan.Creates), "updates", len(plan.Updates),
		"deletes", len(plan.Deletes), "unchanged", len(plan.Unchanged),
		"skipped", len(plan.Skipped))
	return plan
}
