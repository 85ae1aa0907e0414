package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vk/dbxdeploy/internal/client"
	"github.com/vk/dbxdeploy/internal/ctxlog"
	"github.com/vk/dbxdeploy/internal/payload"
	"github.com/vk/dbxdeploy/internal/reconcile"
	"github.com/vk/dbxdeploy/internal/state"
)

// Run executes one deployment: load, validate, plan, and — unless this is a
// dry run — apply and record the new state.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	runID := uuid.NewString()
	a.logger.Info("Deployment run starting.", "run_id", runID, "config_path", a.config.ConfigPath)

	jobs, err := a.loadJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load job configuration: %w", err)
	}
	a.logger.Info("Job configuration loaded and validated.", "jobs", len(jobs))

	builder := payload.NewBuilder(a.config.ClusterDir)
	if a.config.TimezoneID != "" {
		builder.TimezoneID = a.config.TimezoneID
	}

	desired := make([]reconcile.Desired, 0, len(jobs))
	for _, job := range jobs {
		settings, err := builder.BuildJob(ctx, job)
		if err != nil {
			return fmt.Errorf("failed to build job payload: %w", err)
		}
		desired = append(desired, reconcile.Desired{Key: job.Key, Settings: settings})
	}

	store, err := state.NewFSStore(a.config.StateDir)
	if err != nil {
		return err
	}
	snap, err := store.ReadCurrent(ctx)
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return err
	}

	remoteNames, apiClient, err := a.remoteNames(ctx, snap)
	if err != nil {
		return err
	}
	if apiClient != nil {
		defer apiClient.Close()
	}

	plan := reconcile.BuildPlan(ctx, desired, snap, remoteNames)
	a.printPlan(plan)

	if a.config.DryRun {
		a.logger.Info("Dry run: plan not applied.", "run_id", runID)
		return nil
	}
	if plan.Empty() {
		a.logger.Info("Nothing to deploy.", "run_id", runID)
		return nil
	}

	records, err := a.apply(ctx, apiClient, plan)
	if err != nil {
		return err
	}

	newSnap := state.NewSnapshot(snap, runID, records)
	if err := store.WriteHistoric(ctx, newSnap); err != nil {
		return err
	}
	if err := store.WriteCurrent(ctx, newSnap); err != nil {
		return err
	}
	a.logger.Info("Deployment run finished.", "run_id", runID, "state_version", newSnap.Metadata.Version)

	return nil
}

// remoteNames returns the job names the API currently knows. A dry run never
// touches the API: the recorded snapshot stands in for the remote side.
func (a *App) remoteNames(ctx context.Context, snap *state.Snapshot) ([]string, *client.Client, error) {
	if a.config.DryRun {
		var names []string
		if snap != nil {
			for _, record := range snap.Config {
				names = append(names, record.Settings.Name)
			}
		}
		return names, nil, nil
	}

	if a.config.Token == "" {
		return nil, nil, errors.New("a service principal token is required; set SERVICE_PRINCIPAL_TOKEN or use -dry-run")
	}

	apiClient := client.New(a.config.APIURL, a.config.Token)
	names, err := apiClient.ListJobNames(ctx)
	if err != nil {
		apiClient.Close()
		return nil, nil, err
	}
	return names, apiClient, nil
}

// apply executes the plan in delete, update, create order and returns the
// state records for the next snapshot. The first API failure aborts the run;
// state is only written after a fully successful apply, matching the
// all-or-nothing recording the deployer has always done.
func (a *App) apply(ctx context.Context, apiClient *client.Client, plan *reconcile.Plan) (map[string]*state.JobRecord, error) {
	for _, action := range plan.Deletes {
		if err := apiClient.DeleteJob(ctx, action.JobID); err != nil {
			return nil, err
		}
	}

	records := make(map[string]*state.JobRecord)
	for _, action := range plan.Unchanged {
		records[action.Key] = &state.JobRecord{JobID: action.JobID, Settings: action.Settings}
	}

	for _, action := range plan.Updates {
		if err := apiClient.ResetJob(ctx, action.JobID, action.Settings); err != nil {
			return nil, err
		}
		records[action.Key] = &state.JobRecord{JobID: action.JobID, Settings: action.Settings}
	}

	for _, action := range plan.Creates {
		jobID, err := apiClient.CreateJob(ctx, action.Settings)
		if err != nil {
			return nil, err
		}
		records[action.Key] = &state.JobRecord{JobID: jobID, Settings: action.Settings}
	}

	return records, nil
}

func (a *App) printPlan(plan *reconcile.Plan) {
	for _, action := range plan.Creates {
		fmt.Fprintf(a.outW, "create  %s\n", action.JobName)
	}
	for _, action := range plan.Updates {
		fmt.Fprintf(a.outW, "update  %s (job_id %d)\n", action.JobName, action.JobID)
	}
	for _, action := range plan.Deletes {
		fmt.Fprintf(a.outW, "delete  %s (job_id %d)\n", action.JobName, action.JobID)
	}
	for _, action := range plan.Skipped {
		fmt.Fprintf(a.outW, "skip    %s (exists remotely, not in state)\n", action.JobName)
	}
	fmt.Fprintf(a.outW, "plan: %d to create, %d to update, %d to delete, %d unchanged\n",
		len(plan.Creates), len(plan.Updates), len(plan.Deletes), len(plan.Unchanged))
}
