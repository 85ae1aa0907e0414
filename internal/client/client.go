package client

import (
	"context"
	"fmt"

	"resty.dev/v3"

	"github.com/vk/dbxdeploy/internal/ctxlog"
	"github.com/vk/dbxdeploy/internal/payload"
)

// Jobs API 2.0 endpoints.
const (
	createEndpoint = "/api/2.0/jobs/create"
	resetEndpoint  = "/api/2.0/jobs/reset"
	deleteEndpoint = "/api/2.0/jobs/delete"
	listEndpoint   = "/api/2.0/jobs/list"
)

// Client talks to the jobs REST API with service-principal bearer auth.
type Client struct {
	http *resty.Client
}

// New returns a Client for the API at baseURL, authenticating every request
// with the given service-principal token.
func New(baseURL, token string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token)
	return &Client{http: httpClient}
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.http.Close()
}

type createResponse struct {
	JobID int64 `json:"job_id"`
}

// CreateJob registers a new job and returns the ID the API assigned it.
func (c *Client) CreateJob(ctx context.Context, settings *payload.JobSettings) (int64, error) {
	logger := ctxlog.FromContext(ctx)

	var created createResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(settings).
		SetResult(&created).
		Post(createEndpoint)
	if err != nil {
		return 0, fmt.Errorf("create job %q: %w", settings.Name, err)
	}
	if !res.IsSuccess() {
		return 0, fmt.Errorf("create job %q: unexpected status %d: %s", settings.Name, res.StatusCode(), res.String())
	}
	if created.JobID == 0 {
		return 0, fmt.Errorf("create job %q: no job ID returned", settings.Name)
	}

	logger.Info("Created job.", "job_name", settings.Name, "job_id", created.JobID)
	return created.JobID, nil
}

type resetRequest struct {
	JobID       int64                `json:"job_id"`
	NewSettings *payload.JobSettings `json:"new_settings"`
}

// ResetJob overwrites all settings of an existing job.
func (c *Client) ResetJob(ctx context.Context, jobID int64, settings *payload.JobSettings) error {
	logger := ctxlog.FromContext(ctx)

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(resetRequest{JobID: jobID, NewSettings: settings}).
		Post(resetEndpoint)
	if err != nil {
		return fmt.Errorf("reset job %d: %w", jobID, err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("reset job %d: unexpected status %d: %s", jobID, res.StatusCode(), res.String())
	}

	logger.Info("Updated job.", "job_name", settings.Name, "job_id", jobID)
	return nil
}

type deleteRequest struct {
	JobID int64 `json:"job_id"`
}

// DeleteJob removes a job by ID.
func (c *Client) DeleteJob(ctx context.Context, jobID int64) error {
	logger := ctxlog.FromContext(ctx)

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(deleteRequest{JobID: jobID}).
		Post(deleteEndpoint)
	if err != nil {
		return fmt.Errorf("delete job %d: %w", jobID, err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("delete job %d: unexpected status %d: %s", jobID, res.StatusCode(), res.String())
	}

	logger.Info("Deleted job.", "job_id", jobID)
	return nil
}

type listResponse struct {
	Jobs []struct {
		JobID    int64 `json:"job_id"`
		Settings struct {
			Name string `json:"name"`
		} `json:"settings"`
	} `json:"jobs"`
	NextPageToken string `json:"next_page_token"`
}

// ListJobNames returns the names of all jobs known to the API, following
// page_token pagination to the end.
func (c *Client) ListJobNames(ctx context.Context) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	var names []string
	pageToken := ""
	for {
		req := c.http.R().SetContext(ctx)
		if pageToken != "" {
			req.SetQueryParam("page_token", pageToken)
		}

		var page listResponse
		res, err := req.SetResult(&page).Get(listEndpoint)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		if !res.IsSuccess() {
			return nil, fmt.Errorf("list jobs: unexpected status %d: %s", res.StatusCode(), res.String())
		}

		for _, job := range page.Jobs {
			names = append(names, job.Settings.Name)
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	logger.Debug("Listed jobs.", "count", len(names))
	return names, nil
}
