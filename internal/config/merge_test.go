package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepMerge(t *testing.T) {
	t.Run("local fields win over defaults", func(t *testing.T) {
		defaults := map[string]any{"tasktype": "NOTEBOOK", "timeout_seconds": 600}
		override := map[string]any{"tasktype": "PYTHON"}

		merged := deepMerge(defaults, override)
		assert.Equal(t, "PYTHON", merged["tasktype"])
		assert.Equal(t, 600, merged["timeout_seconds"])
	})

	t.Run("nested maps are merged key-wise", func(t *testing.T) {
		defaults := map[string]any{
			"gcp_connection": map[string]any{
				"project_id":            "acme-data",
				"service_account_email": "deployer@acme-data.iam.gserviceaccount.com",
			},
		}
		override := map[string]any{
			"gcp_connection": map[string]any{
				"project_id": "acme-data-eu",
			},
		}

		merged := deepMerge(defaults, override)
		conn := merged["gcp_connection"].(map[string]any)
		assert.Equal(t, "acme-data-eu", conn["project_id"])
		assert.Equal(t, "deployer@acme-data.iam.gserviceaccount.com", conn["service_account_email"])
	})

	t.Run("non-map override replaces a map default wholesale", func(t *testing.T) {
		defaults := map[string]any{"gcp_connection": map[string]any{"project_id": "acme-data"}}
		override := map[string]any{"gcp_connection": "disabled"}

		merged := deepMerge(defaults, override)
		assert.Equal(t, "disabled", merged["gcp_connection"])
	})

	t.Run("sequences are replaced, not concatenated", func(t *testing.T) {
		defaults := map[string]any{"email_on_failure": []any{"a@acme.example"}}
		override := map[string]any{"email_on_failure": []any{"b@acme.example"}}

		merged := deepMerge(defaults, override)
		assert.Equal(t, []any{"b@acme.example"}, merged["email_on_failure"])
	})

	t.Run("inputs are not mutated and outputs do not alias them", func(t *testing.T) {
		defaults := map[string]any{
			"gcp_connection": map[string]any{"project_id": "acme-data"},
			"emails":         []any{"a@acme.example"},
		}
		override := map[string]any{}

		merged := deepMerge(defaults, override)
		merged["gcp_connection"].(map[string]any)["project_id"] = "changed"
		merged["emails"].([]any)[0] = "changed@acme.example"

		assert.Equal(t, "acme-data", defaults["gcp_connection"].(map[string]any)["project_id"])
		assert.Equal(t, "a@acme.example", defaults["emails"].([]any)[0])
	})

	t.Run("nil defaults", func(t *testing.T) {
		merged := deepMerge(nil, map[string]any{"task_name": "api"})
		assert.Equal(t, map[string]any{"task_name": "api"}, merged)
	})
}
