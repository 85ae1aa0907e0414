package state

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vk/dbxdeploy/internal/payload"
)

// timestampLayout matches the format historic state files have always used.
const timestampLayout = "2006-01-02 15:04:05"

// Metadata identifies a snapshot: its version, when it was written, and the
// deployment run that produced it.
type Metadata struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	RunID     string `json:"run_id,omitempty"`
}

// Snapshot is one recorded deployment state.
type Snapshot struct {
	Metadata Metadata              `json:"metadata"`
	Config   map[string]*JobRecord `json:"config"`
}

// JobRecord pairs a job's deployed settings with the ID the API assigned it.
type JobRecord struct {
	JobID    int64                `json:"job_id,omitempty"`
	Settings *payload.JobSettings `json:"settings"`
}

// NewSnapshot stamps a config map with the next version after prev and the
// current time. prev may be nil for the first deployment.
func NewSnapshot(prev *Snapshot, runID string, config map[string]*JobRecord) *Snapshot {
	current := ""
	if prev != nil {
		current = prev.Metadata.Version
	}
	if config == nil {
		config = map[string]*JobRecord{}
	}
	return &Snapshot{
		Metadata: Metadata{
			Version:   NextVersion(current),
			Timestamp: time.Now().Format(timestampLayout),
			RunID:     runID,
		},
		Config: config,
	}
}

// NextVersion generates the next minor version from a "major.minor" string.
// The minor component rolls over at 9; an empty current version yields "1.0".
func NextVersion(current string) string {
	if current == "" {
		return "1.0"
	}

	parts := strings.SplitN(current, ".", 2)
	if len(parts) != 2 {
		return "1.0"
	}
	major, errMajor := strconv.Atoi(parts[0])
	minor, errMinor := strconv.Atoi(parts[1])
	if errMajor != nil || errMinor != nil {
		return "1.0"
	}

	if minor == 9 {
		major++
		minor = 0
	} else {
		minor++
	}
	return fmt.Sprintf("%d.%d", major, minor)
}
