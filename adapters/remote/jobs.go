package remote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	datagrid "github.com/tablekit/go-datagrid"
)

// Job statuses reported by the remote job resource.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// JobProgress reports completion counts of a long-running operation.
type JobProgress struct {
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	Failed     int     `json:"failed"`
	Percentage float64 `json:"percentage"`
}

type jobStatus struct {
	ID       string      `json:"id"`
	Status   string      `json:"status"`
	Progress JobProgress `json:"progress"`
	Error    string      `json:"error,omitempty"`
}

// pollJob waits for a job to finish, checking at PollInterval up to
// MaxPollAttempts times. Exhausting the attempts fails with ErrTimeout
// rather than polling indefinitely.
func (a *Adapter) pollJob(ctx context.Context, jobID string) error {
	path := fmt.Sprintf("/jobs/%s", jobID)
	for attempt := 0; attempt < a.cfg.MaxPollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(a.cfg.PollInterval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var status jobStatus
		if _, err := a.do(ctx, http.MethodGet, path, nil, &status); err != nil {
			return fmt.Errorf("poll job %s: %w", jobID, err)
		}
		a.logger.Debug("job status",
			"job", jobID,
			"status", status.Status,
			"completed", status.Progress.Completed,
			"total", status.Progress.Total)

		switch status.Status {
		case JobCompleted:
			return nil
		case JobFailed:
			return fmt.Errorf("job %s failed: %s", jobID, status.Error)
		case JobPending, JobProcessing:
			// keep polling
		default:
			return fmt.Errorf("job %s reported unknown status %q", jobID, status.Status)
		}
	}
	return fmt.Errorf("job %s still running after %d polls: %w", jobID, a.cfg.MaxPollAttempts, datagrid.ErrTimeout)
}
