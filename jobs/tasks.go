// Package jobs contains the background task handlers and the Asynq
// worker wiring.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportDaily is the task type for the daily report run.
	TaskReportDaily = "report:daily"
)

// ReportDailyPayload selects what the daily run covers. A zero
// VendeurID means every vendeur; an empty Date means the previous
// local day.
type ReportDailyPayload struct {
	VendeurID int64  `json:"vendeur_id,omitempty"`
	Date      string `json:"date,omitempty"`
}

// NewReportDailyTask constructs an Asynq task for the daily report run.
func NewReportDailyTask(payload ReportDailyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportDaily, data), nil
}
