package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLeadNotify e-mails the venue about a new quote request.
	TaskLeadNotify = "lead:notify"
	// TaskQuotePDF renders and stores the quote PDF of one lead version.
	TaskQuotePDF = "lead:render-pdf"
	// TaskIdempotencyCleanup purges expired submission keys.
	TaskIdempotencyCleanup = "maintenance:idempotency-cleanup"
)

// LeadNotifyPayload identifies the lead to announce.
type LeadNotifyPayload struct {
	LeadID string `json:"lead_id"`
}

// QuotePDFPayload identifies the lead version to render.
type QuotePDFPayload struct {
	LeadID  string `json:"lead_id"`
	Version int    `json:"version"`
}

// IdempotencyCleanupPayload sets how long submission keys are kept.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// Retention returns the retention window, defaulting to seven days.
func (p IdempotencyCleanupPayload) Retention() time.Duration {
	if p.RetentionHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(p.RetentionHours) * time.Hour
}

// NewLeadNotifyTask constructs a lead notification task.
func NewLeadNotifyTask(leadID string) (*asynq.Task, error) {
	if leadID == "" {
		return nil, errors.New("jobs: lead id required")
	}
	data, err := json.Marshal(LeadNotifyPayload{LeadID: leadID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadNotify, data), nil
}

// NewQuotePDFTask constructs a quote rendering task. Its task id is unique per lead version.
func NewQuotePDFTask(leadID string, version int) (*asynq.Task, error) {
	if leadID == "" || version <= 0 {
		return nil, fmt.Errorf("jobs: invalid quote pdf target %q v%d", leadID, version)
	}
	data, err := json.Marshal(QuotePDFPayload{LeadID: leadID, Version: version})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotePDF, data, asynq.TaskID(quotePDFTaskID(leadID, version))), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

func quotePDFTaskID(leadID string, version int) string {
	return fmt.Sprintf("quote-pdf:%s:v%d", leadID, version)
}
