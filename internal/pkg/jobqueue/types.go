package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeAnalyzeCard      JobType = "analyze_card"
	JobTypeDeleteCardImages JobType = "delete_card_images"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// AnalyzeCardJobPayload contains the payload for card analysis jobs
type AnalyzeCardJobPayload struct {
	BusinessCardID uint     `json:"business_card_id"`
	LanguageHints  []string `json:"language_hints"`
}

// ToMap converts the payload to a map for storage
func (p AnalyzeCardJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"business_card_id": p.BusinessCardID,
		"language_hints":   p.LanguageHints,
	}
}

// AnalyzeCardJobPayloadFromMap creates a payload from a map
func AnalyzeCardJobPayloadFromMap(data map[string]interface{}) (*AnalyzeCardJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload AnalyzeCardJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// DeleteCardImagesJobPayload contains the payload for image cleanup jobs
type DeleteCardImagesJobPayload struct {
	BusinessCardID uint     `json:"business_card_id"`
	ObjectKeys     []string `json:"object_keys"`
}

// ToMap converts the payload to a map for storage
func (p DeleteCardImagesJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"business_card_id": p.BusinessCardID,
		"object_keys":      p.ObjectKeys,
	}
}

// DeleteCardImagesJobPayloadFromMap creates a payload from a map
func DeleteCardImagesJobPayloadFromMap(data map[string]interface{}) (*DeleteCardImagesJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload DeleteCardImagesJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
