package v1alpha1

import (
	"time"
)

type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

type UploadOutcome string

const (
	UploadOutcomeSuccess UploadOutcome = "success"
	UploadOutcomeFailed  UploadOutcome = "failed"
)

// UploadRequest is the body of POST /upload-x402.
type UploadRequest struct {
	// Directory holding the images. Defaults to the configured output directory.
	Directory string `json:"directory,omitempty" validate:"omitempty,directory"`
	// Prefix selects the files named <prefix>_*.png. Defaults to the configured prefix.
	Prefix          string `json:"prefix,omitempty" validate:"omitempty,punk_prefix"`
	Limit           *int   `json:"limit,omitempty"`
	Skip            *int   `json:"skip,omitempty"`
	BatchSize       *int   `json:"batch_size,omitempty"`
	IncludeMetadata bool   `json:"include_metadata,omitempty"`
	Pin             bool   `json:"pin,omitempty"`
}

type UploadAccepted struct {
	JobId  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

type MetadataResult struct {
	Cid      *string `json:"cid,omitempty"`
	Error    *string `json:"error,omitempty"`
	Attempts int     `json:"attempts"`
}

type FileUploadResult struct {
	Path     string          `json:"path"`
	Outcome  UploadOutcome   `json:"outcome"`
	Cid      *string         `json:"cid,omitempty"`
	Error    *string         `json:"error,omitempty"`
	Attempts int             `json:"attempts"`
	Metadata *MetadataResult `json:"metadata,omitempty"`
}

type Job struct {
	Id               string             `json:"id"`
	Status           JobStatus          `json:"status"`
	Directory        string             `json:"directory"`
	Total            int                `json:"total"`
	Completed        int                `json:"completed"`
	Failed           int                `json:"failed"`
	RateLimitHits    int                `json:"rate_limit_hits"`
	BatchSize        int                `json:"batch_size"`
	TotalBatches     int                `json:"total_batches"`
	CompletedBatches int                `json:"completed_batches"`
	IncludeMetadata  bool               `json:"include_metadata"`
	Pin              bool               `json:"pin"`
	ManifestCid      *string            `json:"manifest_cid,omitempty"`
	Pinned           bool               `json:"pinned"`
	PinError         *string            `json:"pin_error,omitempty"`
	Error            *string            `json:"error,omitempty"`
	Results          []FileUploadResult `json:"results"`
	CreatedAt        time.Time          `json:"created_at"`
	CompletedAt      *time.Time         `json:"completed_at"`
}

type JobList []Job

type JobRemoved struct {
	Removed string `json:"removed"`
}

type Health struct {
	Status string `json:"status"`
}

type Error struct {
	Message   string  `json:"message"`
	RequestId *string `json:"request_id,omitempty"`
}
