package service

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Statuses lists every job status in lifecycle order.
var Statuses = []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// UploadRequest describes a new upload job.
type UploadRequest struct {
	Directory string
	// Pattern overrides the manager's file pattern when set.
	Pattern         string
	Limit           int
	Skip            int
	BatchSize       int
	IncludeMetadata bool
	Pin             bool
}

// MetadataResult is the outcome of the metadata document uploaded for one image.
type MetadataResult struct {
	CID      string
	Error    string
	Attempts int
}

type FileUploadResult struct {
	Path     string
	Outcome  Outcome
	CID      string
	Error    string
	Attempts int
	Metadata *MetadataResult
}

type Job struct {
	ID               string
	Status           Status
	Directory        string
	Total            int
	Completed        int
	Failed           int
	Results          []FileUploadResult
	RateLimitHits    int
	BatchSize        int
	TotalBatches     int
	CompletedBatches int
	IncludeMetadata  bool
	Pin              bool
	ManifestCID      string
	Pinned           bool
	PinError         string
	Error            string
	CreatedAt        time.Time
	CompletedAt      *time.Time
}

// clone returns a copy of j sharing no memory with it.
func (j *Job) clone() *Job {
	c := *j
	if j.Results != nil {
		c.Results = make([]FileUploadResult, len(j.Results))
		copy(c.Results, j.Results)
		for i := range c.Results {
			if m := c.Results[i].Metadata; m != nil {
				mc := *m
				c.Results[i].Metadata = &mc
			}
		}
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
