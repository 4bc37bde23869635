package events

// JobEvent is the payload of every job lifecycle event.
type JobEvent struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	Directory     string `json:"directory"`
	Total         int    `json:"total"`
	Completed     int    `json:"completed"`
	Failed        int    `json:"failed"`
	RateLimitHits int    `json:"rate_limit_hits"`
	Error         string `json:"error,omitempty"`
}
