package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

// JobCounter reports how many registered jobs are in each status.
type JobCounter interface {
	CountByStatus() map[string]int
}

// JobStatusUpdater refreshes the job status gauge on a jittered interval.
type JobStatusUpdater struct {
	counter  JobCounter
	interval time.Duration
	statuses []string
}

func NewJobStatusUpdater(counter JobCounter, interval time.Duration, statuses ...string) *JobStatusUpdater {
	return &JobStatusUpdater{counter: counter, interval: interval, statuses: statuses}
}

// Update sets the gauge once. Known statuses without jobs are reported as zero.
func (u *JobStatusUpdater) Update() {
	counts := u.counter.CountByStatus()
	for _, status := range u.statuses {
		UpdateJobStatusMetric(status, counts[status])
	}
	for status, count := range counts {
		UpdateJobStatusMetric(status, count)
	}
}

// Run updates the gauge until ctx is done.
func (u *JobStatusUpdater) Run(ctx context.Context) {
	if u.interval <= 0 {
		panic(fmt.Sprintf("invalid job status update interval: %s", u.interval))
	}

	ticker := jitterbug.New(u.interval, &jitterbug.Norm{Stdev: 30 * time.Millisecond, Mean: 0})
	defer ticker.Stop()

	u.Update()
	for {
		select {
		case <-ctx.Done():
			zap.S().Named("job_status_updater").Debug("job status updater stopped")
			return
		case <-ticker.C:
			u.Update()
		}
	}
}
