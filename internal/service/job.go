package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/x402punks/punk-pinner/internal/batch"
	"github.com/x402punks/punk-pinner/internal/events"
	"github.com/x402punks/punk-pinner/internal/files"
	"github.com/x402punks/punk-pinner/internal/metadata"
	"github.com/x402punks/punk-pinner/internal/pinning"
	"github.com/x402punks/punk-pinner/internal/retry"
	"github.com/x402punks/punk-pinner/pkg/metrics"
)

const (
	DefaultBatchSize  = 25
	DefaultBatchPause = 1500 * time.Millisecond
	DefaultPattern    = "x402Punk_*.png"
)

// Publisher receives job lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, kind string, payload any) error
}

type JobManagerOption func(m *JobManager)

func WithBatchSize(size int) JobManagerOption {
	return func(m *JobManager) {
		m.batchSize = size
	}
}

func WithBatchPause(pause time.Duration) JobManagerOption {
	return func(m *JobManager) {
		m.batchPause = pause
	}
}

// WithPattern sets the glob used to select files when a request has none.
func WithPattern(pattern string) JobManagerOption {
	return func(m *JobManager) {
		m.pattern = pattern
	}
}

// WithDefaultDirectory sets the directory used when a request has none.
func WithDefaultDirectory(dir string) JobManagerOption {
	return func(m *JobManager) {
		m.defaultDirectory = dir
	}
}

func WithPublisher(p Publisher) JobManagerOption {
	return func(m *JobManager) {
		m.publisher = p
	}
}

// WithSleeper replaces the wait between two batches.
func WithSleeper(s retry.Sleeper) JobManagerOption {
	return func(m *JobManager) {
		m.sleep = s
	}
}

type jobRecord struct {
	lock sync.RWMutex
	job  Job
}

func (r *jobRecord) update(fn func(j *Job)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	fn(&r.job)
}

func (r *jobRecord) snapshot() *Job {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.job.clone()
}

// JobManager owns the upload jobs. Each job is driven by its own goroutine which is
// the only writer of the job record; readers get deep copies.
type JobManager struct {
	client           pinning.Client
	policy           *retry.Policy
	batchSize        int
	batchPause       time.Duration
	pattern          string
	defaultDirectory string
	publisher        Publisher
	sleep            retry.Sleeper

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	lock sync.RWMutex
	jobs map[string]*jobRecord
}

func NewJobManager(client pinning.Client, policy *retry.Policy, opts ...JobManagerOption) *JobManager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &JobManager{
		client:     client,
		policy:     policy,
		batchSize:  DefaultBatchSize,
		batchPause: DefaultBatchPause,
		pattern:    DefaultPattern,
		sleep:      retry.Sleep,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]*jobRecord),
	}
	if m.policy == nil {
		m.policy = retry.DefaultPolicy()
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

// Create registers a pending job and starts uploading in the background.
// Invalid requests and missing directories are reported before any job exists.
func (m *JobManager) Create(ctx context.Context, req UploadRequest) (string, error) {
	req, err := m.normalize(req)
	if err != nil {
		return "", err
	}

	select {
	case <-m.ctx.Done():
		return "", errors.New("job manager is shut down")
	default:
	}

	rec := newJobRecord(req)
	id := rec.job.ID

	m.lock.Lock()
	m.jobs[id] = rec
	m.lock.Unlock()

	zap.S().Named("job_manager").Infow("job created", "job_id", id, "directory", req.Directory, "batch_size", req.BatchSize, "limit", req.Limit, "backend", m.client.Name())
	m.publish(ctx, events.JobCreatedKind, rec)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(m.ctx, rec, req)
	}()

	return id, nil
}

// Get returns a snapshot of the job.
func (m *JobManager) Get(id string) (*Job, error) {
	m.lock.RLock()
	rec, found := m.jobs[id]
	m.lock.RUnlock()

	if !found {
		return nil, NewErrJobNotFound(id)
	}
	return rec.snapshot(), nil
}

// List returns snapshots of every registered job, oldest first.
func (m *JobManager) List() []*Job {
	m.lock.RLock()
	records := make([]*jobRecord, 0, len(m.jobs))
	for _, rec := range m.jobs {
		records = append(records, rec)
	}
	m.lock.RUnlock()

	jobs := make([]*Job, 0, len(records))
	for _, rec := range records {
		jobs = append(jobs, rec.snapshot())
	}
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs
}

// Remove forgets the job. A running job keeps uploading but can no longer be queried.
func (m *JobManager) Remove(id string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if _, found := m.jobs[id]; !found {
		return NewErrJobNotFound(id)
	}
	delete(m.jobs, id)

	zap.S().Named("job_manager").Infow("job removed", "job_id", id)
	return nil
}

// CountByStatus reports the number of registered jobs per status.
func (m *JobManager) CountByStatus() map[string]int {
	counts := make(map[string]int, len(Statuses))
	for _, j := range m.List() {
		counts[string(j.Status)]++
	}
	return counts
}

// Shutdown interrupts every running job and waits for their goroutines to return.
// Files that were not uploaded yet are recorded as failed.
func (m *JobManager) Shutdown(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.S().Named("job_manager").Info("job manager stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to stop running jobs: %w", ctx.Err())
	}
}

// Run uploads the request synchronously and returns the terminal job.
// The job is not registered.
func (m *JobManager) Run(ctx context.Context, req UploadRequest) (*Job, error) {
	req, err := m.normalize(req)
	if err != nil {
		return nil, err
	}

	rec := newJobRecord(req)
	m.publish(ctx, events.JobCreatedKind, rec)
	m.run(ctx, rec, req)
	return rec.snapshot(), nil
}

// normalize applies the manager defaults to req and validates it.
func (m *JobManager) normalize(req UploadRequest) (UploadRequest, error) {
	if req.BatchSize < 0 {
		return req, batch.NewErrInvalidBatchSize(req.BatchSize)
	}
	if req.BatchSize == 0 {
		req.BatchSize = m.batchSize
	}
	if req.Limit < 0 {
		return req, NewErrInvalidLimit("limit", req.Limit)
	}
	if req.Skip < 0 {
		return req, NewErrInvalidLimit("skip", req.Skip)
	}
	if req.Pattern == "" {
		req.Pattern = m.pattern
	}
	if _, err := filepath.Match(req.Pattern, ""); err != nil {
		return req, NewErrInvalidPattern(req.Pattern, err)
	}
	if req.Directory == "" {
		req.Directory = m.defaultDirectory
	}
	if err := files.CheckDirectory(req.Directory); err != nil {
		return req, err
	}
	return req, nil
}

func newJobRecord(req UploadRequest) *jobRecord {
	return &jobRecord{job: Job{
		ID:              uuid.NewString(),
		Status:          StatusPending,
		Directory:       req.Directory,
		BatchSize:       req.BatchSize,
		IncludeMetadata: req.IncludeMetadata,
		Pin:             req.Pin,
		CreatedAt:       time.Now(),
	}}
}

func (m *JobManager) run(ctx context.Context, rec *jobRecord, req UploadRequest) {
	logger := zap.S().Named("job_manager").With("job_id", rec.job.ID)

	paths, err := files.List(req.Directory, files.Options{
		Pattern: req.Pattern,
		Exclude: []string{metadata.FileName},
		Skip:    req.Skip,
		Limit:   req.Limit,
	})
	if err != nil {
		m.fail(ctx, rec, fmt.Errorf("failed to list files: %w", err))
		return
	}

	var collection *metadata.Collection
	if req.IncludeMetadata {
		if collection, err = metadata.Load(req.Directory); err != nil {
			m.fail(ctx, rec, err)
			return
		}
	}

	batches, err := batch.Split(paths, req.BatchSize)
	if err != nil {
		m.fail(ctx, rec, err)
		return
	}

	rec.update(func(j *Job) {
		j.Status = StatusRunning
		j.Total = len(paths)
		j.TotalBatches = len(batches)
		j.Results = make([]FileUploadResult, 0, len(paths))
	})
	logger.Infow("job running", "total", len(paths), "batches", len(batches))
	m.publish(ctx, events.JobRunningKind, rec)

	for i, b := range batches {
		for _, path := range b {
			result := m.uploadFile(ctx, rec, path, collection)
			rec.update(func(j *Job) {
				j.Results = append(j.Results, result)
				if result.Outcome == OutcomeSuccess {
					j.Completed++
				} else {
					j.Failed++
				}
			})
			if result.Outcome == OutcomeFailed {
				logger.Warnw("file upload failed", "path", path, "attempts", result.Attempts, "error", result.Error)
			}
		}

		rec.update(func(j *Job) { j.CompletedBatches++ })
		logger.Debugw("batch done", "batch", i+1, "batches", len(batches))

		if i < len(batches)-1 && ctx.Err() == nil {
			// the next uploads see the cancellation and are recorded as failed
			_ = m.sleep(ctx, m.batchPause)
		}
	}

	if req.Pin && ctx.Err() == nil {
		m.pinManifest(ctx, rec)
	}

	now := time.Now()
	rec.update(func(j *Job) {
		j.Status = StatusCompleted
		j.CompletedAt = &now
	})
	snapshot := rec.snapshot()
	logger.Infow("job completed", "completed", snapshot.Completed, "failed", snapshot.Failed, "rate_limit_hits", snapshot.RateLimitHits)
	m.publish(ctx, events.JobCompletedKind, rec)
}

func (m *JobManager) uploadFile(ctx context.Context, rec *jobRecord, path string, collection *metadata.Collection) FileUploadResult {
	result := FileUploadResult{Path: path}
	if err := ctx.Err(); err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result
	}

	outcome := m.upload(ctx, rec, metrics.KindImage, func(ctx context.Context) (*pinning.Pin, error) {
		return m.client.Upload(ctx, path)
	})
	result.Attempts = outcome.Attempts
	if !outcome.Succeeded() {
		result.Outcome = OutcomeFailed
		result.Error = outcome.Err.Error()
		return result
	}
	result.Outcome = OutcomeSuccess
	result.CID = outcome.Value.CID

	if collection != nil {
		result.Metadata = m.uploadMetadata(ctx, rec, path, result.CID, collection)
	}
	return result
}

func (m *JobManager) uploadMetadata(ctx context.Context, rec *jobRecord, path, cid string, collection *metadata.Collection) *MetadataResult {
	doc, err := collection.ForImage(path, cid)
	if err != nil {
		return &MetadataResult{Error: err.Error()}
	}

	name := metadata.DocumentName(path)
	outcome := m.upload(ctx, rec, metrics.KindMetadata, func(ctx context.Context) (*pinning.Pin, error) {
		return m.client.UploadJSON(ctx, name, doc)
	})
	if !outcome.Succeeded() {
		return &MetadataResult{Error: outcome.Err.Error(), Attempts: outcome.Attempts}
	}
	return &MetadataResult{CID: outcome.Value.CID, Attempts: outcome.Attempts}
}

// pinManifest uploads the list of uploaded files and pins it. The manifest CID is the
// aggregate identifier of the job. Failures are recorded but never fail the job.
func (m *JobManager) pinManifest(ctx context.Context, rec *jobRecord) {
	snapshot := rec.snapshot()
	manifest := metadata.Manifest{Name: "x402-" + snapshot.ID}
	for _, r := range snapshot.Results {
		if r.Outcome == OutcomeSuccess {
			manifest.Files = append(manifest.Files, metadata.ManifestEntry{Name: filepath.Base(r.Path), CID: r.CID})
		}
	}

	doc, err := manifest.Marshal()
	if err != nil {
		rec.update(func(j *Job) { j.PinError = err.Error() })
		return
	}

	uploaded := m.upload(ctx, rec, metrics.KindManifest, func(ctx context.Context) (*pinning.Pin, error) {
		return m.client.UploadJSON(ctx, manifest.Name+".json", doc)
	})
	if !uploaded.Succeeded() {
		rec.update(func(j *Job) { j.PinError = uploaded.Err.Error() })
		return
	}

	pinned := retry.Do(ctx, m.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.client.Pin(ctx, uploaded.Value.CID, manifest.Name)
	}, m.rateLimitHit(rec))
	metrics.AddUploadAttemptsMetric(m.client.Name(), pinned.Attempts)

	rec.update(func(j *Job) {
		j.ManifestCID = uploaded.Value.CID
		j.Pinned = pinned.Succeeded()
		if !pinned.Succeeded() {
			j.PinError = pinned.Err.Error()
		}
	})
}

func (m *JobManager) upload(ctx context.Context, rec *jobRecord, kind string, fn func(ctx context.Context) (*pinning.Pin, error)) retry.Outcome[*pinning.Pin] {
	outcome := retry.Do(ctx, m.policy, fn, m.rateLimitHit(rec))

	backend := m.client.Name()
	metrics.AddUploadAttemptsMetric(backend, outcome.Attempts)
	if outcome.Succeeded() {
		metrics.IncreaseUploadsTotalMetric(backend, kind, string(OutcomeSuccess))
	} else {
		metrics.IncreaseUploadsTotalMetric(backend, kind, string(OutcomeFailed))
	}
	return outcome
}

func (m *JobManager) rateLimitHit(rec *jobRecord) func() {
	return func() {
		rec.update(func(j *Job) { j.RateLimitHits++ })
		metrics.IncreaseRateLimitHitsMetric(m.client.Name())
	}
}

func (m *JobManager) fail(ctx context.Context, rec *jobRecord, err error) {
	now := time.Now()
	rec.update(func(j *Job) {
		j.Status = StatusFailed
		j.Error = err.Error()
		j.CompletedAt = &now
	})
	zap.S().Named("job_manager").Errorw("job failed", "job_id", rec.job.ID, "error", err)
	m.publish(ctx, events.JobFailedKind, rec)
}

func (m *JobManager) publish(ctx context.Context, kind string, rec *jobRecord) {
	if m.publisher == nil {
		return
	}

	j := rec.snapshot()
	if err := m.publisher.Publish(ctx, kind, events.JobEvent{
		JobID:         j.ID,
		Status:        string(j.Status),
		Directory:     j.Directory,
		Total:         j.Total,
		Completed:     j.Completed,
		Failed:        j.Failed,
		RateLimitHits: j.RateLimitHits,
		Error:         j.Error,
	}); err != nil {
		zap.S().Named("job_manager").Warnw("failed to publish job event", "job_id", j.ID, "kind", kind, "error", err)
	}
}
