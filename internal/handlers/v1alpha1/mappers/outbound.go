package mappers

import (
	"github.com/x402punks/punk-pinner/api/v1alpha1"
	"github.com/x402punks/punk-pinner/internal/service"
)

func JobToApi(job *service.Job) v1alpha1.Job {
	results := make([]v1alpha1.FileUploadResult, 0, len(job.Results))
	for _, r := range job.Results {
		results = append(results, FileUploadResultToApi(r))
	}

	return v1alpha1.Job{
		Id:               job.ID,
		Status:           v1alpha1.StringToJobStatus(string(job.Status)),
		Directory:        job.Directory,
		Total:            job.Total,
		Completed:        job.Completed,
		Failed:           job.Failed,
		RateLimitHits:    job.RateLimitHits,
		BatchSize:        job.BatchSize,
		TotalBatches:     job.TotalBatches,
		CompletedBatches: job.CompletedBatches,
		IncludeMetadata:  job.IncludeMetadata,
		Pin:              job.Pin,
		ManifestCid:      optional(job.ManifestCID),
		Pinned:           job.Pinned,
		PinError:         optional(job.PinError),
		Error:            optional(job.Error),
		Results:          results,
		CreatedAt:        job.CreatedAt,
		CompletedAt:      job.CompletedAt,
	}
}

func JobListToApi(jobs []*service.Job) v1alpha1.JobList {
	list := make(v1alpha1.JobList, 0, len(jobs))
	for _, j := range jobs {
		list = append(list, JobToApi(j))
	}
	return list
}

func FileUploadResultToApi(r service.FileUploadResult) v1alpha1.FileUploadResult {
	result := v1alpha1.FileUploadResult{
		Path:     r.Path,
		Outcome:  v1alpha1.StringToUploadOutcome(string(r.Outcome)),
		Cid:      optional(r.CID),
		Error:    optional(r.Error),
		Attempts: r.Attempts,
	}
	if r.Metadata != nil {
		result.Metadata = &v1alpha1.MetadataResult{
			Cid:      optional(r.Metadata.CID),
			Error:    optional(r.Metadata.Error),
			Attempts: r.Metadata.Attempts,
		}
	}
	return result
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
