package v1alpha1

func StringToJobStatus(s string) JobStatus {
	switch s {
	case string(JobStatusRunning):
		return JobStatusRunning
	case string(JobStatusCompleted):
		return JobStatusCompleted
	case string(JobStatusFailed):
		return JobStatusFailed
	default:
		return JobStatusPending
	}
}

func StringToUploadOutcome(s string) UploadOutcome {
	if s == string(UploadOutcomeSuccess) {
		return UploadOutcomeSuccess
	}
	return UploadOutcomeFailed
}
