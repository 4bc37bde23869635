package mappers

import (
	"github.com/x402punks/punk-pinner/api/v1alpha1"
	"github.com/x402punks/punk-pinner/internal/batch"
	"github.com/x402punks/punk-pinner/internal/service"
)

// UploadRequestFromApi maps the request body to a job request. Files are selected
// with <prefix>_*.png, defaultPrefix being used when the body names no prefix.
func UploadRequestFromApi(form v1alpha1.UploadRequest, defaultPrefix string) (service.UploadRequest, error) {
	prefix := form.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	req := service.UploadRequest{
		Directory:       form.Directory,
		IncludeMetadata: form.IncludeMetadata,
		Pin:             form.Pin,
	}
	if prefix != "" {
		req.Pattern = prefix + "_*.png"
	}
	if form.Limit != nil {
		req.Limit = *form.Limit
	}
	if form.Skip != nil {
		req.Skip = *form.Skip
	}
	if form.BatchSize != nil {
		// the job manager reads zero as the default size, an explicit zero is invalid here
		if *form.BatchSize <= 0 {
			return req, batch.NewErrInvalidBatchSize(*form.BatchSize)
		}
		req.BatchSize = *form.BatchSize
	}
	return req, nil
}
