package v1alpha1

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"github.com/x402punks/punk-pinner/api/v1alpha1"
	"github.com/x402punks/punk-pinner/internal/auth"
	"github.com/x402punks/punk-pinner/internal/batch"
	"github.com/x402punks/punk-pinner/internal/files"
	"github.com/x402punks/punk-pinner/internal/handlers/v1alpha1/mappers"
	"github.com/x402punks/punk-pinner/internal/service"
	"github.com/x402punks/punk-pinner/pkg/requestid"
)

// (POST /upload-x402)
func (h *ServiceHandler) UploadX402(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("job_handler").With("request_id", requestid.FromRequest(r))
	if user, ok := auth.UserFromContext(r.Context()); ok {
		logger = logger.With("user", user.Username)
	}

	var form v1alpha1.UploadRequest
	// an empty body selects every default
	if err := render.DecodeJSON(r.Body, &form); err != nil && !errors.Is(err, io.EOF) {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	if err := h.validator.Struct(form); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, err := mappers.UploadRequestFromApi(form, h.prefix)
	if err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.jobSrv.Create(r.Context(), req)
	if err != nil {
		var (
			notFound       *files.ErrDirectoryNotFound
			invalidBatch   *batch.ErrInvalidBatchSize
			invalidLimit   *service.ErrInvalidLimit
			invalidPattern *service.ErrInvalidPattern
		)
		switch {
		case errors.As(err, &notFound):
			renderError(w, r, http.StatusNotFound, err.Error())
		case errors.As(err, &invalidBatch), errors.As(err, &invalidLimit), errors.As(err, &invalidPattern):
			renderError(w, r, http.StatusBadRequest, err.Error())
		default:
			logger.Errorw("failed to create job", "error", err)
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create job: %v", err))
		}
		return
	}

	logger.Infow("upload job accepted", "job_id", id)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, v1alpha1.UploadAccepted{JobId: id, Status: v1alpha1.JobStatusPending})
}

// (GET /jobs)
func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, mappers.JobListToApi(h.jobSrv.List()))
}

// (GET /jobs/{job_id})
func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobSrv.Get(chi.URLParam(r, "job_id"))
	if err != nil {
		h.renderJobError(w, r, err)
		return
	}
	render.JSON(w, r, mappers.JobToApi(job))
}

// (DELETE /jobs/{job_id})
func (h *ServiceHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "job_id")
	if err := h.jobSrv.Remove(id); err != nil {
		h.renderJobError(w, r, err)
		return
	}
	render.JSON(w, r, v1alpha1.JobRemoved{Removed: id})
}

func (h *ServiceHandler) renderJobError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *service.ErrJobNotFound
	if errors.As(err, &notFound) {
		renderError(w, r, http.StatusNotFound, err.Error())
		return
	}
	zap.S().Named("job_handler").Errorw("job request failed", "error", err, "request_id", requestid.FromRequest(r))
	renderError(w, r, http.StatusInternalServerError, err.Error())
}
