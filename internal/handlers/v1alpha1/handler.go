package v1alpha1

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/x402punks/punk-pinner/api/v1alpha1"
	"github.com/x402punks/punk-pinner/internal/handlers/validator"
	"github.com/x402punks/punk-pinner/internal/service"
	"github.com/x402punks/punk-pinner/pkg/requestid"
)

// JobService is the part of the job manager exposed over HTTP.
type JobService interface {
	Create(ctx context.Context, req service.UploadRequest) (string, error)
	Get(id string) (*service.Job, error)
	List() []*service.Job
	Remove(id string) error
}

type ServiceHandler struct {
	jobSrv    JobService
	validator *validator.Validator
	prefix    string
}

// NewServiceHandler returns the handler of the job API. prefix is the default
// image name prefix used when a request does not name one.
func NewServiceHandler(jobService JobService, prefix string) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewUploadValidationRules()...)

	return &ServiceHandler{
		jobSrv:    jobService,
		validator: v,
		prefix:    prefix,
	}
}

// Routes mounts the job API on r.
func (h *ServiceHandler) Routes(r chi.Router) {
	r.Post("/upload-x402", h.UploadX402)
	r.Get("/jobs", h.ListJobs)
	r.Get("/jobs/{job_id}", h.GetJob)
	r.Delete("/jobs/{job_id}", h.DeleteJob)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := v1alpha1.Error{Message: message}
	if id := requestid.FromRequest(r); id != "" {
		resp.RequestId = &id
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
