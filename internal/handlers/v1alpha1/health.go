package v1alpha1

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/x402punks/punk-pinner/api/v1alpha1"
)

// (GET /health)
func Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, v1alpha1.Health{Status: "ok"})
}
