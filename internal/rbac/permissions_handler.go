package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-orders/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-orders/internal/shared"
)

// PermissionsHandler exposes the caller's effective permissions.
type PermissionsHandler struct {
	policy *Policy
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(policy *Policy) *PermissionsHandler {
	return &PermissionsHandler{policy: policy}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/me", h.me)
}

func (h *PermissionsHandler) me(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	httpx.OK(w, "", map[string]any{
		"actor":       actor,
		"permissions": h.policy.EffectivePermissions(actor),
	})
}
