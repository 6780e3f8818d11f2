package routehandlers

import (
	"errors"
	"net/http"

	"github.com/coreybb/bookforge/auth"
	"github.com/coreybb/bookforge/webutil"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// HandleGetCurrentUser returns the authenticated user. Clients use it to check a token.
func (h *UserHandler) HandleGetCurrentUser(w http.ResponseWriter, r *http.Request) error {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return webutil.ErrUnauthorizedWrap("", errors.New("no authenticated user in request context"))
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
	return nil
}
