package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/timeclock-reconciler/internal/domain/auth"
	"github.com/cmlabs-hris/timeclock-reconciler/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireOperator requires the operator role
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrOperatorAccessRequired)
			return
		}

		role, ok := claims["role"].(string)
		if !ok || role != auth.RoleOperator {
			response.HandleError(w, auth.ErrOperatorAccessRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
