// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/wealth-tracker/internal/api/response"
	"github.com/ndewijer/wealth-tracker/internal/validation"
)

// ValidateIDParam returns middleware that checks the named URL parameter is a
// positive integer. Returns 400 Bad Request if the id is missing or invalid.
//
// Example usage in router:
//
//	r.Route("/{accountId}", func(r chi.Router) {
//	    r.Use(middleware.ValidateIDParam("accountId"))
//	    r.Get("/", handler.GetAccount)
//	    r.Put("/", handler.UpdateAccount)
//	})
func ValidateIDParam(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, name)

			if id == "" {
				response.RespondError(w, http.StatusBadRequest, name+" is required", "")
				return
			}

			if _, err := validation.ValidateID(id); err != nil {
				response.RespondError(w, http.StatusBadRequest, "invalid "+name, err.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
