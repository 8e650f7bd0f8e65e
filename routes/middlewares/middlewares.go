package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/ajg/form"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/validation"
)

var (
	errNoToken      = httpx.Unauthenticated("Authentication required. Please log in.")
	errBadToken     = httpx.Unauthenticated("Invalid or expired token.")
	errUserRevoked  = httpx.Unauthenticated("User no longer exists.")
	errBadBody      = httpx.ValidationFailed("Validation failed: body: must be a JSON object")
	errNoFormID     = httpx.ValidationFailed("Form ID missing")
	errNotLoggedIn  = httpx.Unauthenticated("Authentication required")
	errInvalidQuery = httpx.ValidationFailed("Validation failed: query: malformed parameters")
)

// Authenticate lets the request through only with a valid bearer token of an
// existing user, who is then available through httpx.UserFrom.
func Authenticate(app app.App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := jwtauth.TokenFromHeader(r)
			if token == "" {
				httpx.LogError(w, r, "auth.bearer", errNoToken)
				return
			}

			id, err := app.Tokens.Verify(token)
			if err != nil {
				httpx.LogError(w, r, "auth.verify", errBadToken)
				return
			}

			user, err := app.Store.GetUserByID(r.Context(), id.ID)
			if errors.Is(err, database.ErrNotFound) {
				httpx.LogError(w, r, "auth.user", errUserRevoked)
				return
			}
			if err != nil {
				httpx.LogInternalError(w, r, "db.get_user", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(httpx.WithUser(r.Context(), user)))
		})
	}
}

// FormOwner must come after Authenticate: it rejects requests on forms
// (the {form_id} URL parameter) the user does not own.
func FormOwner(app app.App) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			formID := chi.URLParam(r, "form_id")
			if formID == "" {
				httpx.LogError(w, r, "auth.form_owner.param", errNoFormID)
				return
			}
			user, ok := httpx.UserFrom(r.Context())
			if !ok {
				httpx.LogError(w, r, "auth.form_owner.user", errNotLoggedIn)
				return
			}

			err := app.Forms.Authorize(r.Context(), formID, user.ID)
			if err != nil {
				httpx.LogError(w, r, "auth.form_owner", err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type payloadKey[T any] struct{}

// ValidateBody decodes the JSON body into a T, normalizes and validates it.
// A value of the wrong JSON type is reported by its field path.
// Handlers read the result with Payload.
func ValidateBody[T any](next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload T
		err := render.DecodeJSON(r.Body, &payload)
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			log.Debugf("request.parse_body: %s", err)
			httpx.LogError(w, r, "request.parse_body", httpx.ValidationFailed("Validation failed: %s: has the wrong type", typeErr.Field))
			return
		}
		if err != nil {
			httpx.LogError(w, r, "request.parse_body", errBadBody)
			return
		}
		serveValidated(w, r, next, &payload)
	})
}

// ValidateQuery decodes the query string into a T (built with its defaults),
// normalizes and validates it. Handlers read the result with Payload.
func ValidateQuery[T any](next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload T
		if d, ok := any(&payload).(interface{ SetDefaults() }); ok {
			d.SetDefaults()
		}
		dec := form.NewDecoder(nil)
		dec.IgnoreUnknownKeys(true)
		err := dec.DecodeValues(&payload, r.URL.Query())
		if err != nil {
			log.Debugf("request.parse_query: %s", err)
			httpx.LogError(w, r, "request.parse_query", errInvalidQuery)
			return
		}
		serveValidated(w, r, next, &payload)
	})
}

func serveValidated[T any](w http.ResponseWriter, r *http.Request, next http.Handler, payload *T) {
	if n, ok := any(payload).(interface{ Normalize() }); ok {
		n.Normalize()
	}

	err := validation.Struct(payload)
	if err != nil {
		var v *validation.Violations
		if errors.As(err, &v) {
			httpx.LogError(w, r, "request.validate", httpx.ValidationFailed("%s", v.Error()))
		} else {
			httpx.LogInternalError(w, r, "request.validate", err)
		}
		return
	}

	ctx := context.WithValue(r.Context(), payloadKey[T]{}, *payload)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// Payload returns the value stored by ValidateBody or ValidateQuery.
func Payload[T any](r *http.Request) T {
	payload, _ := r.Context().Value(payloadKey[T]{}).(T)
	return payload
}

// Recover turns panics into a 500 error response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.WithFields(log.Fields{"stack": string(debug.Stack())}).Debug("recovered panic")
			httpx.LogError(w, r, "panic", httpx.Internal(fmt.Errorf("%v", rec)))
		}()

		next.ServeHTTP(w, r)
	})
}
