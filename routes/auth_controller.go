package routes

import (
	"net/http"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

type authResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

func Register(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := middlewares.Payload[model.RegisterRequest](r)

		user, err := app.Credentials.Register(r.Context(), req)
		if err != nil {
			httpx.LogError(w, r, "auth.register", err)
			return
		}

		token, err := app.Tokens.Issue(user.ID, user.Email)
		if err != nil {
			httpx.LogInternalError(w, r, "auth.register.token", err)
			return
		}

		httpx.WriteSuccess(w, r, http.StatusCreated, "User registered successfully", authResult{user, token})
	}
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := middlewares.Payload[model.LoginRequest](r)

		user, err := app.Credentials.ValidateUser(r.Context(), req.Email, req.Password)
		if err != nil {
			httpx.LogError(w, r, "auth.login", err)
			return
		}

		token, err := app.Tokens.Issue(user.ID, user.Email)
		if err != nil {
			httpx.LogInternalError(w, r, "auth.login.token", err)
			return
		}

		httpx.WriteSuccess(w, r, http.StatusOK, "Login successful", authResult{user, token})
	}
}

// Logout only acknowledges: tokens are stateless, the client drops its copy.
func Logout(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteSuccess(w, r, http.StatusOK, "Logged out successfully", nil)
	}
}

func Health(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := app.Store.Ping(r.Context())
		if err != nil {
			httpx.LogError(w, r, "health.db", &httpx.Error{
				Status:  http.StatusServiceUnavailable,
				Message: "Database unavailable",
				Err:     err,
			})
			return
		}
		httpx.WriteJSON(w, r, http.StatusOK, map[string]string{
			"status":  "OK",
			"message": "Server is healthy",
		})
	}
}
