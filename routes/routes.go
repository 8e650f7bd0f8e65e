package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

// Wire builds the HTTP handler. Background work (rate limiter sweeping)
// stops when ctx is done.
func Wire(ctx context.Context, app app.App) http.Handler {
	instrument := middlewares.NewInstrument()
	limiter := middlewares.NewRateLimiter(app.RateLimitMax, app.RateLimitWindow)
	limiter.StartSweeper(ctx, time.Minute)

	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		instrument.Handler,
		middlewares.Recover,
		limiter.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins: app.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			MaxAge:         300,
		}),
		securityHeaders,
	)
	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, http.StatusNotFound, "Route "+r.URL.Path+" not found")
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteError(w, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	root.Mount("/api", apiRouter(app))
	root.Method("GET", "/metrics", instrument.MetricsHandler())

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	authenticate := middlewares.Authenticate(app)
	formOwner := middlewares.FormOwner(app)

	api.Get("/health", Health(app))

	api.Route("/auth", func(r chi.Router) {
		r.With(middlewares.ValidateBody[model.RegisterRequest]).Post("/register", Register(app))
		r.With(middlewares.ValidateBody[model.LoginRequest]).Post("/login", Login(app))
		r.With(authenticate).Post("/logout", Logout(app))
	})

	api.Route("/forms", func(r chi.Router) {
		// owner only
		r.With(authenticate, middlewares.ValidateBody[model.CreateFormRequest]).Post("/create", CreateForm(app))
		r.With(authenticate, formOwner).Delete("/delete/{form_id}", DeleteForm(app))
		r.With(authenticate).Get("/", ListForms(app))
		r.With(authenticate, formOwner, middlewares.ValidateQuery[model.PaginationQuery]).
			Get("/submissions/{form_id}", GetFormSubmissions(app))

		// public
		r.Get("/{form_id}", GetForm(app))
		r.With(middlewares.ValidateBody[model.SubmitFormRequest]).Post("/submit/{form_id}", SubmitForm(app))
	})

	return api
}

var securityHeaders = chi.Chain(
	middleware.SetHeader("X-Content-Type-Options", "nosniff"),
	middleware.SetHeader("X-Frame-Options", "SAMEORIGIN"),
	middleware.SetHeader("Referrer-Policy", "no-referrer"),
	middleware.SetHeader("Cross-Origin-Resource-Policy", "same-origin"),
).Handler
