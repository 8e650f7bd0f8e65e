package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

// Handlers for the forms of the authenticated user.

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := httpx.UserFrom(r.Context())
		req := middlewares.Payload[model.CreateFormRequest](r)

		form, err := app.Forms.CreateForm(r.Context(), user.ID, req)
		if err != nil {
			httpx.LogError(w, r, "forms.create", err)
			return
		}

		httpx.WriteSuccess(w, r, http.StatusCreated, "Form created successfully", form)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "form_id")

		err := app.Forms.DeleteForm(r.Context(), formID)
		if err != nil {
			httpx.LogError(w, r, "forms.delete", err)
			return
		}

		httpx.WriteSuccess(w, r, http.StatusOK, "Form deleted successfully", nil)
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := httpx.UserFrom(r.Context())

		forms, err := app.Forms.ListForms(r.Context(), user.ID)
		if err != nil {
			httpx.LogError(w, r, "forms.list", err)
			return
		}

		httpx.WriteSuccess(w, r, http.StatusOK, "", forms)
	}
}

type submissionsResponse struct {
	Status string `json:"status"`
	model.SubmissionPage
}

func GetFormSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "form_id")
		query := middlewares.Payload[model.PaginationQuery](r)

		page, err := app.Forms.ListSubmissions(r.Context(), formID, query.Page, query.Limit)
		if err != nil {
			httpx.LogError(w, r, "forms.submissions", err)
			return
		}

		// paging fields sit next to status, not inside data
		httpx.WriteJSON(w, r, http.StatusOK, submissionsResponse{httpx.StatusSuccess, page})
	}
}
