package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
	"github.com/mbolis/quick-forms/routes/middlewares"
)

func GetForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "form_id")

		form, err := app.Forms.GetForm(r.Context(), formID)
		if err != nil {
			httpx.LogError(w, r, "forms.get", err)
			return
		}

		httpx.WriteSuccess(w, r, http.StatusOK, "", form)
	}
}

func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "form_id")
		req := middlewares.Payload[model.SubmitFormRequest](r)

		submissionID, err := app.Forms.SubmitForm(r.Context(), formID, req.Responses)
		if err != nil {
			httpx.LogError(w, r, "forms.submit", err)
			return
		}

		httpx.WriteSuccess(w, r, http.StatusCreated, "Form submitted successfully", map[string]string{
			"submission_id": submissionID,
		})
	}
}
