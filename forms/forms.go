// Package forms holds the rules for building forms and accepting their submissions.
package forms

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
)

var (
	errFormNotFound  = httpx.NotFound("Form not found")
	errNotFormOwner  = httpx.Forbidden("You do not have permission to access this form")
	errNoResponses   = httpx.ValidationFailed("Validation failed: responses: must contain at least 1 item(s)")
	errNoFields      = httpx.ValidationFailed("Validation failed: fields: must contain at least 1 item(s)")
	errDuplicateForm = httpx.ValidationFailed("Duplicate field IDs")
)

type Service struct {
	store *database.Store

	// Now stamps new submissions.
	Now func() time.Time
}

func NewService(store *database.Store) *Service {
	return &Service{store: store, Now: time.Now}
}

// Authorize fails unless userID owns the form.
func (s *Service) Authorize(ctx context.Context, formID, userID string) error {
	owner, err := s.store.GetFormOwner(ctx, formID)
	if errors.Is(err, database.ErrNotFound) {
		return errFormNotFound
	}
	if err != nil {
		return err
	}
	if owner != userID {
		return errNotFormOwner
	}
	return nil
}

func (s *Service) CreateForm(ctx context.Context, ownerID string, req model.CreateFormRequest) (model.Form, error) {
	if len(req.Fields) == 0 {
		return model.Form{}, errNoFields
	}
	if dups := duplicates(req.Fields); len(dups) > 0 {
		return model.Form{}, httpx.ValidationFailed("Duplicate field IDs: %s", strings.Join(dups, ", "))
	}

	form := model.Form{
		Title:       req.Title,
		Description: req.Description,
		UserID:      ownerID,
		Fields:      make([]model.Field, len(req.Fields)),
	}
	for i, f := range req.Fields {
		form.Fields[i] = model.Field{
			FieldID:  f.FieldID,
			Type:     f.Type,
			Label:    f.Label,
			Required: f.Required,
		}
	}

	err := s.store.CreateForm(ctx, &form)
	if errors.Is(err, database.ErrDuplicate) {
		return model.Form{}, errDuplicateForm
	}
	return form, err
}

func duplicates(fields []model.FieldInput) (dups []string) {
	seen := make(map[string]int, len(fields))
	for _, f := range fields {
		seen[f.FieldID]++
		if seen[f.FieldID] == 2 {
			dups = append(dups, f.FieldID)
		}
	}
	return
}

func (s *Service) DeleteForm(ctx context.Context, formID string) error {
	err := s.store.DeleteForm(ctx, formID)
	if errors.Is(err, database.ErrNotFound) {
		return errFormNotFound
	}
	return err
}

func (s *Service) ListForms(ctx context.Context, ownerID string) ([]model.Form, error) {
	return s.store.ListForms(ctx, ownerID)
}

func (s *Service) GetForm(ctx context.Context, formID string) (model.Form, error) {
	form, err := s.store.GetForm(ctx, formID)
	if errors.Is(err, database.ErrNotFound) {
		return form, errFormNotFound
	}
	return form, err
}

// SubmitForm stores one submission to the form and returns its ID.
// Missing required fields are reported before unknown ones, and nothing is
// stored unless every response is accepted.
func (s *Service) SubmitForm(ctx context.Context, formID string, responses []model.ResponseInput) (string, error) {
	form, err := s.GetForm(ctx, formID)
	if err != nil {
		return "", err
	}

	submitted := make(map[string]bool, len(responses))
	for _, r := range responses {
		submitted[r.FieldID] = true
	}

	var missing []string
	fieldRefs := make(map[string]string, len(form.Fields))
	for _, f := range form.Fields {
		fieldRefs[f.FieldID] = f.ID
		if f.Required && !submitted[f.FieldID] {
			missing = append(missing, f.FieldID)
		}
	}
	if len(missing) > 0 {
		return "", httpx.ValidationFailed("Missing required fields: %s", strings.Join(missing, ", "))
	}
	if len(responses) == 0 {
		return "", errNoResponses
	}

	var invalid []string
	for _, r := range responses {
		if _, ok := fieldRefs[r.FieldID]; !ok {
			invalid = append(invalid, r.FieldID)
		}
	}
	if len(invalid) > 0 {
		return "", httpx.ValidationFailed("Invalid field IDs: %s", strings.Join(invalid, ", "))
	}

	sub := model.Submission{
		FormID:      form.ID,
		SubmittedAt: s.Now(),
		Responses:   make([]model.Response, len(responses)),
	}
	for i, r := range responses {
		sub.Responses[i] = model.Response{
			FieldRef: fieldRefs[r.FieldID],
			FieldID:  r.FieldID,
			Value:    StoreValue(r.Value),
		}
	}

	err = s.store.CreateSubmission(ctx, &sub)
	if err != nil {
		return "", err
	}
	return sub.ID, nil
}

// ListSubmissions returns page number page (from 1) of the form's submissions,
// limit per page, most recent first.
func (s *Service) ListSubmissions(ctx context.Context, formID string, page, limit int) (model.SubmissionPage, error) {
	result := model.SubmissionPage{
		Page:        page,
		Limit:       limit,
		Submissions: []model.FormattedSubmission{},
	}

	offset := int64(page-1) * int64(limit)
	if page > 1 && offset/int64(limit) != int64(page-1) {
		// past any page that can exist
		offset = math.MaxInt64
	}

	total, subs, err := s.store.ListSubmissions(ctx, formID, int64(limit), offset)
	if err != nil {
		return result, err
	}

	result.TotalCount = total
	for _, sub := range subs {
		data := make(map[string]any, len(sub.Responses))
		for _, r := range sub.Responses {
			data[r.FieldID] = LoadValue(r.Value)
		}
		result.Submissions = append(result.Submissions, model.FormattedSubmission{
			SubmissionID: sub.ID,
			SubmittedAt:  sub.SubmittedAt,
			Data:         data,
		})
	}
	return result, nil
}

// StoreValue renders a submitted value as stored text. Numbers use the
// shortest decimal form, in exponent notation ("1e-7", "1.5e+21") only
// below 1e-6 or from 1e21 on.
func StoreValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatNumber(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if abs := math.Abs(v); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'e', -1, 64)
	i := strings.IndexByte(s, 'e')
	mant, exp := s[:i+2], strings.TrimLeft(s[i+2:], "0")
	return mant + exp
}

var reDecimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// LoadValue recovers a typed value from stored text: "true" and "false" are
// booleans, text that is entirely a finite decimal number (surrounding spaces
// allowed) is a number, anything else stays text. A string field holding "42"
// therefore reads back as 42, while "1_000" and "0x1p-2" stay text.
func LoadValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	t := strings.TrimSpace(s)
	if !reDecimal.MatchString(t) {
		return s
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return s
	}
	return f
}
