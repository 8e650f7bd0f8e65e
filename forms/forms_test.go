package forms

import (
	"context"
	"errors"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbolis/quick-forms/config"
	"github.com/mbolis/quick-forms/database"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/model"
)

func newTestService(t *testing.T) (*Service, model.User) {
	t.Helper()
	store, err := database.Open(config.Config{DBUrl: filepath.Join(t.TempDir(), "test.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	owner, err := store.CreateUser(context.Background(), "alice", "alice@example.com", []byte("hash"))
	require.NoError(t, err)
	return NewService(store), owner
}

func profileForm() model.CreateFormRequest {
	return model.CreateFormRequest{
		Title: "Profile",
		Fields: []model.FieldInput{
			{FieldID: "name", Type: model.TypeString, Label: "Name", Required: true},
			{FieldID: "age", Type: model.TypeNumber, Label: "Age"},
			{FieldID: "subscribe", Type: model.TypeBoolean, Label: "Subscribe"},
		},
	}
}

func requireStatus(t *testing.T, err error, status int, msg string) {
	t.Helper()
	var e *httpx.Error
	require.True(t, errors.As(err, &e), "want *httpx.Error, got %v", err)
	assert.Equal(t, status, e.Status)
	assert.Equal(t, msg, e.Message)
}

func countSubmissions(t *testing.T, s *Service, formID string) int {
	t.Helper()
	page, err := s.ListSubmissions(context.Background(), formID, 1, 100)
	require.NoError(t, err)
	return page.TotalCount
}

func TestCreateForm(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestService(t)

	form, err := s.CreateForm(ctx, owner.ID, profileForm())
	require.NoError(t, err)
	assert.NotEmpty(t, form.ID)
	assert.Equal(t, owner.ID, form.UserID)
	require.Len(t, form.Fields, 3)
	assert.Equal(t, "name", form.Fields[0].FieldID)
	assert.True(t, form.Fields[0].Required)

	got, err := s.GetForm(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, form.Fields, got.Fields)
}

func TestCreateFormDuplicateFieldIDs(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestService(t)

	req := profileForm()
	req.Fields = append(req.Fields,
		model.FieldInput{FieldID: "age", Type: model.TypeNumber, Label: "Age again"},
		model.FieldInput{FieldID: "name", Type: model.TypeString, Label: "Name again"},
		model.FieldInput{FieldID: "name", Type: model.TypeString, Label: "Name once more"},
	)
	_, err := s.CreateForm(ctx, owner.ID, req)
	requireStatus(t, err, http.StatusBadRequest, "Duplicate field IDs: age, name")

	forms, err := s.ListForms(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, forms)
}

func TestCreateFormWithoutFields(t *testing.T) {
	s, owner := newTestService(t)

	_, err := s.CreateForm(context.Background(), owner.ID, model.CreateFormRequest{Title: "Empty"})
	requireStatus(t, err, http.StatusBadRequest, "Validation failed: fields: must contain at least 1 item(s)")
}

func TestAuthorize(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestService(t)
	form, err := s.CreateForm(ctx, owner.ID, profileForm())
	require.NoError(t, err)

	assert.NoError(t, s.Authorize(ctx, form.ID, owner.ID))
	requireStatus(t, s.Authorize(ctx, form.ID, "someone-else"), http.StatusForbidden, "You do not have permission to access this form")
	requireStatus(t, s.Authorize(ctx, "missing", owner.ID), http.StatusNotFound, "Form not found")
}

func TestDeleteForm(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestService(t)
	form, err := s.CreateForm(ctx, owner.ID, profileForm())
	require.NoError(t, err)
	_, err = s.SubmitForm(ctx, form.ID, []model.ResponseInput{{FieldID: "name", Value: "Alice"}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteForm(ctx, form.ID))

	_, err = s.GetForm(ctx, form.ID)
	requireStatus(t, err, http.StatusNotFound, "Form not found")
	assert.Zero(t, countSubmissions(t, s, form.ID))
	requireStatus(t, s.DeleteForm(ctx, form.ID), http.StatusNotFound, "Form not found")
}

func TestSubmitForm(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestService(t)
	form, err := s.CreateForm(ctx, owner.ID, profileForm())
	require.NoError(t, err)

	id, err := s.SubmitForm(ctx, form.ID, []model.ResponseInput{
		{FieldID: "name", Value: "Alice"},
		{FieldID: "age", Value: float64(30)},
		{FieldID: "subscribe", Value: true},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	page, err := s.ListSubmissions(ctx, form.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Submissions, 1)
	assert.Equal(t, id, page.Submissions[0].SubmissionID)
	assert.Equal(t, map[string]any{"name": "Alice", "age": float64(30), "subscribe": true}, page.Submissions[0].Data)
}

func TestSubmitFormRejections(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestService(t)
	form, err := s.CreateForm(ctx, owner.ID, profileForm())
	require.NoError(t, err)

	tests := []struct {
		name      string
		responses []model.ResponseInput
		msg       string
	}{
		{
			name:      "missing required",
			responses: []model.ResponseInput{{FieldID: "age", Value: float64(3)}},
			msg:       "Missing required fields: name",
		},
		{
			name:      "empty",
			responses: []model.ResponseInput{},
			msg:       "Missing required fields: name",
		},
		{
			name: "unknown field",
			responses: []model.ResponseInput{
				{FieldID: "name", Value: "Alice"},
				{FieldID: "nickname", Value: "Al"},
				{FieldID: "color", Value: "red"},
			},
			msg: "Invalid field IDs: nickname, color",
		},
		{
			name: "missing before unknown",
			responses: []model.ResponseInput{
				{FieldID: "nickname", Value: "Al"},
			},
			msg: "Missing required fields: name",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SubmitForm(ctx, form.ID, tt.responses)
			requireStatus(t, err, http.StatusBadRequest, tt.msg)
		})
	}

	assert.Zero(t, countSubmissions(t, s, form.ID))
}

func TestSubmitFormEmptyWithoutRequiredFields(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestService(t)
	form, err := s.CreateForm(ctx, owner.ID, model.CreateFormRequest{
		Title:  "Optional",
		Fields: []model.FieldInput{{FieldID: "comment", Type: model.TypeString, Label: "Comment"}},
	})
	require.NoError(t, err)

	_, err = s.SubmitForm(ctx, form.ID, nil)
	requireStatus(t, err, http.StatusBadRequest, "Validation failed: responses: must contain at least 1 item(s)")
	assert.Zero(t, countSubmissions(t, s, form.ID))
}

func TestSubmitFormNotFound(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.SubmitForm(context.Background(), "missing", []model.ResponseInput{{FieldID: "name", Value: "x"}})
	requireStatus(t, err, http.StatusNotFound, "Form not found")
}

func TestListSubmissionsPagination(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestService(t)
	form, err := s.CreateForm(ctx, owner.ID, model.CreateFormRequest{
		Title:  "Counter",
		Fields: []model.FieldInput{{FieldID: "n", Type: model.TypeNumber, Label: "N", Required: true}},
	})
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	next := 0
	s.Now = func() time.Time {
		next++
		return start.Add(time.Duration(next) * time.Minute)
	}
	for i := 1; i <= 25; i++ {
		_, err := s.SubmitForm(ctx, form.ID, []model.ResponseInput{{FieldID: "n", Value: float64(i)}})
		require.NoError(t, err)
	}

	page, err := s.ListSubmissions(ctx, form.ID, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.TotalCount)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 10, page.Limit)
	require.Len(t, page.Submissions, 10)
	// most recent first: page 1 holds 25..16, page 2 holds 15..6
	for i, sub := range page.Submissions {
		assert.Equal(t, float64(15-i), sub.Data["n"], "item %d", i)
	}

	page, err = s.ListSubmissions(ctx, form.ID, 3, 10)
	require.NoError(t, err)
	assert.Len(t, page.Submissions, 5)

	page, err = s.ListSubmissions(ctx, form.ID, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, 25, page.TotalCount)
	assert.NotNil(t, page.Submissions)
	assert.Empty(t, page.Submissions)
}

func TestListSubmissionsHugePage(t *testing.T) {
	ctx := context.Background()
	s, owner := newTestService(t)
	form, err := s.CreateForm(ctx, owner.ID, profileForm())
	require.NoError(t, err)
	_, err = s.SubmitForm(ctx, form.ID, []model.ResponseInput{{FieldID: "name", Value: "Alice"}})
	require.NoError(t, err)

	page, err := s.ListSubmissions(ctx, form.ID, 1<<40, 1<<40)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalCount)
	assert.Empty(t, page.Submissions)
}

func TestStoreValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"hello", "hello"},
		{"", ""},
		{true, "true"},
		{false, "false"},
		{float64(42), "42"},
		{3.5, "3.5"},
		{float64(-7), "-7"},
		{1e21, "1e+21"},
		{1.5e21, "1.5e+21"},
		{1.5e300, "1.5e+300"},
		{1e-7, "1e-7"},
		{-2.5e-10, "-2.5e-10"},
		{0.00001, "0.00001"},
		{0.000001, "0.000001"},
		{float64(0), "0"},
		{math.Copysign(0, -1), "0"},
		{123456789.125, "123456789.125"},
		{int(12), "12"},
		{int64(-12), "-12"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StoreValue(tt.in), "StoreValue(%#v)", tt.in)
	}
}

func TestLoadValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"false", false},
		{"True", "True"},
		{"42", float64(42)},
		{"3.5", 3.5},
		{"-7", float64(-7)},
		{" 8 ", float64(8)},
		{"1e+21", 1e21},
		{"", ""},
		{"   ", "   "},
		{"NaN", "NaN"},
		{"Inf", "Inf"},
		{"12abc", "12abc"},
		{"1_000", "1_000"},
		{"0x1p-2", "0x1p-2"},
		{"0X10", "0X10"},
		{"infinity", "infinity"},
		{"1e400", "1e400"},
		{"1e-7", 1e-7},
		{"5.", float64(5)},
		{".5", 0.5},
		{"+3", float64(3)},
		{"Alice", "Alice"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LoadValue(tt.in), "LoadValue(%q)", tt.in)
	}
}

func TestValueRoundTrip(t *testing.T) {
	for _, v := range []any{"Alice", true, false, float64(0), 2.25, float64(-1000), 1e-7, 1.5e21} {
		assert.Equal(t, v, LoadValue(StoreValue(v)), "round trip of %#v", v)
	}

	// numeric text in a string field reads back as a number
	assert.Equal(t, float64(42), LoadValue(StoreValue("42")))
	assert.Equal(t, strconv.Itoa(7), StoreValue(7))
}
