package model

import "strings"

// Request payloads. The validate tags are the schema of each endpoint;
// see package validation for the rules and their messages.

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=100,password"`
}

func (req *RegisterRequest) Normalize() {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (req *LoginRequest) Normalize() {
	req.Email = normalizeEmail(req.Email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CreateFormRequest struct {
	Title       string       `json:"title" validate:"required,max=100"`
	Description *string      `json:"description" validate:"omitempty,max=500"`
	Fields      []FieldInput `json:"fields" validate:"required,min=1,dive"`
}

type FieldInput struct {
	FieldID  string `json:"field_id" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=string number boolean"`
	Label    string `json:"label" validate:"required"`
	Required bool   `json:"required"`
}

// SubmitFormRequest only requires the responses list to be present:
// an empty list is reported by the service, after missing required fields.
type SubmitFormRequest struct {
	Responses []ResponseInput `json:"responses" validate:"required,dive"`
}

type ResponseInput struct {
	FieldID string `json:"field_id" validate:"required"`
	Value   any    `json:"value" validate:"scalar"`
}

type PaginationQuery struct {
	Page  int `form:"page" validate:"min=1"`
	Limit int `form:"limit" validate:"min=1"`
}

func (q *PaginationQuery) SetDefaults() {
	q.Page = 1
	q.Limit = 10
}
