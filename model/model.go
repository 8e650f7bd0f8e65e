package model

import "time"

// Field types a form can declare.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

type User struct {
	ID        string    `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Form struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	UserID      string    `json:"userId" db:"user_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Fields      []Field   `json:"fields" db:"-"`

	// only filled in by listings
	SubmissionCount *int `json:"submissionCount,omitempty" db:"submission_count"`
}

type Field struct {
	ID       string `json:"id" db:"id"`
	FormID   string `json:"-" db:"form_id"`
	FieldID  string `json:"fieldId" db:"field_key"`
	Type     string `json:"type" db:"type"`
	Label    string `json:"label" db:"label"`
	Required bool   `json:"required" db:"required"`
}

type Submission struct {
	ID          string     `json:"id" db:"id"`
	FormID      string     `json:"formId" db:"form_id"`
	SubmittedAt time.Time  `json:"submittedAt" db:"submitted_at"`
	Responses   []Response `json:"responses" db:"-"`
}

type Response struct {
	ID           string `json:"id" db:"id"`
	SubmissionID string `json:"-" db:"submission_id"`
	FieldRef     string `json:"-" db:"field_id"`
	FieldID      string `json:"field_id" db:"field_key"`
	Value        string `json:"value" db:"value"`
}

// FormattedSubmission is a submission as returned to the form owner,
// with responses flattened into field_id -> value.
type FormattedSubmission struct {
	SubmissionID string         `json:"submission_id"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	Data         map[string]any `json:"data"`
}

type SubmissionPage struct {
	TotalCount  int                   `json:"total_count"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
	Submissions []FormattedSubmission `json:"submissions"`
}
