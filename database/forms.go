package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"

	"github.com/mbolis/quick-forms/model"
)

// CreateForm inserts form and all of its fields in a single transaction.
// IDs and timestamps are assigned here and written back into form.
func (s *Store) CreateForm(ctx context.Context, form *model.Form) error {
	formID, err := uuid.NewV4()
	if err != nil {
		return pkgerrors.Wrap(err, "new form id")
	}
	now := utcNow()

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO form (id, title, description, user_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			formID.String(), form.Title, form.Description, form.UserID, now, now,
		)
		if err != nil {
			return pkgerrors.Wrap(err, "insert form")
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO form_field (id, form_id, field_key, type, label, required)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return pkgerrors.Wrap(err, "insert form.fields.prepare")
		}
		defer stmt.Close()

		fields := make([]model.Field, len(form.Fields))
		for i, f := range form.Fields {
			fieldID, err := uuid.NewV4()
			if err != nil {
				return pkgerrors.Wrap(err, "new field id")
			}
			f.ID = fieldID.String()
			f.FormID = formID.String()

			_, err = stmt.ExecContext(ctx, f.ID, f.FormID, f.FieldID, f.Type, f.Label, f.Required)
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			if err != nil {
				return pkgerrors.Wrap(err, "insert form.fields")
			}
			fields[i] = f
		}

		form.ID = formID.String()
		form.CreatedAt = now
		form.UpdatedAt = now
		form.Fields = fields
		return nil
	})
}

// GetForm returns the form with its fields.
func (s *Store) GetForm(ctx context.Context, id string) (form model.Form, err error) {
	err = s.db.GetContext(ctx, &form, `
		SELECT id, title, description, user_id, created_at, updated_at
		FROM form
		WHERE id = ?`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return form, ErrNotFound
	}
	if err != nil {
		return form, pkgerrors.Wrap(err, "select form")
	}

	form.Fields = []model.Field{}
	err = s.db.SelectContext(ctx, &form.Fields, `
		SELECT id, form_id, field_key, type, label, required
		FROM form_field
		WHERE form_id = ?
		ORDER BY rowid`,
		id,
	)
	return form, pkgerrors.Wrap(err, "select form.fields")
}

// GetFormOwner returns the ID of the user owning the form.
func (s *Store) GetFormOwner(ctx context.Context, id string) (userID string, err error) {
	err = s.db.GetContext(ctx, &userID, `SELECT user_id FROM form WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return userID, pkgerrors.Wrap(err, "select form.owner")
}

// ListForms returns the forms owned by userID, newest first, each with its
// fields and submission count.
func (s *Store) ListForms(ctx context.Context, userID string) ([]model.Form, error) {
	forms := []model.Form{}
	err := s.db.SelectContext(ctx, &forms, `
		SELECT
			f.id, f.title, f.description, f.user_id, f.created_at, f.updated_at,
			(SELECT COUNT(*) FROM submission s WHERE s.form_id = f.id) AS submission_count
		FROM form f
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "select forms")
	}
	if len(forms) == 0 {
		return forms, nil
	}

	ids := make([]string, len(forms))
	byID := make(map[string]*model.Form, len(forms))
	for i := range forms {
		forms[i].Fields = []model.Field{}
		ids[i] = forms[i].ID
		byID[forms[i].ID] = &forms[i]
	}

	query, args, err := sqlx.In(`
		SELECT id, form_id, field_key, type, label, required
		FROM form_field
		WHERE form_id IN (?)
		ORDER BY rowid`,
		ids,
	)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "select forms.fields.in")
	}
	var fields []model.Field
	err = s.db.SelectContext(ctx, &fields, s.db.Rebind(query), args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "select forms.fields")
	}
	for _, f := range fields {
		form := byID[f.FormID]
		form.Fields = append(form.Fields, f)
	}
	return forms, nil
}

// DeleteForm removes the form; fields, submissions and responses go with it.
func (s *Store) DeleteForm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM form WHERE id = ?`, id)
	if err != nil {
		return pkgerrors.Wrap(err, "delete form")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "delete form.verify")
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}
