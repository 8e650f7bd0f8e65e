package database

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"

	"github.com/mbolis/quick-forms/model"
)

// CreateSubmission inserts sub and its responses in a single transaction.
// Every response must carry FieldRef, the internal ID of a field of sub.FormID.
func (s *Store) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	subID, err := uuid.NewV4()
	if err != nil {
		return pkgerrors.Wrap(err, "new submission id")
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = utcNow()
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO submission (id, form_id, submitted_at) VALUES (?, ?, ?)`,
			subID.String(), sub.FormID, sub.SubmittedAt.UTC(),
		)
		if err != nil {
			return pkgerrors.Wrap(err, "insert submission")
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO field_response (id, form_id, submission_id, field_id, value)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return pkgerrors.Wrap(err, "insert submission.responses.prepare")
		}
		defer stmt.Close()

		responses := make([]model.Response, len(sub.Responses))
		for i, r := range sub.Responses {
			respID, err := uuid.NewV4()
			if err != nil {
				return pkgerrors.Wrap(err, "new response id")
			}
			r.ID = respID.String()
			r.SubmissionID = subID.String()

			_, err = stmt.ExecContext(ctx, r.ID, sub.FormID, r.SubmissionID, r.FieldRef, r.Value)
			if err != nil {
				return pkgerrors.Wrap(err, "insert submission.responses")
			}
			responses[i] = r
		}

		sub.ID = subID.String()
		sub.Responses = responses
		return nil
	})
}

// ListSubmissions returns the total number of submissions to the form and
// the requested page of them, most recent first, with their responses.
// Count and page are read in the same transaction.
func (s *Store) ListSubmissions(ctx context.Context, formID string, limit, offset int64) (total int, subs []model.Submission, err error) {
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &total, `SELECT COUNT(*) FROM submission WHERE form_id = ?`, formID)
		if err != nil {
			return pkgerrors.Wrap(err, "count submissions")
		}

		subs = []model.Submission{}
		err = tx.SelectContext(ctx, &subs, `
			SELECT id, form_id, submitted_at
			FROM submission
			WHERE form_id = ?
			ORDER BY submitted_at DESC, rowid DESC
			LIMIT ? OFFSET ?`,
			formID, limit, offset,
		)
		if err != nil {
			return pkgerrors.Wrap(err, "select submissions")
		}
		if len(subs) == 0 {
			return nil
		}

		ids := make([]string, len(subs))
		byID := make(map[string]*model.Submission, len(subs))
		for i := range subs {
			subs[i].Responses = []model.Response{}
			ids[i] = subs[i].ID
			byID[subs[i].ID] = &subs[i]
		}

		query, args, err := sqlx.In(`
			SELECT r.id, r.submission_id, r.field_id, f.field_key, r.value
			FROM field_response r
			INNER JOIN form_field f ON (f.id = r.field_id)
			WHERE r.submission_id IN (?)
			ORDER BY r.rowid`,
			ids,
		)
		if err != nil {
			return pkgerrors.Wrap(err, "select submissions.responses.in")
		}
		var responses []model.Response
		err = tx.SelectContext(ctx, &responses, tx.Rebind(query), args...)
		if err != nil {
			return pkgerrors.Wrap(err, "select submissions.responses")
		}
		for _, r := range responses {
			sub := byID[r.SubmissionID]
			sub.Responses = append(sub.Responses, r)
		}
		return nil
	})
	return
}
