package authkit

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ReviewApplicationSQL is the conditional update behind the review workflow.
// The status guard in the WHERE clause means a row that already left pending
// matches nothing; of two racing reviewers exactly one sees a returned row.
var ReviewApplicationSQL = `UPDATE "engineer_applications" AS "app"
SET
	"status" = ?,
	"reviewer_id" = ?,
	"review_notes" = ?,
	"reviewed_at" = ?,
	"updated_at" = ?
WHERE
	"app"."status" = 'pending'
AND (
	"app"."id" = ?
) RETURNING *;`

type EngineerApplications interface {
	repository.Repository[*EngineerApplication]
	ApplicationReviewStore

	GetWithUser(ctx context.Context, id uuid.UUID) (*EngineerApplication, error)
	ListPending(ctx context.Context) ([]*EngineerApplication, error)
	PendingForUser(ctx context.Context, userID uuid.UUID) (*EngineerApplication, error)
}

type applications struct {
	repository.Repository[*EngineerApplication]
	db *bun.DB
}

var (
	_ EngineerApplications   = (*applications)(nil)
	_ ApplicationReviewStore = (*applications)(nil)
)

func NewEngineerApplicationsRepository(db *bun.DB) EngineerApplications {
	repo := repository.NewRepository[*EngineerApplication](db, repository.ModelHandlers[*EngineerApplication]{
		NewRecord: func() *EngineerApplication { return &EngineerApplication{} },
		GetID: func(a *EngineerApplication) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *EngineerApplication, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
	})

	return &applications{
		Repository: repo,
		db:         db,
	}
}

func (a *applications) Create(ctx context.Context, record *EngineerApplication, criteria ...repository.InsertCriteria) (*EngineerApplication, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *applications) CreateTx(ctx context.Context, tx bun.IDB, record *EngineerApplication, criteria ...repository.InsertCriteria) (*EngineerApplication, error) {
	if record != nil {
		record.EnsureStatus()
		if record.ID == uuid.Nil {
			record.ID = uuid.New()
		}
	}
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// UpdateStatusIfPending applies a review decision if and only if the row is
// still pending. Zero returned rows surfaces as record-not-found, which the
// state machine reports as an already-reviewed conflict.
func (a *applications) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status ApplicationStatus, review ReviewRecord) (*EngineerApplication, error) {
	var reviewerID any
	if review.ReviewerID != nil {
		reviewerID = review.ReviewerID.String()
	}

	res, err := a.Repository.Raw(ctx, ReviewApplicationSQL,
		string(status),
		reviewerID,
		review.Notes,
		review.ReviewedAt,
		review.ReviewedAt,
		id.String(),
	)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id":     id.String(),
				"status": string(status),
			})
	}

	return res[0], nil
}

// GetWithUser loads an application together with the applicant record.
func (a *applications) GetWithUser(ctx context.Context, id uuid.UUID) (*EngineerApplication, error) {
	record := &EngineerApplication{}
	err := a.db.NewSelect().
		Model(record).
		Relation("User").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

// ListPending returns applications awaiting review, oldest first.
func (a *applications) ListPending(ctx context.Context) ([]*EngineerApplication, error) {
	records := []*EngineerApplication{}
	err := a.db.NewSelect().
		Model(&records).
		Relation("User").
		Where("?TableAlias.status = ?", string(ApplicationStatusPending)).
		OrderExpr("?TableAlias.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// PendingForUser returns the user's open application, if any.
func (a *applications) PendingForUser(ctx context.Context, userID uuid.UUID) (*EngineerApplication, error) {
	record := &EngineerApplication{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.status = ?", string(ApplicationStatusPending)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id": userID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}
