package authkit

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// OTPVerifications is the persistence surface for one-time codes. It
// implements OTPStore on top of the generic repository.
type OTPVerifications interface {
	repository.Repository[*OTPVerification]
	OTPStore
}

type otps struct {
	repository.Repository[*OTPVerification]
	db *bun.DB
}

var (
	_ OTPVerifications = (*otps)(nil)
	_ OTPStore         = (*otps)(nil)
)

func NewOTPVerificationsRepository(db *bun.DB) OTPVerifications {
	repo := repository.NewRepository[*OTPVerification](db, repository.ModelHandlers[*OTPVerification]{
		NewRecord: func() *OTPVerification { return &OTPVerification{} },
		GetID: func(o *OTPVerification) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.ID
		},
		SetID: func(o *OTPVerification, id uuid.UUID) {
			if o != nil {
				o.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &otps{
		Repository: repo,
		db:         db,
	}
}

// Issue drops unused codes for the (email, purpose) pair and inserts the new
// record in one transaction, so the latest code is the only live one.
func (a *otps) Issue(ctx context.Context, record *OTPVerification) (*OTPVerification, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	err := a.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*OTPVerification)(nil)).
			Where("?TableAlias.email = ?", record.Email).
			Where("?TableAlias.purpose = ?", string(record.Purpose)).
			Where("?TableAlias.used = ?", false).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// LatestFor returns the most recently issued code for (email, purpose).
func (a *otps) LatestFor(ctx context.Context, email string, purpose OTPPurpose) (*OTPVerification, error) {
	record := &OTPVerification{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.purpose = ?", string(purpose)).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"email":   email,
					"purpose": string(purpose),
				})
		}
		return nil, err
	}

	return record, nil
}

// MarkUsed flips the single-use flag. Once set, the code never validates again.
func (a *otps) MarkUsed(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewUpdate().
		Model((*OTPVerification)(nil)).
		Set("used = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// IncrementAttempts bumps the failed-attempt counter in the database rather
// than in memory, so concurrent validators all count.
func (a *otps) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	_, err := a.db.NewUpdate().
		Model((*OTPVerification)(nil)).
		Set("attempts = attempts + 1").
		Where("id = ?", id).
		Exec(ctx)
	return err
}
