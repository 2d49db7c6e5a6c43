package authkit

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// EnsureSuperAdmin makes sure the configured super admin exists and is
// active. Run once at startup; it is how the first privileged account gets
// into an empty database. An existing account with the email is promoted
// rather than duplicated, but its password is left alone.
func EnsureSuperAdmin(ctx context.Context, repo RepositoryManager, email, password string) (*User, error) {
	if email == "" {
		return nil, goerrors.New("super admin email is required", goerrors.CategoryBadInput)
	}

	var out *User

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := repo.Users().GetByIdentifierTx(ctx, tx, email)
		if err == nil {
			if existing.Role == RoleSuperAdmin && existing.Status == UserStatusActive {
				out = existing
				return nil
			}

			promoted, err := repo.Users().PromoteTx(ctx, tx, existing.ID, RoleSuperAdmin, UserStatusActive)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to promote super admin")
			}
			out = promoted
			return nil
		}

		if !isNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up super admin")
		}

		hash, err := HashPassword(password)
		if err != nil {
			return err
		}

		user := &User{
			Email:        email,
			Username:     getUsername("", email),
			FirstName:    "Super",
			LastName:     "Admin",
			PasswordHash: hash,
			Role:         RoleSuperAdmin,
			Status:       UserStatusActive,
		}

		created, err := repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create super admin")
		}

		out = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}
