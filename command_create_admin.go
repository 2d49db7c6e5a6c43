package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type CreateAdminMessage struct {
	Actor      Identity `json:"-"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Department string   `json:"department"`
	OnResponse func(user *User)
}

func (e CreateAdminMessage) Type() string { return "admin.create" }

// CreateAdminHandler creates admin accounts. Reserved to super admins by
// exact role, not rank: an admin cannot mint peers.
type CreateAdminHandler struct {
	repo RepositoryManager
	sink ActivitySink
}

func NewCreateAdminHandler(repo RepositoryManager, sink ActivitySink) *CreateAdminHandler {
	return &CreateAdminHandler{repo: repo, sink: normalizeActivitySink(sink)}
}

func (h *CreateAdminHandler) Execute(ctx context.Context, event CreateAdminMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during admin creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateAdminHandler) execute(ctx context.Context, event CreateAdminMessage) error {
	if err := RequireExactRole(event.Actor, RoleSuperAdmin); err != nil {
		return err
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if existing, err := h.repo.Users().GetByIdentifierTx(ctx, tx, event.Email); err == nil && existing != nil {
			return ErrEmailTaken
		} else if err != nil && !isNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing account")
		}

		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Username = getUsername("", event.Email)
		user.Role = RoleAdmin
		user.Status = UserStatusActive
		user.Department = event.Department

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create admin")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "admin creation transaction failed")
	}

	_ = h.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventAdminCreated,
		Actor:      ActorRef{ID: event.Actor.ID(), Type: "user"},
		UserID:     user.ID.String(),
		OccurredAt: time.Now(),
		Metadata: map[string]any{
			"email": user.Email,
		},
	})

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
