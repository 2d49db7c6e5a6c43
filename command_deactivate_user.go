package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type DeactivateUserMessage struct {
	Actor      Identity  `json:"-"`
	UserID     uuid.UUID `json:"user_id"`
	Reason     string    `json:"reason"`
	OnResponse func(user *User)
}

func (e DeactivateUserMessage) Type() string { return "user.deactivate" }

// DeactivateUserHandler flips an account to inactive. Admin rank or above;
// deactivating another admin takes a super admin, and nobody deactivates
// themselves.
type DeactivateUserHandler struct {
	repo RepositoryManager
	sink ActivitySink
}

func NewDeactivateUserHandler(repo RepositoryManager, sink ActivitySink) *DeactivateUserHandler {
	return &DeactivateUserHandler{repo: repo, sink: normalizeActivitySink(sink)}
}

func (h *DeactivateUserHandler) Execute(ctx context.Context, event DeactivateUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user deactivation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeactivateUserHandler) execute(ctx context.Context, event DeactivateUserMessage) error {
	if err := RequireRole(event.Actor, RoleAdmin); err != nil {
		return err
	}

	if event.Actor.ID() == event.UserID.String() {
		return ErrSelfDeactivation
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	target, err := h.repo.Users().GetByIdentifier(ctx, event.UserID.String())
	if err != nil {
		if isNotFound(err) {
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load account for deactivation")
	}

	// only a super admin can take down an admin or another super admin
	if target.Role.IsAtLeast(RoleAdmin) {
		if err := RequireExactRole(event.Actor, RoleSuperAdmin); err != nil {
			return err
		}
	}

	updated, err := h.repo.Users().UpdateStatus(ctx, target.ID, UserStatusInactive)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to deactivate account")
	}

	_ = h.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserStatusChanged,
		Actor:      ActorRef{ID: event.Actor.ID(), Type: "user"},
		UserID:     target.ID.String(),
		OccurredAt: time.Now(),
		Metadata: map[string]any{
			"status": string(UserStatusInactive),
			"reason": event.Reason,
		},
	})

	if event.OnResponse != nil {
		event.OnResponse(updated)
	}

	return nil
}
