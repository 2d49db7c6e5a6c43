package authkit_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-authkit"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingApplication() *authkit.EngineerApplication {
	return &authkit.EngineerApplication{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: authkit.ApplicationStatusPending,
	}
}

func TestApplicationStateMachine_Transition(t *testing.T) {
	ctx := context.Background()
	actor := authkit.ActorRef{ID: uuid.NewString(), Type: "user"}

	t.Run("approve records the decision and requests promotion", func(t *testing.T) {
		app := pendingApplication()
		reviewerID := uuid.New()
		reviewedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

		store := &MockReviewStore{}
		store.On("UpdateStatusIfPending", mock.Anything, app.ID, authkit.ApplicationStatusApproved, mock.MatchedBy(func(review authkit.ReviewRecord) bool {
			return review.Notes == "looks solid" &&
				review.ReviewerID != nil && *review.ReviewerID == reviewerID &&
				review.ReviewedAt.Equal(reviewedAt)
		})).Return(app, nil)

		sink := &MockActivitySink{}
		sink.On("Record", mock.Anything, mock.Anything).Return(nil)

		machine := authkit.NewApplicationStateMachine(store,
			authkit.WithStateMachineClock(func() time.Time { return reviewedAt }),
			authkit.WithStateMachineActivitySink(sink),
		)

		outcome, err := machine.Transition(ctx, actor, app, authkit.ReviewActionApprove,
			authkit.WithReviewNotes("looks solid"),
			authkit.WithReviewerID(reviewerID),
		)

		require.NoError(t, err)
		require.NotNil(t, outcome)
		assert.Equal(t, authkit.ApplicationStatusPending, outcome.From)
		assert.Equal(t, authkit.ApplicationStatusApproved, outcome.To)
		assert.True(t, outcome.PromoteApplicant)

		require.Len(t, sink.Events, 1)
		event := sink.Events[0]
		assert.Equal(t, authkit.ActivityEventApplicationReviewed, event.EventType)
		assert.Equal(t, actor, event.Actor)
		assert.Equal(t, authkit.ApplicationStatusPending, event.FromStatus)
		assert.Equal(t, authkit.ApplicationStatusApproved, event.ToStatus)
		assert.Equal(t, "approve", event.Metadata["action"])

		store.AssertExpectations(t)
	})

	t.Run("reject does not request promotion", func(t *testing.T) {
		app := pendingApplication()

		store := &MockReviewStore{}
		store.On("UpdateStatusIfPending", mock.Anything, app.ID, authkit.ApplicationStatusRejected, mock.Anything).
			Return(app, nil)

		machine := authkit.NewApplicationStateMachine(store)

		outcome, err := machine.Transition(ctx, actor, app, authkit.ReviewActionReject)

		require.NoError(t, err)
		assert.Equal(t, authkit.ApplicationStatusRejected, outcome.To)
		assert.False(t, outcome.PromoteApplicant)
	})

	t.Run("decided applications are terminal", func(t *testing.T) {
		for _, status := range []authkit.ApplicationStatus{
			authkit.ApplicationStatusApproved,
			authkit.ApplicationStatusRejected,
		} {
			app := pendingApplication()
			app.Status = status

			store := &MockReviewStore{}
			machine := authkit.NewApplicationStateMachine(store)

			outcome, err := machine.Transition(ctx, actor, app, authkit.ReviewActionApprove)

			assert.Nil(t, outcome)
			require.Error(t, err)
			assertTextCode(t, err, authkit.TextCodeAlreadyReviewed)
			store.AssertNotCalled(t, "UpdateStatusIfPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("losing a concurrent review reports conflict", func(t *testing.T) {
		app := pendingApplication()

		// the conditional update matched zero rows: someone else decided first
		store := &MockReviewStore{}
		store.On("UpdateStatusIfPending", mock.Anything, app.ID, authkit.ApplicationStatusApproved, mock.Anything).
			Return(nil, repository.NewRecordNotFound())

		machine := authkit.NewApplicationStateMachine(store)

		outcome, err := machine.Transition(ctx, actor, app, authkit.ReviewActionApprove)

		assert.Nil(t, outcome)
		require.Error(t, err)
		assertTextCode(t, err, authkit.TextCodeAlreadyReviewed)
	})

	t.Run("rejects unknown actions", func(t *testing.T) {
		app := pendingApplication()

		machine := authkit.NewApplicationStateMachine(&MockReviewStore{})

		outcome, err := machine.Transition(ctx, actor, app, authkit.ReviewAction("escalate"))

		assert.Nil(t, outcome)
		require.Error(t, err)
		assertTextCode(t, err, authkit.TextCodeInvalidReviewAction)
	})

	t.Run("rejects nil application", func(t *testing.T) {
		machine := authkit.NewApplicationStateMachine(&MockReviewStore{})

		outcome, err := machine.Transition(ctx, actor, nil, authkit.ReviewActionApprove)

		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, authkit.ErrApplicationNotFound)
	})

	t.Run("empty status counts as pending", func(t *testing.T) {
		app := pendingApplication()
		app.Status = ""

		store := &MockReviewStore{}
		store.On("UpdateStatusIfPending", mock.Anything, app.ID, authkit.ApplicationStatusApproved, mock.Anything).
			Return(app, nil)

		machine := authkit.NewApplicationStateMachine(store)

		outcome, err := machine.Transition(ctx, actor, app, authkit.ReviewActionApprove)

		require.NoError(t, err)
		assert.Equal(t, authkit.ApplicationStatusPending, outcome.From)
	})
}

func TestApplicationStateMachine_CurrentStatus(t *testing.T) {
	machine := authkit.NewApplicationStateMachine(&MockReviewStore{})

	app := pendingApplication()
	assert.Equal(t, authkit.ApplicationStatusPending, machine.CurrentStatus(app))

	app.Status = authkit.ApplicationStatusApproved
	assert.Equal(t, authkit.ApplicationStatusApproved, machine.CurrentStatus(app))

	blank := &authkit.EngineerApplication{}
	assert.Equal(t, authkit.ApplicationStatusPending, machine.CurrentStatus(blank))
}
