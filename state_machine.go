package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ReviewRecord carries the audit fields persisted with a decision.
type ReviewRecord struct {
	ReviewerID *uuid.UUID
	Notes      string
	ReviewedAt time.Time
}

// ApplicationReviewStore persists review decisions. UpdateStatusIfPending
// must only touch rows still in the pending state and report not-found when
// no row qualified; that conditional write is what serializes two racing
// reviewers down to a single winner.
type ApplicationReviewStore interface {
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status ApplicationStatus, review ReviewRecord) (*EngineerApplication, error)
}

// ReviewOutcome reports what a transition did and which side effects the
// caller still owes. The machine records the decision; promoting the
// applicant and sending mail stay with the workflow layer.
type ReviewOutcome struct {
	Application      *EngineerApplication
	From             ApplicationStatus
	To               ApplicationStatus
	PromoteApplicant bool
}

// ApplicationStateMachine drives the pending -> approved|rejected workflow.
// Both the dashboard path and the email-link path funnel through Transition.
type ApplicationStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, app *EngineerApplication, action ReviewAction, opts ...ReviewOption) (*ReviewOutcome, error)
	CurrentStatus(app *EngineerApplication) ApplicationStatus
}

// ReviewOption customizes a single transition.
type ReviewOption func(*reviewOptions)

type reviewOptions struct {
	notes      string
	reviewerID *uuid.UUID
	metadata   map[string]any
}

// WithReviewNotes attaches reviewer notes to the decision.
func WithReviewNotes(notes string) ReviewOption {
	return func(opts *reviewOptions) {
		opts.notes = notes
	}
}

// WithReviewerID records which user account made the decision.
func WithReviewerID(id uuid.UUID) ReviewOption {
	return func(opts *reviewOptions) {
		if id != uuid.Nil {
			opts.reviewerID = &id
		}
	}
}

// WithReviewMetadata merges metadata into the emitted activity event.
func WithReviewMetadata(metadata map[string]any) ReviewOption {
	return func(opts *reviewOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata == nil {
			opts.metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata[k] = v
		}
	}
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*appStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock func() time.Time) StateMachineOption {
	return func(sm *appStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish review events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *appStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *appStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// NewApplicationStateMachine returns the default implementation backed by
// the provided store.
func NewApplicationStateMachine(store ApplicationReviewStore, opts ...StateMachineOption) ApplicationStateMachine {
	sm := &appStateMachine{
		store: store,
		transitions: map[ApplicationStatus]map[ApplicationStatus]struct{}{
			ApplicationStatusPending: {
				ApplicationStatusApproved: {},
				ApplicationStatusRejected: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type appStateMachine struct {
	store        ApplicationReviewStore
	transitions  map[ApplicationStatus]map[ApplicationStatus]struct{}
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
}

func (sm *appStateMachine) Transition(ctx context.Context, actor ActorRef, app *EngineerApplication, action ReviewAction, opts ...ReviewOption) (*ReviewOutcome, error) {
	if app == nil {
		return nil, ErrApplicationNotFound
	}

	target, ok := action.TargetStatus()
	if !ok {
		return nil, ErrInvalidReviewAction.WithMetadata(map[string]any{
			"action": string(action),
		})
	}

	app.EnsureStatus()
	from := app.Status

	if !sm.canTransition(from, target) {
		// approved and rejected are terminal; the first decision stands
		return nil, ErrAlreadyReviewed.WithMetadata(map[string]any{
			"application_id": app.ID.String(),
			"status":         string(from),
		})
	}

	options := &reviewOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	review := ReviewRecord{
		ReviewerID: options.reviewerID,
		Notes:      options.notes,
		ReviewedAt: sm.now(),
	}

	updated, err := sm.store.UpdateStatusIfPending(ctx, app.ID, target, review)
	if err != nil {
		if isNotFound(err) {
			// the row left pending between our read and the write;
			// someone else's decision landed first
			return nil, ErrAlreadyReviewed.WithMetadata(map[string]any{
				"application_id": app.ID.String(),
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist review decision")
	}

	if updated != nil {
		*app = *updated
	} else {
		app.Status = target
		app.ReviewerID = review.ReviewerID
		app.ReviewNotes = review.Notes
		app.ReviewedAt = &review.ReviewedAt
	}

	sm.recordActivity(ctx, ActivityEvent{
		EventType:  ActivityEventApplicationReviewed,
		Actor:      actor,
		UserID:     app.UserID.String(),
		FromStatus: from,
		ToStatus:   target,
		Metadata:   sm.eventMetadata(app, action, options),
	})

	return &ReviewOutcome{
		Application:      app,
		From:             from,
		To:               target,
		PromoteApplicant: target == ApplicationStatusApproved,
	}, nil
}

func (sm *appStateMachine) CurrentStatus(app *EngineerApplication) ApplicationStatus {
	if app == nil {
		return ""
	}
	app.EnsureStatus()
	return app.Status
}

func (sm *appStateMachine) canTransition(from, to ApplicationStatus) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *appStateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = sm.now()
	}

	sink := normalizeActivitySink(sm.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		sm.logger.Warn("state machine activity sink error: %v", err)
	}
}

func (sm *appStateMachine) eventMetadata(app *EngineerApplication, action ReviewAction, options *reviewOptions) map[string]any {
	result := map[string]any{
		"application_id": app.ID.String(),
		"action":         string(action),
	}
	if options.notes != "" {
		result["notes"] = options.notes
	}
	for k, v := range options.metadata {
		result[k] = v
	}
	return result
}
