package authkit

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ReviewService is the single entry point for deciding engineer
// applications. The authenticated dashboard route and the email action link
// both end up in review(); only how the reviewer is established differs.
type ReviewService struct {
	users    Users
	apps     EngineerApplications
	machine  ApplicationStateMachine
	tokens   TokenService
	notifier *Notifier
	baseURL  string
	logger   Logger
}

// ReviewServiceOption customizes review service construction.
type ReviewServiceOption func(*ReviewService)

// WithReviewNotifier enables outbound email on decisions and new applications.
func WithReviewNotifier(n *Notifier) ReviewServiceOption {
	return func(s *ReviewService) {
		s.notifier = n
	}
}

// WithReviewLogger overrides the logger.
func WithReviewLogger(logger Logger) ReviewServiceOption {
	return func(s *ReviewService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReviewStateMachine overrides the default state machine.
func WithReviewStateMachine(machine ApplicationStateMachine) ReviewServiceOption {
	return func(s *ReviewService) {
		if machine != nil {
			s.machine = machine
		}
	}
}

// NewReviewService wires the review workflow over the given repositories.
// baseURL is the externally reachable prefix used to build email action
// links, e.g. https://api.example.com.
func NewReviewService(users Users, apps EngineerApplications, tokens TokenService, baseURL string, opts ...ReviewServiceOption) *ReviewService {
	s := &ReviewService{
		users:   users,
		apps:    apps,
		machine: NewApplicationStateMachine(apps),
		tokens:  tokens,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Review decides an application on behalf of an authenticated reviewer.
// Requires an active account at admin rank or above.
func (s *ReviewService) Review(ctx context.Context, reviewer Identity, applicationID uuid.UUID, action ReviewAction, notes string) (*ReviewOutcome, error) {
	if err := RequireRole(reviewer, RoleAdmin); err != nil {
		return nil, err
	}

	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	return s.review(ctx, reviewer, app, action, notes)
}

// ReviewByActionToken decides an application from an email link. The token
// names the reviewing admin by email; we re-resolve that account and require
// it to still be an active admin, so a demoted or deactivated admin's old
// links are dead. Verification does not consume the token: a replayed link
// reaches the state machine and stops on the already-reviewed conflict.
func (s *ReviewService) ReviewByActionToken(ctx context.Context, raw string) (*ReviewOutcome, error) {
	claims, err := s.tokens.ValidateActionToken(raw)
	if err != nil {
		return nil, err
	}

	applicationID, err := claims.ApplicationUUID()
	if err != nil {
		return nil, ErrTokenMalformed
	}

	admin, err := s.users.GetByIdentifier(ctx, claims.AdminEmail)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrActionAdminNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve reviewing admin")
	}

	reviewer := NewIdentityFromUser(admin)
	if err := RequireRole(reviewer, RoleAdmin); err != nil {
		return nil, ErrActionAdminNotFound
	}

	app, err := s.loadApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	return s.review(ctx, reviewer, app, claims.Action, "decided via email link")
}

func (s *ReviewService) loadApplication(ctx context.Context, id uuid.UUID) (*EngineerApplication, error) {
	app, err := s.apps.GetWithUser(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrApplicationNotFound.WithMetadata(map[string]any{
				"application_id": id.String(),
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load application")
	}
	return app, nil
}

func (s *ReviewService) review(ctx context.Context, reviewer Identity, app *EngineerApplication, action ReviewAction, notes string) (*ReviewOutcome, error) {
	actor := ActorRef{ID: reviewer.ID(), Type: "user"}

	opts := []ReviewOption{WithReviewNotes(notes)}
	if reviewerID, err := uuid.Parse(reviewer.ID()); err == nil {
		opts = append(opts, WithReviewerID(reviewerID))
	}

	outcome, err := s.machine.Transition(ctx, actor, app, action, opts...)
	if err != nil {
		return nil, err
	}

	if outcome.PromoteApplicant {
		if _, err := s.users.Promote(ctx, app.UserID, RoleEngineer, UserStatusActive); err != nil {
			// the decision is recorded; surface the half-applied state
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "application approved but promoting the applicant failed").
				WithMetadata(map[string]any{
					"application_id": app.ID.String(),
					"user_id":        app.UserID.String(),
				})
		}
	}

	s.notifyApplicant(ctx, app, outcome.PromoteApplicant)

	return outcome, nil
}

// notifyApplicant is best effort; a mail failure does not undo a recorded
// decision.
func (s *ReviewService) notifyApplicant(ctx context.Context, app *EngineerApplication, approved bool) {
	if s.notifier == nil || app.User == nil {
		return
	}

	if err := s.notifier.SendApplicationDecision(ctx, app.User, approved); err != nil {
		s.logger.Warn("failed to notify applicant %s: %v", app.User.Email, err)
	}
}

// NotifyAdmins fans an application out to every active admin, each with
// their own approve/reject links.
func (s *ReviewService) NotifyAdmins(ctx context.Context, app *EngineerApplication) error {
	if s.notifier == nil {
		return nil
	}

	admins, err := s.users.ListByMinimumRole(ctx, RoleAdmin)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list admins for notification")
	}

	var failures int
	for _, admin := range admins {
		approveURL, err := s.ActionURL(app.ID, admin.Email, ReviewActionApprove)
		if err != nil {
			return err
		}
		rejectURL, err := s.ActionURL(app.ID, admin.Email, ReviewActionReject)
		if err != nil {
			return err
		}

		if err := s.notifier.SendApplicationNotification(ctx, admin, app, approveURL, rejectURL); err != nil {
			failures++
			s.logger.Warn("failed to notify admin %s: %v", admin.Email, err)
		}
	}

	if failures > 0 && failures == len(admins) {
		return goerrors.New("could not notify any admin", goerrors.CategoryOperation).
			WithTextCode(TextCodeNotificationFailed)
	}

	return nil
}

// ActionURL builds the one-click decision link for a given admin.
func (s *ReviewService) ActionURL(applicationID uuid.UUID, adminEmail string, action ReviewAction) (string, error) {
	token, err := s.tokens.IssueActionToken(applicationID, adminEmail, action)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s/api/v1/admin/email-action/%s/%s", s.baseURL, string(action), token), nil
}
