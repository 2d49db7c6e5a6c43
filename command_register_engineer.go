package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterEngineerMessage struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	PhoneRegion string `json:"phone_region"`
	Password    string `json:"password"`
	Department  string `json:"department"`
	Dealer      string `json:"dealer"`
	Experience  string `json:"experience"`
	CoverLetter string `json:"cover_letter"`
	UseHashid   bool
	OnResponse  func(user *User, app *EngineerApplication)
}

func (e RegisterEngineerMessage) Type() string { return "user.register_engineer" }

// RegisterEngineerHandler creates a pending engineer account plus its review
// application in one transaction, then notifies the admins. The account
// cannot log in until an admin approves it.
type RegisterEngineerHandler struct {
	repo    RepositoryManager
	reviews *ReviewService
}

func NewRegisterEngineerHandler(repo RepositoryManager, reviews *ReviewService) *RegisterEngineerHandler {
	return &RegisterEngineerHandler{repo: repo, reviews: reviews}
}

func (h *RegisterEngineerHandler) Execute(ctx context.Context, event RegisterEngineerMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during engineer registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterEngineerHandler) execute(ctx context.Context, event RegisterEngineerMessage) error {
	user := &User{}
	app := &EngineerApplication{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if event.Phone != "" {
		if err := validatePhone(event.Phone, event.PhoneRegion); err != nil {
			return err
		}
	}

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
		user.Phone = event.Phone
		user.FirstName = event.FirstName
		user.LastName = event.LastName
		user.Username = getUsername(event.Username, event.Email)
		user.Role = RoleEngineer
		user.Status = UserStatusPending
		user.Department = event.Department
		user.Dealer = event.Dealer
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		app.UserID = user.ID
		app.Department = event.Department
		app.Experience = event.Experience
		app.CoverLetter = event.CoverLetter
		app.Status = ApplicationStatusPending

		if app, err = h.repo.EngineerApplications().CreateTx(ctx, tx, app); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create engineer application")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "engineer registration transaction failed")
	}

	app.User = user

	// notification is best effort: the application exists either way and
	// remains visible on the admin dashboard
	if h.reviews != nil {
		if err := h.reviews.NotifyAdmins(ctx, app); err != nil {
			defLogger{}.Warn("failed to notify admins about application %s: %v", app.ID, err)
		}
	}

	if event.OnResponse != nil {
		event.OnResponse(user, app)
	}

	return nil
}
