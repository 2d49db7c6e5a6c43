package authkit

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/google/uuid"
)

// RegisterAuthRoutes mounts the authentication and account management routes.
// Admin routes are wrapped with the controller's protected middleware.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Post(controller.Routes.OTPRequest, controller.OTPRequest).
		SetName("otp-request.post")
	app.Post(controller.Routes.OTPLogin, controller.OTPLogin).
		SetName("otp-login.post")

	app.Post(controller.Routes.Register, controller.RegisterCustomer).
		SetName("register.post")
	app.Post(controller.Routes.RegisterEngineer, controller.RegisterEngineer).
		SetName("register-engineer.post")

	app.Get(
		fmt.Sprintf("%s/:action/:token", controller.Routes.EmailAction),
		controller.EmailAction,
	).SetName("email-action.get")

	protected := controller.protectedMiddleware()

	app.Get(controller.Routes.Applications, protected(controller.ListApplications)).
		SetName("applications.get")
	app.Post(
		fmt.Sprintf("%s/:id/review", controller.Routes.Applications),
		protected(controller.ReviewApplication),
	).SetName("applications-review.post")

	app.Post(controller.Routes.Admins, protected(controller.CreateAdmin)).
		SetName("admins.post")
	app.Post(
		fmt.Sprintf("%s/:id/deactivate", controller.Routes.Users),
		protected(controller.DeactivateUser),
	).SetName("users-deactivate.post")
}

type AuthControllerRoutes struct {
	Login            string
	OTPRequest       string
	OTPLogin         string
	Register         string
	RegisterEngineer string
	EmailAction      string
	Applications     string
	Admins           string
	Users            string
}

type AuthControllerViews struct {
	ReviewResult string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Config       Config
	Routes       *AuthControllerRoutes
	Views        *AuthControllerViews
	Auther       *RouteAuthenticator
	Reviews      *ReviewService
	OTP          *OTPService
	Notifier     *Notifier
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:            "/auth/login",
			OTPRequest:       "/auth/otp/request",
			OTPLogin:         "/auth/otp/login",
			Register:         "/auth/register",
			RegisterEngineer: "/auth/register/engineer",
			EmailAction:      "/admin/email-action",
			Applications:     "/admin/applications",
			Admins:           "/admin/admins",
			Users:            "/admin/users",
		},
		Views: &AuthControllerViews{
			ReviewResult: "pages/review_result",
		},
	}
	c.ErrorHandler = c.respondError

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerReviews(reviews *ReviewService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Reviews = reviews
		return c
	}
}

func WithControllerOTP(otp *OTPService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.OTP = otp
		return c
	}
}

func WithControllerNotifier(notifier *Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = notifier
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func (a *AuthController) protectedMiddleware() router.MiddlewareFunc {
	return a.Auther.ProtectedRoute(
		a.Config,
		a.Auther.MakeClientRouteAuthErrorHandler(false),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	token, err := a.Auther.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("login error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	a.Auther.setCookieToken(ctx, token, a.Auther.cookieDuration)

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"success": true,
		"token":   token,
	})
}

// OTPRequestPayload asks for a one time code to be mailed out
type OTPRequestPayload struct {
	Email   string `form:"email" json:"email"`
	Purpose string `form:"purpose" json:"purpose"`
}

// Validate will run validation rules
func (r OTPRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(
			&r.Purpose,
			validation.Required,
			validation.In(
				string(OTPPurposeLogin),
				string(OTPPurposeRegistration),
				string(OTPPurposePasswordReset),
				string(OTPPurposeEmailVerification),
			),
		),
	)
}

func (a *AuthController) OTPRequest(ctx router.Context) error {
	payload := new(OTPRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("otp request parse payload: ", "error", err)
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	handler := NewRequestOTPHandler(a.Repo, a.OTP, a.Notifier)
	req := RequestOTPMessage{
		Email:   payload.Email,
		Purpose: OTPPurpose(payload.Purpose),
	}

	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("otp request error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"success": true,
		"message": "verification code sent",
	})
}

// OTPLoginPayload exchanges a mailed code for an access token
type OTPLoginPayload struct {
	Email string `form:"email" json:"email"`
	Code  string `form:"code" json:"code"`
}

// Validate will run validation rules
func (r OTPLoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Code, validation.Required, is.Digit),
	)
}

func (a *AuthController) OTPLogin(ctx router.Context) error {
	payload := new(OTPLoginPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("otp login parse payload: ", "error", err)
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	token, err := a.Auther.auth.LoginWithOTP(ctx.Context(), payload.Email, payload.Code)
	if err != nil {
		a.Logger.Error("otp login error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	a.Auther.setCookieToken(ctx, token, a.Auther.cookieDuration)

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"success": true,
		"token":   token,
	})
}

// RegisterCustomerPayload is the customer sign up payload
type RegisterCustomerPayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	MachineModel    string `form:"machine_model" json:"machine_model"`
	Dealer          string `form:"dealer" json:"dealer"`
	Region          string `form:"region" json:"region"`
}

// Validate will validate the payload
func (r RegisterCustomerPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(PasswordMinLength, PasswordMaxLength)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegisterCustomer(ctx router.Context) error {
	payload := new(RegisterCustomerPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload: ", "error", err)
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload: ", "error", err)
		return a.validationError(ctx, err)
	}

	var created *User
	req := RegisterUserMessage{
		FirstName:    payload.FirstName,
		LastName:     payload.LastName,
		Username:     payload.Username,
		Email:        payload.Email,
		Phone:        payload.Phone,
		Password:     payload.Password,
		MachineModel: payload.MachineModel,
		Dealer:       payload.Dealer,
		Region:       payload.Region,
		OnResponse: func(user *User) {
			created = user
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, router.ViewContext{
		"success": true,
		"user":    userView(created),
	})
}

// RegisterEngineerPayload is the engineer application payload
type RegisterEngineerPayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Phone           string `form:"phone_number" json:"phone_number"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	Department      string `form:"department" json:"department"`
	Dealer          string `form:"dealer" json:"dealer"`
	Experience      string `form:"experience" json:"experience"`
	CoverLetter     string `form:"cover_letter" json:"cover_letter"`
}

// Validate will validate the payload
func (r RegisterEngineerPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(PasswordMinLength, PasswordMaxLength)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(&r.Department, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Experience, validation.Required),
	)
}

func (a *AuthController) RegisterEngineer(ctx router.Context) error {
	payload := new(RegisterEngineerPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register engineer parse payload: ", "error", err)
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register engineer validate payload: ", "error", err)
		return a.validationError(ctx, err)
	}

	var created *User
	var application *EngineerApplication

	req := RegisterEngineerMessage{
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
		Username:    payload.Username,
		Email:       payload.Email,
		Phone:       payload.Phone,
		Password:    payload.Password,
		Department:  payload.Department,
		Dealer:      payload.Dealer,
		Experience:  payload.Experience,
		CoverLetter: payload.CoverLetter,
		OnResponse: func(user *User, app *EngineerApplication) {
			created = user
			application = app
		},
	}

	registerEngineer := NewRegisterEngineerHandler(a.Repo, a.Reviews)
	if err := registerEngineer.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register engineer error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, router.ViewContext{
		"success": true,
		"user":    userView(created),
		"application": router.ViewContext{
			"id":     application.ID.String(),
			"status": string(application.Status),
		},
		"message": "application submitted, pending admin review",
	})
}

func (a *AuthController) ListApplications(ctx router.Context) error {
	reviewer, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := RequireRole(reviewer, RoleAdmin); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	apps, err := a.Repo.EngineerApplications().ListPending(ctx.Context())
	if err != nil {
		a.Logger.Error("list applications error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	items := make([]router.ViewContext, 0, len(apps))
	for _, app := range apps {
		item := router.ViewContext{
			"id":         app.ID.String(),
			"status":     string(app.Status),
			"department": app.Department,
			"experience": app.Experience,
			"created_at": app.CreatedAt,
		}
		if app.User != nil {
			item["applicant"] = userView(app.User)
		}
		items = append(items, item)
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"success":      true,
		"applications": items,
	})
}

// ReviewPayload carries an admin decision over an application
type ReviewPayload struct {
	Action string `form:"action" json:"action"`
	Notes  string `form:"notes" json:"notes"`
}

// Validate will run validation rules
func (r ReviewPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Action,
			validation.Required,
			validation.In(
				string(ReviewActionApprove),
				string(ReviewActionReject),
			),
		),
		validation.Field(&r.Notes, validation.Length(0, 2000)),
	)
}

func (a *AuthController) ReviewApplication(ctx router.Context) error {
	payload := new(ReviewPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("review parse payload: ", "error", err)
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	applicationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, goerrors.New("invalid application id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	reviewer, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	outcome, err := a.Reviews.Review(
		ctx.Context(),
		reviewer,
		applicationID,
		ReviewAction(payload.Action),
		payload.Notes,
	)
	if err != nil {
		a.Logger.Error("review application error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	if a.Debug {
		fmt.Println("======= APPLICATION REVIEW ======")
		fmt.Println(print.MaybePrettyJSON(outcome))
		fmt.Println("=================================")
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"success": true,
		"application": router.ViewContext{
			"id":     outcome.Application.ID.String(),
			"status": string(outcome.To),
		},
	})
}

// EmailAction executes a one click decision from an admin notification email.
// The action token in the path authenticates the admin; the result renders as
// a plain HTML page since the click comes from a mail client.
func (a *AuthController) EmailAction(ctx router.Context) error {
	raw := ctx.Param("token")

	outcome, err := a.Reviews.ReviewByActionToken(ctx.Context(), raw)
	if err != nil {
		if goerrors.Is(err, ErrAlreadyReviewed) {
			return flash.WithError(ctx, router.ViewContext{
				"error_message": "this application has already been reviewed",
			}).Render(a.Views.ReviewResult, router.ViewContext{
				"title":   "Already Reviewed",
				"message": "A decision for this application was already recorded. Nothing was changed.",
			})
		}

		a.Logger.Error("email action error: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message": err.Error(),
		}).Status(fiber.StatusBadRequest).Render(a.Views.ReviewResult, router.ViewContext{
			"title":   "Invalid Link",
			"message": "This review link is invalid or has expired.",
		})
	}

	title := "Application Rejected"
	message := "The engineer application has been rejected."
	if outcome.To == ApplicationStatusApproved {
		title = "Application Approved"
		message = "The engineer application has been approved and the account activated."
	}

	view := router.ViewContext{
		"title":   title,
		"message": message,
	}
	if outcome.Application.User != nil {
		view["applicant_email"] = outcome.Application.User.Email
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": title,
	}).Render(a.Views.ReviewResult, view)
}

// CreateAdminPayload is the super admin only payload for minting admins
type CreateAdminPayload struct {
	FirstName  string `form:"first_name" json:"first_name"`
	LastName   string `form:"last_name" json:"last_name"`
	Email      string `form:"email" json:"email"`
	Password   string `form:"password" json:"password"`
	Department string `form:"department" json:"department"`
}

// Validate will validate the payload
func (r CreateAdminPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(PasswordMinLength, PasswordMaxLength)),
	)
}

func (a *AuthController) CreateAdmin(ctx router.Context) error {
	payload := new(CreateAdminPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("create admin parse payload: ", "error", err)
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	actor, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	var created *User
	req := CreateAdminMessage{
		Actor:      actor,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Email:      payload.Email,
		Password:   payload.Password,
		Department: payload.Department,
		OnResponse: func(user *User) {
			created = user
		},
	}

	createAdmin := NewCreateAdminHandler(a.Repo, nil)
	if err := createAdmin.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("create admin error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusCreated, router.ViewContext{
		"success": true,
		"user":    userView(created),
	})
}

// DeactivatePayload carries the reason for taking an account down
type DeactivatePayload struct {
	Reason string `form:"reason" json:"reason"`
}

// Validate will run validation rules
func (r DeactivatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Length(0, 500)),
	)
}

func (a *AuthController) DeactivateUser(ctx router.Context) error {
	payload := new(DeactivatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("deactivate parse payload: ", "error", err)
		return a.bindError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(ctx, err)
	}

	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return a.ErrorHandler(ctx, goerrors.New("invalid user id", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	actor, err := a.currentUser(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	var updated *User
	req := DeactivateUserMessage{
		Actor:  actor,
		UserID: userID,
		Reason: payload.Reason,
		OnResponse: func(user *User) {
			updated = user
		},
	}

	deactivate := NewDeactivateUserHandler(a.Repo, nil)
	if err := deactivate.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("deactivate user error: ", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, router.ViewContext{
		"success": true,
		"user":    userView(updated),
	})
}

// currentUser resolves the request principal back to a live account so that
// role checks run against fresh status, not a stale token.
func (a *AuthController) currentUser(ctx router.Context) (Identity, error) {
	claims, ok := GetRouterClaims(ctx, a.Config.GetContextKey())
	if !ok {
		return nil, ErrUnableToMapClaims
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), claims.Subject())
	if err != nil {
		if isNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve request principal")
	}

	return NewIdentityFromUser(user), nil
}

func (a *AuthController) bindError(ctx router.Context, err error) error {
	return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
		"success": false,
		"error": router.ViewContext{
			"message": "Error parsing body",
			"details": err.Error(),
		},
	})
}

func (a *AuthController) validationError(ctx router.Context, err error) error {
	return ctx.JSON(fiber.StatusBadRequest, router.ViewContext{
		"success": false,
		"error": router.ViewContext{
			"message":    "Error validating payload",
			"validation": FormatValidationErrorToMap(err),
		},
	})
}

func (a *AuthController) respondError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		switch richErr.Category {
		case goerrors.CategoryAuth:
			status = fiber.StatusUnauthorized
		case goerrors.CategoryAuthz:
			status = fiber.StatusForbidden
		case goerrors.CategoryNotFound:
			status = fiber.StatusNotFound
		case goerrors.CategoryConflict:
			status = fiber.StatusConflict
		case goerrors.CategoryBadInput, goerrors.CategoryValidation:
			status = fiber.StatusBadRequest
		case goerrors.CategoryRateLimit:
			status = fiber.StatusTooManyRequests
		default:
			status = fiber.StatusInternalServerError
		}
	}

	return ctx.JSON(status, router.ViewContext{
		"success": false,
		"error": router.ViewContext{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	})
}

func userView(user *User) router.ViewContext {
	if user == nil {
		return nil
	}
	return router.ViewContext{
		"id":         user.ID.String(),
		"email":      user.Email,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       string(user.Role),
		"status":     string(user.Status),
	}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a field to
// message map usable in API responses and template contexts.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			out[strings.ToLower(field)] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
