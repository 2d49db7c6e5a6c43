package authkit

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole string

const (
	// RoleCustomer is the default role for self-registered accounts
	RoleCustomer UserRole = "customer"
	// RoleEngineer is granted once an engineer application is approved
	RoleEngineer UserRole = "engineer"
	// RoleAdmin can review applications and manage users
	RoleAdmin UserRole = "admin"
	// RoleSuperAdmin can additionally create admins and deactivate them
	RoleSuperAdmin UserRole = "super_admin"
)

// UserStatus captures the account lifecycle state
type UserStatus string

const (
	// UserStatusPending means the account awaits approval (engineer applicants)
	UserStatusPending UserStatus = "pending"
	// UserStatusActive means the account can authenticate
	UserStatusActive UserStatus = "active"
	// UserStatusInactive means the account was deactivated by an admin
	UserStatusInactive UserStatus = "inactive"
	// UserStatusSuspended means the account is temporarily blocked
	UserStatusSuspended UserStatus = "suspended"
)

// OTPPurpose scopes a one-time code to the flow that requested it
type OTPPurpose string

const (
	OTPPurposeLogin             OTPPurpose = "login"
	OTPPurposeRegistration      OTPPurpose = "registration"
	OTPPurposePasswordReset     OTPPurpose = "password_reset"
	OTPPurposeEmailVerification OTPPurpose = "email_verification"
)

// ApplicationStatus is the engineer application workflow state
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// ReviewAction is the decision an admin takes on a pending application
type ReviewAction string

const (
	ReviewActionApprove ReviewAction = "approve"
	ReviewActionReject  ReviewAction = "reject"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName      string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Username       string     `bun:"username,notnull,unique" json:"username,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	Status         UserStatus `bun:"status,notnull" json:"status,omitempty"`
	Department     string     `bun:"department" json:"department,omitempty"`
	Dealer         string     `bun:"dealer" json:"dealer,omitempty"`
	MachineModel   string     `bun:"machine_model" json:"machine_model,omitempty"`
	Region         string     `bun:"region" json:"region,omitempty"`
	EmailValidated bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	SuspendedAt    *time.Time `bun:"suspended_at,nullzero" json:"suspended_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus backfills the zero value so records created before the status
// column behave as active accounts.
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}

// IsActive reports whether the account can authenticate.
func (u *User) IsActive() bool {
	u.EnsureStatus()
	return u.Status == UserStatusActive
}

// FullName joins the name parts for display and email templates.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

func statusAuthError(status UserStatus) error {
	switch status {
	case UserStatusActive, "":
		return nil
	case UserStatusPending:
		return ErrAccountPending
	default:
		return ErrAccountInactive
	}
}

// OTPVerification is one issued one-time code. Codes are scoped to an
// (email, purpose) pair; issuing a new code removes prior unused codes for
// the same pair.
type OTPVerification struct {
	bun.BaseModel `bun:"table:otp_verifications,alias:otp"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Code          string     `bun:"code,notnull" json:"-"`
	Purpose       OTPPurpose `bun:"purpose,notnull" json:"purpose,omitempty"`
	Used          bool       `bun:"used" json:"used,omitempty"`
	Attempts      int        `bun:"attempts" json:"attempts,omitempty"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// EngineerApplication tracks a pending engineer account through review.
// Approved and rejected are terminal.
type EngineerApplication struct {
	bun.BaseModel `bun:"table:engineer_applications,alias:app"`
	ID            uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID         `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User             `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Department    string            `bun:"department" json:"department,omitempty"`
	Experience    string            `bun:"experience" json:"experience,omitempty"`
	CoverLetter   string            `bun:"cover_letter" json:"cover_letter,omitempty"`
	Status        ApplicationStatus `bun:"status,notnull" json:"status,omitempty"`
	ReviewerID    *uuid.UUID        `bun:"reviewer_id,nullzero,type:uuid" json:"reviewer_id,omitempty"`
	Reviewer      *User             `bun:"rel:belongs-to,join:reviewer_id=id" json:"reviewer,omitempty"`
	ReviewNotes   string            `bun:"review_notes" json:"review_notes,omitempty"`
	ReviewedAt    *time.Time        `bun:"reviewed_at,nullzero" json:"reviewed_at,omitempty"`
	CreatedAt     *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus backfills the zero value; applications start pending.
func (a *EngineerApplication) EnsureStatus() {
	if a.Status == "" {
		a.Status = ApplicationStatusPending
	}
}

// IsPending reports whether the application still awaits review.
func (a *EngineerApplication) IsPending() bool {
	a.EnsureStatus()
	return a.Status == ApplicationStatusPending
}

// TargetStatus maps a review action to the application status it produces.
func (r ReviewAction) TargetStatus() (ApplicationStatus, bool) {
	switch r {
	case ReviewActionApprove:
		return ApplicationStatusApproved, true
	case ReviewActionReject:
		return ApplicationStatusRejected, true
	default:
		return "", false
	}
}
