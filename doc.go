// Package authkit provides role based authentication for a service backend:
// password and one time code login, JWT issuance, and the engineer
// application review workflow.
//
// Accounts and roles:
//   - Users carry a UserRole (customer, engineer, admin, super_admin) and a
//     UserStatus persisted via Bun. The role hierarchy is strictly ordered;
//     RequireRole enforces minimum rank and RequireExactRole enforces an
//     exact match for operations like admin creation.
//   - Engineer accounts start pending behind an EngineerApplication. The
//     ApplicationStateMachine owns the pending to approved/rejected graph and
//     records a single decision per application; approval promotes the
//     applicant to an active engineer.
//
// Tokens:
//   - TokenService issues short lived access tokens and long lived action
//     tokens. Action tokens embed the application, the reviewing admin, and
//     the decision, so an email link can carry the whole operation. The two
//     uses are mutually exclusive at validation time.
//
// One time codes:
//   - OTPService issues purpose scoped codes with bounded attempts and a
//     single successful use. OTPVerifications is the Bun backed store; any
//     OTPStore implementation works.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by Auther, the OTP
//     service, and the state machine to describe login, lifecycle, and
//     review events. Sinks run best-effort (errors are logged) so you can
//     forward to a database or queue without blocking authentication.
package authkit
