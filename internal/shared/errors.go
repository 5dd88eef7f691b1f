package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the actor lacks the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrAccountNotApproved indicates login attempted on a pending or rejected account.
	ErrAccountNotApproved = errors.New("account not approved")
)

// UserSafeMessage converts internal errors into a message safe to show users.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Record not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is incorrect"
	case errors.Is(err, ErrAccountNotApproved):
		return "Your account is awaiting approval"
	case errors.Is(err, ErrForbidden):
		return "You do not have permission to perform this action"
	default:
		return "Something went wrong, please try again"
	}
}
