package httpx

import (
	"net/http"

	"github.com/meridian-dist/meridian/internal/shared"
)

// RespondError is the catch-all for errors no handler branch recognized.
// The raw error text never reaches the client; shared.UserSafeMessage picks
// a presentable detail instead.
func RespondError(w http.ResponseWriter, err error) {
	Problem(w, http.StatusInternalServerError, "Internal Error", shared.UserSafeMessage(err))
}
