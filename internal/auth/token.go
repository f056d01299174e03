package auth

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateSessionToken returns the opaque session token persisted in the
// credential store. It binds the user id and issuance time with a random
// component for uniqueness. The token is unsigned; the store itself is the
// trust boundary.
func GenerateSessionToken(userID string, issuedAt time.Time) string {
	raw := fmt.Sprintf("%s:%d:%s", userID, issuedAt.UnixNano(), uuid.New().String())
	return base64.StdEncoding.EncodeToString([]byte(raw))
}
