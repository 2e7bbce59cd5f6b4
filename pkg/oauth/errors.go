package oauth

import "github.com/pkg/errors"

// Sentinel errors mapped onto OAuth error codes at the HTTP boundary
var (
	// ErrInvalidRequest signals missing or malformed request parameters
	ErrInvalidRequest = errors.New("invalid_request")
	// ErrInvalidClient signals an unknown client or failed client authentication
	ErrInvalidClient = errors.New("invalid_client")
	// ErrInvalidGrant signals an expired, consumed or mismatched code or token
	ErrInvalidGrant = errors.New("invalid_grant")
	// ErrInvalidToken signals a token that failed validation
	ErrInvalidToken = errors.New("invalid_token")
	// ErrAccessDenied signals a failed grant or ownership check
	ErrAccessDenied = errors.New("access_denied")
)
