package oauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/pkg/errors"
)

// Session tokens identify a logged-in user at the authorize endpoint. They
// are signed with the same shared secret but marked with a distinct type
// claim so an access token can never be used as a session and vice versa.
const sessionTokenType = "session"

// MintSessionToken signs a session token for the given user
func (s *Service) MintSessionToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.New()
	fields := map[string]interface{}{
		jwt.SubjectKey:    userID.String(),
		jwt.IssuedAtKey:   now,
		jwt.ExpirationKey: now.Add(ttl),
		"typ":             sessionTokenType,
	}
	for k, v := range fields {
		if err := tok.Set(k, v); err != nil {
			return "", errors.Wrapf(err, "failed to set claim %s", k)
		}
	}
	signed, err := jwt.Sign(tok, jwa.HS256, s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session token")
	}
	return string(signed), nil
}

// ParseSessionToken validates a session token and returns the user ID
func (s *Service) ParseSessionToken(tokenStr string) (uuid.UUID, error) {
	if tokenStr == "" {
		return uuid.Nil, ErrInvalidToken
	}
	parsed, err := jwt.Parse(
		[]byte(tokenStr),
		jwt.WithValidate(true),
		jwt.WithVerify(jwa.HS256, s.secret),
	)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	typ, ok := parsed.Get("typ")
	if !ok || typ != sessionTokenType {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(parsed.Subject())
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}
