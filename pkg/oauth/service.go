// Package oauth implements the per-resource OAuth 2.1 authorization server:
// authorization-code issuance with mandatory PKCE, token minting and
// validation, RFC 7662 introspection and the discovery documents.
package oauth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/d4l-data4life/go-svc/pkg/logging"

	"github.com/lazaroMB/mcp-to-api/pkg/access"
	"github.com/lazaroMB/mcp-to-api/pkg/models"
)

// Service issues and validates resource-scoped tokens. All tokens are HS256
// JWTs signed with a single shared secret and additionally stored as rows,
// so introspection and revocation work on the exact token string.
type Service struct {
	db         *gorm.DB
	secret     []byte
	baseURL    string
	codeTTL    time.Duration
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Config carries the construction-time settings for the token service
type Config struct {
	Secret          []byte
	BaseURL         string
	CodeTTL         time.Duration
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// NewService creates a token service
func NewService(db *gorm.DB, cfg Config) *Service {
	return &Service{
		db:         db,
		secret:     cfg.Secret,
		baseURL:    cfg.BaseURL,
		codeTTL:    cfg.CodeTTL,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

// CodeRequest is a validated authorization request
type CodeRequest struct {
	ClientID            string
	RedirectURI         string
	CodeChallenge       string
	CodeChallengeMethod string
	Scope               string
	Resource            string
}

// TokenResponse is the token endpoint response body (RFC 6749 §5.1)
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Claims are the validated claims of an accepted access token
type Claims struct {
	UserID    uuid.UUID
	ClientID  string
	MCPID     uuid.UUID
	Scope     string
	ExpiresAt time.Time
}

// Scopes returns the claim's scope split into single values
func (c *Claims) Scopes() []string {
	if c.Scope == "" {
		return nil
	}
	return strings.Fields(c.Scope)
}

// IssueCode creates a single-use, PKCE-bound authorization code for the
// given resource and user. Fails with ErrAccessDenied when the principal
// has no valid grant.
func (s *Service) IssueCode(mcp *models.MCP, userID uuid.UUID, req CodeRequest) (*models.AuthorizationCode, error) {
	if req.ClientID == "" || req.RedirectURI == "" || req.CodeChallenge == "" {
		return nil, ErrInvalidRequest
	}
	if req.CodeChallengeMethod != "" && req.CodeChallengeMethod != models.CodeChallengeMethodS256 {
		return nil, ErrInvalidRequest
	}

	ok, err := access.CanAccess(s.db, mcp, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAccessDenied
	}

	code, err := randomToken(32)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate authorization code")
	}

	record := &models.AuthorizationCode{
		Code:                code,
		ClientID:            req.ClientID,
		UserID:              userID,
		MCPID:               mcp.ID,
		RedirectURI:         req.RedirectURI,
		Scope:               req.Scope,
		Resource:            req.Resource,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: models.CodeChallengeMethodS256,
		ExpiresAt:           time.Now().Add(s.codeTTL),
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, errors.Wrap(err, "failed to store authorization code")
	}
	return record, nil
}

// ExchangeCode consumes an authorization code and mints a token pair for
// the resource whose token endpoint received it. A code issued for another
// resource, or presented while the resource is disabled, fails with
// ErrInvalidGrant. The consume is an atomic check-and-invalidate, so a
// replayed code fails even under concurrent exchange attempts.
func (s *Service) ExchangeCode(mcp *models.MCP, code, verifier, clientID, redirectURI string) (*TokenResponse, error) {
	if code == "" || verifier == "" {
		return nil, ErrInvalidRequest
	}
	if !mcp.Enabled {
		return nil, ErrInvalidGrant
	}

	var record models.AuthorizationCode
	if err := s.db.Where("code = ?", code).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, errors.Wrap(err, "failed to load authorization code")
	}

	if record.MCPID != mcp.ID {
		return nil, ErrInvalidGrant
	}
	if record.IsExpired() || record.ClientID != clientID || record.RedirectURI != redirectURI {
		return nil, ErrInvalidGrant
	}
	if !VerifyPKCE(verifier, record.CodeChallenge) {
		return nil, ErrInvalidGrant
	}

	// single-use consume: the guarded update wins for exactly one caller
	consume := s.db.Model(&models.AuthorizationCode{}).
		Where("id = ? AND used = ?", record.ID, false).
		Update("used", true)
	if consume.Error != nil {
		return nil, errors.Wrap(consume.Error, "failed to consume authorization code")
	}
	if consume.RowsAffected == 0 {
		return nil, ErrInvalidGrant
	}

	return s.mint(mcp, record.UserID, record.ClientID, record.Scope)
}

// Refresh rotates a refresh token into a new token pair, bound to the
// resource whose token endpoint received it. The old pair is revoked
// before the new one is returned.
func (s *Service) Refresh(mcp *models.MCP, refreshToken, clientID string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRequest
	}
	if !mcp.Enabled {
		return nil, ErrInvalidGrant
	}

	var record models.OAuthToken
	if err := s.db.Where("refresh_token = ?", refreshToken).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, errors.Wrap(err, "failed to load refresh token")
	}
	if record.MCPID != mcp.ID || record.RevokedAt != nil || record.ClientID != clientID {
		return nil, ErrInvalidGrant
	}

	now := time.Now()
	revoke := s.db.Model(&models.OAuthToken{}).
		Where("id = ? AND revoked_at IS NULL", record.ID).
		Update("revoked_at", now)
	if revoke.Error != nil {
		return nil, errors.Wrap(revoke.Error, "failed to revoke token pair")
	}
	if revoke.RowsAffected == 0 {
		return nil, ErrInvalidGrant
	}

	return s.mint(mcp, record.UserID, record.ClientID, record.Scope)
}

// mint signs a new access token and stores its row together with a fresh
// refresh token
func (s *Service) mint(mcp *models.MCP, userID uuid.UUID, clientID, scope string) (*TokenResponse, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)
	jti := uuid.NewString()

	tok := jwt.New()
	claims := map[string]interface{}{
		jwt.IssuerKey:     IssuerURL(s.baseURL, mcp.Slug),
		jwt.SubjectKey:    userID.String(),
		jwt.AudienceKey:   mcp.ID.String(),
		jwt.IssuedAtKey:   now,
		jwt.ExpirationKey: expiresAt,
		jwt.JwtIDKey:      jti,
		"client_id":       clientID,
		"scope":           scope,
	}
	for k, v := range claims {
		if err := tok.Set(k, v); err != nil {
			return nil, errors.Wrapf(err, "failed to set claim %s", k)
		}
	}

	signed, err := jwt.Sign(tok, jwa.HS256, s.secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign access token")
	}

	refresh, err := randomToken(32)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate refresh token")
	}

	record := &models.OAuthToken{
		AccessToken:  string(signed),
		RefreshToken: &refresh,
		TokenType:    "Bearer",
		ClientID:     clientID,
		UserID:       userID,
		MCPID:        mcp.ID,
		Scope:        scope,
		ExpiresAt:    expiresAt,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, errors.Wrap(err, "failed to store access token")
	}

	logging.LogDebugf("Issued token for mcp %s, client %s", mcp.Slug, clientID)

	return &TokenResponse{
		AccessToken:  record.AccessToken,
		TokenType:    record.TokenType,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		RefreshToken: refresh,
		Scope:        scope,
	}, nil
}

// Validate checks token signature, expiry and resource binding. A token
// minted for resource A never validates for resource B.
func (s *Service) Validate(tokenStr string, mcpID uuid.UUID) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.Parse(
		[]byte(tokenStr),
		jwt.WithValidate(true),
		jwt.WithVerify(jwa.HS256, s.secret),
		jwt.WithAudience(mcpID.String()),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// the row carries revocation state the JWT cannot
	var record models.OAuthToken
	if err := s.db.Where("access_token = ?", tokenStr).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, errors.Wrap(err, "failed to load token record")
	}
	if !record.IsValid() || record.MCPID != mcpID {
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		UserID:    record.UserID,
		ClientID:  record.ClientID,
		MCPID:     record.MCPID,
		Scope:     record.Scope,
		ExpiresAt: record.ExpiresAt,
	}
	if sub := parsed.Subject(); sub != "" && sub != record.UserID.String() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Introspect implements RFC 7662 for one resource. Invalid, expired,
// revoked or cross-resource tokens yield {"active": false}; only a storage
// failure is surfaced as an error so the endpoint can fail closed.
func (s *Service) Introspect(tokenStr string, mcpID uuid.UUID) (map[string]interface{}, error) {
	inactive := map[string]interface{}{"active": false}
	if tokenStr == "" {
		return inactive, nil
	}

	var record models.OAuthToken
	if err := s.db.Where("access_token = ?", tokenStr).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return inactive, nil
		}
		return nil, errors.Wrap(err, "introspection lookup failed")
	}
	if !record.IsValid() || record.MCPID != mcpID {
		return inactive, nil
	}

	return map[string]interface{}{
		"active":     true,
		"scope":      record.Scope,
		"client_id":  record.ClientID,
		"sub":        record.UserID.String(),
		"aud":        record.MCPID.String(),
		"exp":        record.ExpiresAt.Unix(),
		"token_type": record.TokenType,
	}, nil
}
