package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sentinelops/incidentdesk/internal/model"
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"

	// DefaultIssuer is the iss claim stamped on every token.
	DefaultIssuer = "incidentdesk"
)

// TokenConfig is the process-wide signing configuration, built once at startup.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	// Clock overrides time.Now for issuing and validating. Optional.
	Clock func() time.Time
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	AdminID  int64
	Username string
}

// TokenManager issues and verifies HS256 access and refresh tokens. It never
// consults the store.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
	parser     *jwt.Parser
}

type tokenClaims struct {
	AdminID  int64  `json:"admin_id"`
	Username string `json:"username"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// NewTokenManager validates cfg and returns a ready TokenManager.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive (access %s, refresh %s)", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if cfg.AccessTTL >= cfg.RefreshTTL {
		return nil, fmt.Errorf("access TTL %s must be shorter than refresh TTL %s", cfg.AccessTTL, cfg.RefreshTTL)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &TokenManager{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		now:        cfg.Clock,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(cfg.Clock),
		),
	}, nil
}

// IssueAccessToken signs a short-lived access token for admin.
func (m *TokenManager) IssueAccessToken(admin *model.Admin) (string, error) {
	return m.issue(admin, tokenUseAccess, m.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for admin.
func (m *TokenManager) IssueRefreshToken(admin *model.Admin) (string, error) {
	return m.issue(admin, tokenUseRefresh, m.refreshTTL)
}

// VerifyAccessToken returns the identity carried by an access token.
func (m *TokenManager) VerifyAccessToken(token string) (*Identity, error) {
	return m.verify(token, tokenUseAccess)
}

// VerifyRefreshToken returns the identity carried by a refresh token.
func (m *TokenManager) VerifyRefreshToken(token string) (*Identity, error) {
	return m.verify(token, tokenUseRefresh)
}

func (m *TokenManager) issue(admin *model.Admin, use string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := tokenClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(admin.ID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", use, err)
	}
	return signed, nil
}

// verify checks signature, issuer and expiry, then the token_use claim. The
// signature is checked before any claim, so an expired result always means
// the token was genuinely ours.
func (m *TokenManager) verify(tokenStr, use string) (*Identity, error) {
	if tokenStr == "" {
		return nil, ErrTokenInvalid
	}

	claims := &tokenClaims{}
	_, err := m.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims.TokenUse != use || claims.AdminID <= 0 {
		return nil, ErrTokenInvalid
	}
	if claims.Subject != strconv.FormatInt(claims.AdminID, 10) {
		return nil, ErrTokenInvalid
	}

	return &Identity{AdminID: claims.AdminID, Username: claims.Username}, nil
}
