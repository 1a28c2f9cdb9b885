package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"babel-bridge/internal/config"
	"babel-bridge/internal/utils/platformerrors"
)

const principalKey = "auth_principal"

// Principal is the authenticated caller.
type Principal struct {
	UserID   string
	Username string
}

// Claims are the JWT claims issued to players.
type Claims struct {
	Username          string `json:"username"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

// Validator issues HS256 player tokens and validates them, along with RS256
// tokens from an external identity provider when JWKS is enabled.
type Validator struct {
	cfg    *config.Config
	log    zerolog.Logger
	secret []byte
	jwks   *keyfunc.JWKS
	now    func() time.Time
}

// NewValidator initializes JWKS fetching when it is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	v := &Validator{
		cfg:    cfg,
		log:    log.With().Str("component", "auth").Logger(),
		secret: []byte(cfg.JWTSecret),
		now:    time.Now,
	}
	if !cfg.AuthJWKSEnabled {
		return v, nil
	}

	options := keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Msg("jwks refresh error")
		},
	}
	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, options)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	v.jwks = jwks
	return v, nil
}

// Issue signs a token for the user, valid for JWT_EXPIRE.
func (v *Validator) Issue(userID, username string) (string, error) {
	now := v.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.cfg.ServiceName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.cfg.JWTExpire)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Parse validates tokenString and returns its principal.
func (v *Validator) Parse(tokenString string) (Principal, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, v.keyfunc,
		jwt.WithValidMethods([]string{"HS256", "RS256", "RS384", "RS512"}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Principal{}, err
	}
	if !token.Valid {
		return Principal{}, errors.New("invalid token")
	}

	if _, external := token.Method.(*jwt.SigningMethodRSA); external {
		if err := v.checkProvider(claims); err != nil {
			return Principal{}, err
		}
	}

	username := claims.Username
	if username == "" {
		username = claims.PreferredUsername
	}
	if claims.Subject == "" {
		return Principal{}, errors.New("token has no subject")
	}
	return Principal{UserID: claims.Subject, Username: username}, nil
}

func (v *Validator) keyfunc(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		if v.jwks == nil {
			return nil, errors.New("external tokens are not accepted")
		}
		return v.jwks.Keyfunc(token)
	default:
		return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
	}
}

func (v *Validator) checkProvider(claims Claims) error {
	if v.cfg.AuthIssuer != "" && claims.Issuer != v.cfg.AuthIssuer {
		return errors.New("unexpected issuer")
	}
	if v.cfg.AuthAudience != "" && !slices.Contains(claims.Audience, v.cfg.AuthAudience) {
		return errors.New("unexpected audience")
	}
	return nil
}

// Close stops the JWKS refresh goroutine.
func (v *Validator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Middleware rejects requests without a valid bearer token and stores the
// principal on the gin context.
func (v *Validator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			platformerrors.WriteUnauthorized(c, "missing bearer token")
			return
		}

		principal, err := v.Parse(tokenString)
		if err != nil {
			v.log.Debug().Err(err).Msg("reject token")
			platformerrors.WriteUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// PrincipalFromContext returns the caller stored by Middleware.
func PrincipalFromContext(c *gin.Context) (Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	principal, ok := value.(Principal)
	return principal, ok
}

// SetPrincipal stores p on the gin context.
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
