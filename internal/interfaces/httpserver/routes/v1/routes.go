package v1

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"babel-bridge/internal/infrastructure/auth"
	"babel-bridge/internal/interfaces/httpserver/handlers"
	"babel-bridge/internal/utils/platformerrors"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers       *handlers.Provider
	authMiddleware gin.HandlerFunc
	authLimiter    gin.HandlerFunc
	log            zerolog.Logger
}

// NewRoutes builds the v1 route registrar. authMiddleware guards everything
// except registration, login and the catalog; authLimiter throttles the first two.
func NewRoutes(handlerProvider *handlers.Provider, authMiddleware, authLimiter gin.HandlerFunc, log zerolog.Logger) *Routes {
	return &Routes{
		handlers:       handlerProvider,
		authMiddleware: authMiddleware,
		authLimiter:    authLimiter,
		log:            log,
	}
}

// Register attaches all v1 routes under /v1 prefix.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/v1")
	registerAuthRoutes(group.Group("", r.authLimiter), r.handlers.Auth, r.log)
	registerMetaRoutes(group, r.handlers.Meta)

	protected := group.Group("", r.authMiddleware)
	registerRoomRoutes(protected, r.handlers.Room, r.log)
	registerConversationRoutes(protected, r.handlers.Conversation, r.log)
}

func caller(c *gin.Context) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		platformerrors.WriteUnauthorized(c, "missing bearer token")
	}
	return p, ok
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		platformerrors.WriteValidationError(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		platformerrors.WriteValidationError(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
