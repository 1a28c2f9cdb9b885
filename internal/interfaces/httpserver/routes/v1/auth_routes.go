package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"babel-bridge/internal/interfaces/httpserver/handlers"
	"babel-bridge/internal/interfaces/httpserver/requests"
	"babel-bridge/internal/utils/platformerrors"
)

func registerAuthRoutes(router gin.IRoutes, handler *handlers.AuthHandler, log zerolog.Logger) {
	router.POST("/auth/register", register(handler, log))
	router.POST("/auth/login", login(handler, log))
}

// register godoc
// @Summary      Register a player
// @Description  Creates an account and returns an access token. Usernames are case-insensitive.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      requests.RegisterRequest  true  "Credentials"
// @Success      201      {object}  responses.TokenResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      409      {object}  platformerrors.HTTPErrorResponse
// @Failure      429      {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/auth/register [post]
func register(handler *handlers.AuthHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.RegisterRequest
		if !bindJSON(c, &req) {
			return
		}
		result, err := handler.Register(c.Request.Context(), req)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

// login godoc
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      requests.LoginRequest  true  "Credentials"
// @Success      200      {object}  responses.TokenResponse
// @Failure      401      {object}  platformerrors.HTTPErrorResponse
// @Failure      429      {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/auth/login [post]
func login(handler *handlers.AuthHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req requests.LoginRequest
		if !bindJSON(c, &req) {
			return
		}
		result, err := handler.Login(c.Request.Context(), req)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
