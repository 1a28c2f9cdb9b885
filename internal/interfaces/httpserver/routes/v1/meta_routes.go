package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"babel-bridge/internal/interfaces/httpserver/handlers"
)

func registerMetaRoutes(router gin.IRoutes, handler *handlers.MetaHandler) {
	router.GET("/meta", getMeta(handler))
}

// getMeta godoc
// @Summary      List languages and levels
// @Description  Returns the supported languages and CEFR levels with their default scenarios.
// @Tags         meta
// @Produce      json
// @Success      200  {object}  responses.MetaResponse
// @Router       /v1/meta [get]
func getMeta(handler *handlers.MetaHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, handler.GetMeta())
	}
}
