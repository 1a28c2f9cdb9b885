package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"babel-bridge/internal/interfaces/httpserver/handlers"
	"babel-bridge/internal/interfaces/httpserver/requests"
	"babel-bridge/internal/utils/platformerrors"
)

func registerConversationRoutes(router gin.IRoutes, handler *handlers.ConversationHandler, log zerolog.Logger) {
	router.POST("/rooms/:room_id/conversations", startConversation(handler, log))
	router.GET("/rooms/:room_id/conversations", listConversations(handler, log))
	router.GET("/rooms/:room_id/conversations/:conv_id", getConversation(handler, log))
	router.POST("/rooms/:room_id/conversations/:conv_id/turns/:turn_number", submitTurn(handler, log))
}

// startConversation godoc
// @Summary      Start a conversation
// @Description  Room creator only. Seats members in join order, fills empty seats with AI and generates every turn.
// @Tags         conversations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        room_id  path      string                               true   "Room ID"
// @Param        request  body      requests.StartConversationRequest  false  "Optional scenario prompt"
// @Success      201      {object}  responses.ConversationResponse
// @Failure      403      {object}  platformerrors.HTTPErrorResponse
// @Failure      409      {object}  platformerrors.HTTPErrorResponse
// @Failure      502      {object}  platformerrors.HTTPErrorResponse  "Dialogue generation failed"
// @Router       /v1/rooms/{room_id}/conversations [post]
func startConversation(handler *handlers.ConversationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := caller(c)
		if !ok {
			return
		}
		var req requests.StartConversationRequest
		if !bindOptionalJSON(c, &req) {
			return
		}
		result, err := handler.StartConversation(c.Request.Context(), principal, c.Param("room_id"), req)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

// listConversations godoc
// @Summary      List conversations in a room
// @Description  Newest first.
// @Tags         conversations
// @Security     BearerAuth
// @Produce      json
// @Param        room_id  path      string  true  "Room ID"
// @Success      200      {array}   responses.ConversationResponse
// @Failure      403      {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/rooms/{room_id}/conversations [get]
func listConversations(handler *handlers.ConversationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := caller(c)
		if !ok {
			return
		}
		result, err := handler.ListConversations(c.Request.Context(), principal, c.Param("room_id"))
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// getConversation godoc
// @Summary      Get a conversation
// @Tags         conversations
// @Security     BearerAuth
// @Produce      json
// @Param        room_id  path      string  true  "Room ID"
// @Param        conv_id  path      string  true  "Conversation ID"
// @Success      200      {object}  responses.ConversationResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/rooms/{room_id}/conversations/{conv_id} [get]
func getConversation(handler *handlers.ConversationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := caller(c)
		if !ok {
			return
		}
		result, err := handler.GetConversation(c.Request.Context(), principal, c.Param("room_id"), c.Param("conv_id"))
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// submitTurn godoc
// @Summary      Submit a turn
// @Description  Scores the caller's response against the turn's reference line and advances to the next human turn.
// @Tags         conversations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        room_id      path      string                      true  "Room ID"
// @Param        conv_id      path      string                      true  "Conversation ID"
// @Param        turn_number  path      int                         true  "Turn number"
// @Param        request      body      requests.SubmitTurnRequest  true  "Response text"
// @Success      200          {object}  responses.ConversationResponse
// @Failure      400          {object}  platformerrors.HTTPErrorResponse
// @Failure      403          {object}  platformerrors.HTTPErrorResponse  "Not your turn"
// @Failure      404          {object}  platformerrors.HTTPErrorResponse
// @Failure      409          {object}  platformerrors.HTTPErrorResponse  "Turn mismatch or conversation completed"
// @Router       /v1/rooms/{room_id}/conversations/{conv_id}/turns/{turn_number} [post]
func submitTurn(handler *handlers.ConversationHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := caller(c)
		if !ok {
			return
		}
		var req requests.SubmitTurnRequest
		if !bindJSON(c, &req) {
			return
		}
		result, err := handler.SubmitTurn(c.Request.Context(), principal, c.Param("room_id"), c.Param("conv_id"), c.Param("turn_number"), req)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
