package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"babel-bridge/internal/interfaces/httpserver/handlers"
	"babel-bridge/internal/interfaces/httpserver/requests"
	"babel-bridge/internal/utils/platformerrors"
)

func registerRoomRoutes(router gin.IRoutes, handler *handlers.RoomHandler, log zerolog.Logger) {
	router.POST("/rooms", createRoom(handler, log))
	router.POST("/rooms/join", joinRoom(handler, log))
	router.GET("/rooms", listRooms(handler, log))
	router.GET("/rooms/:room_id", getRoom(handler, log))
}

// createRoom godoc
// @Summary      Create a room
// @Description  Opens a waiting room for 2-4 players. The caller joins as its first member.
// @Tags         rooms
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      requests.CreateRoomRequest  true  "Room settings"
// @Success      201      {object}  responses.RoomResponse
// @Failure      400      {object}  platformerrors.HTTPErrorResponse
// @Failure      401      {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/rooms [post]
func createRoom(handler *handlers.RoomHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := caller(c)
		if !ok {
			return
		}
		var req requests.CreateRoomRequest
		if !bindJSON(c, &req) {
			return
		}
		result, err := handler.CreateRoom(c.Request.Context(), principal, req)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

// joinRoom godoc
// @Summary      Join a room by code
// @Tags         rooms
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      requests.JoinRoomRequest  true  "Join code and display name"
// @Success      200      {object}  responses.RoomResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Failure      409      {object}  platformerrors.HTTPErrorResponse  "Room full, already started or already joined"
// @Router       /v1/rooms/join [post]
func joinRoom(handler *handlers.RoomHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := caller(c)
		if !ok {
			return
		}
		var req requests.JoinRoomRequest
		if !bindJSON(c, &req) {
			return
		}
		result, err := handler.JoinRoom(c.Request.Context(), principal, req)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// listRooms godoc
// @Summary      List my rooms
// @Description  Rooms the caller belongs to, newest first.
// @Tags         rooms
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  responses.RoomResponse
// @Router       /v1/rooms [get]
func listRooms(handler *handlers.RoomHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := caller(c)
		if !ok {
			return
		}
		result, err := handler.ListRooms(c.Request.Context(), principal)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// getRoom godoc
// @Summary      Get a room
// @Tags         rooms
// @Security     BearerAuth
// @Produce      json
// @Param        room_id  path      string  true  "Room ID"
// @Success      200      {object}  responses.RoomResponse
// @Failure      403      {object}  platformerrors.HTTPErrorResponse
// @Failure      404      {object}  platformerrors.HTTPErrorResponse
// @Router       /v1/rooms/{room_id} [get]
func getRoom(handler *handlers.RoomHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := caller(c)
		if !ok {
			return
		}
		result, err := handler.GetRoom(c.Request.Context(), principal, c.Param("room_id"))
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
