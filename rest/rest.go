package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"deckhall.com/server/game"
)

var restLogger = log.With().Str("logger_name", "game::rest").Logger()
var gameManager *game.Manager

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//
// APP error definition
//
type appError struct {
	Kind   game.ErrorKind `json:"kind"`
	Reason string         `json:"reason"`
}

type createTableRequest struct {
	Name     string `json:"name"`
	Template string `json:"fk_template"`
}

type actionRequest struct {
	Action string              `json:"action"`
	Data   jsoniter.RawMessage `json:"data"`
}

// RunRestServer serves the engine boundary: table creation, actions
// and polling. Authentication is external; the acting identity arrives
// in the X-User-Id header.
func RunRestServer(manager *game.Manager, listenAddr string) error {
	gameManager = manager
	return newRouter().Run(listenAddr)
}

func newRouter() *gin.Engine {
	r := gin.Default()
	r.POST("/tables", createTable)
	r.POST("/tables/:code/join", joinTable)
	r.POST("/tables/:code/actions", tableAction)
	r.GET("/tables/:code/poll", pollTable)
	return r
}

func userID(c *gin.Context) (game.UserID, bool) {
	id := c.GetHeader("X-User-Id")
	if id == "" {
		c.JSON(http.StatusForbidden, appError{game.KindForbidden, "user identity missing"})
		return "", false
	}
	return game.UserID(id), true
}

func reject(c *gin.Context, err error) {
	kind := game.Kind(err)
	reason := err.Error()
	if kind == game.KindUnexpected {
		restLogger.Error().Err(err).Msg("Unexpected error handling request")
		reason = "unexpected error"
	}
	c.JSON(kindStatus(kind), appError{kind, reason})
}

func kindStatus(kind game.ErrorKind) int {
	switch kind {
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindConflict:
		return http.StatusConflict
	case game.KindBadRequest:
		return http.StatusBadRequest
	case game.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func createTable(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	var req createTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reject(c, game.BadRequestError{Msg: "malformed request body"})
		return
	}
	state, err := gameManager.CreateTable(c.Request.Context(), user, req.Name, req.Template)
	if err != nil {
		reject(c, err)
		return
	}
	c.JSON(http.StatusCreated, state)
}

func joinTable(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	state, err := gameManager.JoinTable(c.Request.Context(), user, c.Param("code"))
	if err != nil {
		reject(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func tableAction(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		reject(c, game.BadRequestError{Msg: "malformed request body"})
		return
	}
	action, err := parseAction(req)
	if err != nil {
		reject(c, err)
		return
	}

	state, err := gameManager.HandleAction(c.Request.Context(), user, c.Param("code"), action)
	if err != nil {
		reject(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// parseAction decodes the action-specific payload shape.
func parseAction(req actionRequest) (game.Action, error) {
	action := game.Action{Type: game.ActionType(req.Action)}
	malformed := game.BadRequestError{Msg: "malformed action data"}

	switch action.Type {
	case game.ActionBid:
		var data game.BidData
		if len(req.Data) > 0 {
			if err := json.Unmarshal(req.Data, &data); err != nil {
				return action, malformed
			}
		}
		action.Bid = &data
	case game.ActionMove:
		var data game.MoveData
		if len(req.Data) > 0 {
			if err := json.Unmarshal(req.Data, &data); err != nil {
				return action, malformed
			}
		}
		action.Move = &data
	case game.ActionDistribute:
		if len(req.Data) > 0 {
			if err := json.Unmarshal(req.Data, &action.Distribute); err != nil {
				return action, malformed
			}
		}
	}
	return action, nil
}

func pollTable(c *gin.Context) {
	user, ok := userID(c)
	if !ok {
		return
	}
	since := time.Time{}
	if s := c.Query("since"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			reject(c, game.BadRequestError{Msg: "invalid since timestamp"})
			return
		}
		since = parsed
	}
	result, err := gameManager.Poll(c.Request.Context(), user, c.Param("code"), since)
	if err != nil {
		reject(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
