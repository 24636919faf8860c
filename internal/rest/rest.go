package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"voyager.com/euchre/internal/game"
	"voyager.com/euchre/internal/view"
	"voyager.com/euchre/logging"
)

var restLogger = logging.GetZeroLogger("rest", nil)

// Source is the running session the endpoints report on.
type Source interface {
	Table() view.Table
	SessionState() string
	Player() game.Player
	Submit(line string) bool
}

// commandPayload is the body of POST /command.
type commandPayload struct {
	Line string `json:"line"`
}

// NewRouter registers the status endpoints.
func NewRouter(src Source) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/state", func(c *gin.Context) {
		player := src.Player()
		c.JSON(http.StatusOK, gin.H{
			"session":  src.SessionState(),
			"playerId": player.ID,
			"name":     player.Name,
			"table":    src.Table(),
		})
	})
	r.GET("/state/text", func(c *gin.Context) {
		c.String(http.StatusOK, view.Text(src.Table()))
	})
	r.POST("/command", func(c *gin.Context) {
		var payload commandPayload
		if err := c.BindJSON(&payload); err != nil {
			errMsg := fmt.Sprintf("Failed to parse payload. Error: %s", err)
			restLogger.Error().Msg(errMsg)
			c.JSON(http.StatusBadRequest, gin.H{"error": errMsg})
			return
		}
		if !src.Submit(payload.Line) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "command not accepted"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	return r
}

// RunRestServer serves the endpoints until the listener fails.
func RunRestServer(src Source, portNo uint) error {
	restLogger.Info().Msgf("Status endpoint listening on port %d", portNo)
	return NewRouter(src).Run(fmt.Sprintf(":%d", portNo))
}
