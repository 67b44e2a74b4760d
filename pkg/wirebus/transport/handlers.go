package transport

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/randalmurphal/wirebus/pkg/wirebus/peer"
)

// requireSecret rejects requests that do not carry the shared secret as a
// bearer token.
func requireSecret(secret string) gin.HandlerFunc {
	want := "Bearer " + secret
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != want {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"reason":  "unauthorized",
			})
			return
		}
		c.Next()
	}
}

// handleStatus answers GET /status with the node's current snapshot.
func (s *Server) handleStatus(c *gin.Context) {
	snap := s.backend.Status()
	c.JSON(http.StatusOK, snap.Response())
}

// handleEmit answers POST /emit. The event is dispatched to the local
// listeners only; the sender fans out to other peers itself.
//
// Failures are reported in-band: the response stays 200 with success=false
// and a reason, so the sender can distinguish "peer refused the emission"
// from "peer unreachable".
func (s *Server) handleEmit(c *gin.Context) {
	var req peer.EmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, peer.EmitResponse{
			Success: false,
			Reason:  "malformed emit request: " + err.Error(),
		})
		return
	}
	if req.Event == "" {
		c.JSON(http.StatusOK, peer.EmitResponse{
			Success: false,
			Reason:  "missing event name",
		})
		return
	}

	hadListeners, err := s.backend.DispatchWire(req.Event, req.Symbol, req.Args)
	if err != nil {
		if s.config.Logger != nil {
			s.config.Logger.Warn("inbound emit failed",
				slog.String("event", req.Event),
				slog.String("error", err.Error()))
		}
		c.JSON(http.StatusOK, peer.EmitResponse{
			Success: false,
			Reason:  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, peer.EmitResponse{
		Success:      true,
		HadListeners: hadListeners,
	})
}

// handleEventNames answers GET /event-names with the display texts of the
// locally listened events.
func (s *Server) handleEventNames(c *gin.Context) {
	names := s.backend.EventNames()
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, peer.EventNamesResponse{
		Success: true,
		Events:  names,
	})
}
