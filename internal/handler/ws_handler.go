package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ieltsprep/ielts-backend/internal/metrics"
	"github.com/ieltsprep/ielts-backend/internal/middleware"
	"github.com/ieltsprep/ielts-backend/internal/response"
	"github.com/ieltsprep/ielts-backend/internal/service"
	ws "github.com/ieltsprep/ielts-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams autosave and submit for an open attempt.
type WSHandler struct {
	attempts *service.AttemptService
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attempts *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/learner/attempts/:attempt_id/stream?token=
// Each autosave is acknowledged with the new "N / total" progress. A submit
// replies with the receipt and closes the stream.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	attemptID, ok := parseID(c, "attempt_id")
	if !ok {
		return
	}

	// Reject before upgrading so the client gets a normal HTTP error.
	if _, err := h.attempts.Get(c.Request.Context(), attemptID, claims.UserID); err != nil {
		failFromService(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("learner_id", claims.UserID).
		Str("attempt_id", attemptID.String()).
		Logger()
	wsLog.Info().Msg("Learner connected")

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionAutosave:
			h.handleAutosave(c, conn, wsLog, attemptID, claims.UserID, &msg)
		case ws.ActionSubmit:
			if h.handleSubmit(c, conn, wsLog, attemptID, claims.UserID) {
				return
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			ws.WriteError(conn, string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		}
	}
}

// handleAutosave stores one answer in the attempt hash.
func (h *WSHandler) handleAutosave(c *gin.Context, conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, learnerID string, msg *ws.Request) {
	// Parsing also keeps arbitrary strings out of the Redis hash field names.
	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		ws.WriteError(conn, string(response.ErrInvalidID), "invalid q_id format")
		return
	}
	if len(msg.Answer) > 1000 {
		ws.WriteError(conn, string(response.ErrValidation), "ans must be at most 1000 characters")
		return
	}

	progress, err := h.attempts.SaveAnswer(c.Request.Context(), attemptID, learnerID, questionID, msg.Answer)
	if err != nil {
		h.writeServiceError(conn, wsLog, err)
		return
	}
	metrics.AnswersSaved.WithLabelValues("ws").Inc()

	ws.WriteTyped(conn, ws.SavedResponse{
		Event:    ws.EventSaved,
		QID:      msg.QID,
		Answered: progress.Answered,
		Total:    progress.Total,
	})
}

// handleSubmit submits the attempt. Reports whether the stream should end.
func (h *WSHandler) handleSubmit(c *gin.Context, conn *websocket.Conn, wsLog zerolog.Logger, attemptID uuid.UUID, learnerID string) bool {
	receipt, err := h.attempts.Submit(c.Request.Context(), attemptID, learnerID)
	if err != nil {
		h.writeServiceError(conn, wsLog, err)
		return errors.Is(err, service.ErrAttemptNotFound)
	}

	wsLog.Info().
		Int("answered", receipt.Answered).
		Int("total", receipt.Total).
		Msg("Attempt submitted over stream")

	ws.WriteTyped(conn, ws.SubmittedResponse{Event: ws.EventSubmitted, Receipt: *receipt})
	ws.Close(conn, "submitted")
	return true
}

func (h *WSHandler) writeServiceError(conn *websocket.Conn, wsLog zerolog.Logger, err error) {
	if code, _, ok := lookupError(err); ok {
		ws.WriteError(conn, string(code), response.GetMessage(code))
		return
	}
	wsLog.Error().Err(err).Msg("Stream action failed")
	ws.WriteError(conn, string(response.ErrInternal), response.GetMessage(response.ErrInternal))
}
