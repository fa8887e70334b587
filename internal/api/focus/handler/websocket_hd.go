package focusHandler

import (
	"errors"
	"sync"
	"time"

	"StudySanctuary/internal/api/focus"
	focusService "StudySanctuary/internal/api/focus/service"
	"StudySanctuary/internal/middleware"
	"StudySanctuary/pkg/camera"
	contextPkg "StudySanctuary/pkg/context"
	"StudySanctuary/pkg/log"
	"StudySanctuary/pkg/response"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	maxReadTimeout = 60 * time.Second
	writeTimeout   = 10 * time.Second
)

// SessionStarted is the first message of every monitoring socket.
type SessionStarted struct {
	SessionID string `json:"session_id"`
}

// socketWriter serializes writes; binary frames are answered from their own goroutines.
type socketWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *socketWriter) writeJSON(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := w.conn.WriteJSON(v); err != nil {
		return err
	}
	return w.conn.SetWriteDeadline(time.Time{})
}

func (w *socketWriter) close(code int, text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	_ = w.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
	_ = w.conn.Close()
}

func (h *FocusHandler) handleWebSocket(c *websocket.Conn) {
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)
	userID := c.Query("user_id")

	base := contextPkg.WithRequestID(context.Background(), requestID)
	if userID != "" {
		base = contextPkg.WithUserID(base, userID)
	}
	ctx, cancel := context.WithCancel(base)
	defer cancel()

	logger := log.FromContext(h.log, ctx)

	live, err := h.focusService.StartSession(ctx, userID)
	if err != nil {
		logger.Errorf("Failed to start focus session: %v", err)
		_ = c.WriteJSON(focus.SocketError{Error: "failed to start focus session"})
		return
	}

	logger = logger.WithField("session_id", live.ID)
	logger.Info("Focus WebSocket client connected")

	w := &socketWriter{conn: c}
	var inflight sync.WaitGroup

	defer func() {
		cancel()
		inflight.Wait()
		if _, err := h.focusService.StopSession(base, live); err != nil {
			logger.Errorf("Failed to store focus session: %v", err)
		}
		logger.Info("Focus WebSocket client disconnected")
	}()

	c.SetPingHandler(func(data string) error {
		w.mu.Lock()
		defer w.mu.Unlock()
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			logger.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	if err := w.writeJSON(SessionStarted{SessionID: live.ID}); err != nil {
		logger.Errorf("Error writing session id: %v", err)
		return
	}

	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			logger.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Errorf("Focus WebSocket error: %v", err)
			} else {
				logger.Debug("Focus WebSocket connection closed")
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			if err := h.handleLandmarks(ctx, w, live, message); err != nil {
				logger.Errorf("Error writing focus frame: %v", err)
				return
			}
		case websocket.BinaryMessage:
			inflight.Add(1)
			go func(frame []byte) {
				defer inflight.Done()
				h.handleCameraFrame(ctx, logger, w, live, frame)
			}(message)
		default:
			logger.Warnf("Received unexpected message type: %d", messageType)
		}
	}
}

func (h *FocusHandler) handleLandmarks(ctx context.Context, w *socketWriter, live *focusService.LiveSession, message []byte) error {
	var msg focus.LandmarkMessage
	if err := jsoniter.Unmarshal(message, &msg); err != nil {
		return w.writeJSON(focus.SocketError{Error: "malformed landmark message", Code: response.Key(focus.ErrInvalidLandmarks)})
	}
	if err := h.validator.Struct(msg); err != nil {
		return w.writeJSON(focus.SocketError{Error: err.Error(), Code: response.Key(focus.ErrInvalidLandmarks)})
	}

	landmarks, err := msg.LandmarkSet()
	if err != nil {
		return w.writeJSON(focus.SocketError{Error: err.Error(), Code: response.Key(focus.ErrInvalidLandmarks)})
	}

	frame, ok := h.focusService.Process(ctx, live, landmarks)
	if !ok {
		return nil
	}
	return w.writeJSON(frame)
}

// handleCameraFrame answers one binary frame. A detector that cannot be reached ends the session.
func (h *FocusHandler) handleCameraFrame(ctx context.Context, logger *logrus.Entry, w *socketWriter, live *focusService.LiveSession, frame []byte) {
	result, ok, err := h.focusService.ProcessFrame(ctx, live, frame)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, camera.ErrUnavailable) {
			logger.Errorf("Detector unavailable: %v", err)
			_ = w.writeJSON(focus.SocketError{Error: focus.ErrDetectorUnavailable.Error(), Code: response.Key(focus.ErrDetectorUnavailable)})
			w.close(websocket.CloseTryAgainLater, "detector unavailable")
			return
		}
		logger.Warnf("Error processing camera frame: %v", err)
		_ = w.writeJSON(focus.SocketError{Error: "failed to process frame"})
		return
	}
	if !ok {
		return
	}
	if err := w.writeJSON(result); err != nil {
		logger.Errorf("Error writing focus frame: %v", err)
	}
}
