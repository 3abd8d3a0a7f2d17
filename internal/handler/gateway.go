package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/wardenlink/internal/presence"
	"github.com/aryan0dhankhar/wardenlink/internal/security"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
	"github.com/aryan0dhankhar/wardenlink/internal/security/middleware"
)

const (
	pingInterval = 15 * time.Second
	pongWait     = 45 * time.Second
	writeWait    = 5 * time.Second
	maxFrameSize = 4096
)

// Client frame names.
const (
	frameJoin      = "join"
	frameJoinGroup = "join-group"
	frameError     = "error"
)

// GroupMembership answers whether a user belongs to a group.
type GroupMembership interface {
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
}

// GatewayHandler upgrades authenticated clients to websocket sessions that
// receive message and presence pushes.
type GatewayHandler struct {
	authn          middleware.Authenticator
	groups         GroupMembership
	hub            *presence.Hub
	tracker        *presence.Tracker
	allowedOrigins []string
	logger         *slog.Logger
}

func NewGatewayHandler(
	authn middleware.Authenticator,
	groups GroupMembership,
	hub *presence.Hub,
	tracker *presence.Tracker,
	allowedOrigins []string,
	logger *slog.Logger,
) *GatewayHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GatewayHandler{
		authn:          authn,
		groups:         groups,
		hub:            hub,
		tracker:        tracker,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

func (h *GatewayHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Non-browser clients send no origin.
				return true
			}
			if middleware.OriginAllowed(h.allowedOrigins, origin) {
				return true
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

type inboundFrame struct {
	Event string `json:"event"`
	Data  struct {
		UserID  string `json:"userId"`
		GroupID string `json:"groupId"`
	} `json:"data"`
}

// session is one upgraded connection.
type session struct {
	h      *GatewayHandler
	user   *domain.User
	conn   *websocket.Conn
	client *presence.Client
	joined bool
}

// ServeHTTP handles GET /ws?token=
func (h *GatewayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = auth.ExtractToken(r.Header.Get("Authorization"))
	}
	user, err := h.authn.Authenticate(r.Context(), token)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	s := &session{h: h, user: user, conn: conn, client: h.hub.Register(user.ID)}
	metrics.WebsocketOpened()
	h.logger.Debug("websocket connected", slog.String("user_id", user.ID))

	done := make(chan struct{})
	go s.writeLoop(done)
	s.readLoop(r.Context())

	h.hub.Unregister(s.client)
	<-done
	_ = conn.Close()
	metrics.WebsocketClosed()

	if s.joined {
		// The request context is gone once the client hangs up.
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := h.tracker.Disconnect(ctx, user.ID); err != nil {
			h.logger.Error("presence disconnect failed", slog.String("user_id", user.ID), slog.String("error", err.Error()))
		}
		h.reportOnline(ctx)
	}
	h.logger.Debug("websocket closed", slog.String("user_id", user.ID))
}

func (s *session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f inboundFrame
		if err := s.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.h.logger.Debug("websocket read ended", slog.String("user_id", s.user.ID), slog.String("reason", err.Error()))
			}
			return
		}
		s.handle(ctx, f)
	}
}

func (s *session) handle(ctx context.Context, f inboundFrame) {
	switch f.Event {
	case frameJoin:
		if f.Data.UserID != s.user.ID {
			s.reject("cannot join as another user")
			return
		}
		if s.joined {
			return
		}
		s.h.hub.Join(s.client, presence.UserRoom(s.user.ID))
		if err := s.h.tracker.Connect(ctx, s.user.ID); err != nil {
			s.h.logger.Error("presence connect failed", slog.String("user_id", s.user.ID), slog.String("error", err.Error()))
			return
		}
		s.joined = true
		s.h.reportOnline(ctx)
	case frameJoinGroup:
		if !security.PrincipalOf(s.user).IsSuperAdmin() {
			member, err := s.h.groups.IsMember(ctx, f.Data.GroupID, s.user.ID)
			if err != nil || !member {
				s.reject("not a member of this group")
				return
			}
		}
		s.h.hub.Join(s.client, presence.GroupRoom(f.Data.GroupID))
	default:
		s.reject("unknown event")
	}
}

// reject queues an error frame without blocking the read loop.
func (s *session) reject(msg string) {
	data, _ := json.Marshal(messageResponse{Message: msg})
	ev := presence.Event{Name: frameError, Payload: data}
	s.h.hub.DeliverTo(s.client, ev)
}

func (s *session) writeLoop(done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-s.client.Send():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				// Unblock the reader so the session unwinds.
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}

func (h *GatewayHandler) reportOnline(ctx context.Context) {
	ids, err := h.tracker.OnlineUserIDs(ctx)
	if err != nil {
		return
	}
	metrics.SetOnlineUsers(len(ids))
}
