package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/featureflags"
	"github.com/aryan0dhankhar/wardenlink/internal/presence"
	"github.com/aryan0dhankhar/wardenlink/internal/repository/memory"
	"github.com/aryan0dhankhar/wardenlink/internal/security"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
	"github.com/aryan0dhankhar/wardenlink/internal/security/auth"
	"github.com/aryan0dhankhar/wardenlink/internal/security/crypto"
	"github.com/aryan0dhankhar/wardenlink/internal/security/middleware"
	"github.com/aryan0dhankhar/wardenlink/internal/service"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type testServer struct {
	*httptest.Server
	store  *memory.Store
	tokens *auth.TokenManager
	hasher *auth.Hasher
	roles  *service.RoleResolver
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager("test-secret", "wardenlink", time.Hour)
	auditLog := audit.NewLogger(store.Audit(), log)
	authz := security.NewAuthorizer(log)
	roles := service.NewRoleResolver(store.Roles(), time.Minute)
	cipher, err := crypto.NewMessageCipher(testKey)
	require.NoError(t, err)
	require.NoError(t, service.NewSeeder(store.Roles(), store.Users(), hasher, log).SeedRoles(context.Background()))

	hub := presence.NewHub(log)
	tracker := presence.NewTracker(presence.NewMemoryCounter(), hub, log)

	authSvc := service.NewAuthService(store.Users(), hasher, tokens, auditLog, log)
	groupSvc := service.NewGroupService(store.Groups(), store.Users(), log)
	pollSvc := service.NewPollService(store.Polls(), auditLog, log)
	notifySvc := service.NewNotificationService(store.Notifications(), hub, log)

	h := Handlers{
		Auth:    NewAuthHandler(authSvc, log),
		Invites: NewInviteHandler(service.NewInviteService(store.Invites(), store.Users(), roles, hasher, auditLog, "https://app.example", log), log),
		Users: NewUserHandler(service.NewUserService(store.Users(), roles, hasher, authz, auditLog,
			featureflags.FromMap(map[string]bool{featureflags.PublicSignup: true}), log), log),
		Messages: NewMessageHandler(service.NewMessageService(store.Messages(), store.Users(), store.Groups(), cipher, hub, authz, log), log),
		Groups:   NewGroupHandler(groupSvc, log),
		Welfare:  NewWelfareHandler(service.NewWelfareService(store.Welfare(), auditLog, log), pollSvc, log),
		Reports:  NewReportHandler(service.NewReportService(store.Reports(), auditLog, log), log),
		Uploads:  NewUploadHandler(service.NewUploadService(nil, 0, log), log),
		Audit:    NewAuditHandler(auditLog, log),
		Presence: NewPresenceHandler(tracker, log),
		Health:   NewHealthHandler(map[string]Checker{"store": func(context.Context) error { return nil }}, log),
		Gateway:  NewGatewayHandler(authSvc, groupSvc, hub, tracker, []string{"https://app.example"}, log),

		Posts:         NewPostHandler(service.NewPostService(store.Posts(), store.Users(), notifySvc, authz, auditLog, log), log),
		Comments:      NewCommentHandler(service.NewCommentService(store.Comments(), store.Posts(), notifySvc, log), log),
		Pages:         NewPageHandler(service.NewPageService(store.Pages(), log), log),
		Notifications: NewNotificationHandler(notifySvc, log),
	}
	mux := http.NewServeMux()
	Register(mux, h, middleware.NewGuard(authSvc, authz, auditLog, log), nil)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store, tokens: tokens, hasher: hasher, roles: roles}
}

// user creates an active account and returns it with a bearer token.
func (s *testServer) user(t *testing.T, name string, role domain.RoleName) (*domain.User, string) {
	t.Helper()
	ctx := context.Background()
	r, err := s.roles.ByName(ctx, role)
	require.NoError(t, err)
	pw, err := s.hasher.Hash("password-" + name)
	require.NoError(t, err)
	u := &domain.User{
		FullName: name, Email: name + "@wardens.example", ServiceID: "SID-" + name,
		PasswordHash: pw, Role: r, Status: domain.UserActive, IsSuperAdmin: role == domain.RoleSuperAdmin,
	}
	require.NoError(t, s.store.Users().Create(ctx, u))
	token, _, err := s.tokens.Issue(u)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// field decodes the value stored under key in an enveloped response.
func field[T any](t *testing.T, resp *http.Response, key string) T {
	t.Helper()
	body := decode[map[string]json.RawMessage](t, resp)
	raw, ok := body[key]
	require.True(t, ok, "response has no %q key: %v", key, body)
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestLoginEndpoint(t *testing.T) {
	s := newTestServer(t)
	u, _ := s.user(t, "amina", domain.RoleWarden)

	resp := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": u.Email, "password": "password-amina"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.NotEmpty(t, body["token"])
	assert.NotContains(t, body["user"], "passwordHash")

	resp = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": u.Email, "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid credentials", decode[messageResponse](t, resp).Message)

	resp = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"nickname": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInviteFlow(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	_, wardenToken := s.user(t, "warden", domain.RoleWarden)

	invite := map[string]any{"email": "new@wardens.example", "serviceId": "PTW-1", "expiresInDays": 1}
	resp := s.do(t, http.MethodPost, "/api/invites", wardenToken, invite)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = s.do(t, http.MethodPost, "/api/invites", "", invite)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/invites", adminToken, invite)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[service.InviteResult](t, resp)
	token := created.Invite.Token
	assert.Equal(t, "https://app.example/invite/"+token, created.Link)

	resp = s.do(t, http.MethodGet, "/api/invites/"+token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "PTW-1", field[service.InviteView](t, resp, "invite").ServiceID)

	reg := map[string]string{"fullName": "New Warden", "cnic": "11111-1111111-1", "password": "password1"}
	resp = s.do(t, http.MethodPost, "/api/invites/"+token+"/register", "", reg)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[registeredResponse](t, resp)
	assert.Equal(t, domain.UserPending, out.User.Status)
	assert.Equal(t, "1111", out.User.CNICLast4)
	assert.Equal(t, domain.RoleWarden, out.User.RoleName())

	resp = s.do(t, http.MethodPost, "/api/invites/"+token+"/register", "", reg)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/invites/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMessagingEndpoints(t *testing.T) {
	s := newTestServer(t)
	a, aToken := s.user(t, "amina", domain.RoleWarden)
	b, bToken := s.user(t, "bilal", domain.RoleWarden)
	_, cToken := s.user(t, "chand", domain.RoleWarden)

	resp := s.do(t, http.MethodPost, "/api/messages", aToken, map[string]string{"to": b.ID, "text": "hello"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "hello", field[domain.MessageView](t, resp, "message").Text)

	resp = s.do(t, http.MethodGet, "/api/messages?withUser="+a.ID, bToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := field[[]domain.MessageView](t, resp, "messages")
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Text)

	resp = s.do(t, http.MethodGet, "/api/messages?withUser="+a.ID, cToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/messages", aToken, map[string]string{"to": b.ID, "group": "g"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPollEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	_, wardenToken := s.user(t, "warden", domain.RoleWarden)

	poll := map[string]any{"title": "Relief", "options": []string{"A", "B", "C"}}
	resp := s.do(t, http.MethodPost, "/api/welfare/polls", wardenToken, poll)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodPost, "/api/welfare/polls", adminToken, poll)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := field[service.PollView](t, resp, "poll").ID

	resp = s.do(t, http.MethodPost, "/api/welfare/polls/"+id+"/vote", wardenToken, map[string]int{"optionIndex": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	v := field[service.PollView](t, resp, "poll")
	require.NotNil(t, v.Tally.Leader)
	assert.Equal(t, 0, *v.Tally.Leader)

	resp = s.do(t, http.MethodPost, "/api/welfare/polls/"+id+"/vote", wardenToken, map[string]int{"optionIndex": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = s.do(t, http.MethodPost, "/api/welfare/polls/"+id+"/vote", adminToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.do(t, http.MethodPatch, "/api/welfare/polls/"+id+"/close", wardenToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = s.do(t, http.MethodPatch, "/api/welfare/polls/"+id+"/close", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.PollClosed, field[service.PollView](t, resp, "poll").Status)

	resp = s.do(t, http.MethodGet, "/api/welfare/polls", wardenToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field[[]service.PollView](t, resp, "polls"), 1)

	resp = s.do(t, http.MethodPost, "/api/welfare/polls/"+id+"/vote", adminToken, map[string]int{"optionIndex": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUserAdministration(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	_, modToken := s.user(t, "mod", domain.RoleModerator)

	resp := s.do(t, http.MethodPost, "/api/users", adminToken, map[string]string{
		"fullName": "Zara", "email": "zara@wardens.example", "serviceId": "SID-zara", "cnic": "35202-1111111-2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := field[domain.User](t, resp, "user").ID

	resp = s.do(t, http.MethodGet, "/api/users/pending", modToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = s.do(t, http.MethodGet, "/api/users/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field[[]domain.User](t, resp, "users"), 1)

	resp = s.do(t, http.MethodPatch, "/api/users/"+id+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.UserActive, field[domain.User](t, resp, "user").Status)

	resp = s.do(t, http.MethodPatch, "/api/users/"+id+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = s.do(t, http.MethodPatch, "/api/users/me", modToken, map[string]string{"city": "Multan"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Multan", field[domain.User](t, resp, "user").City)

	resp = s.do(t, http.MethodGet, "/api/auth/me", modToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Multan", field[domain.User](t, resp, "user").City)

	resp = s.do(t, http.MethodGet, "/api/audit", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, field[[]domain.AuditEntry](t, resp, "entries"))
}

func TestGroupReportAndLedgerEnvelopes(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)
	b, _ := s.user(t, "bilal", domain.RoleWarden)

	resp := s.do(t, http.MethodPost, "/api/groups", adminToken, map[string]any{"name": "Lahore wardens", "members": []string{b.ID}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Lahore wardens", field[domain.Group](t, resp, "group").Name)
	resp = s.do(t, http.MethodGet, "/api/groups", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field[[]domain.Group](t, resp, "groups"), 1)

	resp = s.do(t, http.MethodPost, "/api/reports", adminToken, map[string]string{"type": "message", "targetId": "m-1", "reason": "abuse"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rep := field[domain.Report](t, resp, "report")
	assert.Equal(t, domain.ReportOpen, rep.Status)
	resp = s.do(t, http.MethodGet, "/api/reports", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field[[]domain.Report](t, resp, "reports"), 1)

	resp = s.do(t, http.MethodPost, "/api/welfare/transactions", adminToken, map[string]any{"type": "income", "amount": 5000, "category": "donation"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, domain.TransactionIncome, field[domain.Transaction](t, resp, "transaction").Type)
}

func TestPostEndpoints(t *testing.T) {
	s := newTestServer(t)
	a, aToken := s.user(t, "amina", domain.RoleWarden)
	_, bToken := s.user(t, "bilal", domain.RoleWarden)
	_, adminToken := s.user(t, "admin", domain.RoleAdmin)

	resp := s.do(t, http.MethodPost, "/api/posts", aToken, map[string]any{"text": "notice", "isOfficialNotice": true})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "only admins can post official notices", decode[messageResponse](t, resp).Message)

	resp = s.do(t, http.MethodPost, "/api/posts", aToken, map[string]any{"text": "Roster posted", "category": "departmental"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := field[domain.Post](t, resp, "post")
	assert.Equal(t, a.ID, post.AuthorID)

	resp = s.do(t, http.MethodPost, "/api/posts", adminToken, map[string]any{"text": "Official", "isOfficialNotice": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	notice := field[domain.Post](t, resp, "post")

	resp = s.do(t, http.MethodPatch, "/api/posts/"+post.ID+"/pin", aToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = s.do(t, http.MethodPatch, "/api/posts/"+post.ID+"/pin", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, field[domain.Post](t, resp, "post").IsPinned)

	resp = s.do(t, http.MethodGet, "/api/posts?limit=5", bToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := field[[]domain.Post](t, resp, "posts")
	require.Len(t, feed, 2)
	assert.Equal(t, post.ID, feed[0].ID)

	resp = s.do(t, http.MethodGet, "/api/posts?official=true", bToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	official := field[[]domain.Post](t, resp, "posts")
	require.Len(t, official, 1)
	assert.Equal(t, notice.ID, official[0].ID)

	resp = s.do(t, http.MethodPatch, "/api/posts/"+post.ID+"/like", bToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field[domain.Post](t, resp, "post").Likes, 1)

	resp = s.do(t, http.MethodPost, "/api/comments/"+post.ID, bToken, map[string]string{"text": "shukriya"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "shukriya", field[domain.Comment](t, resp, "comment").Text)
	resp = s.do(t, http.MethodGet, "/api/comments/"+post.ID, aToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field[[]domain.Comment](t, resp, "comments"), 1)

	resp = s.do(t, http.MethodGet, "/api/notifications", aToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field[[]domain.Notification](t, resp, "notifications"), 2)
	resp = s.do(t, http.MethodPatch, "/api/notifications/read", aToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(t, http.MethodGet, "/api/notifications", aToken, nil)
	for _, n := range field[[]domain.Notification](t, resp, "notifications") {
		assert.True(t, n.IsRead)
	}

	resp = s.do(t, http.MethodGet, "/api/users/"+a.ID+"/profile", bToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field[[]domain.Post](t, resp, "posts"), 1)

	resp = s.do(t, http.MethodDelete, "/api/posts/"+post.ID, bToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = s.do(t, http.MethodDelete, "/api/posts/"+post.ID, aToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(t, http.MethodPatch, "/api/posts/"+post.ID+"/like", bToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPageEndpoints(t *testing.T) {
	s := newTestServer(t)
	u, token := s.user(t, "amina", domain.RoleWarden)

	resp := s.do(t, http.MethodPost, "/api/pages", token, map[string]string{"name": "Shuhada Memorial", "type": "memorial"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{u.ID}, field[domain.Page](t, resp, "page").Admins)

	resp = s.do(t, http.MethodGet, "/api/pages", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, field[[]domain.Page](t, resp, "pages"), 1)

	resp = s.do(t, http.MethodGet, "/api/pages", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUploadsUnavailable(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "amina", domain.RoleWarden)
	resp := s.do(t, http.MethodPost, "/api/uploads/presign", token, map[string]string{"contentType": "image/png"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = s.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[ReadinessResponse](t, resp).Checks["store"])
}

func TestReadyReportsFailures(t *testing.T) {
	h := NewHealthHandler(map[string]Checker{
		"postgres": func(context.Context) error { return io.ErrUnexpectedEOF },
	}, nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")
}

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func dialWS(t *testing.T, s *testServer, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, event string) wsFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var f wsFrame
		require.NoError(t, conn.ReadJSON(&f))
		if f.Event == event {
			return f
		}
	}
}

func TestGatewayPushesMessagesAndPresence(t *testing.T) {
	s := newTestServer(t)
	a, aToken := s.user(t, "amina", domain.RoleWarden)
	b, bToken := s.user(t, "bilal", domain.RoleWarden)

	bConn := dialWS(t, s, bToken)
	require.NoError(t, bConn.WriteJSON(map[string]any{"event": "join", "data": map[string]string{"userId": b.ID}}))
	readFrame(t, bConn, presence.EventPresenceUpdate)

	aConn := dialWS(t, s, aToken)
	require.NoError(t, aConn.WriteJSON(map[string]any{"event": "join", "data": map[string]string{"userId": a.ID}}))

	var update presence.PresenceUpdate
	require.NoError(t, json.Unmarshal(readFrame(t, bConn, presence.EventPresenceUpdate).Data, &update))
	assert.Equal(t, presence.PresenceUpdate{UserID: a.ID, Online: true}, update)

	resp := s.do(t, http.MethodGet, "/api/presence", aToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, decode[onlineResponse](t, resp).UserIDs)

	resp = s.do(t, http.MethodPost, "/api/messages", aToken, map[string]string{"to": b.ID, "text": "live"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var pushed domain.MessageView
	require.NoError(t, json.Unmarshal(readFrame(t, bConn, presence.EventMessageNew).Data, &pushed))
	assert.Equal(t, "live", pushed.Text)

	require.NoError(t, aConn.Close())
	require.NoError(t, json.Unmarshal(readFrame(t, bConn, presence.EventPresenceUpdate).Data, &update))
	assert.Equal(t, presence.PresenceUpdate{UserID: a.ID, Online: false}, update)
}

func TestGatewayRejections(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user(t, "amina", domain.RoleWarden)

	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?token=bogus"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn := dialWS(t, s, token)
	require.NoError(t, conn.WriteJSON(map[string]any{"event": "join", "data": map[string]string{"userId": "someone-else"}}))
	readFrame(t, conn, frameError)

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "join-group", "data": map[string]string{"groupId": "nope"}}))
	readFrame(t, conn, frameError)

	header := http.Header{"Origin": []string{"https://evil.example"}}
	url = "ws" + strings.TrimPrefix(s.URL, "http") + "/ws?token=" + token
	_, resp, err = websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
