package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/servicedesk/ticket-service/internal/api/dto"
	"github.com/servicedesk/ticket-service/internal/api/http/handlers"
	"github.com/servicedesk/ticket-service/internal/auth"
	"github.com/servicedesk/ticket-service/internal/domain"
	"github.com/servicedesk/ticket-service/internal/events"
	"github.com/servicedesk/ticket-service/internal/observability"
	"github.com/servicedesk/ticket-service/internal/repository/memory"
	"github.com/servicedesk/ticket-service/internal/service"
	"github.com/servicedesk/ticket-service/internal/storage"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
	users  *service.UserService
}

type envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	metrics := observability.NewMetrics("servicedesk")
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager("test-secret", "servicedesk", "servicedesk-web", 30)
	enforcer, err := auth.NewEnforcer(logger)
	require.NoError(t, err)

	sla := service.NewSLAService(store, logger, nil)
	tickets := service.NewTicketService(service.TicketDependencies{
		Store: store, SLA: sla, Dispatcher: dispatcher, Metrics: metrics, Logger: logger,
	})
	evidence := service.NewEvidenceService(service.EvidenceDependencies{
		Store: store, Blobs: storage.NewFSBlobStore(afero.NewMemMapFs()), Dispatcher: dispatcher, Metrics: metrics, Logger: logger,
	})
	users := service.NewUserService(store, bcrypt.MinCost, logger, nil)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, MiddlewareConfig{Timeout: 5 * time.Second})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("servicedesk-api", "test", "memory", map[string]handlers.Pinger{}),
		Tickets:        handlers.NewTicketsHandler(tickets, service.NewExportService(tickets, 100, logger)),
		Evidence:       handlers.NewEvidenceHandler(evidence),
		Users:          handlers.NewUsersHandler(service.NewAuthService(store, tokens, logger), users),
		SLA:            handlers.NewSLAHandler(sla),
		Metrics:        metrics,
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Enforcer:       enforcer,
	})
	return &testServer{app: app, tokens: tokens, users: users}
}

func (s *testServer) token(t *testing.T, username string, role domain.UserRole) string {
	t.Helper()
	user, err := s.users.Create(context.Background(), service.CreateUserInput{
		Username: username, DisplayName: strings.ToUpper(username), Password: "s3cret-pass", Role: string(role),
	})
	require.NoError(t, err)
	token, _, err := s.tokens.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, raw []byte) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return env
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodGet, "/health/live", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), `"store":"memory"`)

	status, _ = srv.do(t, fiber.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, body = srv.do(t, fiber.MethodGet, "/metrics", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "servicedesk_http_requests_total")
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodPost, "/api/tickets", map[string]any{
		"title": "Printer jam", "priority": "P2", "category": "Hardware", "created_by": "maria",
	}, "")
	require.Equal(t, fiber.StatusCreated, status, string(body))
	created := decode[dto.TicketDetailResponse](t, body).Data
	assert.Equal(t, domain.TicketPriorityP2, created.Priority)
	assert.Equal(t, "maria", created.CreatedBy)
	assert.Equal(t, 24, created.SLAHours)
	require.Len(t, created.Activities, 1)

	status, body = srv.do(t, fiber.MethodGet, "/api/tickets/deleted", nil, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, 0, decode[dto.PageResponse[dto.TicketResponse]](t, body).Data.Total)

	status, body = srv.do(t, fiber.MethodPatch, "/api/tickets/"+created.ID, map[string]any{"status": "InProgress", "by": "carlos"}, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, domain.TicketStatusInProgress, decode[dto.TicketDetailResponse](t, body).Data.Status)

	status, body = srv.do(t, fiber.MethodPost, "/api/tickets/"+created.ID+"/close", map[string]any{"by": "carlos", "comment": "fixed"}, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, domain.TicketStatusClosed, decode[dto.TicketDetailResponse](t, body).Data.Status)

	status, body = srv.do(t, fiber.MethodPost, "/api/tickets/"+created.ID+"/close", nil, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, service.MsgAlreadyClosed, decode[dto.TicketDetailResponse](t, body).Message)

	status, body = srv.do(t, fiber.MethodGet, "/api/tickets?status=closed", nil, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, 1, decode[dto.PageResponse[dto.TicketResponse]](t, body).Data.Total)

	status, body = srv.do(t, fiber.MethodGet, "/api/tickets/"+created.ID+"/events", nil, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	evs := decode[[]dto.EventResponse](t, body).Data
	require.NotEmpty(t, evs)
	assert.Equal(t, domain.EventClosed, evs[0].Type)

	status, body = srv.do(t, fiber.MethodDelete, "/api/tickets/"+created.ID, map[string]any{"by": "adm", "reason": "duplicate"}, "")
	require.Equal(t, fiber.StatusOK, status, string(body))

	status, body = srv.do(t, fiber.MethodGet, "/api/tickets/"+created.ID, nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decode[any](t, body).Error.Code)

	status, body = srv.do(t, fiber.MethodGet, "/api/tickets/deleted?deleted_by=adm", nil, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, 1, decode[dto.PageResponse[dto.TicketResponse]](t, body).Data.Total)
}

func TestValidationEnvelope(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodPost, "/api/tickets", map[string]any{"description": "no title"}, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	env := decode[any](t, body)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "title")

	status, body = srv.do(t, fiber.MethodGet, "/api/tickets?priority=urgent", nil, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", decode[any](t, body).Error.Code)

	status, body = srv.do(t, fiber.MethodGet, "/api/nowhere", nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", decode[any](t, body).Error.Code)
}

func TestListingEdgeInputs(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, fiber.MethodPost, "/api/tickets", map[string]any{"title": "<Printer> broken", "created_by": "maria"}, "")
	require.Equal(t, fiber.StatusCreated, status, string(body))
	assert.Equal(t, "<Printer> broken", decode[dto.TicketDetailResponse](t, body).Data.Title)

	status, body = srv.do(t, fiber.MethodGet, "/api/tickets?page=9223372036854775807&page_size=20", nil, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	page := decode[dto.PageResponse[dto.TicketResponse]](t, body).Data
	assert.Equal(t, 1, page.Total)
	assert.Empty(t, page.Items)
}

func TestAuthenticatedActorFillsCreatedBy(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, "lucia", domain.UserRoleAgent)

	status, body := srv.do(t, fiber.MethodPost, "/api/tickets", map[string]any{"title": "VPN down"}, token)
	require.Equal(t, fiber.StatusCreated, status, string(body))
	assert.Equal(t, "LUCIA", decode[dto.TicketDetailResponse](t, body).Data.CreatedBy)

	status, _ = srv.do(t, fiber.MethodGet, "/api/tickets", nil, "not-a-token")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestLoginAndMe(t *testing.T) {
	srv := newTestServer(t)
	srv.token(t, "admin", domain.UserRoleAdmin)

	status, body := srv.do(t, fiber.MethodPost, "/api/auth/login", map[string]any{"login": "ADMIN", "password": "s3cret-pass"}, "")
	require.Equal(t, fiber.StatusOK, status, string(body))
	login := decode[dto.AuthResponse](t, body).Data
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "admin", login.User.Username)

	status, body = srv.do(t, fiber.MethodGet, "/api/auth/me", nil, login.Token)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"username":"admin"`)

	status, _ = srv.do(t, fiber.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = srv.do(t, fiber.MethodPost, "/api/auth/login", map[string]any{"login": "admin", "password": "wrong-pass"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAdminRoutesRequireRole(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.token(t, "root", domain.UserRoleAdmin)
	agent := srv.token(t, "agent", domain.UserRoleAgent)

	status, _ := srv.do(t, fiber.MethodGet, "/api/admin/ping", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body := srv.do(t, fiber.MethodGet, "/api/admin/ping", nil, agent)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", decode[any](t, body).Error.Code)

	status, _ = srv.do(t, fiber.MethodGet, "/api/admin/ping", nil, admin)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = srv.do(t, fiber.MethodGet, "/api/admin/sla", nil, agent)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Len(t, decode[[]dto.SLARuleResponse](t, body).Data, 3)

	status, _ = srv.do(t, fiber.MethodPut, "/api/admin/sla/P1", map[string]any{"hours": 4}, agent)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, body = srv.do(t, fiber.MethodPut, "/api/admin/sla/P1", map[string]any{"hours": 4}, admin)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Equal(t, 4, decode[dto.SLARuleResponse](t, body).Data.Hours)

	status, body = srv.do(t, fiber.MethodPut, "/api/admin/sla/P1", map[string]any{"hours": 0}, admin)
	assert.Equal(t, fiber.StatusBadRequest, status, string(body))

	status, body = srv.do(t, fiber.MethodGet, "/api/admin/users", nil, admin)
	require.Equal(t, fiber.StatusOK, status, string(body))
	assert.Len(t, decode[[]dto.UserResponse](t, body).Data, 2)
}

func TestEvidenceUploadAndDownload(t *testing.T) {
	srv := newTestServer(t)

	_, body := srv.do(t, fiber.MethodPost, "/api/tickets", map[string]any{"title": "Screen flicker"}, "")
	ticket := decode[dto.TicketDetailResponse](t, body).Data

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	part, err := mw.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("flicker at 60hz"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("by", "maria"))
	require.NoError(t, mw.WriteField("comment", "photo later"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/tickets/"+ticket.ID+"/evidence", &form)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	resp, err := srv.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	upload := decode[dto.UploadResponse](t, raw).Data
	require.Len(t, upload.Uploaded, 1)
	assert.Empty(t, upload.Failed)
	assert.Equal(t, "maria", upload.Uploaded[0].UploadedBy)

	status, raw := srv.do(t, fiber.MethodGet, "/api/tickets/evidence/"+upload.Uploaded[0].ID+"/download", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "flicker at 60hz", string(raw))

	status, raw = srv.do(t, fiber.MethodGet, "/api/tickets/"+ticket.ID+"/evidence", nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]dto.EvidenceResponse](t, raw).Data, 1)

	status, raw = srv.do(t, fiber.MethodPost, "/api/tickets/"+ticket.ID+"/evidence/"+upload.Uploaded[0].ID+"/delete",
		map[string]any{"by": "maria", "reason": "wrong file"}, "")
	require.Equal(t, fiber.StatusNoContent, status, string(raw))

	status, _ = srv.do(t, fiber.MethodDelete, "/api/tickets/evidence/"+upload.Uploaded[0].ID, nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
