package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/auth"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/infra/memory"
	"github.com/xavierca1/leadflow/internal/usecase"
)

const testSecret = "test-secret"

type testServer struct {
	handler http.Handler
	users   *memory.UserRepository
	tokens  map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log, _ := test.NewNullLogger()

	users := memory.NewUserRepository()
	userSvc := usecase.NewUserService(users, nil, 0, log)
	leads := usecase.NewLeadLifecycle(memory.NewLeadRepository(), userSvc, nil, nil, log, usecase.DefaultLifecycleConfig())

	s := &testServer{users: users, tokens: map[string]string{}}
	for _, u := range []*entity.User{
		{ID: "admin-1", Name: "Alice Admin", Email: "alice@example.com", Role: entity.RoleAdmin},
		{ID: "mkt-1", Name: "Mark Marketer", Email: "mark@example.com", Role: entity.RoleMarketer},
		{ID: "sales-1", Name: "Sam Sales", Email: "sam@example.com", Role: entity.RoleSales},
	} {
		require.NoError(t, users.Create(context.Background(), u))
		tok, err := auth.GenerateJWT(u.ID, string(u.Role), testSecret, time.Hour)
		require.NoError(t, err)
		s.tokens[string(u.Role)] = tok
	}

	rt := &Router{
		Leads:       NewLeadHandler(leads, log),
		Users:       NewUserHandler(userSvc, testSecret, time.Hour, log),
		Health:      NewHealthHandler(nil, nil, nil, "memory"),
		Auth:        middleware.NewAuthenticator(testSecret, userSvc, log),
		CORSOrigins: []string{"*"},
	}
	s.handler = rt.Routes()
	return s
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func newLeadBody(phone string) map[string]string {
	return map[string]string{
		"client_name":   "ABC Corporation",
		"phone":         phone,
		"address":       "123 Main St",
		"business_type": "Retail",
		"has_website":   "no",
	}
}

// TestLeadLifecycleOverHTTP - create, assign, call twice, interest, close
func TestLeadLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/leads", s.tokens["marketer"], newLeadBody("+1 (234) 567-8900"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created usecase.CreateLeadOutput
	decode(t, rec, &created)
	assert.Equal(t, "+12345678900", created.Lead.Phone)
	assert.Equal(t, entity.StatusNew, created.Lead.Status)
	id := created.ID

	rec = s.do(t, http.MethodPost, "/leads", s.tokens["marketer"], newLeadBody("1-234-567-8900"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	var errResp ErrorResponse
	decode(t, rec, &errResp)
	assert.Equal(t, usecase.CodeDuplicatePhone, errResp.Error)

	rec = s.do(t, http.MethodPost, "/leads/"+id+"/assign", s.tokens["admin"], AssignLeadRequest{AssigneeID: "sales-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/leads/"+id+"/call", s.tokens["sales"], nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/leads/"+id+"/call", s.tokens["sales"], nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	decode(t, rec, &errResp)
	assert.Equal(t, usecase.CodeAlreadyCalled, errResp.Error)

	rec = s.do(t, http.MethodPost, "/leads/"+id+"/interest", s.tokens["sales"], `{"interested": true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/leads/"+id+"/close", s.tokens["sales"], nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var lead usecase.LeadOutput
	decode(t, rec, &lead)
	assert.Equal(t, entity.StatusClosed, lead.Status)
	assert.Len(t, lead.ActivityLog, 5)
}

func TestErrorStatusMapping(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/leads", s.tokens["marketer"], newLeadBody("+12345678900"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created usecase.CreateLeadOutput
	decode(t, rec, &created)
	rec = s.do(t, http.MethodPost, "/leads/"+created.ID+"/assign", s.tokens["admin"], AssignLeadRequest{AssigneeID: "sales-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		body   interface{}
		status int
		code   string
	}{
		{"unauthenticated", http.MethodGet, "/leads", "", nil, http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"malformed json", http.MethodPost, "/leads", "marketer", `{"client_name":`, http.StatusBadRequest, "INVALID_JSON"},
		{"invalid input", http.MethodPost, "/leads", "marketer", newLeadBody("abc"), http.StatusUnprocessableEntity, usecase.CodeInvalidInput},
		{"permission denied", http.MethodPost, "/leads", "sales", newLeadBody("+19998887777"), http.StatusForbidden, usecase.CodePermissionDenied},
		{"not found", http.MethodGet, "/leads/missing", "admin", nil, http.StatusNotFound, usecase.CodeNotFound},
		{"close without capability", http.MethodPost, "/leads/" + created.ID + "/close", "admin", nil, http.StatusForbidden, usecase.CodePermissionDenied},
		{"invalid transition", http.MethodPost, "/leads/" + created.ID + "/assign", "admin", AssignLeadRequest{AssigneeID: "sales-1"}, http.StatusConflict, usecase.CodeInvalidTransition},
		{"assignee not sales", http.MethodPost, "/leads/" + created.ID + "/assign", "admin", AssignLeadRequest{AssigneeID: "mkt-1"}, http.StatusUnprocessableEntity, usecase.CodeInvalidInput},
		{"interest without value", http.MethodPost, "/leads/" + created.ID + "/interest", "sales", `{}`, http.StatusUnprocessableEntity, usecase.CodeInvalidInput},
		{"empty note", http.MethodPost, "/leads/" + created.ID + "/notes", "admin", AddNoteRequest{Text: "  "}, http.StatusUnprocessableEntity, usecase.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, s.tokens[tt.role], tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			var resp ErrorResponse
			decode(t, rec, &resp)
			assert.Equal(t, tt.code, resp.Error)
		})
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	s := newTestServer(t)

	body := newLeadBody("+12345678900")
	body["has_website"] = "yes"
	rec := s.do(t, http.MethodPost, "/leads", s.tokens["marketer"], body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp ErrorResponse
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "website_url", resp.Fields[0].Field)
}

func TestDeleteRestoreAndListOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/leads", s.tokens["marketer"], newLeadBody("+12345678900"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created usecase.CreateLeadOutput
	decode(t, rec, &created)

	rec = s.do(t, http.MethodDelete, "/leads/"+created.ID, s.tokens["admin"], nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var active []usecase.LeadOutput
	decode(t, s.do(t, http.MethodGet, "/leads", s.tokens["admin"], nil), &active)
	assert.Empty(t, active)

	var all []usecase.LeadOutput
	decode(t, s.do(t, http.MethodGet, "/leads?include_deleted=true", s.tokens["admin"], nil), &all)
	require.Len(t, all, 1)
	assert.Equal(t, entity.StatusDeleted, all[0].Status)

	rec = s.do(t, http.MethodPost, "/leads/"+created.ID+"/restore", s.tokens["admin"], nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	decode(t, s.do(t, http.MethodGet, "/leads", s.tokens["admin"], nil), &active)
	require.Len(t, active, 1)
	assert.Equal(t, entity.StatusNew, active[0].Status)
}

func TestPhoneCheckOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/leads", s.tokens["marketer"], newLeadBody("+12345678900"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/leads/phone-check?phone=%2B1%20(234)%20567-8900", s.tokens["marketer"], nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out usecase.PhoneCheckOutput
	decode(t, rec, &out)
	assert.False(t, out.Available)
	assert.Equal(t, "+12345678900", out.Normalized)
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/users", "", usecase.RegisterUserInput{Name: "Sue", Email: "sue@example.com", Role: "sales"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg RegisterUserResponse
	decode(t, rec, &reg)
	assert.Equal(t, entity.RoleSales, reg.User.Role)
	require.NotEmpty(t, reg.Token)

	var me usecase.UserOutput
	rec = s.do(t, http.MethodGet, "/me", reg.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &me)
	assert.Equal(t, reg.User.ID, me.ID)

	var sales []usecase.UserOutput
	rec = s.do(t, http.MethodGet, "/users/sales", s.tokens["admin"], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &sales)
	assert.Len(t, sales, 2)

	rec = s.do(t, http.MethodGet, "/users/sales", s.tokens["marketer"], nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/users", "", usecase.RegisterUserInput{Name: "Dup", Email: "SUE@example.com", Role: "admin"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// TestRepairRoleOverHTTP - an account with a broken role can still fix it
func TestRepairRoleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.users.Create(context.Background(), &entity.User{ID: "broken-1", Name: "Bo", Email: "bo@example.com", Role: "owner"}))
	tok, err := auth.GenerateJWT("broken-1", "owner", testSecret, time.Hour)
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/leads", tok, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/users/broken-1/repair-role", tok, RepairRoleRequest{Role: "marketer"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/leads", tok, newLeadBody("+12345678900"))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	decode(t, rec, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "memory", resp.Dependencies["database"])
	assert.Equal(t, "not configured", resp.Dependencies["redis"])
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type closedConn struct{}

func (closedConn) IsClosed() bool { return true }

func TestHealthDegraded(t *testing.T) {
	h := NewHealthHandler(nil, failingPinger{}, closedConn{}, "")
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp HealthResponse
	decode(t, rec, &resp)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "not configured", resp.Dependencies["database"])
}
