package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlexSserb/dental-lab-backend/internal/dto"
	"github.com/AlexSserb/dental-lab-backend/internal/planner"
	"github.com/AlexSserb/dental-lab-backend/internal/service"
	"github.com/AlexSserb/dental-lab-backend/pkg/jwt"
	"github.com/AlexSserb/dental-lab-backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	logoutErr     error
	logoutJTI     string
	meResult      *dto.UserResponse
	meErr         error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, claims *jwt.Claims) error {
	m.logoutJTI = claims.ID
	return m.logoutErr
}
func (m *mockAuthService) Me(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}

// ── Mock PlanService ──

type mockPlanService struct {
	generateResult *dto.PlanResponse
	generateErr    error
	applyResult    *dto.ApplyPlanResponse
	applyErr       error
	applyReq       *dto.ApplyPlanRequest
	orderResult    *dto.PlanResponse
	orderErr       error
	orderID        string
}

func (m *mockPlanService) GeneratePlan(_ context.Context) (*dto.PlanResponse, error) {
	return m.generateResult, m.generateErr
}
func (m *mockPlanService) ApplyPlan(_ context.Context, req *dto.ApplyPlanRequest) (*dto.ApplyPlanResponse, error) {
	m.applyReq = req
	return m.applyResult, m.applyErr
}
func (m *mockPlanService) AssignOrderOperations(_ context.Context, orderID string) (*dto.PlanResponse, error) {
	m.orderID = orderID
	return m.orderResult, m.orderErr
}

// ── Mock OperationService ──

type mockOperationService struct {
	item       *dto.ScheduledOperation
	err        error
	list       []dto.ScheduledOperation
	total      int64
	lastQuery  *dto.ScheduleQuery
	lastEmail  string
	lastTechID string
	lastPage   *dto.PaginationRequest
	lastStatus int
	lastWorkID string
	history    []dto.OperationWithHistory
}

func (m *mockOperationService) AssignOperation(_ context.Context, _ *dto.AssignOperationRequest) (*dto.ScheduledOperation, error) {
	return m.item, m.err
}
func (m *mockOperationService) UpdateOperation(_ context.Context, _ *dto.UpdateOperationRequest) (*dto.ScheduledOperation, error) {
	return m.item, m.err
}
func (m *mockOperationService) UpdateStatus(_ context.Context, _ string, status int) (*dto.ScheduledOperation, error) {
	m.lastStatus = status
	return m.item, m.err
}
func (m *mockOperationService) ListForSchedule(_ context.Context, q *dto.ScheduleQuery) ([]dto.ScheduledOperation, error) {
	m.lastQuery = q
	return m.list, m.err
}
func (m *mockOperationService) ListForTechSchedule(_ context.Context, email string, _ *dto.TechScheduleQuery) ([]dto.ScheduledOperation, error) {
	m.lastEmail = email
	return m.list, m.err
}
func (m *mockOperationService) ListForWork(_ context.Context, workID string) ([]dto.OperationWithHistory, error) {
	m.lastWorkID = workID
	return m.history, m.err
}
func (m *mockOperationService) ListForTech(_ context.Context, techID string, page *dto.PaginationRequest) ([]dto.ScheduledOperation, int64, error) {
	m.lastTechID = techID
	m.lastPage = page
	return m.list, m.total, m.err
}

// ── Mock WorkService ──

type mockWorkService struct {
	works []dto.WorkResponse
	err   error
}

func (m *mockWorkService) ListOrderWorks(_ context.Context, _ string) ([]dto.WorkResponse, error) {
	return m.works, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportSchedule(_ context.Context, _, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportTechCalendar(_ context.Context, _, _, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

const (
	opID    = "6f1c1b8e-7a35-4d5e-9d2a-0c6b9f1e2a01"
	orderID = "0b7e4c52-3c1d-4a7e-8f6a-5e2d9c4b1a02"
)

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("email", "ca@lab.ru")
	c.Set("role", "admin")
	c.Set("claims", &jwt.Claims{UserID: "test-user-id", Role: "admin"})
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// serve 注册单条路由并执行请求；auth=true 时模拟 JWT 中间件已注入用户信息
func serve(method, path, target string, body io.Reader, auth bool, h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, path, func(c *gin.Context) {
		if auth {
			setAuth(c)
		}
		h(c)
	})

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status, code int) response.Response {
	t.Helper()
	if w.Code != status {
		t.Errorf("expected %d, got %d (%s)", status, w.Code, w.Body.String())
	}
	resp := parseResponse(w)
	if resp.Code != code {
		t.Errorf("expected code %d, got %d", code, resp.Code)
	}
	return resp
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 1800}}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/login", "/auth/login",
		jsonBody(dto.LoginRequest{Email: "ca@lab.ru", Password: "secret123"}), false, h.Login)
	expectStatus(t, w, http.StatusOK, 0)
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("POST", "/auth/login", "/auth/login", strings.NewReader("invalid json"), false, h.Login)
	expectStatus(t, w, http.StatusBadRequest, 10001)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := serve("POST", "/auth/login", "/auth/login",
		jsonBody(dto.LoginRequest{Email: "ca@lab.ru", Password: "wrong"}), false, h.Login)
	expectStatus(t, w, http.StatusUnauthorized, 11001)
}

func TestAuthHandler_RefreshToken_Invalid(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrInvalidToken})

	w := serve("POST", "/auth/refresh", "/auth/refresh",
		jsonBody(dto.RefreshTokenRequest{RefreshToken: "old"}), false, h.RefreshToken)
	expectStatus(t, w, http.StatusUnauthorized, 11002)
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/logout", func(c *gin.Context) {
		claims := &jwt.Claims{UserID: "u1"}
		claims.ID = "jti-1"
		c.Set("claims", claims)
		h.Logout(c)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/auth/logout", nil))

	expectStatus(t, w, http.StatusOK, 0)
	if mock.logoutJTI != "jti-1" {
		t.Errorf("expected jti-1 to be revoked, got %q", mock.logoutJTI)
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("POST", "/auth/logout", "/auth/logout", nil, false, h.Logout)
	expectStatus(t, w, http.StatusUnauthorized, 10002)
}

func TestAuthHandler_GetCurrentUser(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{meResult: &dto.UserResponse{ID: "test-user-id", Email: "ca@lab.ru"}})

	w := serve("GET", "/auth/me", "/auth/me", nil, true, h.GetCurrentUser)
	expectStatus(t, w, http.StatusOK, 0)
}

// ═══════════════════════════════════════════════════════════
// PlanHandler Tests
// ═══════════════════════════════════════════════════════════

func TestPlanHandler_GeneratePlan_Success(t *testing.T) {
	start := "2026-10-19T08:00:00Z"
	mock := &mockPlanService{generateResult: &dto.PlanResponse{
		Operations: []dto.ScheduledOperation{{ID: opID, TechEmail: "ca@lab.ru", Start: &start}},
	}}
	h := NewPlanHandler(mock)

	w := serve("POST", "/plan", "/plan", nil, true, h.GeneratePlan)
	expectStatus(t, w, http.StatusOK, 0)
	if !strings.Contains(w.Body.String(), `"techEmail":"ca@lab.ru"`) {
		t.Errorf("plan payload should be camelCase: %s", w.Body.String())
	}
}

func TestPlanHandler_GeneratePlan_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{
			name:   "no technician",
			err:    &planner.PlanningError{Kind: planner.KindNoTechnician, OperationID: "op-1", WorkID: "w1", Group: "DE", Err: planner.ErrNoTechnician},
			status: http.StatusUnprocessableEntity, code: 14201,
		},
		{
			name: "deadline",
			err: fmt.Errorf("生成计划: %w", &planner.PlanningError{
				Kind: planner.KindDeadline, OperationID: "op-1", WorkID: "w1",
				End: time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC), Deadline: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
				Err: planner.ErrDeadlineViolated,
			}),
			status: http.StatusUnprocessableEntity, code: 14202,
		},
		{name: "busy", err: service.ErrPlanningBusy, status: http.StatusConflict, code: 14301},
		{name: "internal", err: fmt.Errorf("connection refused"), status: http.StatusInternalServerError, code: 50000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPlanHandler(&mockPlanService{generateErr: tt.err})

			w := serve("POST", "/plan", "/plan", nil, true, h.GeneratePlan)
			resp := expectStatus(t, w, tt.status, tt.code)
			if tt.status == http.StatusUnprocessableEntity && !strings.Contains(resp.Details, "op-1") {
				t.Errorf("details should locate the operation, got %q", resp.Details)
			}
		})
	}
}

func TestPlanHandler_ApplyPlan_Success(t *testing.T) {
	mock := &mockPlanService{applyResult: &dto.ApplyPlanResponse{Applied: 1}}
	h := NewPlanHandler(mock)

	body := jsonBody(map[string]interface{}{
		"items": []map[string]string{
			{"operationId": opID, "techEmail": "ca@lab.ru", "execStart": "Mon, 19 Oct 2026 08:00:00 GMT"},
		},
	})
	w := serve("POST", "/plan/apply", "/plan/apply", body, true, h.ApplyPlan)
	expectStatus(t, w, http.StatusOK, 0)

	if mock.applyReq == nil || len(mock.applyReq.Items) != 1 || mock.applyReq.Items[0].TechEmail != "ca@lab.ru" {
		t.Errorf("request not bound: %+v", mock.applyReq)
	}
}

func TestPlanHandler_ApplyPlan_BodyTooLarge(t *testing.T) {
	mock := &mockPlanService{}
	h := NewPlanHandler(mock)

	r := gin.New()
	r.POST("/plan/apply", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 16)
		h.ApplyPlan(c)
	})
	body := jsonBody(map[string]interface{}{"items": []map[string]string{
		{"operationId": opID, "techEmail": "ca@lab.ru", "execStart": "2026-10-19T08:00:00Z"},
	}})
	req := httptest.NewRequest("POST", "/plan/apply", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusRequestEntityTooLarge, 10005)
	if mock.applyReq != nil {
		t.Error("service should not be called when the body is too large")
	}
}

func TestPlanHandler_ApplyPlan_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   interface{}
		detail string
	}{
		{"empty items", map[string]interface{}{"items": []interface{}{}}, "Items"},
		{"bad uuid", map[string]interface{}{"items": []map[string]string{
			{"operationId": "op-1", "techEmail": "ca@lab.ru", "execStart": "2026-10-19T08:00:00Z"},
		}}, "OperationID"},
		{"bad email", map[string]interface{}{"items": []map[string]string{
			{"operationId": opID, "techEmail": "not-an-email", "execStart": "2026-10-19T08:00:00Z"},
		}}, "TechEmail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockPlanService{}
			h := NewPlanHandler(mock)

			w := serve("POST", "/plan/apply", "/plan/apply", jsonBody(tt.body), true, h.ApplyPlan)
			resp := expectStatus(t, w, http.StatusBadRequest, 14001)
			if !strings.Contains(resp.Details, tt.detail) {
				t.Errorf("details should mention %s, got %q", tt.detail, resp.Details)
			}
			if mock.applyReq != nil {
				t.Error("service should not be called on validation failure")
			}
		})
	}
}

func TestPlanHandler_ApplyPlan_ServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   int
	}{
		{service.ErrOperationNotFound, http.StatusNotFound, 14101},
		{service.ErrTechnicianNotFound, http.StatusNotFound, 14102},
		{fmt.Errorf("第 2 项: %w", service.ErrInvalidExecStart), http.StatusBadRequest, 14001},
		{service.ErrTechnicianGroupMismatch, http.StatusBadRequest, 14001},
		{service.ErrPlanningBusy, http.StatusConflict, 14301},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := NewPlanHandler(&mockPlanService{applyErr: tt.err})

			body := jsonBody(map[string]interface{}{"items": []map[string]string{
				{"operationId": opID, "techEmail": "ca@lab.ru", "execStart": "2026-10-19T08:00:00Z"},
			}})
			w := serve("POST", "/plan/apply", "/plan/apply", body, true, h.ApplyPlan)
			expectStatus(t, w, tt.status, tt.code)
		})
	}
}

func TestPlanHandler_AssignOrderOperations(t *testing.T) {
	mock := &mockPlanService{orderResult: &dto.PlanResponse{}}
	h := NewPlanHandler(mock)

	w := serve("POST", "/assign-operations/order", "/assign-operations/order",
		jsonBody(dto.AssignOrderRequest{OrderID: orderID}), true, h.AssignOrderOperations)
	expectStatus(t, w, http.StatusOK, 0)
	if mock.orderID != orderID {
		t.Errorf("expected order %s, got %s", orderID, mock.orderID)
	}
}

func TestPlanHandler_AssignOrderOperations_NotFound(t *testing.T) {
	h := NewPlanHandler(&mockPlanService{orderErr: service.ErrOrderNotFound})

	w := serve("POST", "/assign-operations/order", "/assign-operations/order",
		jsonBody(dto.AssignOrderRequest{OrderID: orderID}), true, h.AssignOrderOperations)
	expectStatus(t, w, http.StatusNotFound, 14103)
}

// ═══════════════════════════════════════════════════════════
// OperationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestOperationHandler_AssignOperation(t *testing.T) {
	h := NewOperationHandler(&mockOperationService{item: &dto.ScheduledOperation{ID: opID}})

	w := serve("PATCH", "/assign-operation", "/assign-operation",
		jsonBody(dto.AssignOperationRequest{OperationID: opID, TechEmail: "ca@lab.ru", ExecStart: "2026-10-19T08:00:00Z"}),
		true, h.AssignOperation)
	expectStatus(t, w, http.StatusOK, 0)
}

func TestOperationHandler_AssignOperation_MissingField(t *testing.T) {
	h := NewOperationHandler(&mockOperationService{})

	w := serve("PATCH", "/assign-operation", "/assign-operation",
		jsonBody(map[string]string{"operationId": opID, "techEmail": "ca@lab.ru"}), true, h.AssignOperation)
	resp := expectStatus(t, w, http.StatusBadRequest, 14001)
	if !strings.Contains(resp.Details, "ExecStart") {
		t.Errorf("details should mention ExecStart, got %q", resp.Details)
	}
}

func TestOperationHandler_UpdateStatus(t *testing.T) {
	mock := &mockOperationService{item: &dto.ScheduledOperation{ID: opID, Status: 2}}
	h := NewOperationHandler(mock)

	w := serve("PATCH", "/operations/:id/status", "/operations/"+opID+"/status",
		jsonBody(dto.UpdateOperationStatusRequest{Status: 2}), true, h.UpdateStatus)
	expectStatus(t, w, http.StatusOK, 0)
	if mock.lastStatus != 2 {
		t.Errorf("expected status 2, got %d", mock.lastStatus)
	}

	w = serve("PATCH", "/operations/:id/status", "/operations/"+opID+"/status",
		jsonBody(dto.UpdateOperationStatusRequest{Status: 7}), true, h.UpdateStatus)
	expectStatus(t, w, http.StatusBadRequest, 14001)
}

func TestOperationHandler_ListForSchedule(t *testing.T) {
	mock := &mockOperationService{list: []dto.ScheduledOperation{{ID: opID, Error: true, ErrorDescription: planner.ReasonPause}}}
	h := NewOperationHandler(mock)

	w := serve("GET", "/operations-for-schedule", "/operations-for-schedule?from=2026-10-19&tech=ca@lab.ru", nil, true, h.ListForSchedule)
	expectStatus(t, w, http.StatusOK, 0)
	if mock.lastQuery == nil || mock.lastQuery.From != "2026-10-19" || mock.lastQuery.Tech != "ca@lab.ru" {
		t.Errorf("query not bound: %+v", mock.lastQuery)
	}
	if !strings.Contains(w.Body.String(), `"error":true`) {
		t.Errorf("conflict flag missing: %s", w.Body.String())
	}
}

func TestOperationHandler_ListForSchedule_DottedDates(t *testing.T) {
	mock := &mockOperationService{}
	h := NewOperationHandler(mock)

	w := serve("GET", "/operations-for-schedule", "/operations-for-schedule?from=19.10.2026&to=2026-10-25", nil, true, h.ListForSchedule)
	expectStatus(t, w, http.StatusOK, 0)
	if mock.lastQuery == nil || mock.lastQuery.From != "19.10.2026" || mock.lastQuery.To != "2026-10-25" {
		t.Errorf("query not bound: %+v", mock.lastQuery)
	}
}

func TestOperationHandler_ListForSchedule_BadQuery(t *testing.T) {
	for _, target := range []string{
		"/operations-for-schedule",
		"/operations-for-schedule?from=10/19/2026",
		"/operations-for-schedule?from=2026-10-19&to=20-10-2026",
		"/operations-for-schedule?from=2026-10-19&tech=nobody",
	} {
		h := NewOperationHandler(&mockOperationService{})
		w := serve("GET", "/operations-for-schedule", target, nil, true, h.ListForSchedule)
		expectStatus(t, w, http.StatusBadRequest, 14001)
	}
}

func TestOperationHandler_ListForSchedule_InvalidRange(t *testing.T) {
	h := NewOperationHandler(&mockOperationService{err: service.ErrInvalidDateRange})

	w := serve("GET", "/operations-for-schedule", "/operations-for-schedule?from=2026-10-19&to=2026-10-01", nil, true, h.ListForSchedule)
	expectStatus(t, w, http.StatusBadRequest, 14001)
}

func TestOperationHandler_ListForTechSchedule(t *testing.T) {
	mock := &mockOperationService{}
	h := NewOperationHandler(mock)

	w := serve("GET", "/operations-for-schedule/tech/:email", "/operations-for-schedule/tech/ce@lab.ru?from=2026-10-19",
		nil, true, h.ListForTechSchedule)
	expectStatus(t, w, http.StatusOK, 0)
	if mock.lastEmail != "ce@lab.ru" {
		t.Errorf("expected ce@lab.ru, got %q", mock.lastEmail)
	}

	mock.err = service.ErrTechnicianNotFound
	w = serve("GET", "/operations-for-schedule/tech/:email", "/operations-for-schedule/tech/x@lab.ru?from=2026-10-19",
		nil, true, h.ListForTechSchedule)
	expectStatus(t, w, http.StatusNotFound, 14102)
}

func TestOperationHandler_ListForTech(t *testing.T) {
	mock := &mockOperationService{list: []dto.ScheduledOperation{{ID: opID}}, total: 21}
	h := NewOperationHandler(mock)

	w := serve("GET", "/operations-for-tech", "/operations-for-tech?page=2&page_size=10", nil, true, h.ListForTech)
	expectStatus(t, w, http.StatusOK, 0)
	if mock.lastTechID != "test-user-id" {
		t.Errorf("expected caller id, got %q", mock.lastTechID)
	}
	if mock.lastPage.GetOffset() != 10 {
		t.Errorf("expected offset 10, got %d", mock.lastPage.GetOffset())
	}
	if !strings.Contains(w.Body.String(), `"total_pages":3`) {
		t.Errorf("pagination missing: %s", w.Body.String())
	}
}

func TestOperationHandler_ListForTech_Unauthenticated(t *testing.T) {
	h := NewOperationHandler(&mockOperationService{})

	w := serve("GET", "/operations-for-tech", "/operations-for-tech", nil, false, h.ListForTech)
	expectStatus(t, w, http.StatusUnauthorized, 10002)
}

// ═══════════════════════════════════════════════════════════
// WorkHandler / ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestWorkHandler_ListOrderWorks(t *testing.T) {
	h := NewWorkHandler(&mockWorkService{works: []dto.WorkResponse{{ID: "w1", OrderID: orderID}}})

	w := serve("GET", "/orders/:id/works", "/orders/"+orderID+"/works", nil, true, h.ListOrderWorks)
	expectStatus(t, w, http.StatusOK, 0)

	h = NewWorkHandler(&mockWorkService{err: service.ErrOrderNotFound})
	w = serve("GET", "/orders/:id/works", "/orders/"+orderID+"/works", nil, true, h.ListOrderWorks)
	expectStatus(t, w, http.StatusNotFound, 14103)
}

func TestOperationHandler_ListForWork(t *testing.T) {
	mock := &mockOperationService{history: []dto.OperationWithHistory{{
		ScheduledOperation: dto.ScheduledOperation{ID: opID, WorkID: "w1", Status: 2},
		History: []dto.OperationStatusEventResponse{
			{Status: 2, StatusName: "进行中", CreatedAt: "2026-10-19T09:00:00Z"},
			{Status: 1, StatusName: "未开始", CreatedAt: "2026-10-18T10:00:00Z"},
		},
	}}}
	h := NewOperationHandler(mock)

	w := serve("GET", "/works/:id/operations", "/works/w1/operations", nil, true, h.ListForWork)
	expectStatus(t, w, http.StatusOK, 0)
	if mock.lastWorkID != "w1" {
		t.Errorf("expected work id w1, got %q", mock.lastWorkID)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"id":"`+opID+`"`) || !strings.Contains(body, `"history":[{"status":2,"statusName":"进行中","createdAt":"2026-10-19T09:00:00Z"}`) {
		t.Errorf("operation fields and history should be flattened together: %s", body)
	}

	h = NewOperationHandler(&mockOperationService{err: service.ErrWorkNotFound})
	w = serve("GET", "/works/:id/operations", "/works/nope/operations", nil, true, h.ListForWork)
	expectStatus(t, w, http.StatusNotFound, 14104)
}

func TestExportHandler_ExportSchedule_Success(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("xlsx-bytes"), filename: "生产计划_2026-10-19.xlsx"})

	w := serve("GET", "/export/schedule", "/export/schedule?from=2026-10-19", nil, true, h.ExportSchedule)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeXLSX {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename*=UTF-8''") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestExportHandler_Errors(t *testing.T) {
	h := NewExportHandler(&mockExportService{})
	w := serve("GET", "/export/schedule", "/export/schedule", nil, true, h.ExportSchedule)
	expectStatus(t, w, http.StatusBadRequest, 16001)

	h = NewExportHandler(&mockExportService{err: service.ErrExportNoOperations})
	w = serve("GET", "/export/schedule", "/export/schedule?from=2026-10-19", nil, true, h.ExportSchedule)
	expectStatus(t, w, http.StatusNotFound, 16101)

	h = NewExportHandler(&mockExportService{err: service.ErrTechnicianNotFound})
	w = serve("GET", "/export/tech/:email/calendar.ics", "/export/tech/x@lab.ru/calendar.ics?from=2026-10-19", nil, true, h.ExportTechCalendar)
	expectStatus(t, w, http.StatusNotFound, 14102)
}

func TestExportHandler_ExportTechCalendar(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("BEGIN:VCALENDAR"), filename: "ca@lab.ru.ics"})

	w := serve("GET", "/export/tech/:email/calendar.ics", "/export/tech/ca@lab.ru/calendar.ics?from=2026-10-19", nil, true, h.ExportTechCalendar)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != contentTypeICS {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestExportHandler_ExportTechCalendar_OwnOnly(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("BEGIN:VCALENDAR"), filename: "ce@lab.ru.ics"})

	asTech := func(c *gin.Context) {
		c.Set("role", "tech")
		c.Set("email", "ca@lab.ru")
		h.ExportTechCalendar(c)
	}
	w := serve("GET", "/export/tech/:email/calendar.ics", "/export/tech/ce@lab.ru/calendar.ics?from=2026-10-19", nil, false, asTech)
	expectStatus(t, w, http.StatusForbidden, 10003)

	w = serve("GET", "/export/tech/:email/calendar.ics", "/export/tech/ca@lab.ru/calendar.ics?from=2026-10-19", nil, false, asTech)
	if w.Code != http.StatusOK {
		t.Errorf("own calendar: expected 200, got %d", w.Code)
	}
}
