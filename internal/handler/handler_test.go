package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-analysis-go/internal/analysis"
	"chat-analysis-go/internal/model"
	"chat-analysis-go/internal/service"
	"chat-analysis-go/pkg/export"
	"chat-analysis-go/pkg/tasks"
	"chat-analysis-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeReportService struct {
	loaded      bool
	refreshErr  error
	refreshedBy string
	refreshCtx  error
	searchErr   error
	viewErr     error
}

func (f *fakeReportService) Load(context.Context) (*model.LoadRun, error) {
	return &model.LoadRun{ID: "r0"}, nil
}

func (f *fakeReportService) Refresh(ctx context.Context, requestedBy string) (*model.LoadRun, error) {
	f.refreshedBy = requestedBy
	f.refreshCtx = ctx.Err()
	if f.refreshErr != nil {
		return &model.LoadRun{ID: "r1", Status: model.LoadFailed, Diagnostic: f.refreshErr.Error()}, f.refreshErr
	}
	f.loaded = true
	return &model.LoadRun{ID: "r1", Status: model.LoadSucceeded}, nil
}

func (f *fakeReportService) Status() service.Status {
	return service.Status{Loaded: f.loaded}
}

func (f *fakeReportService) ListViews() []model.ViewInfo { return analysis.Views() }

func (f *fakeReportService) View(_ context.Context, name string) (*model.ViewResult, error) {
	if _, ok := analysis.Lookup(name); !ok {
		return nil, fmt.Errorf("%w: %q", analysis.ErrUnknownView, name)
	}
	if !f.loaded {
		return nil, fmt.Errorf("%w: Error: dataset1 (d1.csv): missing. Please ensure that the file exists.", service.ErrDatasetsUnavailable)
	}
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	return &model.ViewResult{
		View:   name,
		Title:  "Top 10 Most Active Users",
		Charts: []model.Chart{{Title: "Most Active Users", Kind: model.ChartBar, Categories: []string{"alice"}, Values: []int{2}}},
	}, nil
}

func (f *fakeReportService) LoadHistory(context.Context, int) ([]model.LoadRun, error) {
	return []model.LoadRun{{ID: "r1"}, {ID: "r0"}}, nil
}

func (f *fakeReportService) SearchMessages(_ context.Context, query string, _ int) ([]model.MessageHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return []model.MessageHit{{IndexedMessage: model.IndexedMessage{Message: query}}}, nil
}

type recordingQueue struct {
	tasks []tasks.RefreshTask
}

func (q *recordingQueue) Enqueue(_ context.Context, task tasks.RefreshTask) error {
	q.tasks = append(q.tasks, task)
	return nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, r http.Handler, method, path, bearer string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") != export.ContentType {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func newTestRouter(svc service.ReportService, queue RefreshQueue) (*gin.Engine, *token.JWTManager) {
	jwt := token.NewJWTManager("secret", 1)
	return NewRouter(RouterConfig{ReportService: svc, JWTManager: jwt, RefreshQueue: queue}), jwt
}

func TestViewsCatalogueAndStatus(t *testing.T) {
	r, _ := newTestRouter(&fakeReportService{}, nil)

	rec, env := do(t, r, http.MethodGet, "/api/v1/views", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var views []model.ViewInfo
	require.NoError(t, json.Unmarshal(env.Data, &views))
	assert.Len(t, views, 9)

	rec, env = do(t, r, http.MethodGet, "/api/v1/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"loaded":false`)
}

func TestGetViewStatusMapping(t *testing.T) {
	svc := &fakeReportService{}
	r, _ := newTestRouter(svc, nil)

	rec, env := do(t, r, http.MethodGet, "/api/v1/views/dataset1-top-users", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, env.Message, "Please ensure that the file exists.")

	rec, _ = do(t, r, http.MethodGet, "/api/v1/views/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.loaded = true
	rec, env = do(t, r, http.MethodGet, "/api/v1/views/dataset1-top-users", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"alice"`)

	svc.viewErr = fmt.Errorf("view: %w", analysis.ErrMissingColumn)
	rec, _ = do(t, r, http.MethodGet, "/api/v1/views/dataset1-emoji", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExportView(t *testing.T) {
	r, _ := newTestRouter(&fakeReportService{loaded: true}, nil)

	rec, _ := do(t, r, http.MethodGet, "/api/v1/views/dataset1-top-users/export", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dataset1-top-users.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestSearchMessages(t *testing.T) {
	svc := &fakeReportService{loaded: true}
	r, _ := newTestRouter(svc, nil)

	rec, _ := do(t, r, http.MethodGet, "/api/v1/messages/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := do(t, r, http.MethodGet, "/api/v1/messages/search?q=pizza", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), "pizza")

	svc.searchErr = service.ErrSearchUnavailable
	rec, _ = do(t, r, http.MethodGet, "/api/v1/messages/search?q=pizza", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRefreshSynchronous(t *testing.T) {
	svc := &fakeReportService{}
	r, jwt := newTestRouter(svc, nil)

	rec, _ := do(t, r, http.MethodPost, "/api/v1/admin/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	admin, err := jwt.GenerateToken("ops", token.RoleAdmin)
	require.NoError(t, err)
	rec, _ = do(t, r, http.MethodPost, "/api/v1/admin/refresh", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", svc.refreshedBy)

	svc.refreshErr = errors.New("Error: dataset1 (d1.csv): gone. Please ensure that the file exists.")
	rec, env := do(t, r, http.MethodPost, "/api/v1/admin/refresh", admin)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, env.Message, "Please ensure that the file exists.")
}

func TestAdminRefreshOutlivesRequest(t *testing.T) {
	svc := &fakeReportService{}
	r, jwt := newTestRouter(svc, nil)
	admin, err := jwt.GenerateToken("ops", token.RoleAdmin)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/refresh", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", svc.refreshedBy)
	assert.NoError(t, svc.refreshCtx)
}

func TestAdminRefreshQueued(t *testing.T) {
	svc := &fakeReportService{}
	queue := &recordingQueue{}
	r, jwt := newTestRouter(svc, queue)

	admin, err := jwt.GenerateToken("ops", token.RoleAdmin)
	require.NoError(t, err)
	rec, _ := do(t, r, http.MethodPost, "/api/v1/admin/refresh", admin)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.tasks, 1)
	assert.Equal(t, "ops", queue.tasks[0].RequestedBy)
	assert.Empty(t, svc.refreshedBy)
}

func TestAdminListLoads(t *testing.T) {
	r, jwt := newTestRouter(&fakeReportService{}, nil)
	admin, err := jwt.GenerateToken("ops", token.RoleAdmin)
	require.NoError(t, err)

	rec, env := do(t, r, http.MethodGet, "/api/v1/admin/loads?limit=5", admin)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"r1"`)

	rec, _ = do(t, r, http.MethodGet, "/api/v1/admin/loads?limit=x", admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
