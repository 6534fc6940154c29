package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SscSPs/ledger_sync/internal/apperrors"
	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/SscSPs/ledger_sync/internal/core/services"
	"github.com/SscSPs/ledger_sync/internal/handlers"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/SscSPs/ledger_sync/internal/platform/config"
	"github.com/SscSPs/ledger_sync/internal/repositories/memory"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const execPath = "/macros/s/dep-1/exec"

// --- Mock MergeService ---
type MockMergeService struct {
	mock.Mock
}

func (m *MockMergeService) Pull(ctx context.Context, partitionKey string) (*domain.PartitionDocument, error) {
	args := m.Called(ctx, partitionKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PartitionDocument), args.Error(1)
}

func (m *MockMergeService) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockMergeService) Push(ctx context.Context, partitionKey string, payload domain.PartitionDocument) error {
	args := m.Called(ctx, partitionKey, payload)
	return args.Error(0)
}

func testConfig() *config.Config {
	return &config.Config{
		PublicBaseURL: "https://ledger.example.com",
		DeploymentID:  "dep-1",
	}
}

func newRouter(cfg *config.Config, ms *MockMergeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(zap.NewNop()))
	handlers.RegisterRoutes(r, cfg, ms, nil)
	return r
}

type SyncHandlerTestSuite struct {
	suite.Suite
	mockService *MockMergeService
	router      *gin.Engine
}

func (s *SyncHandlerTestSuite) SetupTest() {
	s.mockService = new(MockMergeService)
	s.router = newRouter(testConfig(), s.mockService)
}

func TestSyncHandlerSuite(t *testing.T) {
	suite.Run(t, new(SyncHandlerTestSuite))
}

func (s *SyncHandlerTestSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *SyncHandlerTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal("OK", w.Body.String())
}

func (s *SyncHandlerTestSuite) TestBootstrapCarriesMatchableEndpoint() {
	w := s.do(http.MethodGet, "/bootstrap", "")
	s.Equal(http.StatusOK, w.Code)

	endpoint, ok := services.MatchEndpoint(w.Body.String())
	s.True(ok)
	s.Equal("https://ledger.example.com/macros/s/dep-1/exec", endpoint)
}

func (s *SyncHandlerTestSuite) TestPull_Success() {
	doc := domain.NewPartitionDocument()
	doc.Arrays[domain.CollectionTransactions] = []json.RawMessage{json.RawMessage(`{"id":"t1"}`)}
	s.mockService.On("Pull", mock.Anything, "c1").Return(&doc, nil).Once()

	w := s.do(http.MethodGet, execPath+"?action=SYNC_PULL&companyId=c1", "")

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"success","data":{"transactions":[{"id":"t1"}]}}`, w.Body.String())
	s.NotEmpty(w.Header().Get("X-Request-ID"))
	s.mockService.AssertExpectations(s.T())
}

func (s *SyncHandlerTestSuite) TestPull_MissingCompany() {
	w := s.do(http.MethodGet, execPath+"?action=SYNC_PULL", "")
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), `"status":"error"`)
	s.mockService.AssertNotCalled(s.T(), "Pull", mock.Anything, mock.Anything)
}

func (s *SyncHandlerTestSuite) TestPull_StoreFailure() {
	s.mockService.On("Pull", mock.Anything, "c1").Return(nil, errors.New("redis down")).Once()

	w := s.do(http.MethodGet, execPath+"?action=SYNC_PULL&companyId=c1", "")

	s.Equal(http.StatusInternalServerError, w.Code)
	s.NotContains(w.Body.String(), "redis down")
}

func (s *SyncHandlerTestSuite) TestUnknownActionAndDeployment() {
	w := s.do(http.MethodGet, execPath+"?action=DROP_ALL", "")
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/macros/s/other/exec?action=SYNC_PULL&companyId=c1", "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *SyncHandlerTestSuite) TestGetUser() {
	s.mockService.On("FindUserByEmail", mock.Anything, "owner@acme.test").
		Return(&domain.User{ID: "u1", Email: "owner@acme.test"}, nil).Once()
	s.mockService.On("FindUserByEmail", mock.Anything, "ghost@acme.test").
		Return(nil, apperrors.ErrNotFound).Once()

	w := s.do(http.MethodGet, execPath+"?action=GET_USER&email=owner@acme.test", "")
	s.Equal(http.StatusOK, w.Code)
	var found domain.UserLookupResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &found))
	s.Equal(domain.StatusSuccess, found.Status)
	s.Equal("u1", found.Data.ID)

	w = s.do(http.MethodGet, execPath+"?action=GET_USER&email=ghost@acme.test", "")
	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"status":"error","message":"User not found"}`, w.Body.String())
}

func (s *SyncHandlerTestSuite) TestPush_Success() {
	s.mockService.On("Push", mock.Anything, "c1", mock.MatchedBy(func(doc domain.PartitionDocument) bool {
		return len(doc.Arrays[domain.CollectionTransactions]) == 2 && !doc.Has(domain.CollectionUsers)
	})).Return(nil).Once()

	w := s.do(http.MethodPost, execPath, `{"action":"SYNC_PUSH","companyId":"c1","data":{"transactions":[{"id":"a"},{"id":"b"}]}}`)

	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"success"}`, w.Body.String())
	s.mockService.AssertExpectations(s.T())
}

func (s *SyncHandlerTestSuite) TestPush_BadPayloads() {
	for _, body := range []string{
		`not json`,
		`{"action":"SYNC_PULL","companyId":"c1","data":{}}`,
		`{"action":"SYNC_PUSH","data":{}}`,
		`{"action":"SYNC_PUSH","companyId":"c1","data":{"users":{}}}`,
	} {
		w := s.do(http.MethodPost, execPath, body)
		s.Equal(http.StatusBadRequest, w.Code, body)
	}
	s.mockService.AssertNotCalled(s.T(), "Push", mock.Anything, mock.Anything, mock.Anything)
}

// TestExec_TenantRoundTripAndLastWriteWins runs the real merge service behind
// the router.
func TestExec_TenantRoundTripAndLastWriteWins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers.RegisterRoutes(r, testConfig(), services.NewMergeService(memory.NewPartitionRepository()), nil)

	push := func(body string) {
		req := httptest.NewRequest(http.MethodPost, execPath, strings.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	pull := func(key string) string {
		req := httptest.NewRequest(http.MethodGet, execPath+"?action=SYNC_PULL&companyId="+key, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		return w.Body.String()
	}

	deviceA := `{"transactions":[{"id":"t-a"}],"accounts":[],"products":[],"entities":[],"users":[],"companies":[],"settings":{"currency":"USD"},"categories":{}}`
	push(`{"action":"SYNC_PUSH","companyId":"c1","data":` + deviceA + `}`)
	assert.JSONEq(t, `{"status":"success","data":`+deviceA+`}`, pull("c1"))

	deviceB := `{"transactions":[{"id":"t-b"}],"accounts":[],"products":[],"entities":[],"users":[],"companies":[],"settings":{"currency":"EUR"},"categories":{}}`
	push(`{"action":"SYNC_PUSH","companyId":"c1","data":` + deviceB + `}`)
	assert.JSONEq(t, `{"status":"success","data":`+deviceB+`}`, pull("c1"))

	assert.JSONEq(t, `{"status":"success","data":{}}`, pull("c2"))
}

func TestExec_RateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	lim, err := middleware.NewMemoryLimiter("1-M")
	require.NoError(t, err)

	ms := new(MockMergeService)
	ms.On("Pull", mock.Anything, "c1").Return(&domain.PartitionDocument{}, nil).Once()
	r := gin.New()
	handlers.RegisterRoutes(r, testConfig(), ms, lim)

	codes := make([]int, 0, 2)
	for range 2 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, execPath+"?action=SYNC_PULL&companyId=c1", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	// Health stays outside the limit.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	ms.AssertExpectations(t)
}
