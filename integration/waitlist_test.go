package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akeren/waitlist-foundry/config"
	"github.com/akeren/waitlist-foundry/config/router"
	"github.com/akeren/waitlist-foundry/domain"
	"github.com/akeren/waitlist-foundry/internal/log"
	"github.com/akeren/waitlist-foundry/internal/models"
	"github.com/akeren/waitlist-foundry/pkg/factory"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// scriptEndpoint imitates the spreadsheet script: POST appends a row,
// GET returns every row. down fails both with 503; readsDown answers GET
// with 405 like a script without doGet.
type scriptEndpoint struct {
	mu        sync.Mutex
	rows      [][]string
	down      atomic.Bool
	readsDown atomic.Bool
}

func (s *scriptEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.down.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodGet && s.readsDown.Load() {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch r.Method {
	case http.MethodPost:
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if payload["type"] == "event" {
			s.rows = append(s.rows, []string{payload["timestamp"], "event", payload["eventName"], payload["page"], payload["metadata"], ""})
		} else {
			s.rows = append(s.rows, []string{payload["timestamp"], "waitlist", payload["email"], payload["project"], payload["username"], payload["referrer"]})
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(append([][]string{{"Timestamp", "Type", "C", "D", "E", "F"}}, s.rows...))
	}
}

func (s *scriptEndpoint) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.down.Store(false)
	s.readsDown.Store(false)
}

func (s *scriptEndpoint) snapshot() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.rows...)
}

type WaitlistAPITestSuite struct {
	suite.Suite
	db        *gorm.DB
	script    *scriptEndpoint
	scriptSrv *httptest.Server
	server    *httptest.Server
	baseURL   string
	appConfig *config.ApplicationConfig
}

func (suite *WaitlistAPITestSuite) SetupSuite() {
	var err error
	suite.db, err = gorm.Open(sqlite.Open(filepath.Join(suite.T().TempDir(), "waitlist.db")), &gorm.Config{})
	suite.Require().NoError(err)
	suite.Require().NoError(config.AutoMigrate(log.NewLoggerWithJSONOutput(), suite.db, models.ModelRegistry...))

	suite.script = &scriptEndpoint{}
	suite.scriptSrv = httptest.NewServer(suite.script)
}

// SetupTest builds a fresh application per test so breaker state and rate
// limits never leak between tests.
func (suite *WaitlistAPITestSuite) SetupTest() {
	suite.script.reset()
	suite.db.Exec("DELETE FROM sheet_rows")

	logger := log.NewLoggerWithJSONOutput()
	factories := factory.NewFactoryContainer(nil, logger)

	routerService := router.CreateRouterService(logger, factories.RateLimiterFactory, &router.RouterConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		RequestTimeout:    30 * time.Second,
		MetricsEnabled:    true,
	})

	transportCfg := &config.TransportConfig{
		ScriptURL:        suite.scriptSrv.URL,
		Timeout:          5 * time.Second,
		RetryAttempts:    1,
		BreakerThreshold: 5,
		BreakerCooldown:  time.Hour,
	}

	suite.appConfig = &config.ApplicationConfig{
		DB:            suite.db,
		RouterService: routerService,
		Logger:        logger,
		Transport:     config.NewTransportChain(logger, transportCfg, suite.db, routerService.Registry()),
		Factories:     factories,
		StartedAt:     time.Now(),
	}

	domain.SetupCoreDomain(suite.appConfig)

	suite.server = httptest.NewServer(routerService.GetEngine())
	suite.baseURL = suite.server.URL
}

func (suite *WaitlistAPITestSuite) TearDownTest() {
	if suite.server != nil {
		suite.server.Close()
	}
	suite.appConfig.RouterService.Cleanup()
}

func (suite *WaitlistAPITestSuite) TearDownSuite() {
	if suite.scriptSrv != nil {
		suite.scriptSrv.Close()
	}
	config.CloseDatabase(suite.db, log.NewLoggerWithJSONOutput())
}

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func (suite *WaitlistAPITestSuite) do(method, path string, body any) (int, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, suite.baseURL+path, reader)
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var env envelope
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (suite *WaitlistAPITestSuite) TestHealthCheck() {
	status, env := suite.do(http.MethodGet, "/health", nil)
	suite.Require().Equal(http.StatusOK, status)
	suite.Contains(env.Message, "health check completed")

	var data struct {
		Database   int               `json:"database"`
		Cache      int               `json:"cache"`
		Storage    int               `json:"storage"`
		Transports map[string]string `json:"transports"`
	}
	suite.Require().NoError(json.Unmarshal(env.Data, &data))

	suite.Equal(1, data.Database)
	suite.Equal(0, data.Cache)
	suite.Equal(1, data.Storage)
	suite.Contains(data.Transports, "script")
	suite.Contains(data.Transports, "database")
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_ScriptAssignsPositions() {
	status, env := suite.do(http.MethodPost, "/v1/waitlist", map[string]string{
		"email":    "Ada@Example.com",
		"username": "ada",
		"project":  "analytical-engine",
	})
	suite.Require().Equal(http.StatusCreated, status)
	suite.JSONEq(`{"success":true,"position":501}`, string(env.Data))

	status, env = suite.do(http.MethodPost, "/v1/waitlist", map[string]string{
		"email":    "grace@example.com",
		"username": "grace",
	})
	suite.Require().Equal(http.StatusCreated, status)
	suite.JSONEq(`{"success":true,"position":502}`, string(env.Data))

	rows := suite.script.snapshot()
	suite.Require().Len(rows, 2)
	suite.Equal("ada@example.com", rows[0][2])

	var stored int64
	suite.db.Model(&models.SheetRow{}).Count(&stored)
	suite.Equal(int64(2), stored, "every signup is mirrored to the database")
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_ScriptDownFailsButIsMirrored() {
	suite.script.down.Store(true)

	status, env := suite.do(http.MethodPost, "/v1/waitlist", map[string]string{
		"email":    "linus@example.com",
		"username": "linus",
	})
	suite.Equal(http.StatusBadGateway, status)
	suite.Equal("Failed to join waitlist", env.Message)

	var stored []models.SheetRow
	suite.Require().NoError(suite.db.Find(&stored).Error)
	suite.Require().Len(stored, 1)
	suite.Equal(string(models.KindWaitlist), stored[0].Kind)
	suite.Equal("linus@example.com", stored[0].C3)
	suite.Equal("linus", stored[0].C5)
}

func (suite *WaitlistAPITestSuite) TestAnalytics_ReadFailuresDoNotBlockSignups() {
	suite.script.readsDown.Store(true)

	for i := 0; i < 6; i++ {
		status, env := suite.do(http.MethodGet, "/v1/analytics", nil)
		suite.Require().Equal(http.StatusOK, status)
		suite.Contains(string(env.Data), `"mock":true`)
	}

	status, _ := suite.do(http.MethodPost, "/v1/waitlist", map[string]string{
		"email":    "ada@example.com",
		"username": "ada",
	})
	suite.Equal(http.StatusCreated, status)
	suite.Len(suite.script.snapshot(), 1)
}

func (suite *WaitlistAPITestSuite) TestJoinWaitlist_ValidationError() {
	status, env := suite.do(http.MethodPost, "/v1/waitlist", map[string]string{
		"email":    "invalid-email",
		"username": "ada",
	})

	suite.Equal(http.StatusBadRequest, status)
	suite.Equal(400, env.Code)
	suite.Contains(string(env.Data), `"field":"email"`)
	suite.Empty(suite.script.snapshot())
}

func (suite *WaitlistAPITestSuite) TestTrackEvent_AcceptedEvenWhenStoresFail() {
	status, _ := suite.do(http.MethodPost, "/v1/events", map[string]string{
		"eventName": "cta_click",
		"metadata":  `{"button":"hero"}`,
	})
	suite.Require().Equal(http.StatusAccepted, status)

	rows := suite.script.snapshot()
	suite.Require().Len(rows, 1)
	suite.Equal("cta_click", rows[0][2])
	suite.Equal("/", rows[0][3])

	suite.script.down.Store(true)
	suite.db.Exec("DROP TABLE sheet_rows")
	defer func() {
		suite.Require().NoError(config.AutoMigrate(suite.appConfig.Logger, suite.db, models.ModelRegistry...))
	}()

	status, _ = suite.do(http.MethodPost, "/v1/events", map[string]string{"eventName": "page_view"})
	suite.Equal(http.StatusAccepted, status)
}

func (suite *WaitlistAPITestSuite) TestAnalyticsSummary() {
	suite.do(http.MethodPost, "/v1/waitlist", map[string]string{"email": "ada@example.com", "username": "ada"})
	suite.do(http.MethodPost, "/v1/events", map[string]string{"eventName": "page_view", "page": "/pricing"})
	suite.do(http.MethodPost, "/v1/events", map[string]string{"eventName": "cta_click"})

	status, env := suite.do(http.MethodGet, "/v1/analytics", nil)
	suite.Require().Equal(http.StatusOK, status)

	var snapshot models.AnalyticsSnapshot
	suite.Require().NoError(json.Unmarshal(env.Data, &snapshot))
	suite.False(snapshot.Mock)
	suite.Len(snapshot.Waitlist, 1)
	suite.Len(snapshot.Events, 2)
	suite.Equal("/pricing", snapshot.Events[0].Page)

	status, env = suite.do(http.MethodGet, "/v1/analytics/summary", nil)
	suite.Require().Equal(http.StatusOK, status)

	var summary models.Summary
	suite.Require().NoError(json.Unmarshal(env.Data, &summary))
	suite.Equal(1, summary.SignupCount)
	suite.Equal(2, summary.EventCount)
	suite.Equal("50.0%", summary.ConversionRateDisplay)
}

func (suite *WaitlistAPITestSuite) TestMetricsExposeTransportCalls() {
	suite.do(http.MethodPost, "/v1/events", map[string]string{"eventName": "page_view"})

	resp, err := http.Get(suite.baseURL + "/metrics")
	suite.Require().NoError(err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	suite.Contains(buf.String(), `transport_calls_total{operation="append",outcome="success",provider="script"}`)
}

func TestWaitlistAPITestSuite(t *testing.T) {
	suite.Run(t, new(WaitlistAPITestSuite))
}
