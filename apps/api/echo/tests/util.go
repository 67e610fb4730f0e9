package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/solienlac/apps/api/echo"
	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
	"github.com/trezcool/solienlac/services/email"
	"github.com/trezcool/solienlac/services/metrics"
	"github.com/trezcool/solienlac/storage/database/dummy"
	"github.com/trezcool/solienlac/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	*Server
	conf    *core.Config
	store   evaluation.Store
	logger  *testutil.Logger
	mailSvc *emailsvc.ConsoleServiceMock
}

func newTestConfig() *core.Config {
	return &core.Config{
		AppName:   "Sổ liên lạc",
		TestMode:  true,
		SecretKey: "secret",
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
		Evaluation: core.EvaluationConfig{
			SaveConcurrency: 4,
			FailureReportTo: "principal@school.test",
		},
	}
}

// setup returns a server backed by an in-memory store holding testutil.DefaultClass.
func setup(t *testing.T) testApp {
	conf := newTestConfig()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	store := dummydb.NewEvaluationRepository(db)
	testutil.SeedClass(t, store, testutil.DefaultClass)

	validate, translator := testutil.NewValidator()
	logger := &testutil.Logger{}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	recorder := metricsvc.NewRecorder()

	svc := evaluation.NewService(evaluation.Deps{
		Repo:       store,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Conf:       conf,
		MailSvc:    mailSvc,
		Observer:   recorder,
	})

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		EvaluationSvc:  svc,
		Store:          store,
		Metrics:        recorder.Handler(),
		DisableReqLogs: true,
	})
	return testApp{Server: server, conf: conf, store: store, logger: logger, mailSvc: mailSvc}
}

func (app testApp) token(t *testing.T, roles ...string) string {
	claims := NewClaims(app.conf, core.Actor{ID: "T1", Username: "co.lan", Email: "lan@school.test"}, roles...)
	token, err := GenerateToken(app.conf, claims)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (app testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarchallObj(t *testing.T, data []byte, obj interface{}) {
	if err := json.Unmarshal(data, obj); err != nil {
		t.Fatalf("unmarchallObj() failed: %v; data %s", err, data)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	if len(b1) == 0 && len(b2) == 0 {
		return true, nil
	}
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
