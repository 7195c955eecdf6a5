package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/core/evaluation"
	"github.com/trezcool/convivencia/core/user"
	logsvc "github.com/trezcool/convivencia/services/logger"
	"github.com/trezcool/convivencia/storage/inmemdb"
)

const testPassword = "Xq7#kLm2$vP"

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	srv       *Server
	usrRepo   user.Repository
	evalStore evaluation.Store
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		AppName:   "Convivencia",
		SecretKey: "test-secret",
		TestMode:  true,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
	logger := logsvc.NewNopLogger()

	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	evalStore := inmemdb.NewSlotStore(db, "")

	srv := NewServer(ServerDeps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       user.NewService(usrRepo, logger),
		EvaluationSvc: evaluation.NewService(evalStore, validate, logger),
		Validate:      validate,
		Translator:    translator,
	})
	t.Cleanup(func() { _ = srv.Close() })
	return &testApp{srv: srv, usrRepo: usrRepo, evalStore: evalStore}
}

func createUser(t *testing.T, repo user.Repository, id, uname string, active bool, roles ...string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		ID:        id,
		Name:      "User " + uname,
		Username:  uname,
		Email:     uname + "@test.com",
		IsActive:  active,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(testPassword); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
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

func getToken(t *testing.T, srv *Server, usr user.User) string {
	token, err := srv.GenerateToken(usr)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
