package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/edutrack/core/assistant"
	"github.com/trezcool/edutrack/core/user"
	"github.com/trezcool/edutrack/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	env *testutil.Env
	srv *Server
}

// setup starts a server on a fresh in-memory store. opts may tweak the config before the server is built.
func setup(t *testing.T, opts ...func(app *testApp)) *testApp {
	env := testutil.NewEnv(t)
	app := &testApp{env: env}
	for _, opt := range opts {
		opt(app)
	}

	kb, err := assistant.LoadKnowledgeBase()
	if err != nil {
		t.Fatalf("LoadKnowledgeBase(): %v", err)
	}
	asst := assistant.NewService(
		env.Conf,
		assistant.NewMemoryStore(env.Conf.Assistant.StateTTL),
		assistant.NewExecutor(env.Users, env.School, env.Reports, env.Validate, env.Translator, env.Logger),
		assistant.NewBridge(nil, kb, env.Conf.Assistant.LLMTimeout, env.Logger),
		env.Logger,
	)

	app.srv = NewServer(ServerDeps{
		Conf:           env.Conf,
		Logger:         env.Logger,
		Validate:       env.Validate,
		Translator:     env.Translator,
		UserSvc:        env.Users,
		SchoolSvc:      env.School,
		CourseworkSvc:  env.Coursework,
		AttendanceSvc:  env.Attendance,
		ReportSvc:      env.Reports,
		Assistant:      asst,
		DisableReqLogs: true,
	})
	return app
}

func (app *testApp) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	app.srv.ServeHTTP(rec, req)
}

func (app *testApp) createUser(t *testing.T, name, uname, email, pwd string, roles ...string) user.User {
	return testutil.CreateUser(t, app.env.UserRepo, name, uname, email, pwd, roles, true)
}

func (app *testApp) getToken(t *testing.T, usr user.User) string {
	token, err := app.srv.auth.generateToken(app.srv.auth.userClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
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
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarshallObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshallObj(): %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
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
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

// checkCodeAndData compares the response with tt. A nil wantData only checks the code.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
