package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edutrack/core/user"
	"github.com/trezcool/edutrack/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Admin", "admin", "admin@test.cd", "Pa55w0rd!", user.RoleAdmin)
	testutil.CreateUser(t, app.env.UserRepo, "N Dog", "ndog", "ndog@test.cd", "Pa55w0rd!", []string{user.RoleStudent}, false) // 😂

	body := func(uname, pwd string) []byte {
		return marchallObj(t, LoginRequest{Username: uname, Password: pwd})
	}
	badCredentials := marchallObj(t, httpErr{Error: "credenciales inválidas"})

	tests := []httpTest{
		{name: "missing fields", body: body("", ""), wantCode: http.StatusBadRequest},
		{name: "unknown user", body: body("ghost", "Pa55w0rd!"), wantCode: http.StatusBadRequest, wantData: badCredentials},
		{name: "wrong password", body: body("admin", "nope"), wantCode: http.StatusBadRequest, wantData: badCredentials},
		{
			name: "inactive user", body: body("ndog@test.cd", "Pa55w0rd!"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "cuenta desactivada"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/v1/users/login"
	}
	runHTTPTests(t, app, tests)

	for _, uname := range []string{"admin", "ADMIN@test.cd"} {
		t.Run("logged in as "+uname, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", body(uname, "Pa55w0rd!"))
			app.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var resp LoginResponse
			unmarshallObj(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin)
	teacher := app.createUser(t, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher)
	student := app.createUser(t, "Hero", "hero", "hero@test.cd", "", user.RoleStudent)
	adminToken := app.getToken(t, admin)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", method: http.MethodGet, path: "/v1/users", token: app.getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permiso denegado"}),
		},
		{name: "unknown search", method: http.MethodGet, path: "/v1/users?search=lol", token: adminToken, wantData: []byte("[]")},
	})

	tests := []struct {
		name    string
		path    string
		wantIDs []string
	}{
		{name: "all", path: "/v1/users", wantIDs: []string{admin.ID, teacher.ID, student.ID}},
		{name: "role=teacher:", path: "/v1/users?role=" + user.RoleTeacher, wantIDs: []string{teacher.ID}},
		{name: "search=her", path: "/v1/users?search=her", wantIDs: []string{teacher.ID, student.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, adminToken)
			app.serve(req, rec)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var users []user.User
			unmarshallObj(t, rec, &users)
			ids := make([]string, 0, len(users))
			for _, u := range users {
				ids = append(ids, u.ID)
			}
			assert.ElementsMatch(t, tt.wantIDs, ids)
		})
	}
}

func Test_userApi_retrieve(t *testing.T) {
	app := setup(t)
	admin := app.createUser(t, "Admin", "admin", "admin@test.cd", "", user.RoleAdmin)
	student := app.createUser(t, "Hero", "hero", "hero@test.cd", "", user.RoleStudent)
	other := app.createUser(t, "Other", "other", "other@test.cd", "", user.RoleStudent)
	notFound := marchallObj(t, httpErr{Error: "no encontrado"})

	runHTTPTests(t, app, []httpTest{
		{name: "own profile", method: http.MethodGet, path: "/v1/users/" + student.ID, token: app.getToken(t, student)},
		{
			name: "someone else's profile", method: http.MethodGet, path: "/v1/users/" + other.ID, token: app.getToken(t, student),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{name: "admin sees everyone", method: http.MethodGet, path: "/v1/users/" + other.ID, token: app.getToken(t, admin)},
		{
			name: "unknown id", method: http.MethodGet, path: "/v1/users/unknown", token: app.getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "admin cannot delete themselves", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: app.getToken(t, admin),
			wantCode: http.StatusForbidden,
		},
		{name: "admin deletes user", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: app.getToken(t, admin), wantCode: http.StatusNoContent},
	})

	_, err := app.env.Users.GetByID(context.Background(), other.ID)
	assert.Equal(t, user.ErrNotFound, err)
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)
	student := app.createUser(t, "Hero", "hero", "hero@test.cd", "", user.RoleStudent)

	claims := app.srv.auth.userClaims(student)
	claims.OrigIssuedAt = claims.IssuedAt - int64(2*app.env.Conf.Server.JWTRefreshExpirationDelta.Seconds())
	expired, err := app.srv.auth.generateToken(claims)
	require.NoError(t, err)

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/users/token-refresh", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "refresh period expired", method: http.MethodPost, path: "/v1/users/token-refresh", token: expired,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "el token ya no puede renovarse"}),
		},
		{name: "token refreshed", method: http.MethodPost, path: "/v1/users/token-refresh", token: app.getToken(t, student)},
	})
}
