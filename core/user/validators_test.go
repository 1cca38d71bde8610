package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/edutrack/core"
)

type uniquenessMock struct {
	err error
}

func (m uniquenessMock) CheckUniqueness(string, string, ...User) error { return m.err }

func withCommonPasswords(t *testing.T, pwds ...string) {
	commonPasswordsMu.Lock()
	prev := commonPasswords
	commonPasswords = pwds
	commonPasswordsMu.Unlock()
	t.Cleanup(func() {
		commonPasswordsMu.Lock()
		commonPasswords = prev
		commonPasswordsMu.Unlock()
	})
}

func TestCheckPassword(t *testing.T) {
	withCommonPasswords(t, "qwerty123!")

	tests := []struct {
		name string
		pwd  string
		want string
	}{
		{name: "too short", pwd: "Ab1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "Abc de12!", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "12345678", want: pwdNotAllNumTag},
		{name: "no special", pwd: "Abcdefg1", want: pwdComplexityTag},
		{name: "no upper", pwd: "abcdef1!", want: pwdComplexityTag},
		{name: "similar to name", pwd: "AnaTorres1!", want: pwdAttrSimTag},
		{name: "common", pwd: "Qwerty123!", want: pwdNoCommonTag},
		{name: "valid", pwd: "Xk7#mPq2vL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checkPassword(tt.pwd, "Ana Torres", "anatorres", "ana@test.cd"))
		})
	}
}

func TestGeneratePassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		pwd, err := GeneratePassword("Ana Torres", "anatorres", "ana@test.cd")
		require.NoError(t, err)
		assert.Len(t, pwd, 12)
		assert.Empty(t, checkPassword(pwd, "Ana Torres", "anatorres", "ana@test.cd"), pwd)
	}
}

func TestNewUser_Validate(t *testing.T) {
	withCommonPasswords(t)
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)

	valid := func() NewUser {
		return NewUser{
			Name:            "  Ana Torres ",
			Email:           " Ana@Test.CD",
			Password:        "Xk7#mPq2vL",
			PasswordConfirm: "Xk7#mPq2vL",
			Roles:           []string{RoleStudent},
		}
	}

	tests := []struct {
		name       string
		mutate     func(nu *NewUser)
		checker    uniquenessMock
		wantFields map[string]string
		wantErr    error
	}{
		{name: "valid"},
		{
			name:   "no username nor email",
			mutate: func(nu *NewUser) { nu.Email = "" },
			wantFields: map[string]string{
				"username": usernameOrEmailText,
				"email":    usernameOrEmailText,
			},
		},
		{
			name:       "unknown role",
			mutate:     func(nu *NewUser) { nu.Roles = []string{"janitor:"} },
			wantFields: map[string]string{"roles": allRolesText},
		},
		{
			name:       "weak password",
			mutate:     func(nu *NewUser) { nu.Password, nu.PasswordConfirm = "abcdefgh", "abcdefgh" },
			wantFields: map[string]string{"password": pwdComplexityText},
		},
		{
			name:       "missing name",
			mutate:     func(nu *NewUser) { nu.Name = " " },
			wantFields: map[string]string{"name": "este campo es obligatorio"},
		},
		{
			name:    "email taken",
			checker: uniquenessMock{err: ErrEmailExists},
			wantErr: ErrEmailExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			if tt.mutate != nil {
				tt.mutate(&nu)
			}
			err := nu.Validate(validate, tt.checker)

			switch {
			case tt.wantFields != nil:
				var vErrs validator.ValidationErrors
				require.ErrorAs(t, err, &vErrs)
				got := core.TranslateErrors(vErrs, translator)
				for field, msg := range tt.wantFields {
					assert.Equal(t, msg, got[field], field)
				}
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, "Ana Torres", nu.Name)
				assert.Equal(t, "ana@test.cd", nu.Email)
			}
		})
	}
}

func TestUser_Kind(t *testing.T) {
	tests := []struct {
		roles []string
		want  string
	}{
		{roles: []string{RoleStudent}, want: KindStudent},
		{roles: []string{RoleStudent, RoleTeacher}, want: KindTeacher},
		{roles: []string{RoleTeacher, RoleAdminOwner}, want: KindAdmin},
		{want: KindStudent},
	}
	for _, tt := range tests {
		usr := User{Roles: tt.roles}
		assert.Equal(t, tt.want, usr.Kind(), "%v", tt.roles)
	}
	assert.Equal(t, 30, MaxRolePriority([]string{RoleStudent, RoleAdminOwner}))
}

func TestQueryFilter_Match(t *testing.T) {
	active, inactive := true, false
	usr := User{Name: "Ana Torres", Username: "anatorres", Email: "ana@test.cd", Roles: []string{RoleStudent}, IsActive: true}

	tests := []struct {
		name   string
		filter *QueryFilter
		want   bool
	}{
		{name: "nil", want: true},
		{name: "search name", filter: &QueryFilter{Search: "TORRES"}, want: true},
		{name: "search email", filter: &QueryFilter{Search: "test.cd"}, want: true},
		{name: "search miss", filter: &QueryFilter{Search: "luis"}},
		{name: "role", filter: &QueryFilter{Roles: []string{RoleTeacher, RoleStudent}}, want: true},
		{name: "role miss", filter: &QueryFilter{Roles: []string{RoleAdmin}}},
		{name: "active", filter: &QueryFilter{IsActive: &active}, want: true},
		{name: "inactive", filter: &QueryFilter{IsActive: &inactive}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(usr))
		})
	}
}
