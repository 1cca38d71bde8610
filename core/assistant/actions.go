package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/report"
	"github.com/trezcool/edutrack/core/school"
	"github.com/trezcool/edutrack/core/user"
)

const unexpectedErrorMsg = "ocurrió un error inesperado, intenta nuevamente"

var fieldNames = map[string]string{
	"name":       "nombre",
	"email":      "email",
	"username":   "nombre de usuario",
	"password":   "contraseña",
	"roles":      "rol",
	"user_id":    "usuario",
	"student_id": "ID de estudiante",
	"teacher_id": "profesor",
	"block_id":   "bloque",
	"code":       "código",
	"end_date":   "fecha de fin",
}

type (
	// ActionResult is the outcome of an action; failures carry a user-facing message.
	ActionResult struct {
		Success           bool           `json:"success"`
		Message           string         `json:"message"`
		User              *CreatedUser   `json:"user,omitempty"`
		TemporaryPassword string         `json:"temporaryPassword,omitempty"`
		Course            *school.Course `json:"course,omitempty"`
		ReportType        report.Type    `json:"reportType,omitempty"`
		FileName          string         `json:"fileName,omitempty"`
		DownloadURL       string         `json:"downloadUrl,omitempty"`
	}

	CreatedUser struct {
		user.User
		Kind    string          `json:"kind"`
		Student *school.Student `json:"student,omitempty"`
		Teacher *school.Teacher `json:"teacher,omitempty"`
	}

	// Actions performs the side effects requested through the assistant.
	Actions interface {
		CreateUser(ctx context.Context, e Entities) ActionResult
		CreateCourse(ctx context.Context, e Entities) ActionResult
		GenerateReport(ctx context.Context, typ report.Type, filters report.Filters) ActionResult
	}

	UserAccounts interface {
		user.UniquenessChecker
		Create(ctx context.Context, nu user.NewUser) (user.User, error)
		Query(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error)
		Delete(ctx context.Context, ids ...string) error
		SendWelcomeMail(usr user.User, pwd string)
	}

	SchoolDirectory interface {
		CreateStudent(ctx context.Context, ns school.NewStudent) (school.Student, error)
		CreateTeacher(ctx context.Context, nt school.NewTeacher) (school.Teacher, error)
		CreateCourse(ctx context.Context, nc school.NewCourse) (school.Course, error)
		GetTeacher(ctx context.Context, filter school.TeacherFilter) (school.Teacher, error)
		FindTeacher(ctx context.Context, ref string) (school.Teacher, error)
	}

	ReportGenerator interface {
		Generate(ctx context.Context, typ report.Type, filters report.Filters) (report.Result, error)
	}

	// Executor implements Actions on top of the domain services.
	Executor struct {
		users      UserAccounts
		school     SchoolDirectory
		reports    ReportGenerator
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
	}
)

func NewExecutor(
	users UserAccounts,
	schoolDir SchoolDirectory,
	reports ReportGenerator,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *Executor {
	return &Executor{
		users:      users,
		school:     schoolDir,
		reports:    reports,
		validate:   validate,
		translator: translator,
		logger:     logger,
	}
}

// CreateUser creates a user with the role-specific profile. Without a password, a temporary one is generated
// and returned. The user is removed again when its profile cannot be created.
func (x *Executor) CreateUser(ctx context.Context, e Entities) (res ActionResult) {
	defer x.recover("createUser", &res)

	kind := e.Get(FieldRole)
	if kind == "" {
		kind = user.KindStudent
	}
	role, ok := user.RoleForKind(kind)
	if !ok {
		return ActionResult{Message: fmt.Sprintf("Rol no válido: %s. Usa estudiante, profesor o administrador.", kind)}
	}

	name, email := e.Get(FieldName), strings.ToLower(e.Get(FieldEmail))
	pwd, generated := e.Get(FieldPassword), false
	if pwd == "" {
		var err error
		if pwd, err = user.GeneratePassword(name, "", email); err != nil {
			return x.failure("No se pudo crear el usuario", err)
		}
		generated = true
	}

	nu := user.NewUser{Name: name, Email: email, Password: pwd, PasswordConfirm: pwd, Roles: []string{role}}
	if err := nu.Validate(x.validate, x.users); err != nil {
		return x.failure("No se pudo crear el usuario", err)
	}
	usr, err := x.users.Create(ctx, nu)
	if err != nil {
		return x.failure("No se pudo crear el usuario", err)
	}

	created := &CreatedUser{User: usr, Kind: kind}
	if err := x.createProfile(ctx, created, e); err != nil {
		if dErr := x.users.Delete(ctx, usr.ID); dErr != nil {
			x.logger.Error("assistant.createUser: rollback failed", dErr, map[string]interface{}{"userId": usr.ID})
		}
		return x.failure("No se pudo crear el perfil del usuario", err)
	}
	x.users.SendWelcomeMail(usr, pwd)

	var b strings.Builder
	fmt.Fprintf(&b, "Usuario creado exitosamente como %s.\nNombre: %s\nEmail: %s", user.KindName(kind), usr.Name, usr.Email)
	switch {
	case created.Student != nil:
		fmt.Fprintf(&b, "\nID de estudiante: %s", created.Student.StudentID)
	case created.Teacher != nil:
		fmt.Fprintf(&b, "\nID de profesor: %s", created.Teacher.TeacherID)
	}

	res = ActionResult{Success: true, User: created}
	if generated {
		fmt.Fprintf(&b, "\nContraseña temporal: %s\nSe recomienda cambiarla en el primer inicio de sesión.", pwd)
		res.TemporaryPassword = pwd
	}
	res.Message = b.String()
	return res
}

func (x *Executor) createProfile(ctx context.Context, created *CreatedUser, e Entities) error {
	switch created.Kind {
	case user.KindStudent:
		ns := school.NewStudent{
			UserID:        created.ID,
			StudentID:     e.Get(FieldStudentID),
			Grade:         e.Get(FieldGrade),
			Block:         e.Get(FieldBlock),
			DateOfBirth:   e.Get(FieldDateOfBirth),
			Address:       e.Get(FieldAddress),
			PhoneNumber:   e.Get(FieldPhoneNumber),
			ParentName:    e.Get(FieldParentName),
			ParentContact: e.Get(FieldParentContact),
		}
		if err := ns.Validate(x.validate); err != nil {
			return err
		}
		st, err := x.school.CreateStudent(ctx, ns)
		if err != nil {
			return err
		}
		created.Student = &st
	case user.KindTeacher:
		nt := school.NewTeacher{
			UserID:         created.ID,
			TeacherID:      e.Get(FieldTeacherID),
			Department:     e.Get(FieldDepartment),
			Specialization: e.Get(FieldSpecialization),
			Qualification:  e.Get(FieldQualification),
			PhoneNumber:    e.Get(FieldPhoneNumber),
			Address:        e.Get(FieldAddress),
		}
		if err := nt.Validate(x.validate); err != nil {
			return err
		}
		tch, err := x.school.CreateTeacher(ctx, nt)
		if err != nil {
			return err
		}
		created.Teacher = &tch
	}
	return nil
}

// CreateCourse creates a course. The teacher may be referred to by ID, teacher ID or name; the block by ID or name.
func (x *Executor) CreateCourse(ctx context.Context, e Entities) (res ActionResult) {
	defer x.recover("createCourse", &res)

	nc := school.NewCourse{
		Code:        e.Get(FieldCourseCode),
		Name:        courseName(e),
		Description: e.Get(FieldDescription),
		BlockID:     e.Get(FieldBlock),
		Schedule:    e.Get(FieldSchedule),
	}

	for _, d := range []struct {
		field Field
		label string
		dst   *time.Time
	}{
		{FieldStartDate, "inicio", &nc.StartDate},
		{FieldEndDate, "fin", &nc.EndDate},
	} {
		if s := e.Get(d.field); s != "" {
			t, ok := report.ParseDate(s)
			if !ok {
				return ActionResult{Message: fmt.Sprintf("No se pudo crear el curso: la fecha de %s %q no es válida (usa DD/MM/AAAA).", d.label, s)}
			}
			*d.dst = t
		}
	}

	ref := e.Get(FieldTeacherID)
	if ref == "" {
		ref = e.Get(FieldTeacherName)
	}
	if ref != "" {
		tch, err := x.findTeacher(ctx, ref)
		if err == school.ErrTeacherNotFound {
			return ActionResult{Message: fmt.Sprintf("No se pudo crear el curso: no se encontró al profesor %q.", ref)}
		} else if err != nil {
			return x.failure("No se pudo crear el curso", err)
		}
		nc.TeacherID = tch.ID
	}

	if err := nc.Validate(x.validate); err != nil {
		return x.failure("No se pudo crear el curso", err)
	}
	c, err := x.school.CreateCourse(ctx, nc)
	if err != nil {
		return x.failure("No se pudo crear el curso", err)
	}
	return ActionResult{
		Success: true,
		Message: fmt.Sprintf("Curso creado exitosamente: %s (%s).", c.Name, c.Code),
		Course:  &c,
	}
}

// findTeacher resolves ref as a profile ID or teacher ID, then as the name of a teacher user.
func (x *Executor) findTeacher(ctx context.Context, ref string) (school.Teacher, error) {
	tch, err := x.school.FindTeacher(ctx, ref)
	if err != school.ErrTeacherNotFound {
		return tch, err
	}

	users, err := x.users.Query(ctx, &user.QueryFilter{Search: ref, Roles: user.TeacherRoles})
	if err != nil {
		return school.Teacher{}, err
	}
	for _, usr := range users {
		if tch, err := x.school.GetTeacher(ctx, school.TeacherFilter{UserID: usr.ID}); err == nil {
			return tch, nil
		}
	}
	return school.Teacher{}, school.ErrTeacherNotFound
}

func (x *Executor) GenerateReport(ctx context.Context, typ report.Type, filters report.Filters) (res ActionResult) {
	defer x.recover("generateReport", &res)

	r, err := x.reports.Generate(ctx, typ, filters)
	if err != nil {
		if err == report.ErrUnknownType {
			return ActionResult{Message: fmt.Sprintf("Tipo de reporte no válido: %s.", typ), ReportType: typ}
		}
		x.logger.Error("assistant.generateReport", err, map[string]interface{}{"reportType": typ})
		return ActionResult{Message: "No se pudo generar el reporte. Intenta nuevamente más tarde.", ReportType: typ}
	}
	return ActionResult{
		Success:     true,
		Message:     fmt.Sprintf("%s generado correctamente.", r.Type.Title()),
		ReportType:  r.Type,
		FileName:    r.FileName,
		DownloadURL: r.DownloadURL,
	}
}

func (x *Executor) recover(action string, res *ActionResult) {
	if r := recover(); r != nil {
		x.logger.Error(fmt.Sprintf("assistant.%s: panic: %v", action, r))
		*res = ActionResult{Message: "No se pudo completar la acción: " + unexpectedErrorMsg + "."}
	}
}

// failure turns err into a user-facing message; unexpected errors are logged and masked.
func (x *Executor) failure(prefix string, err error) ActionResult {
	return ActionResult{Message: prefix + ": " + x.describe(err) + "."}
}

func (x *Executor) describe(err error) string {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		var msgs []string
		for _, fErr := range vErr.Fields {
			msgs = append(msgs, fErr.Error)
		}
		if len(msgs) == 0 {
			return vErr.Error()
		}
		return strings.Join(msgs, "; ")
	}

	var fErrs validator.ValidationErrors
	if errors.As(err, &fErrs) {
		var msgs []string
		for fld, msg := range core.TranslateErrors(fErrs, x.translator) {
			name := fld
			if n, ok := fieldNames[fld]; ok {
				name = n
			}
			msgs = append(msgs, name+": "+msg)
		}
		sort.Strings(msgs)
		return strings.Join(msgs, "; ")
	}

	switch err {
	case user.ErrEmailExists, user.ErrUsernameExists, school.ErrTeacherNotFound, school.ErrBlockNotFound,
		school.ErrCourseCodeExists, school.ErrStudentIDExists, school.ErrTeacherIDExists, school.ErrProfileExists:
		return err.Error()
	}
	x.logger.Error("assistant: action failed", err)
	return unexpectedErrorMsg
}
