package main

import (
	"context"
	"fmt"

	"github.com/trezcool/edutrack/core"
	"github.com/trezcool/edutrack/core/school"
	"github.com/trezcool/edutrack/core/user"
)

type newUserArgs struct {
	name, uname, email, kind, pwd string
}

// addUser updates or creates a user.User, with the profile its kind needs.
func (cli *commandLine) addUser(a newUserArgs) error {
	roles := user.AdminRoles
	if a.kind != user.KindAdmin {
		role, ok := user.RoleForKind(a.kind)
		if !ok {
			return fmt.Errorf("unknown kind %q", a.kind)
		}
		roles = []string{role}
	}

	ctx := context.Background()
	uname := core.CleanString(a.uname, true /* lower */)
	email := core.CleanString(a.email, true /* lower */)
	now := user.NowFunc().UTC()

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	exists := err == nil
	if err != nil && err != user.ErrNotFound {
		return err
	}
	if !exists {
		usr = user.User{Username: uname, Email: email, CreatedAt: now}
	}
	if a.name != "" {
		usr.Name = core.CleanString(a.name)
	}
	usr.Roles = roles
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(a.pwd); err != nil {
		return err
	}

	if exists {
		usr, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		usr, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	if err != nil {
		return err
	}

	switch a.kind {
	case user.KindStudent:
		if _, err := cli.school.GetStudent(ctx, school.StudentFilter{UserID: usr.ID}); err == school.ErrStudentNotFound {
			_, err = cli.school.CreateStudent(ctx, school.NewStudent{UserID: usr.ID})
			return err
		} else if err != nil {
			return err
		}
	case user.KindTeacher:
		if _, err := cli.school.GetTeacher(ctx, school.TeacherFilter{UserID: usr.ID}); err == school.ErrTeacherNotFound {
			_, err = cli.school.CreateTeacher(ctx, school.NewTeacher{UserID: usr.ID})
			return err
		} else if err != nil {
			return err
		}
	}
	cli.logger.Info(fmt.Sprintf("user %s saved as %s", usr.Email, user.KindName(a.kind)))
	return nil
}
