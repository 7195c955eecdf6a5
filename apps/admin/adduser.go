package main

import (
	"github.com/pkg/errors"

	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/core/user"
)

// addUser updates or creates a user.User. The password policy is not enforced here.
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	name = core.CleanString(name)

	var roles []string
	if isAdmin {
		roles = user.AllRoles
	}

	lookup := uname
	if lookup == "" {
		lookup = email
	}
	usr, err := cli.usrSvc.GetByUsernameOrEmail(lookup)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		if name == "" {
			name = uname
		}
		usr, err = cli.usrSvc.Create(user.NewUser{
			Name:     name,
			Username: uname,
			Email:    email,
			Password: pwd,
			Roles:    roles,
		})
		if err != nil {
			return err
		}
		cli.logger.Info("user created", map[string]interface{}{"id": usr.ID, "username": usr.Username})
		return nil
	}

	active := true
	uu := user.UpdateUser{
		Name:     usr.Name,
		Username: usr.Username,
		Email:    usr.Email,
		IsActive: &active,
		Roles:    roles,
		Password: pwd,
	}
	if name != "" {
		uu.Name = name
	}
	if email != "" {
		uu.Email = email
	}
	if _, err = cli.usrSvc.Update(usr, uu); err != nil {
		return err
	}
	cli.logger.Info("user updated", map[string]interface{}{"id": usr.ID, "username": usr.Username})
	return nil
}
