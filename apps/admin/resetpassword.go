package main

func (cli *commandLine) resetPassword(uname, pwd string) error {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(uname)
	if err != nil {
		return err
	}
	if _, err := cli.usrSvc.SetPassword(usr, pwd); err != nil {
		return err
	}
	return nil
}
