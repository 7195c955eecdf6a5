package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/convivencia/core"
	"github.com/trezcool/convivencia/core/evaluation"
	"github.com/trezcool/convivencia/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	engine  string
	logger  core.Logger
	usrSvc  *user.Service
	evalSvc *evaluation.Service
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                               - run a goose command (up, down, status, version, redo, ...)")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-admin]     - create or update a user; the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL               - reset user's password")
	fmt.Fprintln(cli.out, "  export [-format json|csv] [-out DIR]                 - export the evaluation records to a file")
	fmt.Fprintln(cli.out, "  import -file PATH                                    - import evaluation records from a JSON or CSV file")
	fmt.Fprintln(cli.out, "  clear -yes                                           - delete all evaluation records")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) promptPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		addUserCmd := cli.newFlagSet("adduser")
		addUserName := addUserCmd.String("name", "", "The user's full name.")
		addUserUname := addUserCmd.String("username", "", "The user's username.")
		addUserEmail := addUserCmd.String("email", "", "The user's email.")
		addUserAdmin := addUserCmd.Bool("admin", false, "Give the user all roles.")
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		resetPasswordCmd := cli.newFlagSet("resetpassword")
		resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "export":
		exportCmd := cli.newFlagSet("export")
		exportFormat := exportCmd.String("format", "json", "The export format: json or csv.")
		exportOut := exportCmd.String("out", ".", "The directory the file is written to.")
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.export(*exportFormat, *exportOut)

	case "import":
		importCmd := cli.newFlagSet("import")
		importFile := importCmd.String("file", "", "The JSON or CSV file to import.")
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importFile(*importFile)

	case "clear":
		clearCmd := cli.newFlagSet("clear")
		clearYes := clearCmd.Bool("yes", false, "Confirm the deletion of all evaluation records.")
		if err := clearCmd.Parse(args[2:]); err != nil {
			return err
		}
		if !*clearYes {
			clearCmd.Usage()
			return errHelp
		}
		return cli.clear()

	default:
		cli.printUsage()
		return errHelp
	}
}
