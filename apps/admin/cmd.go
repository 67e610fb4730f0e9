package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	db     *sqlx.DB // nil unless a sql database is configured
	repo   evaluation.Repository
	store  evaluation.Store // nil when a remote record store is used
	svc    *evaluation.Service
	out    io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                           - run a goose migration command (up, down, status, version...)")
	fmt.Fprintln(cli.out, "  token -username NAME [-roles R1,R2] [-secret]    - issue an API token; -secret prompts for the signing key")
	fmt.Fprintln(cli.out, "  import -file FILE                                - import classes, students, subjects and final term records")
	fmt.Fprintln(cli.out, "  roster -class ID -semester N -year YYYY-YYYY     - print the report cards of a class")
	fmt.Fprintln(cli.out, "  resave -class ID -semester N -year YYYY-YYYY     - load and save again the report cards of a class")
	fmt.Fprintln(cli.out, "  verify -class ID -semester N -year YYYY-YYYY     - check every report card has all its comments and ratings")
}

// scopeFlags registers the flags selecting a roster.
func scopeFlags(fs *flag.FlagSet) (classID *string, semester *int, schoolYear *string) {
	classID = fs.String("class", "", "The class id.")
	semester = fs.Int("semester", 0, "The semester: 1 or 2.")
	schoolYear = fs.String("year", "", "The school year, eg. 2023-2024.")
	return
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenUname := tokenCmd.String("username", "", "The token owner.")
	tokenRoles := tokenCmd.String("roles", "teacher", "Comma separated roles.")
	tokenSecret := tokenCmd.Bool("secret", false, "Prompt for the signing key instead of using the configured one.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "The JSON file to import.")

	rosterCmd := flag.NewFlagSet("roster", flag.ContinueOnError)
	rosterClass, rosterSemester, rosterYear := scopeFlags(rosterCmd)

	resaveCmd := flag.NewFlagSet("resave", flag.ContinueOnError)
	resaveClass, resaveSemester, resaveYear := scopeFlags(resaveCmd)

	verifyCmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	verifyClass, verifySemester, verifyYear := scopeFlags(verifyCmd)

	for _, fs := range []*flag.FlagSet{tokenCmd, importCmd, rosterCmd, resaveCmd, verifyCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUname == "" {
			tokenCmd.Usage()
			return errHelp
		}
		secret := cli.conf.SecretKey
		if *tokenSecret {
			fmt.Fprint(cli.out, "Enter signing key:")
			key, err := readPasswordFunc(int(syscall.Stdin))
			fmt.Fprintln(cli.out)
			if err != nil {
				return err
			}
			if len(key) == 0 {
				tokenCmd.Usage()
				return errHelp
			}
			secret = string(key)
		}
		return cli.token(*tokenUname, strings.Split(*tokenRoles, ","), secret)
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importFile(*importFile)
	case "roster":
		if err := rosterCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.roster(*rosterClass, evaluation.Semester(*rosterSemester), *rosterYear)
	case "resave":
		if err := resaveCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.resave(*resaveClass, evaluation.Semester(*resaveSemester), *resaveYear)
	case "verify":
		if err := verifyCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.verify(*verifyClass, evaluation.Semester(*verifySemester), *verifyYear)
	default:
		cli.printUsage()
		return errHelp
	}
}
