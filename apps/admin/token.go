package main

import (
	"fmt"

	"github.com/pkg/errors"

	echoapi "github.com/trezcool/solienlac/apps/api/echo"
	"github.com/trezcool/solienlac/core"
)

// token prints an API token for uname holding roles, signed with secret.
func (cli *commandLine) token(uname string, roles []string, secret string) error {
	uname = core.CleanString(uname, true /* lower */)
	clean := make([]string, 0, len(roles))
	for _, role := range roles {
		if role = core.CleanString(role, true); role == "" {
			continue
		}
		if !isRole(role) {
			return errors.Errorf("unknown role %q", role)
		}
		clean = append(clean, role)
	}

	conf := *cli.conf
	conf.SecretKey = secret
	token, err := echoapi.GenerateToken(&conf, echoapi.NewClaims(&conf, core.Actor{ID: uname, Username: uname}, clean...))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}

func isRole(role string) bool {
	for _, r := range echoapi.Roles {
		if r == role {
			return true
		}
	}
	return false
}
