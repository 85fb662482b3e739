// Package credentials finds login and password for a Jenkins master in the
// user's netrc file.
package credentials

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jdx/go-netrc"
)

// ErrNoCredentials means no usable netrc entry exists for the host.
var ErrNoCredentials = errors.New("no credentials found")

// Credentials for one master.
type Credentials struct {
	Login    string
	Password string
}

// DefaultPath returns $NETRC or ~/.netrc.
func DefaultPath() (string, error) {
	if p := os.Getenv("NETRC"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".netrc"), nil
}

// Lookup finds credentials for serverURL in the netrc file at path. The
// host:port form is tried first, then the bare hostname.
func Lookup(path, serverURL string) (Credentials, error) {
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return Credentials{}, fmt.Errorf("invalid server URL %q", serverURL)
	}

	n, err := netrc.Parse(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w for %s: cannot read %s: %v. %s",
			ErrNoCredentials, u.Hostname(), path, err, remediation(u.Hostname()))
	}

	for _, host := range candidates(u) {
		m := n.Machine(host)
		if m == nil {
			continue
		}
		login, password := m.Get("login"), m.Get("password")
		if login == "" || password == "" {
			continue
		}
		return Credentials{Login: login, Password: password}, nil
	}
	return Credentials{}, fmt.Errorf("%w for %s in %s. %s",
		ErrNoCredentials, u.Hostname(), path, remediation(u.Hostname()))
}

func candidates(u *url.URL) []string {
	if u.Port() == "" {
		return []string{u.Hostname()}
	}
	return []string{u.Host, u.Hostname()}
}

func remediation(host string) string {
	return fmt.Sprintf("Pass --login and --password, or add a line "+
		"'machine %s login <user> password <api-token>' to your netrc file", host)
}
