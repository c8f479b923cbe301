// Package directory verifies credentials by binding against an external
// LDAP directory and provisions directory entries for new users. Passwords
// are used for the bind attempt only and never stored.
package directory

import (
	"context"
	"crypto/rand"
	"crypto/sha1" // #nosec G505 - SSHA is the directory's own password scheme
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Failure reasons, kept distinct so operators can tell "wrong password"
// from "directory down".
var (
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
	ErrServiceUnavailable = errors.New("directory: service unavailable")
	ErrProtocolError      = errors.New("directory: protocol error")
)

// DefaultTimeout bounds the network round trip of a bind so a slow
// directory cannot hang the login path.
const DefaultTimeout = 5 * time.Second

// Credential is a username/password pair used for provisioning.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Directory performs binds against a single configured LDAP server.
type Directory struct {
	URL           string // e.g. "ldap://localhost:389"
	BaseDN        string // e.g. "dc=local"
	UserOU        string // e.g. "users"; user DNs are uid=<name>,ou=<UserOU>,<BaseDN>
	AdminDN       string // privileged DN for provisioning
	AdminPassword string
	Timeout       time.Duration
}

// UserDN builds the distinguished name for a username.
func (d *Directory) UserDN(username string) string {
	dn := fmt.Sprintf("uid=%s", ldap.EscapeDN(username))
	if d.UserOU != "" {
		dn += fmt.Sprintf(",ou=%s", ldap.EscapeDN(d.UserOU))
	}
	return dn + "," + d.BaseDN
}

// Authenticate attempts a live bind with the supplied credentials. A nil
// error means the directory validated the credential.
func (d *Directory) Authenticate(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	// Empty passwords would turn into an unauthenticated (anonymous) bind,
	// which some servers report as success.
	if username == "" || password == "" {
		return ErrInvalidCredentials
	}

	conn, err := d.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Bind(d.UserDN(username), password); err != nil {
		return mapBindError(err)
	}
	return nil
}

// ProvisionUsers creates directory entries for the given credentials using
// the administrative bind, skipping entries that already exist. It returns
// the usernames that were added. Idempotent.
func (d *Directory) ProvisionUsers(ctx context.Context, users []Credential) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	conn, err := d.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.Bind(d.AdminDN, d.AdminPassword); err != nil {
		return nil, mapBindError(err)
	}

	added := make([]string, 0, len(users))
	for _, u := range users {
		exists, err := d.userExists(conn, u.Username)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}

		req := ldap.NewAddRequest(d.UserDN(u.Username), nil)
		req.Attribute("objectClass", []string{"inetOrgPerson"})
		req.Attribute("uid", []string{u.Username})
		req.Attribute("cn", []string{u.Username})
		req.Attribute("sn", []string{u.Username})
		req.Attribute("userPassword", []string{sshaHash(u.Password)})

		if err := conn.Add(req); err != nil {
			return added, fmt.Errorf("%w: add %q: %w", ErrProtocolError, u.Username, err)
		}
		added = append(added, u.Username)
	}

	return added, nil
}

func (d *Directory) dial() (*ldap.Conn, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := ldap.DialURL(d.URL, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	conn.SetTimeout(timeout)
	return conn, nil
}

func (d *Directory) userExists(conn *ldap.Conn, username string) (bool, error) {
	req := ldap.NewSearchRequest(
		d.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(username)),
		[]string{"uid"},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		// Size-limit exceeded still means the entry exists.
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			return true, nil
		}
		return false, fmt.Errorf("%w: search %q: %w", ErrProtocolError, username, err)
	}
	return len(res.Entries) > 0, nil
}

// mapBindError translates go-ldap errors into the package's failure reasons.
func mapBindError(err error) error {
	switch {
	case ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials):
		return ErrInvalidCredentials
	case ldap.IsErrorWithCode(err, ldap.ErrorNetwork):
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	default:
		return fmt.Errorf("%w: %w", ErrProtocolError, err)
	}
}

// sshaHash encodes a password in the directory's salted SHA-1 scheme
// ({SSHA}base64(digest || salt)).
func sshaHash(password string) string {
	salt := make([]byte, 4)
	_, _ = rand.Read(salt)

	h := sha1.New() // #nosec G401
	h.Write([]byte(password))
	h.Write(salt)

	return "{SSHA}" + base64.StdEncoding.EncodeToString(append(h.Sum(nil), salt...))
}
