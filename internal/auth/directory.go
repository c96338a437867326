package auth

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/flowboard/flowboard/internal/config"
	"github.com/flowboard/flowboard/internal/stats"
)

// Scope selects the search depth below the base DN.
type Scope int

const (
	// ScopeSingleLevel searches the entries one level below the base DN.
	ScopeSingleLevel Scope = iota
	// ScopeSubtree searches the whole subtree below the base DN.
	ScopeSubtree
)

func (s Scope) ldapScope() int {
	if s == ScopeSubtree {
		return ldap.ScopeWholeSubtree
	}

	return ldap.ScopeSingleLevel
}

// Entry is a directory entry returned by a search: its distinguished name
// and the requested attributes with their values.
type Entry struct {
	DN         string
	Attributes map[string][]string
}

// Binding is a bound directory session. A Binding is either fully bound and
// search capable or it does not exist; partially initialized sessions are
// never handed out.
type Binding interface {
	// DN returns the distinguished name this session is bound as.
	DN() string
	// Search runs a directory search. An empty result with a nil error
	// means the search executed and matched nothing; the two conditions
	// are reported separately on purpose.
	Search(baseDN, filter string, scope Scope, attributes []string) ([]Entry, error)
	// Unbind releases the session. Safe to call multiple times.
	Unbind() error
}

// Dialer opens bound directory sessions. The production implementation
// dials the configured LDAP server; tests substitute a fake.
type Dialer interface {
	Bind(dn, password string) (Binding, error)
}

// NewDialer returns a Dialer for the configured directory server.
func NewDialer(cfg *config.LDAP) Dialer {
	return &ldapDialer{cfg: cfg}
}

type ldapDialer struct {
	cfg *config.LDAP
}

// Bind dials the server and authenticates as dn. The supplied credential is
// never logged; bind failures log the server diagnostic message only.
func (d *ldapDialer) Bind(dn, password string) (Binding, error) {
	start := time.Now()
	defer stats.ObserveDirectoryOp(stats.OpBind, start)

	tlsConfig, err := d.tlsConfig()
	if err != nil {
		return nil, err
	}

	conn, err := ldap.DialURL(d.cfg.URI, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		log.Error().Err(err).Str("uri", d.cfg.URI).Msg("cannot connect to ldap server")

		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnreachable, err)
	}

	conn.SetTimeout(d.cfg.Timeout)

	if err = conn.Bind(dn, password); err != nil {
		// the server diagnostic goes to the log, never to the caller
		log.Error().Err(err).Str("dn", dn).Msg("cannot bind to ldap server")
		_ = conn.Close()

		return nil, fmt.Errorf("%w: bind failed", ErrDirectoryUnreachable)
	}

	return &ldapBinding{conn: conn, dn: dn, timeout: d.cfg.Timeout}, nil
}

// tlsConfig builds the TLS trust configuration from the optional CA
// certificate path. Without a cacert the system trust store applies.
func (d *ldapDialer) tlsConfig() (*tls.Config, error) {
	if d.cfg.CACert == "" {
		return nil, nil
	}

	pem, err := os.ReadFile(d.cfg.CACert)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read ca certificate: %v", ErrDirectoryUnreachable, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: no certificates found in %s", ErrDirectoryUnreachable, d.cfg.CACert)
	}

	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

type ldapBinding struct {
	conn    *ldap.Conn
	dn      string
	timeout time.Duration

	unbindOnce sync.Once
	unbindErr  error
}

// DN returns the bound distinguished name.
func (b *ldapBinding) DN() string {
	return b.dn
}

// Search implements Binding. Transport failures map to
// ErrDirectoryUnreachable; directory level failures (bad filter, missing
// base) are returned unwrapped so callers can treat them as an unsuccessful
// search rather than an outage.
func (b *ldapBinding) Search(baseDN, filter string, scope Scope, attributes []string) ([]Entry, error) {
	start := time.Now()
	defer stats.ObserveDirectoryOp(stats.OpSearch, start)

	req := ldap.NewSearchRequest(
		baseDN,
		scope.ldapScope(),
		ldap.NeverDerefAliases,
		0, // no size limit
		int(b.timeout.Seconds()),
		false,
		filter,
		attributes,
		nil,
	)

	res, err := b.conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.ErrorNetwork) {
			return nil, fmt.Errorf("%w: %v", ErrDirectoryUnreachable, err)
		}

		return nil, fmt.Errorf("search failed: %w", err)
	}

	entries := make([]Entry, 0, len(res.Entries))

	for _, e := range res.Entries {
		attrs := make(map[string][]string, len(e.Attributes))
		for _, a := range e.Attributes {
			attrs[a.Name] = a.Values
		}

		entries = append(entries, Entry{DN: e.DN, Attributes: attrs})
	}

	return entries, nil
}

// Unbind implements Binding. The first call releases the session, later
// calls are no-ops.
func (b *ldapBinding) Unbind() error {
	b.unbindOnce.Do(func() {
		start := time.Now()
		defer stats.ObserveDirectoryOp(stats.OpUnbind, start)

		b.unbindErr = b.conn.Unbind()
	})

	return b.unbindErr
}
