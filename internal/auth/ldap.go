package auth

import (
	"errors"
	"fmt"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/flowboard/flowboard/internal/config"
)

// LDAPProvider handles LDAP authentication. It orchestrates the service
// bind, the user DN search and the rebind as the user, and builds the
// Identity of an authenticated principal.
//
// A single LDAPProvider is created at process start and shared by all login
// attempts; its caches are safe for concurrent use.
type LDAPProvider struct {
	cfg    *config.LDAP
	conns  *ConnCache
	groups *GroupEvaluator
}

// NewLDAPProvider creates a new LDAP provider dialing the configured
// directory server.
func NewLDAPProvider(cfg *config.LDAP) (*LDAPProvider, error) {
	return NewLDAPProviderWithDialer(cfg, NewDialer(cfg))
}

// NewLDAPProviderWithDialer creates a new LDAP provider on top of an
// explicit dialer. Tests use this to substitute a fake directory.
//
// Required configuration is validated here once so a misconfigured
// deployment fails at startup, not on the first login.
func NewLDAPProviderWithDialer(cfg *config.LDAP, dialer Dialer) (*LDAPProvider, error) {
	if !cfg.Enabled {
		return nil, ErrLDAPDisabled
	}

	required := []struct {
		key   string
		value string
	}{
		{"uri", cfg.URI},
		{"bind_user", cfg.BindUser},
		{"bind_password", cfg.BindPassword},
		{"basedn", cfg.BaseDN},
		{"user_filter", cfg.UserFilter},
		{"user_name_attr", cfg.UserNameAttr},
	}

	for _, r := range required {
		if r.value == "" {
			return nil, &config.MissingKeyError{Section: "auth.ldap", Key: r.key}
		}
	}

	cfg.ApplyDefaults()

	return &LDAPProvider{
		cfg:    cfg,
		conns:  NewConnCache(dialer, cfg.CacheTTL),
		groups: NewGroupEvaluator(cfg),
	}, nil
}

// InvalidateServiceBinding drops the cached service account session.
// Call after rotating the service account credential.
func (p *LDAPProvider) InvalidateServiceBinding() {
	p.conns.Invalidate(p.cfg.BindUser, p.cfg.BindPassword)
}

// TryLogin verifies a username/password pair against the directory:
// bind as the service account, search for the user's DN, then bind again as
// that DN with the supplied password. It returns nil on success and one of
// ErrInvalidCredentials, ErrDirectoryUnreachable or
// ErrMalformedDirectoryResponse on failure. No session handle is exposed;
// success only confirms authentication.
//
// A missing user, an entry without a DN and a rejected user bind all return
// ErrInvalidCredentials so responses never reveal which usernames exist.
func (p *LDAPProvider) TryLogin(username, password string) error {
	conn, err := p.conns.Dial(p.cfg.BindUser, p.cfg.BindPassword)
	if err != nil {
		// service bind failure is operational, not a credential problem
		return err
	}

	searchFilter := fmt.Sprintf("(&(%s)(%s=%s))",
		p.cfg.UserFilter,
		p.cfg.UserNameAttr,
		ldap.EscapeFilter(username),
	)

	entries, err := conn.Search(p.cfg.BaseDN, searchFilter, p.searchScope(), []string{p.cfg.UserNameAttr})

	// The service binding is private to this login attempt and never enters
	// the cache: releasing it here cannot hand a later lookup an unbound
	// session, nor close one a concurrent lookup is searching on.
	_ = conn.Unbind()

	if err != nil {
		if errors.Is(err, ErrDirectoryUnreachable) {
			return err
		}

		log.Info().Err(err).Str("username", username).Msg("cannot find user")

		return ErrInvalidCredentials
	}

	if len(entries) == 0 {
		log.Info().Str("username", username).Msg("cannot find user")

		return ErrInvalidCredentials
	}

	entry := entries[0]

	if entry.DN == "" {
		// a partial entry counts as an invalid login, not as a
		// distinguishable directory defect
		return ErrInvalidCredentials
	}

	if !p.cfg.IgnoreMalformedSchema && !validDN(entry.DN) {
		log.Error().Str("dn", entry.DN).
			Msg("unable to parse ldap structure; if you are using Active Directory " +
				"and not specifying an OU, set auth.ldap.search_scope = \"SUBTREE\"")

		return ErrMalformedDirectoryResponse
	}

	userConn, err := p.conns.Get(entry.DN, password)
	if err != nil {
		log.Info().Str("username", username).Msg("password incorrect for user")

		return ErrInvalidCredentials
	}

	// the user-bound session is discarded immediately, it exists only to
	// prove the password
	p.conns.Invalidate(entry.DN, password)
	_ = userConn.Unbind()

	return nil
}

func (p *LDAPProvider) searchScope() Scope {
	if p.cfg.SubtreeScope() {
		return ScopeSubtree
	}

	return ScopeSingleLevel
}
