package auth

import (
	"github.com/rs/zerolog/log"

	"github.com/flowboard/flowboard/internal/db/models"
)

// Identity is an authenticated principal. It is built once per login from
// the directory and immutable afterwards.
//
// The superuser and data-profiler capabilities default to granted when
// their governing filter is not configured: the absence of a restriction
// means unrestricted access, which is distinct from a configured filter the
// user does not match.
type Identity struct {
	user         *models.User
	superuser    bool
	dataProfiler bool
	groups       []string
}

// NewIdentity resolves the capabilities and group memberships of an
// authenticated user. All lookups run over a single service account
// binding obtained from the connection cache.
func (p *LDAPProvider) NewIdentity(user *models.User) (*Identity, error) {
	conn, err := p.conns.Get(p.cfg.BindUser, p.cfg.BindPassword)
	if err != nil {
		return nil, err
	}

	ident := &Identity{
		user:         user,
		superuser:    true,
		dataProfiler: true,
		groups:       []string{},
	}

	if p.cfg.SuperuserFilter == "" {
		log.Debug().Msg("missing configuration for superuser settings or empty, skipping")
	} else {
		ident.superuser, err = p.groups.ContainsUser(
			conn, p.cfg.BaseDN, p.cfg.SuperuserFilter, p.cfg.UserNameAttr, user.Username)
		if err != nil {
			return nil, err
		}
	}

	if p.cfg.DataProfilerFilter == "" {
		log.Debug().Msg("missing configuration for data profiler settings or empty, skipping")
	} else {
		ident.dataProfiler, err = p.groups.ContainsUser(
			conn, p.cfg.BaseDN, p.cfg.DataProfilerFilter, p.cfg.UserNameAttr, user.Username)
		if err != nil {
			return nil, err
		}
	}

	// group resolution is skipped, not failed, when the base settings are
	// absent: the identity then simply belongs to no groups
	if p.cfg.BaseDN == "" || p.cfg.UserFilter == "" || p.cfg.UserNameAttr == "" {
		log.Debug().Msg("missing configuration for ldap settings, skipping group lookup")
	} else {
		ident.groups, err = p.groups.ForUser(
			conn, p.cfg.BaseDN, p.cfg.UserFilter, p.cfg.UserNameAttr, user.Username)
		if err != nil {
			return nil, err
		}
	}

	return ident, nil
}

// IsActive is true for every constructed identity.
func (i *Identity) IsActive() bool {
	return true
}

// IsAuthenticated is true for every constructed identity.
func (i *Identity) IsAuthenticated() bool {
	return true
}

// IsAnonymous is false for every constructed identity.
func (i *Identity) IsAnonymous() bool {
	return false
}

// GetID returns the id of the underlying user record.
func (i *Identity) GetID() string {
	return i.user.GetID()
}

// User returns the underlying user record.
func (i *Identity) User() *models.User {
	return i.user
}

// IsSuperuser reports whether the identity may access everything.
func (i *Identity) IsSuperuser() bool {
	return i.superuser
}

// HasDataProfilingAccess reports whether the identity may use the data
// profiling tools.
func (i *Identity) HasDataProfilingAccess() bool {
	return i.dataProfiler
}

// Groups returns the CNs of the directory groups the identity belongs to.
func (i *Identity) Groups() []string {
	out := make([]string, len(i.groups))
	copy(out, i.groups)

	return out
}
