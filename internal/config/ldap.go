package config

import "time"

// Search scope values accepted for LDAP.SearchScope.
const (
	// SearchScopeSubtree searches the whole subtree below the base DN.
	SearchScopeSubtree = "SUBTREE"
	// SearchScopeLevel searches a single level below the base DN (default).
	SearchScopeLevel = "LEVEL"
)

// Defaults applied by LDAP.ApplyDefaults for optional settings.
const (
	// DefaultGroupMemberAttr is the directory attribute listing a user's groups.
	DefaultGroupMemberAttr = "memberOf"
	// DefaultLDAPTimeout bounds every directory network operation.
	DefaultLDAPTimeout = 10 * time.Second
	// DefaultLDAPCacheTTL is how long bound connections and membership
	// lookups are reused before the directory is asked again.
	DefaultLDAPCacheTTL = 24 * time.Hour
)

// LDAP holds the directory authentication settings.
//
// URI, BindUser, BindPassword, BaseDN, UserFilter and UserNameAttr are
// required whenever Enabled is true; the remaining keys are optional and an
// absent key selects the documented default rather than being an error.
// An unset SuperuserFilter or DataProfilerFilter means the capability is
// granted to every authenticated user.
type LDAP struct {
	// Enabled indicates if LDAP authentication is enabled.
	Enabled bool `toml:"enabled"`
	// URI is the LDAP server URI, e.g. "ldaps://ldap.example.com:636".
	URI string `toml:"uri"`
	// BindUser is the DN of the service account used for searches.
	BindUser string `toml:"bind_user"`
	// BindPassword is the password of the service account.
	BindPassword string `toml:"bind_password"`
	// BaseDN is the base distinguished name for user and group searches.
	BaseDN string `toml:"basedn"`
	// UserFilter selects user entries, e.g. "(objectClass=person)".
	UserFilter string `toml:"user_filter"`
	// UserNameAttr is the attribute holding the login name, e.g. "uid".
	UserNameAttr string `toml:"user_name_attr"`
	// SuperuserFilter selects the superuser group (optional).
	SuperuserFilter string `toml:"superuser_filter"`
	// DataProfilerFilter selects the data-profiler group (optional).
	DataProfilerFilter string `toml:"data_profiler_filter"`
	// CACert is a path to a PEM CA certificate used to validate the server
	// certificate (optional).
	CACert string `toml:"cacert"`
	// SearchScope is "SUBTREE" or "LEVEL"; unset means single level.
	SearchScope string `toml:"search_scope"`
	// GroupMemberAttr is the attribute listing group memberships (optional,
	// default "memberOf").
	GroupMemberAttr string `toml:"group_member_attr"`
	// IgnoreMalformedSchema skips strict DN validation of search results.
	// Needed for directories returning entries the parser rejects.
	IgnoreMalformedSchema bool `toml:"ignore_malformed_schema"`
	// Timeout bounds every directory network operation (optional, default 10s).
	Timeout time.Duration `toml:"timeout"`
	// CacheTTL is the lifetime of cached bindings and membership lookups
	// (optional, default 24h).
	CacheTTL time.Duration `toml:"cache_ttl"`
}

// ApplyDefaults fills the optional LDAP settings that were left unset.
func (l *LDAP) ApplyDefaults() {
	if l.GroupMemberAttr == "" {
		l.GroupMemberAttr = DefaultGroupMemberAttr
	}

	if l.Timeout == 0 {
		l.Timeout = DefaultLDAPTimeout
	}

	if l.CacheTTL == 0 {
		l.CacheTTL = DefaultLDAPCacheTTL
	}
}

// SubtreeScope reports whether searches should cover the whole subtree.
func (l *LDAP) SubtreeScope() bool {
	return l.SearchScope == SearchScopeSubtree
}
