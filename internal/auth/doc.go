// Package auth provides authentication and authorization for flowboard.
//
// Two authentication sources are supported:
//   - Local database authentication with Argon2id password hashing
//     (an administrative fallback, see LocalProvider)
//   - LDAP/Active Directory authentication (LDAPProvider)
//
// # Directory authentication
//
// LDAPProvider.TryLogin verifies a username/password pair in three steps:
// bind as the configured service account, search for the user's DN below
// the base DN, then bind again as that DN with the supplied password. The
// three failure classes are kept apart: ErrInvalidCredentials for anything
// attributable to the supplied pair (including a missing user, so that the
// error never reveals which usernames exist), ErrDirectoryUnreachable for
// operational failures, and ErrMalformedDirectoryResponse when the
// directory returns entries that cannot be parsed.
//
// # Capabilities and groups
//
// NewIdentity builds the authenticated principal: the superuser and
// data-profiler capabilities (granted to everyone when their filter is not
// configured) and the CNs of the user's directory groups, extracted from
// the configured membership attribute. All three lookups share one service
// account binding.
//
// # Caching
//
// Directory round-trips are expensive, so three layers memoize results for
// the configured TTL (default 24h): the connection cache (ConnCache) keyed
// by DN and credential hash, and the two membership caches inside
// GroupEvaluator keyed by the full lookup parameters. TimedCache is the
// shared building block.
//
// Example usage:
//
//	provider, err := auth.NewLDAPProvider(&cfg.Auth.LDAP)
//	if err := provider.TryLogin(username, password); err != nil {
//	    // errors.Is against ErrInvalidCredentials etc.
//	}
//	user, _ := store.FindByUsername(username)
//	identity, err := provider.NewIdentity(user)
package auth
