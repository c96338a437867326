package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/flowboard/flowboard/internal/config"
)

// GroupEvaluator answers group membership questions against a bound
// directory session. Both operations are cached independently, keyed by the
// full parameter tuple including the DN of the binding they ran on.
type GroupEvaluator struct {
	cfg        *config.LDAP
	membership *TimedCache[string, bool]
	groupLists *TimedCache[string, []string]
}

// NewGroupEvaluator creates a GroupEvaluator with both lookup caches set to
// the configured TTL.
func NewGroupEvaluator(cfg *config.LDAP) *GroupEvaluator {
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = config.DefaultLDAPCacheTTL
	}

	return &GroupEvaluator{
		cfg:        cfg,
		membership: NewTimedCache[string, bool](0, ttl, nil),
		groupLists: NewTimedCache[string, []string](0, ttl, nil),
	}
}

// ContainsUser reports whether username appears in the userAttr values of
// any entry matched by groupFilter below baseDN. Comparison is
// case-insensitive. An unsuccessful search, an empty result or a result
// where no entry carries userAttr yields false with a warning, not an
// error; only a transport failure is an error.
func (g *GroupEvaluator) ContainsUser(bind Binding, baseDN, groupFilter, userAttr, username string) (bool, error) {
	key := cacheKey(bind.DN(), baseDN, groupFilter, userAttr, strings.ToLower(username))

	return g.membership.GetOrCompute(key, func() (bool, error) {
		searchFilter := fmt.Sprintf("(&(%s))", groupFilter)

		entries, err := bind.Search(baseDN, searchFilter, ScopeSubtree, []string{userAttr})
		if err != nil {
			if errors.Is(err, ErrDirectoryUnreachable) {
				return false, err
			}

			log.Warn().Err(err).Str("basedn", baseDN).Str("filter", searchFilter).
				Msg("unable to find group")

			return false, nil
		}

		if len(entries) == 0 {
			log.Warn().Str("basedn", baseDN).Str("filter", searchFilter).
				Msg("unable to find group")

			return false, nil
		}

		attributeSeen := false

		for _, entry := range entries {
			values, ok := entry.Attributes[userAttr]
			if ok && len(values) > 0 {
				attributeSeen = true
			}

			for _, value := range values {
				if strings.EqualFold(value, username) {
					return true, nil
				}
			}
		}

		if !attributeSeen {
			log.Warn().Str("attribute", userAttr).Str("basedn", baseDN).Str("filter", searchFilter).
				Msg("unable to find group")
		}

		return false, nil
	})
}

// ForUser returns the CNs of the groups username belongs to, read from the
// configured membership attribute of the user's entry.
//
// A search that matches no entry means the username does not exist; that is
// deliberately reported as ErrInvalidCredentials so lookups cannot be used
// to probe which usernames exist. A present entry without the membership
// attribute yields an empty list with a warning: the user will count as a
// member of no groups, which disables any feature gated on membership.
func (g *GroupEvaluator) ForUser(bind Binding, baseDN, userFilter, userAttr, username string) ([]string, error) {
	memberAttr := g.cfg.GroupMemberAttr
	if memberAttr == "" {
		memberAttr = config.DefaultGroupMemberAttr
	}

	key := cacheKey(bind.DN(), baseDN, userFilter, userAttr, strings.ToLower(username), memberAttr)

	return g.groupLists.GetOrCompute(key, func() ([]string, error) {
		searchFilter := fmt.Sprintf("(&(%s)(%s=%s))", userFilter, userAttr, ldap.EscapeFilter(username))

		entries, err := bind.Search(baseDN, searchFilter, ScopeSubtree, []string{memberAttr})
		if err != nil {
			if errors.Is(err, ErrDirectoryUnreachable) {
				return nil, err
			}

			log.Info().Err(err).Str("username", username).Msg("cannot find user")

			return nil, ErrInvalidCredentials
		}

		if len(entries) == 0 {
			log.Info().Str("username", username).Msg("cannot find user")

			return nil, ErrInvalidCredentials
		}

		values, ok := entries[0].Attributes[memberAttr]
		if !ok || len(values) == 0 {
			log.Warn().Str("attribute", memberAttr).Str("username", username).
				Msg("membership attribute missing on user entry, user will be treated as a member of no groups")

			return []string{}, nil
		}

		groups := make([]string, 0, len(values))

		for _, value := range values {
			cn, found := FirstCN(value)
			if !found {
				log.Warn().Str("value", value).Str("username", username).
					Msg("skipping group membership value without a parseable cn component")

				continue
			}

			groups = append(groups, cn)
		}

		return groups, nil
	})
}
