package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ConnCache memoizes bound directory sessions per (dn, credential) pair so
// that repeated operations inside the TTL window do not rebind.
//
// Caching live bindings keyed by credentials is inherited behavior from the
// system this replaces and is a deliberate availability/security trade-off;
// the credential itself is only ever stored as a hash and bindings are
// unbound when their entry expires or is invalidated.
type ConnCache struct {
	dialer Dialer
	cache  *TimedCache[string, Binding]
}

// NewConnCache creates a ConnCache on top of dialer with the given TTL.
func NewConnCache(dialer Dialer, ttl time.Duration) *ConnCache {
	return &ConnCache{
		dialer: dialer,
		cache: NewTimedCache[string, Binding](0, ttl, func(_ string, b Binding) {
			_ = b.Unbind()
		}),
	}
}

// Get returns a bound session for (dn, password), reusing a cached one when
// present. A failed bind is reported as ErrDirectoryUnreachable by the
// dialer; at this layer that is indistinguishable from bad credentials and
// callers must map it based on whose credentials they passed.
func (c *ConnCache) Get(dn, password string) (Binding, error) {
	return c.cache.GetOrCompute(bindingKey(dn, password), func() (Binding, error) {
		return c.dialer.Bind(dn, password)
	})
}

// Dial binds a fresh session for (dn, password), bypassing the cache. The
// caller owns the binding and must unbind it. Login attempts use this for
// their service binding so releasing it cannot disturb a cached session
// shared with concurrent lookups.
func (c *ConnCache) Dial(dn, password string) (Binding, error) {
	return c.dialer.Bind(dn, password)
}

// Invalidate drops the cached session for (dn, password), unbinding it.
// Intended for credential rotation and for the authenticator's
// no-service-binding-reuse step.
func (c *ConnCache) Invalidate(dn, password string) {
	c.cache.Invalidate(bindingKey(dn, password))
}

// Purge drops and unbinds every cached session.
func (c *ConnCache) Purge() {
	c.cache.Purge()
}

// bindingKey derives the cache key for a (dn, credential) pair. The
// credential is hashed so the raw value never sits in cache internals and
// can never end up in a log line.
func bindingKey(dn, password string) string {
	sum := sha256.Sum256([]byte(password))

	return cacheKey(dn, hex.EncodeToString(sum[:]))
}
