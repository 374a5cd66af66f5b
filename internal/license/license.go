// Package license gates the chat surface behind a shared set of license keys.
package license

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrLicenseRequired = errors.New("license: key required")
	ErrLicenseInvalid  = errors.New("license: key invalid")
)

// HeaderName carries the license key when it is not part of the body.
const HeaderName = "X-License-Key"

// Checker validates widget license keys. A disabled checker accepts anything.
type Checker struct {
	enforce bool
	keys    [][]byte
}

func NewChecker(enforce bool, keys []string) *Checker {
	c := &Checker{enforce: enforce}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			c.keys = append(c.keys, []byte(k))
		}
	}
	return c
}

// Enforced reports whether keys are checked at all.
func (c *Checker) Enforced() bool {
	return c != nil && c.enforce
}

// Check returns nil when key is acceptable.
func (c *Checker) Check(key string) error {
	if !c.Enforced() {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrLicenseRequired
	}
	candidate := []byte(key)
	match := 0
	for _, k := range c.keys {
		match |= subtle.ConstantTimeCompare(candidate, k)
	}
	if match != 1 {
		return ErrLicenseInvalid
	}
	return nil
}

// KeyFromRequest picks the key from the body value, the X-License-Key
// header, or the license query parameter, in that order.
func KeyFromRequest(r *http.Request, bodyKey string) string {
	if v := strings.TrimSpace(bodyKey); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.Header.Get(HeaderName)); v != "" {
		return v
	}
	return strings.TrimSpace(r.URL.Query().Get("license"))
}
