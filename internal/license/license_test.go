package license

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerDisabledAcceptsAnything(t *testing.T) {
	c := NewChecker(false, nil)
	assert.False(t, c.Enforced())
	assert.NoError(t, c.Check(""))
	assert.NoError(t, c.Check("whatever"))

	var nilChecker *Checker
	assert.NoError(t, nilChecker.Check(""))
}

func TestCheckerEnforced(t *testing.T) {
	c := NewChecker(true, []string{" key-a ", "", "key-b"})
	assert.True(t, c.Enforced())
	assert.ErrorIs(t, c.Check("  "), ErrLicenseRequired)
	assert.ErrorIs(t, c.Check("key-c"), ErrLicenseInvalid)
	assert.ErrorIs(t, c.Check("key-"), ErrLicenseInvalid)
	assert.NoError(t, c.Check("key-a"))
	assert.NoError(t, c.Check(" key-b"))
}

func TestCheckerEnforcedWithoutKeysRejects(t *testing.T) {
	assert.ErrorIs(t, NewChecker(true, nil).Check("anything"), ErrLicenseInvalid)
}

func TestKeyFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/chat?license=from-query", nil)
	assert.Equal(t, "from-query", KeyFromRequest(r, ""))

	r.Header.Set(HeaderName, "from-header")
	assert.Equal(t, "from-header", KeyFromRequest(r, " "))
	assert.Equal(t, "from-body", KeyFromRequest(r, "from-body"))
}
