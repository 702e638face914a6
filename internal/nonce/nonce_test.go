package nonce

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify(t *testing.T) {
	n := New("secret", "return:123")

	assert.True(t, Verify("secret", "return:123", n))
	assert.False(t, Verify("secret", "return:124", n), "different scope")
	assert.False(t, Verify("other", "return:123", n), "different secret")
	assert.False(t, Verify("secret", "return:123", ""))
}

func TestNonceIsURLSafe(t *testing.T) {
	n := New("secret", "return:123")
	assert.NotContains(t, n, "+")
	assert.NotContains(t, n, "/")
	assert.NotContains(t, n, "=")
}
