package serviceaddr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOverride(t *testing.T) {
	assert.Equal(t, "product-1:7001", Resolve("product-1:7001", "8080"))
}

func TestResolveHostAndPort(t *testing.T) {
	addr := Resolve("", "8080")
	assert.True(t, strings.HasSuffix(addr, ":8080"), addr)
	assert.Contains(t, addr, "/")
}
