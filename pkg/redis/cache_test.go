package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigAddr(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: "6379"}

	assert.Equal(t, "localhost:6379", cfg.Addr())
}

func TestConfigAddr_IPv6(t *testing.T) {
	cfg := &Config{Host: "::1", Port: "6380"}

	assert.Equal(t, "[::1]:6380", cfg.Addr())
}

func TestNewRedisCache_RequiresHost(t *testing.T) {
	_, err := NewRedisCache(&Config{Port: "6379"})

	assert.Error(t, err)
}
