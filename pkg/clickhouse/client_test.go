package clickhouse

import (
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestBuildOptions(t *testing.T) {
	o := buildOptions(ClientConfig{
		Host: "ch", Port: 8123, Database: "stocksignal", User: "u", Password: "p",
		UseHTTP: true, AsyncInsert: true, WaitForAsync: true, MaxExecTime: 30 * time.Second,
		DialTimeout: time.Second, ReadTimeout: 2 * time.Second,
	})

	assert.Equal(t, []string{"ch:8123"}, o.Addr)
	assert.Equal(t, ch.HTTP, o.Protocol)
	assert.Equal(t, "stocksignal", o.Auth.Database)
	assert.Equal(t, "u", o.Auth.Username)
	assert.Equal(t, 30, o.Settings["max_execution_time"])
	assert.Equal(t, 1, o.Settings["async_insert"])
	assert.Equal(t, 1, o.Settings["wait_for_async_insert"])
	assert.Equal(t, 2*time.Second, o.ReadTimeout)
}

func TestBuildOptionsNative(t *testing.T) {
	o := buildOptions(ClientConfig{Host: "h", Port: 9000})
	assert.Equal(t, ch.Native, o.Protocol)
	assert.Empty(t, o.Settings)
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.EqualError(t, err, "host is required")
}
