package telemetry

import (
	"context"
	"os"
	"testing"
	"time"

	"codeberg.org/mutker/roboteqbms/internal/errors"
	"codeberg.org/mutker/roboteqbms/internal/lifecycle"
	"codeberg.org/mutker/roboteqbms/internal/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	err := Config{Addr: "  ", Prefix: "bms"}.Validate()
	assert.True(t, errors.HasCode(err, ErrInvalidAddr))

	err = Config{Addr: "localhost:6379"}.Validate()
	assert.True(t, errors.HasCode(err, ErrInvalidConfig))
}

// TestRedisSink talks to a live server named by ROBOTEQBMS_TEST_REDIS.
func TestRedisSink(t *testing.T) {
	addr := os.Getenv("ROBOTEQBMS_TEST_REDIS")
	if addr == "" {
		t.Skip("ROBOTEQBMS_TEST_REDIS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	prefix := "roboteqbms-test:" + uuid.NewString()
	client, err := NewRedisClient(ctx, Config{Addr: addr, Prefix: prefix})
	require.NoError(t, err)
	defer client.Close()
	defer client.Del(context.Background(), prefix, prefix+":state")

	sub := client.Subscribe(ctx, prefix+":data")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	sink := NewRedisSink(client, prefix, logger.Default())
	require.NoError(t, sink.Publish(ctx, sampleResult()))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":76.5,"current":-0.5,"is_charging":false,"voltage":24.1,
		"min_cell":3.01,"max_cell":3.02,"avg_cell":3.015}`, msg.Payload)

	level, err := client.HGet(ctx, prefix, "level").Result()
	require.NoError(t, err)
	assert.Equal(t, "76.5", level)

	require.NoError(t, sink.StateChanged(ctx, lifecycle.StateReady, lifecycle.StateFailure))
	state, err := client.HGetAll(ctx, prefix+":state").Result()
	require.NoError(t, err)
	assert.Equal(t, "failure", state["state"])
	assert.Equal(t, "500", state["code"])
	assert.Equal(t, "ready", state["previous"])
}

func TestNewRedisClientUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, Config{Addr: "127.0.0.1:1", Prefix: "bms"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrConnectFailed))
}
