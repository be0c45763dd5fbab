package telemetry

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"codeberg.org/mutker/roboteqbms/internal/bms"
	"codeberg.org/mutker/roboteqbms/internal/errors"
	"codeberg.org/mutker/roboteqbms/internal/lifecycle"
	"codeberg.org/mutker/roboteqbms/internal/logger"
	"github.com/redis/go-redis/v9"
)

const (
	channelData        = "data"
	channelTemperature = "temperature"
	channelStatusFlags = "status_flags"
	channelFaultFlags  = "fault_flags"
	channelState       = "state"
)

// NewRedisClient returns a go-redis client and validates the connection with PING.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:         strings.TrimSpace(cfg.Addr),
		Password:     cfg.Password,
		DialTimeout:  defaultDialTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, errFactory.Wrap(ErrConnectFailed, err)
	}

	return client, nil
}

// RedisSink mirrors every cycle into a hash at <prefix> and publishes the
// records on <prefix>:data, <prefix>:temperature, <prefix>:status_flags and
// <prefix>:fault_flags. State changes go to <prefix>:state.
type RedisSink struct {
	client redis.Cmdable
	prefix string
	log    logger.Logger
}

func NewRedisSink(client redis.Cmdable, prefix string, log logger.Logger) *RedisSink {
	return &RedisSink{client: client, prefix: prefix, log: log}
}

func (s *RedisSink) key(suffix string) string {
	return s.prefix + ":" + suffix
}

func (s *RedisSink) Publish(ctx context.Context, result *bms.CycleResult) error {
	errFactory := errors.New()

	if result == nil || result.Snapshot == nil {
		return errFactory.New(ErrInvalidResult)
	}

	records := BuildRecords(result.Snapshot)
	messages, err := encodeRecords(records)
	if err != nil {
		return errFactory.Wrap(ErrEncodeFailed, err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.prefix, hashFields(result, records))
	for _, m := range messages {
		pipe.Publish(ctx, s.key(m.channel), m.payload)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errFactory.Wrap(ErrPublishFailed, err)
	}

	return nil
}

// StateChanged records the component state under <prefix>:state and
// announces it on the channel of the same name.
func (s *RedisSink) StateChanged(ctx context.Context, from, to lifecycle.State) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(channelState), map[string]interface{}{
		"state":    to.String(),
		"code":     int(to),
		"previous": from.String(),
	})
	pipe.Publish(ctx, s.key(channelState), to.String())

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.New().Wrap(ErrPublishFailed, err)
	}

	s.log.Debug().Str("state", to.String()).Msg("State published to redis")

	return nil
}

type message struct {
	channel string
	payload []byte
}

func encodeRecords(r Records) ([]message, error) {
	values := []struct {
		channel string
		value   interface{}
	}{
		{channelData, r.Battery},
		{channelTemperature, r.Temperature},
		{channelStatusFlags, r.StatusFlags},
		{channelFaultFlags, r.FaultFlags},
	}

	messages := make([]message, 0, len(values))
	for _, v := range values {
		payload, err := json.Marshal(v.value)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message{channel: v.channel, payload: payload})
	}
	return messages, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func hashFields(result *bms.CycleResult, r Records) map[string]interface{} {
	temps := make([]string, len(r.Temperature.Data))
	for i, t := range r.Temperature.Data {
		temps[i] = strconv.Itoa(t)
	}

	return map[string]interface{}{
		"session":      result.Session,
		"seq":          strconv.FormatUint(result.Seq, 10),
		"verdict":      result.Verdict.String(),
		"level":        formatFloat(r.Battery.Level),
		"current":      formatFloat(r.Battery.Current),
		"is_charging":  strconv.FormatBool(r.Battery.IsCharging),
		"voltage":      formatFloat(r.Battery.Voltage),
		"min_cell":     formatFloat(r.Battery.MinCell),
		"max_cell":     formatFloat(r.Battery.MaxCell),
		"avg_cell":     formatFloat(r.Battery.AvgCell),
		"temperatures": strings.Join(temps, ":"),
		"status_flags": r.StatusFlags.Data,
		"fault_flags":  r.FaultFlags.Data,
	}
}
