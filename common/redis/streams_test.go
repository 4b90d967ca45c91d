package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishJSONToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	id, err := PublishJSONToStream(ctx, client, "gait:test", 0, map[string]int{"overall": 82})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs, err := ReadRange(ctx, client, "gait:test", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, `{"overall":82}`, msgs[0].Values["data"])
	assert.NotEmpty(t, msgs[0].Values["timestamp"])
}

func TestStringify(t *testing.T) {
	cases := map[string]interface{}{
		"abc":     "abc",
		"42":      42,
		"1.5":     1.5,
		"true":    true,
		`["a"]`:   []string{"a"},
		"7":       int64(7),
		"payload": []byte("payload"),
	}
	for want, in := range cases {
		got, err := stringify(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestConsumerGroupRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, CreateConsumerGroup(ctx, client, "gait:samples", "coach"))
	require.NoError(t, CreateConsumerGroup(ctx, client, "gait:samples", "coach"), "existing group is fine")

	_, err := PublishToStream(ctx, client, "gait:samples", 0, map[string]interface{}{"data": `{"cadence":170}`})
	require.NoError(t, err)

	msgs, err := ReadFromStream(ctx, client, "gait:samples", "coach", "c1", 10, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, `{"cadence":170}`, msgs[0].Values["data"])
	require.NoError(t, Ack(ctx, client, "gait:samples", "coach", msgs[0].ID))

	msgs, err = ReadFromStream(ctx, client, "gait:samples", "coach", "c1", 10, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
