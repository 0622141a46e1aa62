package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easeaico/pet-village/internal/types"
)

type published struct {
	channel string
	body    []byte
}

type fakePublisher struct {
	sent []published
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	if p.err != nil {
		return redis.NewIntResult(0, p.err)
	}
	p.sent = append(p.sent, published{channel: channel, body: message.([]byte)})
	return redis.NewIntResult(1, nil)
}

type failingSink struct{ LogSink }

func (failingSink) PetDied(ctx context.Context, n types.DeathNotice) error {
	return errors.New("sink down")
}

func TestRedisSinkPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewRedisSink(pub, "village")

	err := sink.DeathWarning(context.Background(), types.DeathWarning{PetID: 3, PetName: "Mochi", Health: 2, NeedsHeal: true})
	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "village:death_warning", pub.sent[0].channel)

	var got types.DeathWarning
	require.NoError(t, json.Unmarshal(pub.sent[0].body, &got))
	assert.Equal(t, "Mochi", got.PetName)
	assert.True(t, got.NeedsHeal)

	require.NoError(t, sink.DramaResolved(context.Background(), types.DramaResolved{EventID: 9, Outcome: "They made up"}))
	assert.Equal(t, "village:drama_resolved", pub.sent[1].channel)
}

func TestRedisSinkWrapsPublishError(t *testing.T) {
	sink := NewRedisSink(&fakePublisher{err: errors.New("connection refused")}, "")
	err := sink.PetDied(context.Background(), types.DeathNotice{PetID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "death")
	assert.Equal(t, "death", sink.Channel(KindDeath))
}

func TestFanoutDeliversToEverySink(t *testing.T) {
	pub := &fakePublisher{}
	fan := Fanout{&failingSink{LogSink: *NewLogSink(nil)}, NewRedisSink(pub, "v")}

	err := fan.PetDied(context.Background(), types.DeathNotice{PetID: 1, PetName: "Bean"})
	require.Error(t, err)
	assert.Len(t, pub.sent, 1)

	require.NoError(t, fan.DramaPosted(context.Background(), types.DramaPosted{EventID: 2}))
	assert.Len(t, pub.sent, 2)
}
