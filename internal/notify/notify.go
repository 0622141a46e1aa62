// Package notify delivers pet and drama notifications to logs and Redis pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/easeaico/pet-village/internal/types"
)

// Notification kinds, also used as channel suffixes.
const (
	KindDeathWarning  = "death_warning"
	KindDeath         = "death"
	KindDramaPosted   = "drama_posted"
	KindDramaResolved = "drama_resolved"
)

// Sink receives every notification the engines emit.
type Sink interface {
	DeathWarning(ctx context.Context, warning types.DeathWarning) error
	PetDied(ctx context.Context, notice types.DeathNotice) error
	DramaPosted(ctx context.Context, posted types.DramaPosted) error
	DramaResolved(ctx context.Context, resolved types.DramaResolved) error
}

// LogSink writes notifications as structured log records.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink logging through logger, or slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) DeathWarning(ctx context.Context, w types.DeathWarning) error {
	s.logger.WarnContext(ctx, "pet near death",
		"owner", w.OwnerID, "pet_id", w.PetID, "pet", w.PetName,
		"health", w.Health, "hunger", w.Hunger,
		"needs_heal", w.NeedsHeal, "needs_feed", w.NeedsFeed)
	return nil
}

func (s *LogSink) PetDied(ctx context.Context, n types.DeathNotice) error {
	s.logger.InfoContext(ctx, "pet died",
		"owner", n.OwnerID, "pet_id", n.PetID, "pet", n.PetName,
		"generation", n.Generation, "reason", n.Reason, "lived_days", n.LivedDays)
	return nil
}

func (s *LogSink) DramaPosted(ctx context.Context, p types.DramaPosted) error {
	s.logger.InfoContext(ctx, "drama posted",
		"event_id", p.EventID, "channel", p.Channel, "category", string(p.Category),
		"description", p.Description, "forced", p.Forced)
	return nil
}

func (s *LogSink) DramaResolved(ctx context.Context, r types.DramaResolved) error {
	s.logger.InfoContext(ctx, "drama resolved",
		"event_id", r.EventID, "channel", r.Channel, "outcome", r.Outcome, "fate", r.FateDecided)
	return nil
}

// Publisher is the part of a Redis client used for pub/sub.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes JSON payloads on "<prefix>:<kind>" channels.
type RedisSink struct {
	client Publisher
	prefix string
}

// NewRedisSink creates a Redis pub/sub sink.
func NewRedisSink(client Publisher, prefix string) *RedisSink {
	return &RedisSink{client: client, prefix: prefix}
}

// Channel returns the pub/sub channel for kind.
func (s *RedisSink) Channel(kind string) string {
	if s.prefix == "" {
		return kind
	}
	return s.prefix + ":" + kind
}

func (s *RedisSink) DeathWarning(ctx context.Context, w types.DeathWarning) error {
	return s.publish(ctx, KindDeathWarning, w)
}

func (s *RedisSink) PetDied(ctx context.Context, n types.DeathNotice) error {
	return s.publish(ctx, KindDeath, n)
}

func (s *RedisSink) DramaPosted(ctx context.Context, p types.DramaPosted) error {
	return s.publish(ctx, KindDramaPosted, p)
}

func (s *RedisSink) DramaResolved(ctx context.Context, r types.DramaResolved) error {
	return s.publish(ctx, KindDramaResolved, r)
}

func (s *RedisSink) publish(ctx context.Context, kind string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s notification: %w", kind, err)
	}
	if err := s.client.Publish(ctx, s.Channel(kind), body).Err(); err != nil {
		return fmt.Errorf("failed to publish %s notification: %w", kind, err)
	}
	return nil
}

// Fanout delivers to every sink and joins their errors.
type Fanout []Sink

func (f Fanout) DeathWarning(ctx context.Context, w types.DeathWarning) error {
	return f.each(func(s Sink) error { return s.DeathWarning(ctx, w) })
}

func (f Fanout) PetDied(ctx context.Context, n types.DeathNotice) error {
	return f.each(func(s Sink) error { return s.PetDied(ctx, n) })
}

func (f Fanout) DramaPosted(ctx context.Context, p types.DramaPosted) error {
	return f.each(func(s Sink) error { return s.DramaPosted(ctx, p) })
}

func (f Fanout) DramaResolved(ctx context.Context, r types.DramaResolved) error {
	return f.each(func(s Sink) error { return s.DramaResolved(ctx, r) })
}

func (f Fanout) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range f {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
