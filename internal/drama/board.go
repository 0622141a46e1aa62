package drama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/easeaico/pet-village/internal/types"
)

// Announcer publishes posted drama.
type Announcer interface {
	DramaPosted(ctx context.Context, posted types.DramaPosted) error
}

// StoreBoard posts through an Announcer and counts ballots cast through the
// command surface and kept in the store.
type StoreBoard struct {
	channel   string
	store     Store
	announcer Announcer
}

// NewStoreBoard returns a board bound to one channel. An empty channel makes
// every cycle skip.
func NewStoreBoard(channel string, store Store, announcer Announcer) *StoreBoard {
	return &StoreBoard{channel: channel, store: store, announcer: announcer}
}

func (b *StoreBoard) Locate(ctx context.Context) (string, error) {
	if b.channel == "" {
		return "", types.ErrNoChannel
	}
	return b.channel, nil
}

func (b *StoreBoard) Post(ctx context.Context, posted types.DramaPosted) (string, error) {
	if err := b.announcer.DramaPosted(ctx, posted); err != nil {
		slog.WarnContext(ctx, "failed to announce drama", "event_id", posted.EventID, "error", err.Error())
	}
	return uuid.NewString(), nil
}

// Tally fails with types.ErrVoteMessageGone when the session no longer
// matches the one stored for its channel.
func (b *StoreBoard) Tally(ctx context.Context, session types.DramaSession) ([]int, error) {
	current, err := b.store.GetSession(ctx, session.Channel)
	if err != nil {
		if errors.Is(err, types.ErrNoActiveDrama) {
			return nil, types.ErrVoteMessageGone
		}
		return nil, fmt.Errorf("failed to get drama session: %w", err)
	}
	if current.MessageID != session.MessageID {
		return nil, types.ErrVoteMessageGone
	}
	votes, err := b.store.CountVotes(ctx, session.EventID, len(session.Options))
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	return votes, nil
}
