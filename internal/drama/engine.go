// Package drama generates NPC drama events, runs timed community votes and
// applies their outcomes to the relationship graph.
package drama

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/easeaico/pet-village/internal/metrics"
	"github.com/easeaico/pet-village/internal/relationship"
	"github.com/easeaico/pet-village/internal/types"
)

var tracer = otel.Tracer("drama")

// Store persists drama events, votes and open sessions.
type Store interface {
	CreateDramaEvent(ctx context.Context, event *types.DramaEvent) error
	GetDramaEvent(ctx context.Context, id uint) (*types.DramaEvent, error)
	// ResolveDramaEvent writes the outcome once. It returns types.ErrVoteClosed
	// when the event already has an outcome.
	ResolveDramaEvent(ctx context.Context, id uint, outcome string, votes []int, at time.Time) error
	ListDramaEvents(ctx context.Context, limit int) ([]types.DramaEvent, error)

	SaveSession(ctx context.Context, session types.DramaSession) error
	// GetSession returns types.ErrNoActiveDrama when channel has no open vote.
	GetSession(ctx context.Context, channel string) (*types.DramaSession, error)
	ListSessions(ctx context.Context) ([]types.DramaSession, error)
	DeleteSession(ctx context.Context, channel string) error

	CastVote(ctx context.Context, eventID uint, userID string, option int) error
	CountVotes(ctx context.Context, eventID uint, options int) ([]int, error)
}

// Board is where drama is posted and where votes are read back.
type Board interface {
	// Locate returns the destination channel or types.ErrNoChannel.
	Locate(ctx context.Context) (string, error)
	// Post publishes the event and returns a reference to the vote message.
	Post(ctx context.Context, posted types.DramaPosted) (string, error)
	// Tally returns per-option counts or types.ErrVoteMessageGone.
	Tally(ctx context.Context, session types.DramaSession) ([]int, error)
}

// Notifier receives resolution announcements.
type Notifier interface {
	DramaResolved(ctx context.Context, resolved types.DramaResolved) error
}

// Storyteller may rewrite a generated description.
type Storyteller interface {
	Retell(ctx context.Context, event types.DramaEvent) string
}

// Engine runs drama cycles. One cycle or recovery runs at a time.
type Engine struct {
	rels        Relationships
	generator   *Generator
	planner     *Planner
	store       Store
	board       Board
	notifier    Notifier
	storyteller Storyteller
	metrics     *metrics.Metrics
	settings    Settings
	now         func() time.Time
	after       func(time.Duration) <-chan time.Time

	cycle sync.Mutex
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source and the vote window timer.
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) Option {
	return func(e *Engine) {
		e.now = now
		e.after = after
	}
}

// WithMetrics records drama metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithStoryteller rewrites descriptions before posting.
func WithStoryteller(s Storyteller) Option {
	return func(e *Engine) { e.storyteller = s }
}

// NewEngine returns a drama Engine.
func NewEngine(rels Relationships, store Store, board Board, notifier Notifier, rng types.Rand, settings Settings, opts ...Option) *Engine {
	e := &Engine{
		rels:      rels,
		generator: NewGenerator(rels, rng, settings),
		planner:   NewPlanner(rng, settings),
		store:     store,
		board:     board,
		notifier:  notifier,
		settings:  settings,
		now:       time.Now,
		after:     time.After,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunCycle generates an event, opens its vote, waits out the window and
// resolves it. If ctx ends during the window the session stays persisted for
// Recover.
func (e *Engine) RunCycle(ctx context.Context) error {
	e.cycle.Lock()
	defer e.cycle.Unlock()

	ctx, span := tracer.Start(ctx, "Drama.RunCycle")
	defer span.End()

	channel, err := e.board.Locate(ctx)
	if err != nil {
		if errors.Is(err, types.ErrNoChannel) {
			slog.InfoContext(ctx, "no drama channel, skipping cycle")
			return nil
		}
		return fmt.Errorf("failed to locate drama channel: %w", err)
	}

	if open, err := e.store.GetSession(ctx, channel); err == nil {
		slog.WarnContext(ctx, "drama vote already open, skipping cycle", "channel", channel, "event_id", open.EventID)
		return nil
	} else if !errors.Is(err, types.ErrNoActiveDrama) {
		return fmt.Errorf("failed to get drama session: %w", err)
	}

	event, err := e.generate(ctx, false)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.String("category", string(event.Category)), attribute.Int("event_id", int(event.ID)))

	options := Options(event.Category)
	closesAt := e.now().Add(e.settings.VoteWindow)
	messageID, err := e.board.Post(ctx, posted(event, channel, options, closesAt))
	if err != nil {
		return fmt.Errorf("failed to post drama event: %w", err)
	}

	session := types.DramaSession{
		Channel:   channel,
		EventID:   event.ID,
		MessageID: messageID,
		Category:  event.Category,
		NPC1:      event.NPC1,
		NPC2:      event.NPC2,
		Options:   options,
		ClosesAt:  closesAt,
	}
	if err := e.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save drama session: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-e.after(e.settings.VoteWindow):
	}
	_, err = e.resolve(ctx, session)
	return err
}

// Recover resolves vote sessions left open by a previous process once their
// window has elapsed.
func (e *Engine) Recover(ctx context.Context) error {
	e.cycle.Lock()
	defer e.cycle.Unlock()

	sessions, err := e.store.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list drama sessions: %w", err)
	}
	var errs []error
	for _, s := range sessions {
		if wait := s.ClosesAt.Sub(e.now()); wait > 0 {
			slog.InfoContext(ctx, "resuming drama vote", "channel", s.Channel, "event_id", s.EventID, "remaining", wait.String())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.after(wait):
			}
		}
		if _, err := e.resolve(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ForcedResult is the outcome of an administrative drama event.
type ForcedResult struct {
	Event        types.DramaEvent   `json:"event"`
	Relationship types.Relationship `json:"relationship"`
}

// Force generates and announces an event and applies its flat delta immediately.
func (e *Engine) Force(ctx context.Context) (*ForcedResult, error) {
	ctx, span := tracer.Start(ctx, "Drama.Force")
	defer span.End()

	event, err := e.generate(ctx, true)
	if err != nil {
		return nil, err
	}

	channel, err := e.board.Locate(ctx)
	if err != nil && !errors.Is(err, types.ErrNoChannel) {
		slog.WarnContext(ctx, "failed to locate drama channel", "event_id", event.ID, "error", err.Error())
	}
	if err == nil && channel != "" {
		if _, err := e.board.Post(ctx, posted(event, channel, nil, time.Time{})); err != nil {
			slog.WarnContext(ctx, "failed to announce forced drama", "event_id", event.ID, "error", err.Error())
		}
	}

	plan := e.planner.ForcedPlan(event)
	if err := e.store.ResolveDramaEvent(ctx, event.ID, plan.Outcome, nil, e.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to resolve forced drama: %w", err)
	}
	rel, err := Execute(ctx, e.rels, plan, event.NPC1, event.NPC2)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to apply forced drama", "event_id", event.ID, "error", err.Error())
		if rel == nil {
			return nil, fmt.Errorf("failed to apply forced drama: %w", err)
		}
	}
	event.Outcome = plan.Outcome
	return &ForcedResult{Event: event, Relationship: *rel}, nil
}

// CastVote records userID's choice (1-based) on the open vote. A repeated vote
// replaces the earlier one.
func (e *Engine) CastVote(ctx context.Context, userID string, option int) error {
	session, err := e.Active(ctx)
	if err != nil {
		return err
	}
	if option < 1 || option > len(session.Options) {
		return fmt.Errorf("%w: %d", types.ErrInvalidVoteOption, option)
	}
	if !e.now().Before(session.ClosesAt) {
		return types.ErrVoteClosed
	}
	if err := e.store.CastVote(ctx, session.EventID, userID, option); err != nil {
		return fmt.Errorf("failed to cast vote: %w", err)
	}
	return nil
}

// Active returns the open vote on the drama channel.
func (e *Engine) Active(ctx context.Context) (*types.DramaSession, error) {
	channel, err := e.board.Locate(ctx)
	if err != nil {
		if errors.Is(err, types.ErrNoChannel) {
			return nil, types.ErrNoActiveDrama
		}
		return nil, err
	}
	return e.store.GetSession(ctx, channel)
}

// History lists recent drama events, newest first.
func (e *Engine) History(ctx context.Context, limit int) ([]types.DramaEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	events, err := e.store.ListDramaEvents(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list drama events: %w", err)
	}
	return events, nil
}

func (e *Engine) generate(ctx context.Context, forced bool) (types.DramaEvent, error) {
	event, err := e.generator.Generate(ctx)
	if err != nil {
		return types.DramaEvent{}, fmt.Errorf("failed to generate drama: %w", err)
	}
	if e.storyteller != nil {
		if text := e.storyteller.Retell(ctx, event); text != "" {
			event.Description = text
		}
	}
	event.Forced = forced
	event.CreatedAt = e.now().UTC()
	if err := e.store.CreateDramaEvent(ctx, &event); err != nil {
		return types.DramaEvent{}, fmt.Errorf("failed to save drama event: %w", err)
	}
	e.metrics.DramaEvent(string(event.Category), forced)
	slog.InfoContext(ctx, "drama generated", "event_id", event.ID, "category", event.Category, "npc1", event.NPC1, "npc2", event.NPC2, "forced", forced)
	return event, nil
}

// resolve closes session. The session row is cleared whatever happens.
func (e *Engine) resolve(ctx context.Context, session types.DramaSession) (*types.DramaResolved, error) {
	ctx, span := tracer.Start(ctx, "Drama.Resolve")
	defer span.End()

	defer func() {
		if err := e.store.DeleteSession(ctx, session.Channel); err != nil {
			slog.ErrorContext(ctx, "failed to clear drama session", "channel", session.Channel, "error", err.Error())
		}
	}()

	votes, err := e.board.Tally(ctx, session)
	if err != nil {
		if errors.Is(err, types.ErrVoteMessageGone) {
			slog.WarnContext(ctx, "drama vote message gone, aborting resolution", "event_id", session.EventID)
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to tally drama votes: %w", err)
	}

	index, fate := Winner(votes, e.planner.rng)
	plan, err := e.planner.Plan(session.Category, session.NPC1, session.NPC2, relationship.Names(e.rels.Cast()), index, fate)
	if err != nil {
		return nil, err
	}

	// The outcome is written before any effect runs; a claimed event is never re-applied.
	if err := e.store.ResolveDramaEvent(ctx, session.EventID, plan.Outcome, votes, e.now().UTC()); err != nil {
		if errors.Is(err, types.ErrVoteClosed) {
			slog.WarnContext(ctx, "drama event already resolved", "event_id", session.EventID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve drama event: %w", err)
	}

	rel, err := Execute(ctx, e.rels, plan, session.NPC1, session.NPC2)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to apply drama outcome", "event_id", session.EventID, "error", err.Error())
	}
	e.metrics.DramaResolved(plan.Option, fate)

	resolved := types.DramaResolved{
		EventID:     session.EventID,
		Channel:     session.Channel,
		Outcome:     plan.Outcome,
		FateDecided: fate,
		Tally:       tally(session.Options, votes),
	}
	if rel != nil {
		resolved.Relationship = *rel
	}
	if err := e.notifier.DramaResolved(ctx, resolved); err != nil {
		e.metrics.NotificationFailed("drama_resolved")
		slog.WarnContext(ctx, "failed to deliver drama resolution", "event_id", session.EventID, "error", err.Error())
	}
	slog.InfoContext(ctx, "drama resolved", "event_id", session.EventID, "option", plan.Option, "fate", fate)
	return &resolved, nil
}

func posted(event types.DramaEvent, channel string, options []string, closesAt time.Time) types.DramaPosted {
	npcs := []string{event.NPC1, event.NPC2}
	if event.Witness != "" {
		npcs = append(npcs, event.Witness)
	}
	return types.DramaPosted{
		EventID:     event.ID,
		Channel:     channel,
		Category:    event.Category,
		Description: event.Description,
		NPCs:        npcs,
		Options:     options,
		ClosesAt:    closesAt,
		Forced:      event.Forced,
	}
}

func tally(options []string, votes []int) []types.OptionTally {
	out := make([]types.OptionTally, 0, len(options))
	for i, label := range options {
		n := 0
		if i < len(votes) {
			n = votes[i]
		}
		out = append(out, types.OptionTally{Label: label, Votes: n})
	}
	return out
}
