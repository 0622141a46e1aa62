package drama

import (
	"context"
	"slices"
	"time"

	"github.com/easeaico/pet-village/internal/relationship"
	"github.com/easeaico/pet-village/internal/types"
)

// scriptRand replays scripted draws and falls back to zero.
type scriptRand struct {
	floats []float64
	ints   []int
}

func (r *scriptRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	i := r.ints[0]
	r.ints = r.ints[1:]
	if i >= n {
		return n - 1
	}
	return i
}

type fakeRels struct {
	scale  relationship.Scale
	rels   map[[2]string]types.Relationship
	states map[string]types.NPCState

	adjustErr error
}

func newFakeRels() *fakeRels {
	scale := relationship.DefaultScale()
	r := &fakeRels{
		scale:  scale,
		rels:   make(map[[2]string]types.Relationship),
		states: make(map[string]types.NPCState),
	}
	for _, p := range relationship.Pairs(relationship.DefaultCast) {
		r.rels[p] = types.Relationship{NPC1: p[0], NPC2: p[1], Score: scale.Default, Type: scale.Bucket(scale.Default)}
	}
	for _, npc := range relationship.DefaultCast {
		r.states[npc.Name] = types.NPCState{Name: npc.Name, Mood: types.DefaultMood}
	}
	return r
}

func (r *fakeRels) set(a, b string, score int) {
	a, b = types.PairKey(a, b)
	r.rels[[2]string{a, b}] = types.Relationship{NPC1: a, NPC2: b, Score: score, Type: r.scale.Bucket(score)}
}

func (r *fakeRels) score(a, b string) int {
	a, b = types.PairKey(a, b)
	return r.rels[[2]string{a, b}].Score
}

func (r *fakeRels) Cast() []types.NPC {
	return relationship.DefaultCast
}

func (r *fakeRels) ListByType(ctx context.Context, kinds ...types.RelationshipType) ([]types.Relationship, error) {
	var out []types.Relationship
	for _, p := range relationship.Pairs(relationship.DefaultCast) {
		rel := r.rels[p]
		if slices.Contains(kinds, rel.Type) {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *fakeRels) Get(ctx context.Context, a, b string) (*types.Relationship, error) {
	a, b = types.PairKey(a, b)
	rel, ok := r.rels[[2]string{a, b}]
	if !ok {
		return nil, types.ErrRelationshipMissing
	}
	return &rel, nil
}

func (r *fakeRels) Adjust(ctx context.Context, a, b string, delta int, label string) (*types.Relationship, error) {
	if r.adjustErr != nil {
		return nil, r.adjustErr
	}
	a, b = types.PairKey(a, b)
	rel, ok := r.rels[[2]string{a, b}]
	if !ok {
		return nil, types.ErrRelationshipMissing
	}
	rel = r.scale.Apply(rel, delta, label)
	r.rels[[2]string{a, b}] = rel
	return &rel, nil
}

func (r *fakeRels) UpdateNPC(ctx context.Context, name string, update types.NPCStateUpdate) error {
	state := r.states[name]
	if update.Mood != nil {
		state.Mood = *update.Mood
	}
	if update.Dating != nil {
		state.Dating = update.Dating.Name
	}
	if update.Rival != nil {
		state.Rival = update.Rival.Name
	}
	r.states[name] = state
	return nil
}

type fakeStore struct {
	events   map[uint]*types.DramaEvent
	nextID   uint
	sessions map[string]types.DramaSession
	votes    map[uint]map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:   make(map[uint]*types.DramaEvent),
		sessions: make(map[string]types.DramaSession),
		votes:    make(map[uint]map[string]int),
	}
}

func (s *fakeStore) CreateDramaEvent(ctx context.Context, event *types.DramaEvent) error {
	s.nextID++
	event.ID = s.nextID
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *fakeStore) GetDramaEvent(ctx context.Context, id uint) (*types.DramaEvent, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, types.ErrDramaNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *fakeStore) ResolveDramaEvent(ctx context.Context, id uint, outcome string, votes []int, at time.Time) error {
	e, ok := s.events[id]
	if !ok {
		return types.ErrDramaNotFound
	}
	if e.ResolvedAt != nil {
		return types.ErrVoteClosed
	}
	e.Outcome = outcome
	e.Votes = votes
	e.ResolvedAt = &at
	return nil
}

func (s *fakeStore) ListDramaEvents(ctx context.Context, limit int) ([]types.DramaEvent, error) {
	var out []types.DramaEvent
	for id := s.nextID; id > 0 && len(out) < limit; id-- {
		if e, ok := s.events[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeStore) SaveSession(ctx context.Context, session types.DramaSession) error {
	s.sessions[session.Channel] = session
	return nil
}

func (s *fakeStore) GetSession(ctx context.Context, channel string) (*types.DramaSession, error) {
	session, ok := s.sessions[channel]
	if !ok {
		return nil, types.ErrNoActiveDrama
	}
	return &session, nil
}

func (s *fakeStore) ListSessions(ctx context.Context) ([]types.DramaSession, error) {
	var out []types.DramaSession
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out, nil
}

func (s *fakeStore) DeleteSession(ctx context.Context, channel string) error {
	delete(s.sessions, channel)
	return nil
}

func (s *fakeStore) CastVote(ctx context.Context, eventID uint, userID string, option int) error {
	if s.votes[eventID] == nil {
		s.votes[eventID] = make(map[string]int)
	}
	s.votes[eventID][userID] = option
	return nil
}

func (s *fakeStore) CountVotes(ctx context.Context, eventID uint, options int) ([]int, error) {
	counts := make([]int, options)
	for _, option := range s.votes[eventID] {
		counts[option-1]++
	}
	return counts, nil
}

type fakeNotifier struct {
	posted   []types.DramaPosted
	resolved []types.DramaResolved
}

func (n *fakeNotifier) DramaPosted(ctx context.Context, p types.DramaPosted) error {
	n.posted = append(n.posted, p)
	return nil
}

func (n *fakeNotifier) DramaResolved(ctx context.Context, r types.DramaResolved) error {
	n.resolved = append(n.resolved, r)
	return nil
}
