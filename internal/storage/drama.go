package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/pet-village/internal/drama"
	"github.com/easeaico/pet-village/internal/types"
)

type dramaEventModel struct {
	ID           uint      `gorm:"primaryKey"`
	Category     string    `gorm:"size:32;not null"`
	Description  string    `gorm:"type:text;not null"`
	NPC1         string    `gorm:"column:npc1;size:64"`
	NPC2         string    `gorm:"column:npc2;size:64"`
	Witness      *string   `gorm:"size:64"`
	Outcome      *string   `gorm:"type:text"`
	VotesOption1 int       `gorm:"column:votes_option1;not null;default:0"`
	VotesOption2 int       `gorm:"column:votes_option2;not null;default:0"`
	VotesOption3 int       `gorm:"column:votes_option3;not null;default:0"`
	Forced       bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"index"`
	ResolvedAt   *time.Time
}

func (dramaEventModel) TableName() string {
	return "drama_events"
}

type dramaVoteModel struct {
	EventID   uint   `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey;size:64"`
	Choice    int    `gorm:"not null"`
	UpdatedAt time.Time
}

func (dramaVoteModel) TableName() string {
	return "drama_votes"
}

type dramaSessionModel struct {
	Channel   string `gorm:"primaryKey;size:64"`
	EventID   uint   `gorm:"not null"`
	MessageID string `gorm:"size:64;not null"`
	Category  string `gorm:"size:32;not null"`
	NPC1      string `gorm:"column:npc1;size:64"`
	NPC2      string `gorm:"column:npc2;size:64"`
	Options   string `gorm:"size:255;not null"`
	ClosesAt  time.Time
}

func (dramaSessionModel) TableName() string {
	return "drama_sessions"
}

type dramaRepo struct {
	db *gorm.DB
}

// NewDramaRepo returns the drama event, vote and session repository.
func NewDramaRepo(db *gorm.DB) drama.Store {
	return &dramaRepo{db: db}
}

func (r *dramaRepo) CreateDramaEvent(ctx context.Context, event *types.DramaEvent) error {
	if event == nil {
		return fmt.Errorf("drama event cannot be nil")
	}
	record := dramaEventModel{
		Category:    string(event.Category),
		Description: event.Description,
		NPC1:        event.NPC1,
		NPC2:        event.NPC2,
		Forced:      event.Forced,
		CreatedAt:   event.CreatedAt,
	}
	if event.Witness != "" {
		record.Witness = &event.Witness
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert drama event: %w", err)
	}
	event.ID = record.ID
	event.CreatedAt = record.CreatedAt
	return nil
}

func (r *dramaRepo) GetDramaEvent(ctx context.Context, id uint) (*types.DramaEvent, error) {
	var model dramaEventModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrDramaNotFound
		}
		return nil, fmt.Errorf("failed to get drama event: %w", err)
	}
	return dramaEventFromModel(model), nil
}

func (r *dramaRepo) ResolveDramaEvent(ctx context.Context, id uint, outcome string, votes []int, at time.Time) error {
	fields := map[string]any{"outcome": outcome, "resolved_at": at}
	for i, n := range votes {
		if i >= 3 {
			break
		}
		fields[fmt.Sprintf("votes_option%d", i+1)] = n
	}
	res := r.db.WithContext(ctx).Model(&dramaEventModel{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to resolve drama event: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetDramaEvent(ctx, id); err != nil {
			return err
		}
		return types.ErrVoteClosed
	}
	return nil
}

func (r *dramaRepo) ListDramaEvents(ctx context.Context, limit int) ([]types.DramaEvent, error) {
	var models []dramaEventModel
	if err := r.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list drama events: %w", err)
	}
	out := make([]types.DramaEvent, 0, len(models))
	for _, m := range models {
		out = append(out, *dramaEventFromModel(m))
	}
	return out, nil
}

func (r *dramaRepo) SaveSession(ctx context.Context, session types.DramaSession) error {
	record := dramaSessionModel{
		Channel:   session.Channel,
		EventID:   session.EventID,
		MessageID: session.MessageID,
		Category:  string(session.Category),
		NPC1:      session.NPC1,
		NPC2:      session.NPC2,
		Options:   strings.Join(session.Options, ","),
		ClosesAt:  session.ClosesAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel"}},
		UpdateAll: true,
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save drama session: %w", err)
	}
	return nil
}

func (r *dramaRepo) GetSession(ctx context.Context, channel string) (*types.DramaSession, error) {
	var model dramaSessionModel
	if err := r.db.WithContext(ctx).Where("channel = ?", channel).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNoActiveDrama
		}
		return nil, fmt.Errorf("failed to get drama session: %w", err)
	}
	return sessionFromModel(model), nil
}

func (r *dramaRepo) ListSessions(ctx context.Context) ([]types.DramaSession, error) {
	var models []dramaSessionModel
	if err := r.db.WithContext(ctx).Order("closes_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list drama sessions: %w", err)
	}
	out := make([]types.DramaSession, 0, len(models))
	for _, m := range models {
		out = append(out, *sessionFromModel(m))
	}
	return out, nil
}

func (r *dramaRepo) DeleteSession(ctx context.Context, channel string) error {
	if err := r.db.WithContext(ctx).Where("channel = ?", channel).Delete(&dramaSessionModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete drama session: %w", err)
	}
	return nil
}

func (r *dramaRepo) CastVote(ctx context.Context, eventID uint, userID string, option int) error {
	record := dramaVoteModel{EventID: eventID, UserID: userID, Choice: option, UpdatedAt: time.Now().UTC()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"choice", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to cast vote: %w", err)
	}
	return nil
}

func (r *dramaRepo) CountVotes(ctx context.Context, eventID uint, options int) ([]int, error) {
	var rows []struct {
		Choice int
		Total  int
	}
	err := r.db.WithContext(ctx).Model(&dramaVoteModel{}).
		Select("choice, COUNT(*) AS total").
		Where("event_id = ?", eventID).
		Group("choice").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count votes: %w", err)
	}
	counts := make([]int, options)
	for _, row := range rows {
		if row.Choice >= 1 && row.Choice <= options {
			counts[row.Choice-1] = row.Total
		}
	}
	return counts, nil
}

func dramaEventFromModel(model dramaEventModel) *types.DramaEvent {
	event := &types.DramaEvent{
		ID:          model.ID,
		Category:    types.DramaCategory(model.Category),
		Description: model.Description,
		NPC1:        model.NPC1,
		NPC2:        model.NPC2,
		Forced:      model.Forced,
		CreatedAt:   model.CreatedAt,
		ResolvedAt:  model.ResolvedAt,
	}
	if model.Witness != nil {
		event.Witness = *model.Witness
	}
	if model.Outcome != nil {
		event.Outcome = *model.Outcome
	}
	if model.ResolvedAt != nil && !model.Forced {
		event.Votes = []int{model.VotesOption1, model.VotesOption2, model.VotesOption3}
	}
	return event
}

func sessionFromModel(model dramaSessionModel) *types.DramaSession {
	var options []string
	if model.Options != "" {
		options = strings.Split(model.Options, ",")
	}
	return &types.DramaSession{
		Channel:   model.Channel,
		EventID:   model.EventID,
		MessageID: model.MessageID,
		Category:  types.DramaCategory(model.Category),
		NPC1:      model.NPC1,
		NPC2:      model.NPC2,
		Options:   options,
		ClosesAt:  model.ClosesAt,
	}
}
