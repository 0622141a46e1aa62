// Package handler exposes the village commands over HTTP.
package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel"

	"github.com/easeaico/pet-village/internal/decay"
	"github.com/easeaico/pet-village/internal/drama"
	"github.com/easeaico/pet-village/internal/pet"
	"github.com/easeaico/pet-village/internal/types"
)

var tracer = otel.Tracer("handler")

// PetService is the pet command surface.
type PetService interface {
	Adopt(ctx context.Context, ownerID, name string) (*types.Pet, error)
	Feed(ctx context.Context, ownerID string) (*pet.Status, error)
	Heal(ctx context.Context, ownerID string) (*pet.Status, error)
	Status(ctx context.Context, ownerID string) (*pet.Status, error)
	Graveyard(ctx context.Context, ownerID string) ([]types.Memorial, error)
	Lineage(ctx context.Context, ownerID string) ([]types.Pet, error)
}

// DecayEngine runs forced decay ticks.
type DecayEngine interface {
	Tick(ctx context.Context) (decay.TickReport, error)
}

// DramaEngine runs forced drama and voting.
type DramaEngine interface {
	Force(ctx context.Context) (*drama.ForcedResult, error)
	CastVote(ctx context.Context, userID string, option int) error
	Active(ctx context.Context) (*types.DramaSession, error)
	History(ctx context.Context, limit int) ([]types.DramaEvent, error)
}

// Relationships reads NPC relationships and states.
type Relationships interface {
	List(ctx context.Context) ([]types.Relationship, error)
	ListByType(ctx context.Context, kinds ...types.RelationshipType) ([]types.Relationship, error)
	Get(ctx context.Context, a, b string) (*types.Relationship, error)
	NPCState(ctx context.Context, name string) (*types.NPCState, error)
	NPC(name string) (types.NPC, bool)
}

// Handler serves the village API.
type Handler struct {
	pets  PetService
	decay DecayEngine
	drama DramaEngine
	rels  Relationships

	adminToken string
}

// New creates a Handler. Admin routes accept only requests bearing adminToken;
// an empty token rejects every admin request.
func New(pets PetService, decayEngine DecayEngine, dramaEngine DramaEngine, rels Relationships, adminToken string) *Handler {
	return &Handler{pets: pets, decay: decayEngine, drama: dramaEngine, rels: rels, adminToken: adminToken}
}

// Register mounts every route on e.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/pets", h.Adopt)
	e.GET("/pets/:owner", h.Status)
	e.GET("/pets/:owner/lineage", h.Lineage)
	e.POST("/pets/:owner/feed", h.Feed)
	e.POST("/pets/:owner/heal", h.Heal)
	e.GET("/graveyard/:owner", h.Graveyard)

	e.GET("/relationships", h.ListRelationships)
	e.GET("/relationships/:a/:b", h.GetRelationship)
	e.GET("/npcs/:name", h.GetNPC)

	e.POST("/drama/vote", h.Vote)
	e.GET("/drama/active", h.ActiveDrama)
	e.GET("/drama/events", h.DramaHistory)

	admin := e.Group("/admin", h.adminAuth())
	admin.POST("/decay", h.ForceDecay)
	admin.POST("/drama", h.ForceDrama)
}

// adminAuth checks the Authorization: Bearer <token> header on admin routes.
func (h *Handler) adminAuth() echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: func(key string, c echo.Context) (bool, error) {
			if h.adminToken == "" {
				return false, nil
			}
			return subtle.ConstantTimeCompare([]byte(key), []byte(h.adminToken)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			slog.Warn("admin request rejected", "path", c.Path(), "error", err.Error())
			return c.JSON(http.StatusUnauthorized, echo.Map{"status": "error", "message": "unauthorized"})
		},
	})
}

type adoptRequest struct {
	OwnerID string `json:"owner_id"`
	Name    string `json:"name"`
}

// Adopt creates a pet for the owner.
func (h *Handler) Adopt(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.Adopt")
	defer span.End()

	var req adoptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid request"})
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "owner_id is required"})
	}

	created, err := h.pets.Adopt(ctx, req.OwnerID, req.Name)
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": created})
}

// Status returns the owner's living pet and inventory.
func (h *Handler) Status(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.Status")
	defer span.End()

	status, err := h.pets.Status(ctx, c.Param("owner"))
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": status})
}

// Lineage lists all generations of the owner's pets.
func (h *Handler) Lineage(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.Lineage")
	defer span.End()

	pets, err := h.pets.Lineage(ctx, c.Param("owner"))
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": pets})
}

// Feed spends one food on the owner's pet.
func (h *Handler) Feed(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.Feed")
	defer span.End()

	status, err := h.pets.Feed(ctx, c.Param("owner"))
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": status})
}

// Heal spends one medicine on the owner's pet.
func (h *Handler) Heal(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.Heal")
	defer span.End()

	status, err := h.pets.Heal(ctx, c.Param("owner"))
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": status})
}

// Graveyard lists the owner's memorials.
func (h *Handler) Graveyard(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.Graveyard")
	defer span.End()

	memorials, err := h.pets.Graveyard(ctx, c.Param("owner"))
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": memorials})
}

// ForceDecay runs one decay tick immediately.
func (h *Handler) ForceDecay(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.ForceDecay")
	defer span.End()

	report, err := h.decay.Tick(ctx)
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": report})
}

// ForceDrama generates and applies a drama event without a vote.
func (h *Handler) ForceDrama(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.ForceDrama")
	defer span.End()

	result, err := h.drama.Force(ctx)
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": result})
}

// ListRelationships lists relationships by score, optionally filtered with ?type=lovers,friends.
func (h *Handler) ListRelationships(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.ListRelationships")
	defer span.End()

	var (
		rels []types.Relationship
		err  error
	)
	if filter := c.QueryParam("type"); filter != "" {
		var kinds []types.RelationshipType
		for _, kind := range strings.Split(filter, ",") {
			kinds = append(kinds, types.RelationshipType(strings.TrimSpace(kind)))
		}
		rels, err = h.rels.ListByType(ctx, kinds...)
	} else {
		rels, err = h.rels.List(ctx)
	}
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": rels})
}

// GetRelationship returns the edge between two NPCs.
func (h *Handler) GetRelationship(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.GetRelationship")
	defer span.End()

	rel, err := h.rels.Get(ctx, c.Param("a"), c.Param("b"))
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": rel})
}

type npcResponse struct {
	types.NPC
	Mood   string `json:"mood"`
	Dating string `json:"dating,omitempty"`
	Rival  string `json:"rival,omitempty"`
}

// GetNPC returns an NPC's traits and current state.
func (h *Handler) GetNPC(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.GetNPC")
	defer span.End()

	name := c.Param("name")
	npc, ok := h.rels.NPC(name)
	if !ok {
		return fail(c, types.ErrUnknownNPC)
	}
	state, err := h.rels.NPCState(ctx, name)
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": npcResponse{
		NPC:    npc,
		Mood:   state.Mood,
		Dating: state.Dating,
		Rival:  state.Rival,
	}})
}

type voteRequest struct {
	UserID string `json:"user_id"`
	Option int    `json:"option"`
}

// Vote records a ballot on the open drama vote.
func (h *Handler) Vote(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.Vote")
	defer span.End()

	var req voteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid request"})
	}
	if strings.TrimSpace(req.UserID) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "user_id is required"})
	}

	if err := h.drama.CastVote(ctx, req.UserID, req.Option); err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// ActiveDrama returns the open vote.
func (h *Handler) ActiveDrama(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.ActiveDrama")
	defer span.End()

	session, err := h.drama.Active(ctx)
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": session})
}

// DramaHistory lists recent drama events, newest first.
func (h *Handler) DramaHistory(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Handler.DramaHistory")
	defer span.End()

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"status": "error", "message": "invalid limit"})
		}
		limit = n
	}

	events, err := h.drama.History(ctx, limit)
	if err != nil {
		span.RecordError(err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": events})
}

// StatusCode maps a domain error to its HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidName),
		errors.Is(err, types.ErrInvalidVoteOption):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrPetAlreadyAlive),
		errors.Is(err, types.ErrInsufficientResources),
		errors.Is(err, types.ErrNothingToDo),
		errors.Is(err, types.ErrVoteClosed):
		return http.StatusConflict
	case errors.Is(err, types.ErrNoLivingPet),
		errors.Is(err, types.ErrPetNotAlive),
		errors.Is(err, types.ErrUnknownNPC),
		errors.Is(err, types.ErrRelationshipMissing),
		errors.Is(err, types.ErrNoActiveDrama),
		errors.Is(err, types.ErrDramaNotFound),
		errors.Is(err, types.ErrNoChannel),
		errors.Is(err, types.ErrVoteMessageGone):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(c echo.Context, err error) error {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed", "path", c.Path(), "error", err.Error())
		return c.JSON(code, echo.Map{"status": "error", "message": "internal error"})
	}
	return c.JSON(code, echo.Map{"status": "error", "message": err.Error()})
}
