package types

import "errors"

// Validation errors.
var (
	ErrPetAlreadyAlive       = errors.New("owner already has a living pet")
	ErrInvalidName           = errors.New("invalid pet name")
	ErrInsufficientResources = errors.New("not enough resources")
	ErrNothingToDo           = errors.New("nothing to do")
	ErrInvalidVoteOption     = errors.New("invalid vote option")
	ErrVoteClosed            = errors.New("vote is closed")
)

// Not-found errors.
var (
	ErrNoLivingPet         = errors.New("no living pet")
	ErrPetNotAlive         = errors.New("pet is not alive")
	ErrUnknownNPC          = errors.New("unknown npc")
	ErrRelationshipMissing = errors.New("relationship row missing")
	ErrNoActiveDrama       = errors.New("no active drama")
	ErrDramaNotFound       = errors.New("drama event not found")
)

// Delivery errors.
var (
	ErrNoChannel       = errors.New("no destination channel")
	ErrVoteMessageGone = errors.New("vote message no longer available")
)
