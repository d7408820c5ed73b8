package actor

import (
	"github.com/rlbot-go/matchserver/internal/arena"
	"github.com/rlbot-go/matchserver/internal/configs"
	"github.com/rlbot-go/matchserver/internal/protocol"
)

// PlayerMetadata is one row of the agent-reservation table (spec §4.5).
type PlayerMetadata struct {
	Index      int
	SpawnID    int32
	Team       arena.Team
	AgentID    string
	IsReserved bool
}

// ControllableSlot extends PlayerMetadata with the arena-assigned car_id
// and the player's configured name, matching the "index ↔ car_id bimap"
// design note (spec §9): the reservation table and the controllable table
// are the same rows, keyed by dense index.
type ControllableSlot struct {
	PlayerMetadata
	Name         string
	CarID        uint32
	Hitbox       protocol.BoxShape
	HitboxOffset protocol.Vec3
}

// AgentReservation owns the dense controllable table for the current
// match. It is plain state mutated synchronously by the SimulationActor —
// not its own actor, since every access already happens inside the
// simulation actor's single-threaded tick/message handling (SPEC_FULL
// §4.5 design note).
type AgentReservation struct {
	slots []*ControllableSlot
}

// NewAgentReservation builds an empty table.
func NewAgentReservation() *AgentReservation {
	return &AgentReservation{}
}

// SetPlayers repopulates the table from a match configuration's player
// list, skipping Human entries — they neither insert a row nor consume an
// index, so indices stay dense from 0 over the non-Human entries (spec §3,
// §4.5; grounded on
// original_source/exe/src/agent_res.rs's set_players).
func (r *AgentReservation) SetPlayers(cfgs []configs.PlayerConfig) {
	r.slots = r.slots[:0]
	index := 0
	for _, cfg := range cfgs {
		if cfg.Variety == configs.PlayerVarietyHuman {
			continue
		}
		r.slots = append(r.slots, &ControllableSlot{
			PlayerMetadata: PlayerMetadata{
				Index:   index,
				SpawnID: cfg.SpawnID,
				Team:    arena.Team(cfg.Team),
				AgentID: cfg.AgentID,
			},
			Name: cfg.Name,
		})
		index++
	}
}

// Slots returns the dense controllable table in index order.
func (r *AgentReservation) Slots() []*ControllableSlot {
	return r.slots
}

// BindCarID records the arena-assigned car_id and hitbox for an already
// populated slot, called during match-settings application after AddCar.
func (r *AgentReservation) BindCarID(index int, carID uint32, hitbox protocol.BoxShape, offset protocol.Vec3) {
	for _, s := range r.slots {
		if s.Index == index {
			s.CarID = carID
			s.Hitbox = hitbox
			s.HitboxOffset = offset
			return
		}
	}
}

// SlotByIndex looks up a controllable by its dense player_index.
func (r *AgentReservation) SlotByIndex(index int) (*ControllableSlot, bool) {
	for _, s := range r.slots {
		if s.Index == index {
			return s, true
		}
	}
	return nil, false
}

// ReservePlayer scans linearly for the first row matching agentID with
// !IsReserved, flips its flag, and returns a fresh ControllableTeamInfo.
// Returns (nil, false) when no unreserved row matches — the caller treats
// this as a semantic no-op reply, not an error (spec §4.5, §7).
func (r *AgentReservation) ReservePlayer(agentID string) (*protocol.ControllableTeamInfoPayload, bool) {
	for _, s := range r.slots {
		if !s.IsReserved && s.AgentID == agentID {
			s.IsReserved = true
			return &protocol.ControllableTeamInfoPayload{
				Team: int(s.Team),
				Controllables: []protocol.ControllableInfo{
					{Index: s.Index, SpawnID: s.SpawnID},
				},
			}, true
		}
	}
	return nil, false
}
