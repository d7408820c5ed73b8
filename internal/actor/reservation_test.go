package actor

import (
	"testing"

	"github.com/rlbot-go/matchserver/internal/configs"
	"github.com/rlbot-go/matchserver/internal/protocol"
)

func sampleRoster() []configs.PlayerConfig {
	return []configs.PlayerConfig{
		{Team: 0, Name: "Human1", Variety: configs.PlayerVarietyHuman},
		{Team: 0, Name: "Nexto", AgentID: "agent-a", SpawnID: 111, Variety: configs.PlayerVarietyControlled},
		{Team: 1, Name: "Necto", AgentID: "agent-b", SpawnID: 222, Variety: configs.PlayerVarietyControlled},
		{Team: 1, Name: "Human2", Variety: configs.PlayerVarietyHuman},
		{Team: 0, Name: "Psyonix", AgentID: "agent-c", SpawnID: 333, Variety: configs.PlayerVarietyPsyonix},
	}
}

func TestSetPlayersSkipsHumansButKeepsIndexDense(t *testing.T) {
	r := NewAgentReservation()
	r.SetPlayers(sampleRoster())

	slots := r.Slots()
	if len(slots) != 3 {
		t.Fatalf("len(slots) = %d, want 3 (humans excluded)", len(slots))
	}
	for i, s := range slots {
		if s.Index != i {
			t.Errorf("slots[%d].Index = %d, want %d (dense, no gaps for humans)", i, s.Index, i)
		}
	}
	if slots[0].Name != "Nexto" || slots[1].Name != "Necto" || slots[2].Name != "Psyonix" {
		t.Errorf("unexpected slot ordering: %+v", slots)
	}
}

func TestSlotByIndex(t *testing.T) {
	r := NewAgentReservation()
	r.SetPlayers(sampleRoster())

	slot, ok := r.SlotByIndex(1)
	if !ok {
		t.Fatalf("SlotByIndex(1) not found")
	}
	if slot.AgentID != "agent-b" {
		t.Errorf("SlotByIndex(1).AgentID = %q, want agent-b", slot.AgentID)
	}

	if _, ok := r.SlotByIndex(99); ok {
		t.Errorf("SlotByIndex(99) should not be found")
	}
}

func TestBindCarIDUpdatesMatchingSlot(t *testing.T) {
	r := NewAgentReservation()
	r.SetPlayers(sampleRoster())

	hitbox := protocol.BoxShape{Length: 118, Width: 84, Height: 36}
	offset := protocol.Vec3{X: 1, Y: 2, Z: 3}
	r.BindCarID(0, 42, hitbox, offset)

	slot, _ := r.SlotByIndex(0)
	if slot.CarID != 42 {
		t.Errorf("CarID = %d, want 42", slot.CarID)
	}
	if slot.Hitbox != hitbox {
		t.Errorf("Hitbox = %+v, want %+v", slot.Hitbox, hitbox)
	}
	if slot.HitboxOffset != offset {
		t.Errorf("HitboxOffset = %+v, want %+v", slot.HitboxOffset, offset)
	}
}

func TestReservePlayerFirstUnreservedMatchWins(t *testing.T) {
	r := NewAgentReservation()
	r.SetPlayers(sampleRoster())

	info, ok := r.ReservePlayer("agent-b")
	if !ok {
		t.Fatalf("ReservePlayer(agent-b) = false, want true")
	}
	if info.Team != 1 {
		t.Errorf("Team = %d, want 1", info.Team)
	}
	if len(info.Controllables) != 1 || info.Controllables[0].Index != 1 || info.Controllables[0].SpawnID != 222 {
		t.Errorf("Controllables = %+v, want [{Index:1 SpawnID:222}]", info.Controllables)
	}

	slot, _ := r.SlotByIndex(1)
	if !slot.IsReserved {
		t.Errorf("slot.IsReserved = false after ReservePlayer, want true")
	}
}

func TestReservePlayerRepeatCallFailsOnceReserved(t *testing.T) {
	r := NewAgentReservation()
	r.SetPlayers(sampleRoster())

	if _, ok := r.ReservePlayer("agent-a"); !ok {
		t.Fatalf("first ReservePlayer(agent-a) should succeed")
	}
	if _, ok := r.ReservePlayer("agent-a"); ok {
		t.Errorf("second ReservePlayer(agent-a) should fail, the row is already reserved")
	}
}

func TestReservePlayerUnknownAgentFails(t *testing.T) {
	r := NewAgentReservation()
	r.SetPlayers(sampleRoster())

	if _, ok := r.ReservePlayer("no-such-agent"); ok {
		t.Errorf("ReservePlayer(no-such-agent) should fail")
	}
}

func TestSetPlayersResetsTable(t *testing.T) {
	r := NewAgentReservation()
	r.SetPlayers(sampleRoster())
	if len(r.Slots()) == 0 {
		t.Fatalf("expected slots after first SetPlayers")
	}

	r.SetPlayers(nil)
	if len(r.Slots()) != 0 {
		t.Errorf("len(slots) = %d after SetPlayers(nil), want 0", len(r.Slots()))
	}
}
