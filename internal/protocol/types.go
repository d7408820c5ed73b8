// Package protocol defines the wire message taxonomy and framing codec for
// the match-coordination server's TCP client sessions (spec §4.1, §4.2).
package protocol

// MessageType is the 2-byte big-endian type tag prefixing every frame.
// Values are stable and match the external interface table (spec §6)
// verbatim — these numbers are load-bearing wire contract, not an internal
// implementation detail, so they are never renumbered.
type MessageType uint16

const (
	MsgNone                  MessageType = 0
	MsgGamePacket            MessageType = 1
	MsgFieldInfo             MessageType = 2
	MsgStartCommand          MessageType = 3
	MsgMatchConfig           MessageType = 4
	MsgPlayerInput           MessageType = 5
	MsgDesiredGameState      MessageType = 6
	MsgRenderGroup           MessageType = 7
	MsgRemoveRenderGroup     MessageType = 8
	MsgMatchComm             MessageType = 9
	MsgBallPrediction        MessageType = 10
	MsgConnectionSettings    MessageType = 11
	MsgStopCommand           MessageType = 12
	MsgSetLoadout            MessageType = 13
	MsgInitComplete          MessageType = 14
	MsgControllableTeamInfo  MessageType = 15
)

func (t MessageType) String() string {
	switch t {
	case MsgNone:
		return "None"
	case MsgGamePacket:
		return "GamePacket"
	case MsgFieldInfo:
		return "FieldInfo"
	case MsgStartCommand:
		return "StartCommand"
	case MsgMatchConfig:
		return "MatchConfig"
	case MsgPlayerInput:
		return "PlayerInput"
	case MsgDesiredGameState:
		return "DesiredGameState"
	case MsgRenderGroup:
		return "RenderGroup"
	case MsgRemoveRenderGroup:
		return "RemoveRenderGroup"
	case MsgMatchComm:
		return "MatchComm"
	case MsgBallPrediction:
		return "BallPrediction"
	case MsgConnectionSettings:
		return "ConnectionSettings"
	case MsgStopCommand:
		return "StopCommand"
	case MsgSetLoadout:
		return "SetLoadout"
	case MsgInitComplete:
		return "InitComplete"
	case MsgControllableTeamInfo:
		return "ControllableTeamInfo"
	default:
		return "Unknown"
	}
}

// Vec3 is a plain 3-float vector used throughout physics payloads.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Rotator is the car/ball orientation in pitch/yaw/roll, matching the
// arena black-box's own convention instead of a raw quaternion.
type Rotator struct {
	Pitch float32 `json:"pitch"`
	Yaw   float32 `json:"yaw"`
	Roll  float32 `json:"roll"`
}

// Physics is the common position/rotation/velocity block shared by balls
// and cars in every snapshot.
type Physics struct {
	Location Vec3    `json:"location"`
	Rotation Rotator `json:"rotation"`
	Velocity Vec3    `json:"velocity"`
	AngularVelocity Vec3 `json:"angular_velocity"`
}

// ControllerState is the eight-field control vector a bot pushes per tick
// for one controllable (spec §4.2).
type ControllerState struct {
	Throttle  float32 `json:"throttle"`
	Steer     float32 `json:"steer"`
	Pitch     float32 `json:"pitch"`
	Yaw       float32 `json:"yaw"`
	Roll      float32 `json:"roll"`
	Jump      bool    `json:"jump"`
	Boost     bool    `json:"boost"`
	Handbrake bool    `json:"handbrake"`
}

// AirState enumerates a car's discrete ground/air condition, ordered per
// the packet-assembly precedence in spec §4.4: OnGround ≻ DoubleJumping ≻
// Jumping ≻ Dodging ≻ InAir.
type AirState string

const (
	AirStateOnGround      AirState = "OnGround"
	AirStateJumping       AirState = "Jumping"
	AirStateDoubleJumping AirState = "DoubleJumping"
	AirStateDodging       AirState = "Dodging"
	AirStateInAir         AirState = "InAir"
)

// BoxShape is a car's hitbox dimensions (length/width/height); its offset
// from the car's physics origin is carried separately as a Vec3.
type BoxShape struct {
	Length float32 `json:"length"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// SphereShape describes the ball's collision shape.
type SphereShape struct {
	Diameter float32 `json:"diameter"`
}

// Touch is the latest-touch record attached to a player when its
// ball_hit_info is valid (spec §3, §4.4).
type Touch struct {
	PlayerName  string  `json:"player_name"`
	GameSeconds float64 `json:"game_seconds"`
	Location    Vec3    `json:"location"`
	Normal      Vec3    `json:"normal"`
}

// PlayerInfo is one controllable's per-tick record inside a GamePacket.
type PlayerInfo struct {
	Physics           Physics    `json:"physics"`
	Name              string     `json:"name"`
	Team              int        `json:"team"`
	SpawnID           int32      `json:"spawn_id"`
	Hitbox            BoxShape   `json:"hitbox"`
	HitboxOffset      Vec3       `json:"hitbox_offset"`
	IsDemolished      bool       `json:"is_demolished"`
	DemolishedTimeout float32    `json:"demolished_timeout"`
	HasWheelContact   bool       `json:"has_wheel_contact"`
	IsSupersonic      bool       `json:"is_supersonic"`
	IsBot             bool       `json:"is_bot"`
	AirState          AirState   `json:"air_state"`
	DodgeTimeout      float32    `json:"dodge_timeout"`
	HasJumped         bool       `json:"has_jumped"`
	HasDoubleJumped   bool       `json:"has_double_jumped"`
	HasDodged         bool       `json:"has_dodged"`
	DodgeElapsed      float32    `json:"dodge_elapsed"`
	Boost             float32    `json:"boost"`
	LastInput         ControllerState `json:"last_input"`
	LatestTouch       *Touch     `json:"latest_touch,omitempty"`
}

// BallInfo is the per-tick ball record inside a GamePacket.
type BallInfo struct {
	Physics Physics     `json:"physics"`
	Shape   SphereShape `json:"shape"`
}

// TeamInfo carries one team's running score.
type TeamInfo struct {
	TeamIndex int    `json:"team_index"`
	Score     uint32 `json:"score"`
}

// BoostPadState is one pad's per-tick availability.
type BoostPadState struct {
	IsActive bool    `json:"is_active"`
	Timer    float32 `json:"timer"`
}

// GameInfo is the game-wide block inside a GamePacket (spec §4.4).
type GameInfo struct {
	SecondsElapsed    float64     `json:"seconds_elapsed"`
	GameTimeRemaining float64     `json:"game_time_remaining"`
	GameSpeed         float32     `json:"game_speed"`
	WorldGravityZ     float32     `json:"world_gravity_z"`
	FrameNum          uint64      `json:"frame_num"`
	GameStatus        string      `json:"game_status"`
	IsOvertime        bool        `json:"is_overtime"`
	IsUnlimitedTime   bool        `json:"is_unlimited_time"`
	IsRoundActive     bool        `json:"is_round_active"`
	IsKickoffPause    bool        `json:"is_kickoff_pause"`
	IsMatchEnded      bool        `json:"is_match_ended"`
}

// GamePacket is the per-tick world snapshot broadcast to every subscribed
// session (spec §3, §4.4).
type GamePacket struct {
	GameInfo   GameInfo        `json:"game_info"`
	Teams      [2]TeamInfo     `json:"teams"`
	BoostPads  []BoostPadState `json:"boost_pads"`
	Balls      []BallInfo      `json:"balls"`
	Players    []PlayerInfo    `json:"players"`
}

// PredictionSlice is one entry of a BallPrediction's forward-simulated
// ball-only trajectory.
type PredictionSlice struct {
	GameSeconds float64  `json:"game_seconds"`
	Physics     Physics  `json:"physics"`
}

// BallPrediction is the 720-slice forward simulation rebuilt every tick
// (spec §4.4).
type BallPrediction struct {
	Slices []PredictionSlice `json:"slices"`
}

// GoalInfo is one of the two canonical goal records inside FieldInfo.
type GoalInfo struct {
	TeamNum  int     `json:"team_num"`
	Location Vec3    `json:"location"`
	Width    float32 `json:"width"`
	Height   float32 `json:"height"`
}

// BoostPadInfo is one static pad record inside FieldInfo.
type BoostPadInfo struct {
	Location  Vec3 `json:"location"`
	IsFullBoost bool `json:"is_full_boost"`
}

// FieldInfo is the arena's static layout, derived once per match settings
// application and cached (spec §4.4 step h).
type FieldInfo struct {
	BoostPads []BoostPadInfo `json:"boost_pads"`
	Goals     [2]GoalInfo    `json:"goals"`
}

// PlayerInputPayload is the Client→Server PlayerInput message body: one
// controllable's dense index plus its control vector.
type PlayerInputPayload struct {
	PlayerIndex int             `json:"player_index"`
	Controller  ControllerState `json:"controller_state"`
}

// ConnectionSettingsPayload is the per-session preferences a client sends
// once after connecting (spec §4.3).
type ConnectionSettingsPayload struct {
	WantsBallPredictions bool   `json:"wants_ball_predictions"`
	WantsComms           bool   `json:"wants_comms"`
	CloseBetweenMatches  bool   `json:"close_between_matches"`
	AgentID              string `json:"agent_id"`
}

// ControllableInfo is one reserved controllable returned in a
// ControllableTeamInfo reply.
type ControllableInfo struct {
	Index   int   `json:"index"`
	SpawnID int32 `json:"spawn_id"`
}

// ControllableTeamInfoPayload is the Server→Client reply to a reservation
// request (spec §4.5).
type ControllableTeamInfoPayload struct {
	Team          int                `json:"team"`
	Controllables []ControllableInfo `json:"controllables"`
}

// ControllableTeamInfoRequestPayload is the Client→Server minimal-payload
// request for a reservation. The session actor has no inbound handler for
// a standalone ControllableTeamInfo frame; a reservation is requested
// through ConnectionSettings' agent_id field (§4.3).
type ControllableTeamInfoRequestPayload struct {
	AgentID string `json:"agent_id"`
}

// StartCommandPayload names a match-configuration file path to parse and
// apply (spec §4.2, §6).
type StartCommandPayload struct {
	ConfigPath string `json:"config_path"`
}

// StopCommandPayload requests session/server shutdown.
type StopCommandPayload struct {
	ShutdownServer bool `json:"shutdown_server"`
}

// MatchCommPayload is opaque bytes broadcast verbatim to every client that
// opted in to comms, the sender included (spec §4.2, §9 open question on
// sender exclusion).
type MatchCommPayload struct {
	Content []byte `json:"content"`
}

// RenderGroupPayload is opaque to the simulation core; forwarded to the
// visualizer bridge verbatim if active, else discarded (spec §4.4).
type RenderGroupPayload struct {
	GroupID int             `json:"group_id"`
	Content []byte          `json:"content"`
}

// RemoveRenderGroupPayload requests a previously sent render group be
// cleared.
type RemoveRenderGroupPayload struct {
	GroupID int `json:"group_id"`
}

// SetLoadoutPayload is forwarded opaquely; the simulation core does not
// interpret loadout contents.
type SetLoadoutPayload struct {
	PlayerIndex int             `json:"player_index"`
	Loadout     []byte          `json:"loadout"`
}

// DesiredBallState is a tagged-absent partial override of ball physics
// (spec §4.4, §9).
type DesiredBallState struct {
	Location *Vec3 `json:"location,omitempty"`
	Rotation *Rotator `json:"rotation,omitempty"`
	Velocity *Vec3 `json:"velocity,omitempty"`
	AngularVelocity *Vec3 `json:"angular_velocity,omitempty"`
}

// DesiredCarState is a tagged-absent partial override of one car.
type DesiredCarState struct {
	Index           int      `json:"index"`
	Location        *Vec3    `json:"location,omitempty"`
	Rotation        *Rotator `json:"rotation,omitempty"`
	Velocity        *Vec3    `json:"velocity,omitempty"`
	AngularVelocity *Vec3    `json:"angular_velocity,omitempty"`
	Boost           *float32 `json:"boost,omitempty"`
}

// DesiredGameInfoState is a tagged-absent partial override of game_info.
type DesiredGameInfoState struct {
	WorldGravityZ *float32 `json:"world_gravity_z,omitempty"`
	Paused        *bool    `json:"paused,omitempty"`
}

// DesiredGameStatePayload is the Client→Server state-edit message
// (spec §4.4): partial overrides for the ball, any number of cars, and
// game_info, applied atomically via set_game_state.
type DesiredGameStatePayload struct {
	Ball     *DesiredBallState      `json:"ball_state,omitempty"`
	Cars     []DesiredCarState      `json:"car_states,omitempty"`
	GameInfo *DesiredGameInfoState  `json:"game_info_state,omitempty"`
}
