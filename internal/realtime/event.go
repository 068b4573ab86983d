package realtime

import "encoding/json"

// Inbound message types. The envelope is a flat JSON object with a "type"
// discriminator plus type-specific fields.
const (
	TypeOffer            = "offer"
	TypeAnswer           = "answer"
	TypeICECandidate     = "ice-candidate"
	TypeChat             = "chat"
	TypeMediaState       = "media-state"
	TypeRaiseHand        = "raise-hand"
	TypeReaction         = "reaction"
	TypeHostAction       = "host-action"
	TypeWhiteboardStroke = "whiteboard-stroke"
	TypeWhiteboardClear  = "whiteboard-clear"
	TypeCreatePoll       = "create-poll"
	TypeVotePoll         = "vote-poll"
	TypeEndPoll          = "end-poll"
	TypeCreateBreakout   = "create-breakout"
	TypeCloseBreakout    = "close-breakout"
	TypePing             = "ping"
)

// Host actions carried by a host-action message.
const (
	ActionMuteAll           = "mute-all"
	ActionMuteUser          = "mute-user"
	ActionRemoveUser        = "remove-user"
	ActionLockMeeting       = "lock-meeting"
	ActionToggleWaitingRoom = "toggle-waiting-room"
	ActionAdmitUser         = "admit-user"
	ActionRejectUser        = "reject-user"
	ActionLowerAllHands     = "lower-all-hands"
	ActionToggleRecording   = "toggle-recording"
	ActionEndMeeting        = "end-meeting"
	ActionCreateBreakout    = "create-breakout"
	ActionCloseBreakout     = "close-breakout"
)

// Outbound event types.
const (
	EventRoomSnapshot      = "room-snapshot"
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventHostChanged       = "host-changed"
	EventWaiting           = "waiting"
	EventWaitingRoomUpdate = "waiting-room-update"
	EventMeetingLocked     = "meeting-locked"
	EventJoinRejected      = "join-rejected"
	EventChat              = "chat"
	EventMediaState        = "media-state"
	EventRaiseHand         = "raise-hand"
	EventReaction          = "reaction"
	EventForceMute         = "force-mute"
	EventRemoved           = "removed"
	EventSettings          = "settings"
	EventParticipants      = "participants-updated"
	EventHandsLowered      = "hands-lowered"
	EventPollCreated       = "poll-created"
	EventPollUpdated       = "poll-updated"
	EventPollEnded         = "poll-ended"
	EventWhiteboardStroke  = "whiteboard-stroke"
	EventWhiteboardClear   = "whiteboard-clear"
	EventBreakoutUpdate    = "breakout-update"
	EventMeetingEnded      = "meeting-ended"
	EventPong              = "pong"
)

// ClientMessage is the inbound event envelope. Fields are a union over all
// message types; only the ones relevant to Type are read.
type ClientMessage struct {
	Type string `json:"type"`

	// offer / answer / ice-candidate
	Target  string          `json:"target,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// chat
	Text     string `json:"text,omitempty"`
	FileName string `json:"file_name,omitempty"`
	FileURL  string `json:"file_url,omitempty"`

	// media-state
	Video  bool `json:"video"`
	Audio  bool `json:"audio"`
	Screen bool `json:"screen"`
	BgBlur bool `json:"bg_blur"`

	// raise-hand
	Raised bool `json:"raised"`

	// reaction
	Emoji string `json:"emoji,omitempty"`

	// host-action
	Action       string `json:"action,omitempty"`
	TargetUserID string `json:"target_user_id,omitempty"`
	Enabled      bool   `json:"enabled"`

	// whiteboard-stroke
	Stroke *Stroke `json:"stroke,omitempty"`

	// polls
	PollID   string   `json:"poll_id,omitempty"`
	Question string   `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`
	Option   int      `json:"option"`

	// breakouts
	Assignments map[string][]string `json:"assignments,omitempty"`
}

// Event is an outbound JSON payload; the "type" key is the discriminator.
type Event map[string]interface{}
