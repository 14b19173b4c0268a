// Package protocol defines the observer wire messages. Observers are
// read-only spectators: they subscribe over a websocket and receive one
// TickMsg per simulation tick. JSON Schemas for every message live under
// schemas/ and are enforced in tests.
package protocol

// Version is the observer protocol version.
const Version = "1"

// Message type tags.
const (
	TypeSubscribe = "SUBSCRIBE"
	TypeTick      = "TICK"
)

// SubscribeMsg is the first client message on an observer connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
}

// BootstrapResponse answers GET /observer/bootstrap with everything a
// client needs before subscribing.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	MinuteOfDay     int         `json:"minute_of_day"`
	WorldParams     WorldParams `json:"world_params"`
	Catalogs        Catalogs    `json:"catalogs"`
}

type WorldParams struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	TickSeconds float64 `json:"tick_seconds"`
}

type Catalogs struct {
	ItemsDigest   string `json:"items_digest"`
	RecipesDigest string `json:"recipes_digest"`
}

// TickMsg is pushed to every observer once per tick.
type TickMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	MinuteOfDay     int    `json:"minute_of_day"`

	Agents []AgentState `json:"agents"`
	Events []EventMsg   `json:"events,omitempty"`

	// ASCII is a full-world debug frame, one row per line.
	ASCII string `json:"ascii,omitempty"`
}

type AgentState struct {
	ID     int    `json:"id"`
	Pos    [2]int `json:"pos"`
	State  string `json:"state"`
	Hunger int    `json:"hunger"`
	Rest   int    `json:"rest"`
	Morale int    `json:"morale"`
	Job    string `json:"job,omitempty"`
}

type EventMsg struct {
	Seq     uint64 `json:"seq"`
	Kind    string `json:"kind"`
	AgentID int    `json:"agent_id,omitempty"`
	Job     string `json:"job,omitempty"`
	A       [2]int `json:"a"`
	B       [2]int `json:"b,omitempty"`
	Msg     string `json:"msg,omitempty"`
}
