package types

// Client -> Server
// Decision:
//   type: "Ban" | "Pick" | "Side"
//   value: map name or side label
//
// The party is bound to the connection (?party=<id>), not to each message.
type ClientMessage struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Server -> Client
// StateSnapshot: version + state, after every accepted change.
// Error: sent to the submitting connection only.
type ServerMessage struct {
	Type    string    `json:"type"` // "StateSnapshot" | "Error"
	Version int       `json:"version,omitempty"`
	State   *Snapshot `json:"state,omitempty"`
	Error   string    `json:"error,omitempty"`
}

const (
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"
)

func ErrorMessage(err error) ServerMessage {
	return ServerMessage{Type: MsgError, Error: err.Error()}
}

// StartVeto is the body of POST /vetos.
type StartVeto struct {
	Template string `json:"template"`
	PartyA   Party  `json:"party_a"`
	PartyB   Party  `json:"party_b"`
	Channel  string `json:"channel,omitempty"`
}

// Decision is the body of POST /vetos/{code}/decisions.
type Decision struct {
	PartyID string `json:"party_id"`
	Type    string `json:"type"`
	Value   string `json:"value"`
}

type Template struct {
	Name  string   `json:"name"`
	Maps  []string `json:"maps"`
	Rules []string `json:"rules"`
}
