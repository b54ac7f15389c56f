package domain

// State is the complete calendar state pushed to observers and written to snapshots.
type State struct {
	Members []*Member `json:"members" yaml:"members"`
	Events  []*Event  `json:"events" yaml:"events"`
}

// SyncMessage is the payload sent to live clients.
type SyncMessage struct {
	Type string `json:"type"`
	*State
}

// NewSyncMessage wraps a state for delivery to live clients.
func NewSyncMessage(state *State) SyncMessage {
	return SyncMessage{Type: "sync", State: state}
}
