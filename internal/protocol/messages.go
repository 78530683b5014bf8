package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	SessionID       string     `json:"session_id"`
	GameParams      GameParams `json:"game_params"`
	CatalogDigest   string     `json:"catalog_digest"`
	State           StateView  `json:"state"`
}

type GameParams struct {
	TickDurationMs    int     `json:"tick_duration_ms"`
	MaxOfflineSeconds int     `json:"max_offline_seconds"`
	CommandsPerSecond float64 `json:"commands_per_second"`
	CommandBurst      int     `json:"command_burst"`
}

// CMD (client -> server)
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CmdID           string `json:"cmd_id,omitempty"`
	Op              string `json:"op"`
	ID              string `json:"id,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CmdID           string `json:"cmd_id,omitempty"`
	Op              string `json:"op"`
	OK              bool   `json:"ok"`
	Reason          string `json:"reason,omitempty"`
	Code            string `json:"code,omitempty"`
	Tick            uint64 `json:"tick"`
}

// STATE (server -> client)
type StateMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	State           StateView `json:"state"`
}

// EVENT (server -> client)
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	AtMs            int64  `json:"at_ms"`
	Kind            string `json:"kind"`
	Subject         string `json:"subject,omitempty"`
	Detail          string `json:"detail,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
