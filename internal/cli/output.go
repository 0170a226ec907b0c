package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case LobbyList:
		o.printLobbyList(v)
	case Room:
		o.printRoom(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Lobby response type (matches API)
type Lobby struct {
	Room    string `json:"room"`
	Tanked  bool   `json:"tanked"`
	Players int    `json:"players"`
}

// LobbyList response type
type LobbyList struct {
	Lobbies []Lobby `json:"lobbies"`
}

// Participant response type
type Participant struct {
	ConnectionID string    `json:"connection_id"`
	IsHost       bool      `json:"is_host"`
	JoinedAt     time.Time `json:"joined_at"`
}

// Room response type
type Room struct {
	ID           string        `json:"id"`
	Tanked       bool          `json:"tanked"`
	Started      bool          `json:"started"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"created_at"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printLobbyList(l LobbyList) {
	if len(l.Lobbies) == 0 {
		fmt.Println("No open lobbies")
		return
	}
	fmt.Printf("Open lobbies (%d):\n", len(l.Lobbies))
	for _, lobby := range l.Lobbies {
		tankedStr := ""
		if lobby.Tanked {
			tankedStr = " [tanked]"
		}
		fmt.Printf("  - %s (%d/2)%s\n", lobby.Room, lobby.Players, tankedStr)
	}
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s\n", r.ID)
	startedStr := "waiting"
	if r.Started {
		startedStr = "in progress"
	}
	fmt.Printf("State: %s\n", startedStr)
	if r.Tanked {
		fmt.Println("Tanked: yes")
	}
	fmt.Printf("Participants (%d):\n", len(r.Participants))
	for _, p := range r.Participants {
		hostStr := ""
		if p.IsHost {
			hostStr = " [host]"
		}
		fmt.Printf("  - %s%s\n", p.ConnectionID, hostStr)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
