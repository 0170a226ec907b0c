package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newJoinCmd() *cobra.Command {
	var tanked bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "join <room>",
		Short: "Join a room over websocket and relay frames interactively",
		Long: `Connect to a room's websocket endpoint and stream frames in real-time.

Incoming frames are printed as they arrive. Lines typed on stdin are sent
as update frames; the line "/start" sends the start-game request instead
(only the room's host may start).

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return joinRoom(args[0], tanked, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&tanked, "tanked", false, "Create the room in tanked mode")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output frames as JSON lines")

	return cmd
}

func joinRoom(roomID string, tanked, jsonOutput bool) error {
	wsURL, err := roomSocketURL(cfg.ServerURL, roomID, tanked)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	if resp != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()

	if !jsonOutput {
		fmt.Printf("Connected to room %s\n", roomID)
	}

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Reader goroutine: print every incoming frame
	readDone := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				readDone <- err
				return
			}
			printFrame(raw, jsonOutput)
		}
	}()

	// Stdin goroutine: forward typed lines as frames
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-sigCh:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return nil
		case err := <-readDone:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					fmt.Println("Disconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		case line, ok := <-lines:
			if !ok {
				// Stdin closed; keep printing incoming frames
				lines = nil
				continue
			}
			if err := sendLine(conn, line); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

func sendLine(conn *websocket.Conn, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if line == "/start" {
		return conn.WriteJSON(map[string]string{"type": "start"})
	}
	// Raw JSON passes through untouched; anything else is wrapped
	if strings.HasPrefix(line, "{") {
		return conn.WriteMessage(websocket.TextMessage, []byte(line))
	}
	return conn.WriteJSON(map[string]string{"type": "update", "data": line})
}

func printFrame(raw []byte, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(string(raw))
		return
	}

	var frame map[string]any
	if err := json.Unmarshal(raw, &frame); err != nil {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), string(raw))
		return
	}
	frameType, _ := frame["type"].(string)
	display := string(raw)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	fmt.Printf("[%s] %s: %s\n", time.Now().Format("15:04:05"), frameType, display)
}

func roomSocketURL(serverURL, roomID string, tanked bool) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path += "/rooms/" + roomID
	if tanked {
		q := u.Query()
		q.Set("tanked", "true")
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
