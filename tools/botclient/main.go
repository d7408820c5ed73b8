// Command botclient is a minimal diagnostic client for the match server's
// framed protocol: it connects, sends ConnectionSettings, prints whatever
// the server pushes, and lets an operator send a handful of commands from
// stdin. Grounded on the teacher's tools/client interactive loop,
// generalized from newline-delimited text to the typed frame codec.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/rlbot-go/matchserver/internal/protocol"
)

func main() {
	host := flag.String("host", "localhost", "server host")
	port := flag.Int("port", 23234, "server port")
	agentID := flag.String("agent-id", "", "agent_id to request a controllable reservation for")
	flag.Parse()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s\n", addr)

	codec := protocol.NewCodec(conn)

	settings := protocol.ConnectionSettingsPayload{WantsBallPredictions: true, WantsComms: true, AgentID: *agentID}
	if err := sendJSON(codec, protocol.MsgConnectionSettings, settings); err != nil {
		fmt.Fprintf(os.Stderr, "failed to send ConnectionSettings: %v\n", err)
		os.Exit(1)
	}

	go func() {
		for {
			msgType, payload, err := codec.ReadFrame()
			if err != nil {
				fmt.Printf("connection closed: %v\n", err)
				os.Exit(0)
			}
			fmt.Printf("<- %s %s\n", msgType, protocol.Summarize(payload))
		}
	}()

	fmt.Println("Commands: /start <config.toml>, /input <player_index> <throttle> <steer>, /comm <text>, /quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := handleCommand(codec, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		if line == "/quit" {
			break
		}
	}
}

func handleCommand(codec *protocol.Codec, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/start":
		if len(fields) < 2 {
			return fmt.Errorf("usage: /start <config.toml>")
		}
		return sendJSON(codec, protocol.MsgStartCommand, protocol.StartCommandPayload{ConfigPath: fields[1]})

	case "/input":
		if len(fields) < 4 {
			return fmt.Errorf("usage: /input <player_index> <throttle> <steer>")
		}
		index, err := strconv.Atoi(fields[1])
		if err != nil {
			return err
		}
		throttle, err := strconv.ParseFloat(fields[2], 32)
		if err != nil {
			return err
		}
		steer, err := strconv.ParseFloat(fields[3], 32)
		if err != nil {
			return err
		}
		return sendJSON(codec, protocol.MsgPlayerInput, protocol.PlayerInputPayload{
			PlayerIndex: index,
			Controller:  protocol.ControllerState{Throttle: float32(throttle), Steer: float32(steer)},
		})

	case "/comm":
		text := strings.Join(fields[1:], " ")
		return sendJSON(codec, protocol.MsgMatchComm, protocol.MatchCommPayload{Content: []byte(text)})

	case "/quit":
		return sendJSON(codec, protocol.MsgStopCommand, protocol.StopCommandPayload{ShutdownServer: false})

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func sendJSON(codec *protocol.Codec, msgType protocol.MessageType, v interface{}) error {
	payload, err := protocol.Encode(msgType, v)
	if err != nil {
		return err
	}
	return codec.WriteFrame(msgType, payload)
}
