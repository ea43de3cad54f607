package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-admin/internal/proto"
)

const help = `commands:
  /role <driver|manager|others>   open a role broadcast
  /user <id> <role>               open a direct thread
  /search <role> <term>           search users
  /sync                           refetch the active conversation
  /dismiss                        clear the send status
  anything else                   send to the active conversation`

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "dashboard websocket address")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	fmt.Printf("Connected to %s\n%s\n", *addr, help)

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func decode[T any](data json.RawMessage) (T, bool) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		log.Printf("unmarshal event: %v", err)
		return v, false
	}
	return v, true
}

func printMessage(m proto.Message) {
	tag := ""
	if m.Delivery != "" && m.Delivery != "stored" {
		tag = " (" + m.Delivery + ")"
	}
	fmt.Printf("  %s %s: %s%s\n", m.Time, m.Sender, m.Text, tag)
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Type == proto.OutboundTypeError && outbound.Error != nil {
			fmt.Printf("! %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
			continue
		}

		switch outbound.Event {
		case proto.EventNameView:
			if v, ok := decode[proto.EventView](outbound.Data); ok {
				fmt.Printf("== %s [%s] status=%s\n", v.Title, v.Conversation, v.Status)
				for _, m := range v.Messages {
					printMessage(m)
				}
			}
		case proto.EventNameSelection:
			if v, ok := decode[proto.EventSelection](outbound.Data); ok {
				fmt.Printf("== %s\n", v.Conversation)
			}
		case proto.EventNameHistory:
			if v, ok := decode[proto.EventHistory](outbound.Data); ok {
				fmt.Printf("-- history %s (%d)\n", v.Conversation, len(v.Messages))
				for _, m := range v.Messages {
					printMessage(m)
				}
			}
		case proto.EventNameMessage, proto.EventNameDelivery:
			if v, ok := decode[proto.EventMessage](outbound.Data); ok {
				printMessage(v.Message)
			}
		case proto.EventNameStatus:
			if v, ok := decode[proto.EventStatus](outbound.Data); ok {
				if v.Error != nil {
					fmt.Printf("status: %s (%s)\n", v.Status, v.Error.Msg)
				} else {
					fmt.Printf("status: %s\n", v.Status)
				}
			}
		case proto.EventNameCandidates:
			if v, ok := decode[proto.EventCandidates](outbound.Data); ok {
				for _, u := range v.Users {
					fmt.Printf("  user %s %s (%s)\n", u.ID, u.Name, u.Role)
				}
			}
		case proto.EventNameDraft:
		default:
			fmt.Printf("event=%s data=%s\n", outbound.Event, outbound.Data)
		}
	}
}

// parseLine turns one console line into an inbound envelope.
func parseLine(line string) (proto.Inbound, error) {
	var (
		typ  string
		data any
	)

	fields := strings.Fields(line)
	switch {
	case fields[0] == "/role" && len(fields) == 2:
		typ, data = proto.InboundTypeSelect, proto.SelectData{Role: fields[1]}
	case fields[0] == "/user" && len(fields) == 3:
		u := &proto.User{ID: fields[1], Role: fields[2]}
		typ, data = proto.InboundTypeSelect, proto.SelectData{User: u}
	case fields[0] == "/search" && len(fields) >= 2:
		term := ""
		if len(fields) > 2 {
			term = strings.Join(fields[2:], " ")
		}
		typ, data = proto.InboundTypeSearch, proto.SearchData{Role: fields[1], Term: term}
	case fields[0] == "/sync":
		typ, data = proto.InboundTypeSync, proto.SyncData{}
	case fields[0] == "/dismiss":
		typ, data = proto.InboundTypeDismiss, struct{}{}
	case strings.HasPrefix(fields[0], "/"):
		return proto.Inbound{}, fmt.Errorf("unknown command %s", fields[0])
	default:
		typ, data = proto.InboundTypeSend, proto.SendData{Text: line}
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return proto.Inbound{}, err
	}
	return proto.Inbound{Type: typ, Data: payload}, nil
}

func writeLoop(ctx context.Context, conn *websocket.Conn) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}

			inbound, err := parseLine(line)
			if err != nil {
				fmt.Println(err)
				fmt.Println(help)
				continue
			}
			if err := wsjson.Write(ctx, conn, inbound); err != nil {
				log.Printf("send error: %v", err)
				return
			}
		}
	}
}
