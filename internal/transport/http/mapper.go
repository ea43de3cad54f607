package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vovakirdan/wirechat-admin/internal/core"
	"github.com/vovakirdan/wirechat-admin/internal/proto"
)

// applyInbound runs the session operation an inbound envelope asks for. A
// returned Outbound is an immediate reply to the sender; everything else
// reaches the client through the session's update stream.
func applyInbound(ctx context.Context, session *core.Session, inbound proto.Inbound) (*proto.Outbound, error) {
	switch inbound.Type {
	case proto.InboundTypeSelect:
		var data proto.SelectData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		target, err := targetFromSelect(data)
		if err != nil {
			return errorOutbound(err), nil
		}
		if _, err := session.Select(target); err != nil {
			return errorOutbound(err), nil
		}
		return nil, nil
	case proto.InboundTypeSync:
		var data proto.SyncData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &data); err != nil {
				return nil, err
			}
		}
		key, err := conversationOrActive(session, data.Conversation)
		if err != nil {
			return errorOutbound(err), nil
		}
		if err := session.Sync(ctx, key); err != nil {
			return errorOutbound(err), nil
		}
		return nil, nil
	case proto.InboundTypeSearch:
		var data proto.SearchData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		role, err := core.ParseRole(data.Role)
		if err != nil {
			return errorOutbound(err), nil
		}
		if _, err := session.Search(ctx, role, data.Term); err != nil {
			return errorOutbound(err), nil
		}
		return nil, nil
	case proto.InboundTypeDraft:
		var data proto.DraftData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		session.SetDraft(data.Text)
		return nil, nil
	case proto.InboundTypeSend:
		var data proto.SendData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &data); err != nil {
				return nil, err
			}
		}
		// Remote failures are already reported through the status event.
		if err := sendFromData(ctx, session, data); err != nil && !isRemote(err) {
			return errorOutbound(err), nil
		}
		return nil, nil
	case proto.InboundTypeDismiss:
		session.DismissStatus()
		return nil, nil
	default:
		return &proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "invalid_message", Msg: "unknown message type"},
		}, nil
	}
}

// sendFromData submits the draft when no text is given, otherwise sends text
// to the given user, the named conversation or the active one.
func sendFromData(ctx context.Context, session *core.Session, data proto.SendData) error {
	if data.Text == "" {
		return session.Submit(ctx)
	}
	if data.User != nil {
		target, err := targetFromSelect(proto.SelectData{User: data.User})
		if err != nil {
			return err
		}
		return session.SendTo(ctx, target, data.Text)
	}
	key, err := conversationOrActive(session, data.Conversation)
	if err != nil {
		return err
	}
	return session.Send(ctx, key, data.Text)
}

func conversationOrActive(session *core.Session, conversation string) (core.ConversationKey, error) {
	if conversation == "" {
		return session.Active(), nil
	}
	return core.ParseConversationKey(conversation)
}

func isRemote(err error) bool {
	return errors.Is(err, core.ErrRemote)
}

func targetFromSelect(data proto.SelectData) (core.Target, error) {
	switch {
	case data.User != nil:
		if data.User.ID == "" {
			return core.Target{}, fmt.Errorf("%w: user id is required", core.ErrInvalidTarget)
		}
		return core.UserTarget(fromProtoUser(*data.User)), nil
	case data.Role != "":
		role, err := core.ParseRole(data.Role)
		if err != nil {
			return core.Target{}, err
		}
		return core.RoleTarget(role), nil
	}
	return core.Target{}, fmt.Errorf("%w: role or user is required", core.ErrInvalidTarget)
}

func outboundFromUpdate(u core.Update) proto.Outbound {
	switch u.Kind {
	case core.UpdateSelection:
		return event(proto.EventNameSelection, proto.EventSelection{Conversation: u.Key.String()})
	case core.UpdateHistory:
		return event(proto.EventNameHistory, proto.EventHistory{
			Conversation: u.Key.String(),
			Messages:     toProtoMessages(u.Messages),
		})
	case core.UpdateAppended:
		return event(proto.EventNameMessage, proto.EventMessage{
			Conversation: u.Key.String(),
			Message:      toProtoMessage(u.Message),
		})
	case core.UpdateDelivery:
		return event(proto.EventNameDelivery, proto.EventMessage{
			Conversation: u.Key.String(),
			Message:      toProtoMessage(u.Message),
		})
	case core.UpdateStatus:
		st := proto.EventStatus{Status: u.Status.String()}
		if u.Error != nil {
			st.Error = &proto.Error{Code: u.Error.Code, Msg: u.Error.Message}
		}
		return event(proto.EventNameStatus, st)
	case core.UpdateCandidates:
		return event(proto.EventNameCandidates, proto.EventCandidates{Users: toProtoUsers(u.Candidates)})
	case core.UpdateDraft:
		return event(proto.EventNameDraft, proto.EventDraft{Text: u.Draft})
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func event(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func errorOutbound(err error) *proto.Outbound {
	cerr := core.ToCoreError(err)
	return &proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: cerr.Code, Msg: cerr.Message},
	}
}

func toProtoView(v core.View) proto.EventView {
	chats := make([]proto.Chat, 0, len(v.Chats))
	for _, entry := range v.Chats {
		chat := proto.Chat{Label: entry.Label, Conversation: entry.Key.String()}
		if entry.User != nil {
			u := toProtoUser(*entry.User)
			chat.User = &u
		}
		chats = append(chats, chat)
	}
	return proto.EventView{
		Conversation: v.Active.String(),
		Title:        v.Title,
		Filter:       string(v.Filter),
		SearchTerm:   v.SearchTerm,
		Chats:        chats,
		Messages:     toProtoMessages(v.Messages),
		Status:       v.Status.String(),
		Draft:        v.Draft,
	}
}

func toProtoMessage(m core.ChatMessage) proto.Message {
	msg := proto.Message{
		ID:       m.ID,
		Sender:   m.Sender,
		Text:     m.Text,
		Time:     m.Time,
		Delivery: string(m.Delivery),
	}
	if !m.Timestamp.IsZero() {
		msg.TS = m.Timestamp.Unix()
	}
	return msg
}

func toProtoMessages(msgs []core.ChatMessage) []proto.Message {
	out := make([]proto.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toProtoMessage(m))
	}
	return out
}

func toProtoUser(u core.UserRecord) proto.User {
	return proto.User{ID: u.ID, Name: u.Name, Role: string(u.Role), Avatar: u.AvatarRef}
}

func toProtoUsers(users []core.UserRecord) []proto.User {
	out := make([]proto.User, 0, len(users))
	for _, u := range users {
		out = append(out, toProtoUser(u))
	}
	return out
}

func fromProtoUser(u proto.User) core.UserRecord {
	return core.UserRecord{ID: u.ID, Name: u.Name, Role: core.Role(u.Role), AvatarRef: u.Avatar}
}

func toProtoAnnouncements(items []core.Announcement) []proto.Announcement {
	out := make([]proto.Announcement, 0, len(items))
	for _, a := range items {
		out = append(out, proto.Announcement{ID: a.ID, Text: a.Text, CreatedAt: a.CreatedAt})
	}
	return out
}
