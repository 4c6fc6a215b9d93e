package chat

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"RoomRelay/module/chat/model"
	"RoomRelay/tools/errs"
)

func mustProtocolErr(t *testing.T, raw string) {
	t.Helper()
	_, err := ParseFrame([]byte(raw))
	if err == nil {
		t.Fatalf("ParseFrame(%s) accepted a bad frame", raw)
	}
	var ce *errs.CodeError
	if !errors.As(err, &ce) || ce.Code != errs.ErrProtocol.Code {
		t.Fatalf("ParseFrame(%s) err = %v, want protocol error", raw, err)
	}
}

func TestParseFrameVariants(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"auth","token":"tok"}`))
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	if af, ok := f.(*AuthFrame); !ok || af.Token != "tok" {
		t.Fatalf("auth decoded as %#v", f)
	}

	f, err = ParseFrame([]byte(`{"type":"join-room","roomId":"r1"}`))
	if err != nil {
		t.Fatalf("join-room: %v", err)
	}
	if jf, ok := f.(*JoinRoomFrame); !ok || jf.RoomID != "r1" {
		t.Fatalf("join-room decoded as %#v", f)
	}

	f, err = ParseFrame([]byte(`{"type":"leave-room","roomId":"r1"}`))
	if err != nil {
		t.Fatalf("leave-room: %v", err)
	}
	if lf, ok := f.(*LeaveRoomFrame); !ok || lf.RoomID != "r1" {
		t.Fatalf("leave-room decoded as %#v", f)
	}

	f, err = ParseFrame([]byte(`{"type":"send-message","roomId":"r1","content":"hi","msgId":"m1","metadata":{"k":"v"}}`))
	if err != nil {
		t.Fatalf("send-message: %v", err)
	}
	sf, ok := f.(*SendMessageFrame)
	if !ok {
		t.Fatalf("send-message decoded as %#v", f)
	}
	if sf.RoomID != "r1" || sf.Content != "hi" || sf.MsgID != "m1" || sf.Metadata["k"] != "v" {
		t.Fatalf("send-message fields = %+v", sf)
	}
}

func TestParseFrameOptionalMsgID(t *testing.T) {
	f, err := ParseFrame([]byte(`{"type":"send-message","roomId":"r1","content":"hi"}`))
	if err != nil {
		t.Fatalf("send-message without msgId: %v", err)
	}
	if sf := f.(*SendMessageFrame); sf.MsgID != "" {
		t.Fatalf("MsgID = %q, want empty", sf.MsgID)
	}
}

func TestParseFrameRejectsBadInput(t *testing.T) {
	mustProtocolErr(t, `not json`)
	mustProtocolErr(t, `{"type":"unknown"}`)
	mustProtocolErr(t, `{"roomId":"r1"}`)
	mustProtocolErr(t, `{"type":"auth"}`)
	mustProtocolErr(t, `{"type":"auth","token":""}`)
	mustProtocolErr(t, `{"type":"join-room"}`)
	mustProtocolErr(t, `{"type":"leave-room","roomId":""}`)
	mustProtocolErr(t, `{"type":"send-message","roomId":"r1"}`)
	mustProtocolErr(t, `{"type":"send-message","content":"hi"}`)
}

func TestBuilders(t *testing.T) {
	var m map[string]any

	if err := json.Unmarshal(BuildAuthSuccess("u1"), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "auth-success" || m["message"] != "u1" {
		t.Fatalf("auth-success = %v", m)
	}

	if err := json.Unmarshal(BuildJoinRoomSuccess("r1"), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "join-room-success" || m["roomId"] != "r1" {
		t.Fatalf("join-room-success = %v", m)
	}

	if err := json.Unmarshal(BuildLeaveRoomSuccess("r1"), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "leave-room-success" || m["roomId"] != "r1" {
		t.Fatalf("leave-room-success = %v", m)
	}

	sentAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := json.Unmarshal(BuildSendMessageSuccess("cm1", "sm1", sentAt), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "send-message-success" || m["clientMsgId"] != "cm1" || m["serverMsgId"] != "sm1" {
		t.Fatalf("send-message-success = %v", m)
	}

	// Without a client id the field is omitted entirely.
	m = map[string]any{}
	if err := json.Unmarshal(BuildSendMessageSuccess("", "sm1", sentAt), &m); err != nil {
		t.Fatal(err)
	}
	if _, present := m["clientMsgId"]; present {
		t.Fatalf("clientMsgId should be omitted when empty: %v", m)
	}

	env := &model.Envelope{ID: "m1", RoomID: "r1", SenderID: "u1", Content: "hi", CreatedAt: sentAt}
	if err := json.Unmarshal(BuildMessage(env), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "message" || m["id"] != "m1" || m["roomId"] != "r1" || m["senderId"] != "u1" || m["content"] != "hi" {
		t.Fatalf("message = %v", m)
	}

	if err := json.Unmarshal(BuildError("boom"), &m); err != nil {
		t.Fatal(err)
	}
	if m["type"] != "error" || m["message"] != "boom" {
		t.Fatalf("error = %v", m)
	}
}
