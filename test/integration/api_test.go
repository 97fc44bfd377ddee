package integration

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/Tyrowin/roomrelay/test/testhelpers"
)

func postMessage(t *testing.T, ts *testhelpers.TestServer, roomID, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/rooms/"+roomID+"/message", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("Failed to post message: %v", err)
	}
	return resp
}

func TestInjectIntoMissingRoom(t *testing.T) {
	ts := testhelpers.NewTestServer(t, nil)

	resp := postMessage(t, ts, "ghost", `{"message":"x"}`)
	testhelpers.AssertStatusCode(t, resp, http.StatusNotFound)

	var body map[string]string
	testhelpers.DecodeJSON(t, resp, &body)
	if body["error"] != "Room not found" {
		t.Errorf("Unexpected error body: %v", body)
	}
}

func TestInjectRequiresMessage(t *testing.T) {
	ts := testhelpers.NewTestServer(t, nil)

	for _, payload := range []string{`{}`, `{"message":""}`, `not json`} {
		resp := postMessage(t, ts, "lobby", payload)
		testhelpers.AssertStatusCode(t, resp, http.StatusBadRequest)

		var body map[string]string
		testhelpers.DecodeJSON(t, resp, &body)
		if body["error"] != "message is required" {
			t.Errorf("payload %q: unexpected error body %v", payload, body)
		}
	}
}

func TestInjectDeliversToMembers(t *testing.T) {
	ts := testhelpers.NewTestServer(t, nil)

	alice, _ := testhelpers.MustConnect(t, ts.WSURL("/ws"))
	bob, _ := testhelpers.MustConnect(t, ts.WSURL("/ws"))
	testhelpers.SendJSON(t, alice, join("lobby", "alice"))
	testhelpers.ExpectEvent(t, alice, "joined_room")
	testhelpers.SendJSON(t, bob, join("lobby", "bob"))
	testhelpers.ExpectEvent(t, bob, "joined_room")
	testhelpers.ExpectEvent(t, alice, "user_joined")

	resp := postMessage(t, ts, "lobby", `{"message":"maintenance at noon"}`)
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)

	var body struct {
		Success        bool   `json:"success"`
		Message        string `json:"message"`
		RoomID         string `json:"roomId"`
		RecipientCount int    `json:"recipientCount"`
		Timestamp      string `json:"timestamp"`
	}
	testhelpers.DecodeJSON(t, resp, &body)
	if !body.Success || body.RoomID != "lobby" || body.RecipientCount != 2 {
		t.Errorf("Unexpected inject response: %+v", body)
	}
	if body.Message != "Message sent to room" {
		t.Errorf("Unexpected inject message %q", body.Message)
	}
	if _, err := time.Parse(timestampLayout, body.Timestamp); err != nil {
		t.Errorf("Malformed timestamp %q", body.Timestamp)
	}

	ev := testhelpers.ExpectEvent(t, alice, "room_message")
	if ev.Str("userId") != "api" || ev.Str("message") != "maintenance at noon" {
		t.Errorf("Unexpected injected event: %v", ev.Data)
	}
	if ev.Str("timestamp") != body.Timestamp {
		t.Errorf("Event timestamp %q differs from response %q", ev.Str("timestamp"), body.Timestamp)
	}
	testhelpers.ExpectEvent(t, bob, "room_message")
}

func TestInjectHonorsUserID(t *testing.T) {
	ts := testhelpers.NewTestServer(t, nil)

	conn, _ := testhelpers.MustConnect(t, ts.WSURL("/ws"))
	testhelpers.SendJSON(t, conn, join("ops", "oncall"))
	testhelpers.ExpectEvent(t, conn, "joined_room")

	resp := postMessage(t, ts, "ops", `{"message":"deploying","userId":"deploybot"}`)
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	_ = resp.Body.Close()

	ev := testhelpers.ExpectEvent(t, conn, "room_message")
	if ev.Str("userId") != "deploybot" {
		t.Errorf("Expected userId deploybot, got %q", ev.Str("userId"))
	}
}

func TestRoomDetail(t *testing.T) {
	ts := testhelpers.NewTestServer(t, nil)

	first, _ := testhelpers.MustConnect(t, ts.WSURL("/ws"))
	second, _ := testhelpers.MustConnect(t, ts.WSURL("/ws"))
	testhelpers.SendJSON(t, first, join("lobby", "first"))
	testhelpers.ExpectEvent(t, first, "joined_room")
	time.Sleep(5 * time.Millisecond)
	testhelpers.SendJSON(t, second, join("lobby", "second"))
	testhelpers.ExpectEvent(t, second, "joined_room")

	resp, err := http.Get(ts.URL + "/api/rooms/lobby")
	if err != nil {
		t.Fatalf("Failed to get room: %v", err)
	}
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)

	var detail struct {
		RoomID           string `json:"roomId"`
		ParticipantCount int    `json:"participantCount"`
		Participants     []struct {
			UserID   string `json:"userId"`
			JoinedAt string `json:"joinedAt"`
		} `json:"participants"`
	}
	testhelpers.DecodeJSON(t, resp, &detail)
	if detail.RoomID != "lobby" || detail.ParticipantCount != 2 || len(detail.Participants) != 2 {
		t.Fatalf("Unexpected room detail: %+v", detail)
	}
	if detail.Participants[0].UserID != "first" || detail.Participants[1].UserID != "second" {
		t.Errorf("Expected participants in join order, got %+v", detail.Participants)
	}

	resp, err = http.Get(ts.URL + "/api/rooms/ghost")
	if err != nil {
		t.Fatalf("Failed to get room: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	testhelpers.AssertStatusCode(t, resp, http.StatusNotFound)
}
