package uisignal

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/comalice/creepstack/orders"
	"github.com/comalice/creepstack/region"
	"github.com/comalice/creepstack/stacking"
)

func dial(t *testing.T, h *Hub) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(h.Handler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return m
}

func TestHubBroadcastsSignals(t *testing.T) {
	h := NewHub(nil,
		WithSession(func() string { return "s-1" }),
		WithLocalizer(func(key string) string { return "text:" + key }),
	)
	conn, done := dial(t, h)
	defer done()

	h.ShowSkip(true)
	m := read(t, conn)
	if m.Type != TypeShowSkip || m.Show == nil || !*m.Show || m.Session != "s-1" {
		t.Errorf("unexpected skip message %+v", m)
	}

	h.Highlight([]region.Entity{{ID: 4}, {ID: 9}})
	m = read(t, conn)
	if m.Type != TypeHighlight || len(m.Entities) != 2 || m.Entities[1] != 9 {
		t.Errorf("unexpected highlight message %+v", m)
	}

	h.PublishOutcome(stacking.Outcome{Success: true, Tries: 2, Stacks: 1})
	m = read(t, conn)
	if m.Type != TypeOutcome || m.Outcome == nil || m.Outcome.Tries != 2 || !m.Outcome.Success {
		t.Errorf("unexpected outcome message %+v", m)
	}

	h.Play("dialogue.chapter3.stack_1")
	m = read(t, conn)
	if m.Type != TypeDialogue || m.Text != "text:dialogue.chapter3.stack_1" {
		t.Errorf("unexpected dialogue message %+v", m)
	}

	h.ShowError(0, "nope")
	m = read(t, conn)
	if m.Type != TypeError || m.Player == nil || *m.Player != 0 || m.Text != "nope" {
		t.Errorf("unexpected error message %+v", m)
	}

	h.SetValue("goal.chapter3.try_stack", 3)
	m = read(t, conn)
	if m.Type != TypeGoal || m.Value == nil || *m.Value != 3 {
		t.Errorf("unexpected goal message %+v", m)
	}
}

func TestHubInbound(t *testing.T) {
	got := make(chan ClientMessage, 4)
	h := NewHub(func(m ClientMessage) { got <- m })
	conn, done := dial(t, h)
	defer done()

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(ClientMessage{Type: TypeSkip}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(ClientMessage{Type: TypeOrder, Order: &orders.Order{Kind: orders.KindDropItem, Item: "item_arcane_ring"}}); err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"pick_up","item":"item_mysterious_hat"}`)); err != nil {
		t.Fatal(err)
	}

	select {
	case m := <-got:
		if m.Type != TypeSkip {
			t.Errorf("expected skip first, got %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("skip not delivered")
	}
	select {
	case m := <-got:
		if m.Type != TypeOrder || m.Order == nil || m.Order.Kind != orders.KindDropItem {
			t.Errorf("unexpected order %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("order not delivered")
	}
	select {
	case m := <-got:
		if m.Type != TypePickUp || m.Item != "item_mysterious_hat" {
			t.Errorf("unexpected pick up %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pick up not delivered")
	}
}

func TestHubCloseDisconnects(t *testing.T) {
	h := NewHub(nil)
	conn, done := dial(t, h)
	defer done()

	h.Close()
	if h.Clients() != 0 {
		t.Errorf("expected no clients after close, got %d", h.Clients())
	}
	h.ShowSkip(false) // must not panic on closed queues

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	conn.Close()
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read error after close")
	}
}
