package orders_test

import (
	"testing"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/orders"
	"github.com/comalice/creepstack/testutil"
)

// Test that the first neutral item can be stashed exactly once.
func TestFilterStashOnce(t *testing.T) {
	session := creepstack.NewSession(player)
	notifier := &testutil.Notifier{}
	f := orders.NewFilter(session, items, notifier)

	stash := orders.Order{Kind: orders.KindDropItemAtFountain, Issuer: player, Item: items.First}

	session.SetExpectingStashDeposit(true)
	if ok, _ := f.Filter(stash); !ok {
		t.Fatal("expected first deposit to be allowed")
	}
	if !session.MovedToStash() {
		t.Error("deposit should set moved-to-stash")
	}

	ok, reason := f.Filter(stash)
	if ok || reason != orders.ReasonStashNotExpected {
		t.Errorf("second deposit should be denied, got ok=%v reason=%q", ok, reason)
	}
	if n := len(notifier.Messages()); n != 1 {
		t.Errorf("expected one error message, got %d", n)
	}
}

func TestFilterLocalizesDenial(t *testing.T) {
	session := creepstack.NewSession(player)
	notifier := &testutil.Notifier{}
	f := orders.NewFilter(session, items, notifier, orders.WithLocalizer(func(key string) string {
		return "localized:" + key
	}))

	ok, reason := f.Filter(orders.Order{Kind: orders.KindDropItem, Issuer: player, Item: items.First})
	if ok || reason != orders.ReasonDropNotAllowed {
		t.Fatalf("drop should be denied, got ok=%v reason=%q", ok, reason)
	}
	msgs := notifier.Messages()
	if len(msgs) != 1 || msgs[0].Player != player || msgs[0].Text != "localized:"+string(orders.ReasonDropNotAllowed) {
		t.Errorf("unexpected messages %+v", msgs)
	}
}

func TestFilterIgnoresOtherPlayers(t *testing.T) {
	session := creepstack.NewSession(player)
	notifier := &testutil.Notifier{}
	f := orders.NewFilter(session, items, notifier)

	if ok, _ := f.Filter(orders.Order{Kind: orders.KindDropItem, Issuer: 7, Item: items.First}); !ok {
		t.Error("orders from other players must pass")
	}
	if len(notifier.Messages()) != 0 {
		t.Error("no message expected for other players")
	}
}
