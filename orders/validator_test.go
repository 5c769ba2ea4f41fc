package orders_test

import (
	"testing"

	"github.com/comalice/creepstack"
	"github.com/comalice/creepstack/orders"
)

const player creepstack.PlayerID = 0

var items = orders.Items{First: "item_arcane_ring", Second: "item_mysterious_hat"}

func TestValidate(t *testing.T) {
	none := creepstack.Permissions{}
	canMove := creepstack.Permissions{CanMoveNeutralFromBackpack: true}
	expecting := creepstack.Permissions{ExpectingStashDeposit: true}

	cases := []struct {
		name   string
		order  orders.Order
		perms  creepstack.Permissions
		allow  bool
		reason orders.Reason
		effect orders.Effect
	}{
		{"other player drops", orders.Order{Kind: orders.KindDropItem, Issuer: 3, Item: items.First}, none, true, orders.ReasonNone, orders.EffectNone},
		{"drop denied", orders.Order{Kind: orders.KindDropItem, Item: items.First}, none, false, orders.ReasonDropNotAllowed, orders.EffectNone},
		{"drop denied with every permission", orders.Order{Kind: orders.KindDropItem, Item: items.Second}, creepstack.Permissions{CanMoveNeutralFromBackpack: true, ExpectingStashDeposit: true}, false, orders.ReasonDropNotAllowed, orders.EffectNone},
		{"move second without permission", orders.Order{Kind: orders.KindMoveItem, Item: items.Second}, none, false, orders.ReasonMoveNotAllowed, orders.EffectNone},
		{"move second with permission", orders.Order{Kind: orders.KindMoveItem, Item: items.Second}, canMove, true, orders.ReasonNone, orders.EffectNone},
		{"move first with permission", orders.Order{Kind: orders.KindMoveItem, Item: items.First}, canMove, false, orders.ReasonMoveNotAllowed, orders.EffectNone},
		{"move without item", orders.Order{Kind: orders.KindMoveItem}, canMove, false, orders.ReasonMoveNotAllowed, orders.EffectNone},
		{"stash not expected", orders.Order{Kind: orders.KindDropItemAtFountain, Item: items.First}, none, false, orders.ReasonStashNotExpected, orders.EffectNone},
		{"stash wrong item", orders.Order{Kind: orders.KindDropItemAtFountain, Item: items.Second}, expecting, false, orders.ReasonWrongStashItem, orders.EffectNone},
		{"stash first item", orders.Order{Kind: orders.KindDropItemAtFountain, Item: items.First}, expecting, true, orders.ReasonNone, orders.EffectMovedToStash},
		{"stash without item", orders.Order{Kind: orders.KindDropItemAtFountain}, expecting, false, orders.ReasonStashNotExpected, orders.EffectNone},
		{"other orders", orders.Order{Kind: orders.KindOther}, none, true, orders.ReasonNone, orders.EffectNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := orders.Validate(tc.order, player, tc.perms, items)
			if d.Allow != tc.allow || d.Reason != tc.reason || d.Effect != tc.effect {
				t.Errorf("got %+v, want allow=%v reason=%q effect=%v", d, tc.allow, tc.reason, tc.effect)
			}
		})
	}
}
