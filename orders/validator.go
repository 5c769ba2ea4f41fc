// Package orders gates the tracked player's item orders so the tutorial
// cannot be put into a state it does not expect.
package orders

import "github.com/comalice/creepstack"

type Kind int

const (
	KindOther Kind = iota
	// KindDropItem drops an item on the ground.
	KindDropItem
	// KindMoveItem moves an item between inventory slots.
	KindMoveItem
	// KindDropItemAtFountain sends an item to the neutral stash.
	KindDropItemAtFountain
)

func (k Kind) String() string {
	switch k {
	case KindDropItem:
		return "drop_item"
	case KindMoveItem:
		return "move_item"
	case KindDropItemAtFountain:
		return "drop_item_at_fountain"
	default:
		return "other"
	}
}

// Order describes one player order as seen by the filter hook. Item is empty
// for orders that do not reference an item.
type Order struct {
	Kind   Kind                `json:"kind"`
	Issuer creepstack.PlayerID `json:"issuer"`
	Item   string              `json:"item,omitempty"`
}

// Items names the two neutral items the chapter hands out.
type Items struct {
	First  string `yaml:"first" json:"first"`
	Second string `yaml:"second" json:"second"`
}

// Reason is the localization key of a denial message.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonDropNotAllowed   Reason = "error.chapter3.drop_not_allowed"
	ReasonWrongStashItem   Reason = "error.chapter3.wrong_stash_item"
	ReasonStashNotExpected Reason = "error.chapter3.stash_not_expected"
	ReasonMoveNotAllowed   Reason = "error.chapter3.move_not_allowed"
)

// Effect is a state change the caller must apply when the order is allowed.
type Effect int

const (
	EffectNone Effect = iota
	EffectMovedToStash
)

type Decision struct {
	Allow  bool
	Reason Reason
	Effect Effect
}

func allow() Decision { return Decision{Allow: true} }

func deny(r Reason) Decision { return Decision{Reason: r} }

// Validate decides an order for the tracked player. It has no side effects.
func Validate(o Order, player creepstack.PlayerID, perms creepstack.Permissions, items Items) Decision {
	if o.Issuer != player {
		return allow()
	}

	switch o.Kind {
	case KindDropItem:
		return deny(ReasonDropNotAllowed)

	case KindMoveItem:
		if perms.CanMoveNeutralFromBackpack && o.Item != "" && o.Item == items.Second {
			return allow()
		}
		return deny(ReasonMoveNotAllowed)

	case KindDropItemAtFountain:
		if o.Item == "" {
			return deny(ReasonStashNotExpected)
		}
		if !perms.ExpectingStashDeposit {
			return deny(ReasonStashNotExpected)
		}
		if o.Item != items.First {
			return deny(ReasonWrongStashItem)
		}
		return Decision{Allow: true, Effect: EffectMovedToStash}
	}

	return allow()
}
