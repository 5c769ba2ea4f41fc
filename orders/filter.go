package orders

import (
	"io"
	"log"

	"github.com/comalice/creepstack"
)

// Notifier shows a localized error message to a player.
type Notifier interface {
	ShowError(player creepstack.PlayerID, text string)
}

// Localizer resolves a reason key to display text.
type Localizer func(key string) string

// Filter is the global order-filter hook. It reads permissions from the
// session, applies allowed effects back to it and reports denials to the
// player.
type Filter struct {
	session  *creepstack.Session
	items    Items
	notifier Notifier
	localize Localizer
	logger   *log.Logger
}

type FilterOption func(*Filter)

func WithLocalizer(l Localizer) FilterOption {
	return func(f *Filter) { f.localize = l }
}

func WithLogger(l *log.Logger) FilterOption {
	return func(f *Filter) { f.logger = l }
}

func NewFilter(session *creepstack.Session, items Items, notifier Notifier, opts ...FilterOption) *Filter {
	f := &Filter{
		session:  session,
		items:    items,
		notifier: notifier,
		localize: func(key string) string { return key },
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Filter returns whether o may execute and, on denial, the reason key.
func (f *Filter) Filter(o Order) (bool, Reason) {
	d := Validate(o, f.session.PlayerID(), f.session.Permissions(), f.items)

	if !d.Allow {
		f.logger.Printf("orders: denied %s item=%q: %s", o.Kind, o.Item, d.Reason)
		if f.notifier != nil {
			f.notifier.ShowError(o.Issuer, f.localize(string(d.Reason)))
		}
		return false, d.Reason
	}

	if d.Effect == EffectMovedToStash {
		f.session.MarkMovedToStash()
	}
	return true, ReasonNone
}
