package collision

// Action is what a contact does to the vehicle that received it.
type Action uint8

const (
	ActionIgnore Action = iota
	ActionReset
)

func (a Action) String() string {
	if a == ActionReset {
		return "reset"
	}
	return "ignore"
}

// Handler decides the Action for a contact of one category.
type Handler func(Contact) Action

// ResetOnContact is the handler every category uses today.
func ResetOnContact(Contact) Action { return ActionReset }

// IgnoreContact drops the contact.
func IgnoreContact(Contact) Action { return ActionIgnore }

// Policy routes contacts to per-category handlers. The zero value resets on
// every contact.
type Policy struct {
	handlers map[Category]Handler
	fallback Handler
}

// DefaultPolicy resets on walls, cars and anything else.
func DefaultPolicy() Policy {
	return Policy{
		handlers: map[Category]Handler{
			CategoryWall: ResetOnContact,
			CategoryCar:  ResetOnContact,
		},
		fallback: ResetOnContact,
	}
}

// With returns a copy of p that uses h for category c.
func (p Policy) With(c Category, h Handler) Policy {
	handlers := make(map[Category]Handler, len(p.handlers)+1)
	for k, v := range p.handlers {
		handlers[k] = v
	}
	handlers[c] = h
	return Policy{handlers: handlers, fallback: p.fallback}
}

// WithFallback returns a copy of p that uses h for categories without a handler.
func (p Policy) WithFallback(h Handler) Policy {
	return Policy{handlers: p.handlers, fallback: h}
}

// Resolve returns the action for c.
func (p Policy) Resolve(c Contact) Action {
	if h, ok := p.handlers[c.Category]; ok && h != nil {
		return h(c)
	}
	if p.fallback != nil {
		return p.fallback(c)
	}
	return ActionReset
}
