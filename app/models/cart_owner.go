package models

// CartOwner identifies whose cart is meant: a logged-in user or an anonymous
// browser session. The interface is sealed so an owner is always exactly one
// of the two.
type CartOwner interface {
	cartOwner()
	String() string
}

type UserOwner struct {
	UserID string
}

type AnonymousOwner struct {
	SessionID string
}

func (UserOwner) cartOwner()      {}
func (AnonymousOwner) cartOwner() {}

func (o UserOwner) String() string      { return "user:" + o.UserID }
func (o AnonymousOwner) String() string { return "session:" + o.SessionID }

// ValidOwner reports whether owner carries a non-empty identifier.
func ValidOwner(owner CartOwner) bool {
	switch o := owner.(type) {
	case UserOwner:
		return o.UserID != ""
	case AnonymousOwner:
		return o.SessionID != ""
	default:
		return false
	}
}
