package domain

import "fmt"

// Tier identifies which store holds the active session.
type Tier string

const (
	// TierNone marks a session that lives in no tier (Guest).
	TierNone Tier = ""
	// TierDurable survives browser restarts.
	TierDurable Tier = "durable"
	// TierEphemeral is scoped to the current browser tab's lifetime.
	TierEphemeral Tier = "ephemeral"
)

// Other returns the opposite tier. TierNone has no opposite.
func (t Tier) Other() Tier {
	switch t {
	case TierDurable:
		return TierEphemeral
	case TierEphemeral:
		return TierDurable
	}
	return TierNone
}

func (t Tier) Valid() bool {
	return t == TierDurable || t == TierEphemeral
}

// Session is the identity loaded from the credential store.
// Token and User always come from the same Tier.
type Session struct {
	Token string
	User  *UserRecord
	Tier  Tier
}

// HasToken reports whether a bearer token is present.
func (s Session) HasToken() bool { return s.Token != "" }

// Role derives the session role. No token means Guest whatever the user
// record says.
func (s Session) Role() Role {
	if !s.HasToken() || s.User == nil {
		return RoleGuest
	}
	return ResolveRole(s.User.AccountType)
}

// Valid reports whether the session should drive background work: a token
// is present and the role is not Guest.
func (s Session) Valid() bool {
	return s.HasToken() && s.Role().Authenticated()
}

// Clone returns a deep copy so callers cannot mutate façade state.
func (s Session) Clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Credential is the unit persisted in one tier: the token and the
// serialized user record, always written together.
type Credential struct {
	Token    string
	UserJSON string
}

// Empty reports whether the credential carries no token.
func (c Credential) Empty() bool { return c.Token == "" }

// ClientKey identifies one browsing client. Device keys the durable tier,
// Tab keys the ephemeral tier.
type ClientKey struct {
	Device string
	Tab    string
}

func (k ClientKey) String() string {
	return fmt.Sprintf("%s/%s", k.Device, k.Tab)
}
