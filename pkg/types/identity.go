package types

import "strings"

// AnonPrefix marks a session-scoped (anonymous) identity.
// "anon:abc123" resolves interaction events by session id "abc123"
// instead of by user id.
const AnonPrefix = "anon:"

// Identity is a resolved request identity: either a user id or an
// anonymous session id, with the prefix marker already stripped.
type Identity struct {
	// Value is the bare user id or session id.
	Value string

	// Anonymous reports whether Value is a session id.
	Anonymous bool
}

// ParseIdentity resolves a raw identity string from the request.
// A recognized "anon:" prefix routes to session-scoped events; anything
// else is treated as a user id verbatim.
func ParseIdentity(raw string) Identity {
	if v, ok := strings.CutPrefix(raw, AnonPrefix); ok {
		return Identity{Value: v, Anonymous: true}
	}
	return Identity{Value: raw}
}

// String reassembles the wire form of the identity.
func (id Identity) String() string {
	if id.Anonymous {
		return AnonPrefix + id.Value
	}
	return id.Value
}
