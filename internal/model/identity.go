package model

import (
	"bytes"
	"encoding/json"
)

// Identity is an account address on the ledger.
type Identity string

func (id Identity) String() string { return string(id) }

// OptionalIdentity is an identity that may be absent. The zero value is absent.
type OptionalIdentity struct {
	id  Identity
	set bool
}

// Some wraps a present identity.
func Some(id Identity) OptionalIdentity {
	return OptionalIdentity{id: id, set: true}
}

// None returns an absent identity.
func None() OptionalIdentity { return OptionalIdentity{} }

// Get returns the identity and whether it is present.
func (o OptionalIdentity) Get() (Identity, bool) { return o.id, o.set }

// IsSet reports whether an identity is present.
func (o OptionalIdentity) IsSet() bool { return o.set }

// Is reports whether the identity is present and equal to id.
func (o OptionalIdentity) Is(id Identity) bool { return o.set && o.id == id }

func (o OptionalIdentity) String() string {
	if !o.set {
		return "<none>"
	}
	return string(o.id)
}

// MarshalJSON encodes an absent identity as null.
func (o OptionalIdentity) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(string(o.id))
}

// UnmarshalJSON decodes null as absent.
func (o *OptionalIdentity) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = Some(Identity(s))
	return nil
}
