package recipechat

import "github.com/google/uuid"

// IdentityResolver decides which user id a request belongs to.
type IdentityResolver struct {
	newID func() string
}

// NewIdentityResolver returns a resolver that issues random (version 4) UUIDs on first contact.
func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{newID: uuid.NewString}
}

// Resolve returns the user id for a request and whether the transport must (re)persist it
// on the client.
//
// A client asserted id always wins and is reported as newly issued, so the caller
// confirms it even when a different previously issued id was presented. Otherwise the
// previously issued id is continued silently, and only when neither is present a fresh
// id is generated.
func (r *IdentityResolver) Resolve(clientAssertedID, previouslyIssuedID string) (string, bool) {
	if clientAssertedID != "" {
		return clientAssertedID, true
	}

	if previouslyIssuedID != "" {
		return previouslyIssuedID, false
	}

	return r.newID(), true
}
