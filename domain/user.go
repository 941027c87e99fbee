package domain

// AuthUser is the identity provider's view of a signed-in user.
// It is delivered on every auth-state change and is nil when signed out.
type AuthUser struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	PhotoURL    string `json:"photoUrl"`
}

// UserProfile is the profile document stored 1:1 with an identity-provider
// account. Its attributes are opaque to the session subsystem: they are read
// and cached for the UI, never validated.
type UserProfile struct {
	UID        string         `bson:"_id" json:"uid"`
	Attributes map[string]any `bson:"attributes,omitempty" json:"attributes,omitempty"`
}

// Clone returns a deep-enough copy so cached profiles can be handed out
// without callers mutating the cache.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := &UserProfile{UID: p.UID}
	if p.Attributes != nil {
		cp.Attributes = make(map[string]any, len(p.Attributes))
		for k, v := range p.Attributes {
			cp.Attributes[k] = v
		}
	}
	return cp
}
