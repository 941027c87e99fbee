package mongodb

const (
	// SessionsCollection holds one document per logged-in client instance.
	SessionsCollection = "sessions"
	// ProfilesCollection holds one profile document per identity-provider
	// account, keyed by uid.
	ProfilesCollection = "users"
)
