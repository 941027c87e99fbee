package domain

import "context"

// AuthStateCallback receives the signed-in user, or nil when signed out.
type AuthStateCallback func(user *AuthUser)

// AuthStateSource is the identity provider contract consumed by the auth
// state publisher. Auth-state changes are delivered strictly in order to
// each subscriber; the returned function cancels the subscription.
type AuthStateSource interface {
	SubscribeAuthState(cb AuthStateCallback) (unsubscribe func())
	SignOut(ctx context.Context) error
}
