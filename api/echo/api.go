// Package echo exposes the auth/session state to the dashboard frontend
// over HTTP.
package echo

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/plutus-app/plutus/domain"
	"github.com/plutus-app/plutus/errors"
	"github.com/plutus-app/plutus/services"
	"github.com/rs/zerolog/log"
)

// CredentialSignIn is the slice of the identity provider the login endpoint
// needs.
type CredentialSignIn interface {
	SignIn(ctx context.Context, email, password string) (*domain.AuthUser, error)
}

// SessionAPI holds the handler dependencies.
type SessionAPI struct {
	publisher *services.AuthStatePublisher
	profiles  domain.ProfileRepository
	signIn    CredentialSignIn
	healthz   func(ctx context.Context) error
}

// NewSessionAPI initializes the session API. healthz may be nil when no
// backing-store health probe is wired.
func NewSessionAPI(
	publisher *services.AuthStatePublisher,
	profiles domain.ProfileRepository,
	signIn CredentialSignIn,
	healthz func(ctx context.Context) error,
) *SessionAPI {
	return &SessionAPI{
		publisher: publisher,
		profiles:  profiles,
		signIn:    signIn,
		healthz:   healthz,
	}
}

// RegisterRoutes registers the auth and session routes.
func (a *SessionAPI) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", a.HealthHandler)
	e.POST("/v1/auth/login", a.LoginHandler)

	authed := e.Group("", a.requireAuth)
	authed.GET("/v1/auth/me", a.MeHandler)
	authed.POST("/v1/auth/logout", a.LogoutHandler)
	authed.PUT("/v1/auth/profile", a.UpdateProfileHandler)
	authed.GET("/v1/sessions", a.ListSessionsHandler)
	authed.DELETE("/v1/sessions/:id", a.EndSessionHandler)
	authed.POST("/v1/sessions/end-others", a.EndOtherSessionsHandler)
}

// requireAuth is the route guard: unauthenticated requests get a 401 JSON
// error instead of reaching the handler.
func (a *SessionAPI) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !a.publisher.State().IsAuthenticated() {
			return c.JSON(http.StatusUnauthorized, errors.NewUnauthenticated("Sign in required"))
		}
		return next(c)
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type stateResponse struct {
	User            *domain.AuthUser    `json:"user"`
	Profile         *domain.UserProfile `json:"profile"`
	Loading         bool                `json:"loading"`
	IsAuthenticated bool                `json:"isAuthenticated"`
}

func (a *SessionAPI) stateResponse() stateResponse {
	state := a.publisher.State()
	return stateResponse{
		User:            state.CurrentUser,
		Profile:         state.Profile,
		Loading:         state.Loading,
		IsAuthenticated: state.IsAuthenticated(),
	}
}

// LoginHandler verifies credentials against the identity provider. The
// auth-state change it triggers drives profile loading and session creation
// before the provider call returns.
func (a *SessionAPI) LoginHandler(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errors.NewInvalidRequest("Malformed login request"))
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, errors.NewInvalidRequest("Email and password are required"))
	}

	if _, err := a.signIn.SignIn(c.Request().Context(), req.Email, req.Password); err != nil {
		log.Warn().Str("email", req.Email).Msg("login rejected")
		return c.JSON(http.StatusUnauthorized, errors.NewUnauthenticated("Invalid email or password"))
	}
	return c.JSON(http.StatusOK, a.stateResponse())
}

// MeHandler returns the current auth state.
func (a *SessionAPI) MeHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, a.stateResponse())
}

// LogoutHandler terminates the current session and signs out. Failures are
// surfaced so the UI can offer a retry.
func (a *SessionAPI) LogoutHandler(c echo.Context) error {
	if err := a.publisher.Logout(c.Request().Context()); err != nil {
		if stderrors.Is(err, errors.ErrNotAuthenticated) {
			return c.JSON(http.StatusUnauthorized, errors.NewUnauthenticated("Not signed in"))
		}
		log.Error().Err(err).Msg("logout failed")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Logout failed"))
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateProfileHandler persists the profile document and then refreshes the
// published copy. The publisher itself never writes profiles.
func (a *SessionAPI) UpdateProfileHandler(c echo.Context) error {
	state := a.publisher.State()

	var attrs map[string]any
	if err := c.Bind(&attrs); err != nil {
		return c.JSON(http.StatusBadRequest, errors.NewInvalidRequest("Malformed profile document"))
	}

	profile := &domain.UserProfile{UID: state.CurrentUser.UID, Attributes: attrs}
	if err := a.profiles.UpsertProfile(c.Request().Context(), profile); err != nil {
		log.Error().Err(err).Str("uid", profile.UID).Msg("profile update failed")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Could not save profile"))
	}
	a.publisher.UpdateUserData(profile)
	return c.JSON(http.StatusOK, a.stateResponse())
}

// ListSessionsHandler returns the user's sessions, most recent first, with
// the current one flagged.
func (a *SessionAPI) ListSessionsHandler(c echo.Context) error {
	views, err := a.publisher.GetUserSessions(c.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Could not list sessions"))
	}
	return c.JSON(http.StatusOK, views)
}

// EndSessionHandler terminates one session by id.
func (a *SessionAPI) EndSessionHandler(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, errors.NewInvalidRequest("Session id is required"))
	}
	if err := a.publisher.EndSession(c.Request().Context(), id); err != nil {
		log.Error().Err(err).Str("sessionID", id).Msg("failed to end session")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Could not end session"))
	}
	return c.NoContent(http.StatusNoContent)
}

// EndOtherSessionsHandler terminates every session except the current one.
func (a *SessionAPI) EndOtherSessionsHandler(c echo.Context) error {
	if err := a.publisher.EndAllOtherSessions(c.Request().Context()); err != nil {
		log.Error().Err(err).Msg("failed to end other sessions")
		return c.JSON(http.StatusInternalServerError, errors.NewServerError("Could not end other sessions"))
	}
	return c.NoContent(http.StatusNoContent)
}

// HealthHandler reports liveness of the service and its backing store.
func (a *SessionAPI) HealthHandler(c echo.Context) error {
	if a.healthz != nil {
		if err := a.healthz(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, errors.NewServerError("Backing store unreachable"))
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
