// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	deliverycontext "scanengine/internal/delivery/context"
	"scanengine/internal/domain/entity"
	domainerrors "scanengine/internal/domain/errors"
	"scanengine/internal/domain/repository"
	"scanengine/internal/domain/service"
	"scanengine/internal/usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// sessionService implements the SessionUsecase interface. It is the
// authentication state machine: unauthenticated, authenticating,
// authenticated and refreshing map onto the guarded session value plus the
// loading flag. The session is exclusively owned here and mirrored to the
// credential store for durability across restarts.
type sessionService struct {
	store    repository.CredentialStore
	identity service.IdentityProvider
	device   service.DeviceIdentity
	logger   *slog.Logger

	mu      sync.RWMutex
	session entity.Session
	loading bool
}

// SessionServiceParams holds dependencies for sessionService, injected by Fx.
type SessionServiceParams struct {
	fx.In

	Store    repository.CredentialStore
	Identity service.IdentityProvider
	Device   service.DeviceIdentity
	Logger   *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(params SessionServiceParams) usecase.SessionUsecase {
	return &sessionService{
		store:    params.Store,
		identity: params.Identity,
		device:   params.Device,
		logger:   params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Initialize restores the session on process start. Stored credentials are
// confirmed against the identity provider; a failed confirmation falls back
// to a token refresh; a failed refresh forces a clean sign-out. A freshly
// signed-in session tolerates a profile-fetch failure, a restored one does
// not: the stored token has had time to go stale, so the failure triggers
// the refresh path instead.
func (srv *sessionService) Initialize(ctx context.Context) error {
	srv.setLoading(true)
	defer srv.setLoading(false)

	accessToken, err := srv.store.Get(ctx, repository.CredentialAccessToken)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			srv.log(ctx).Debug("no stored session, starting unauthenticated")

			return nil
		}

		return errors.Wrap(domainerrors.ErrCredentialStorage, "failed to read stored access token")
	}

	storedUser, err := srv.loadStoredUser(ctx)
	if err != nil || storedUser == nil {
		srv.log(ctx).Debug("stored session has no cached profile, starting unauthenticated")

		return nil
	}

	tokens := entity.TokenSet{
		AccessToken:  accessToken,
		RefreshToken: srv.readSlot(ctx, repository.CredentialRefreshToken),
		IDToken:      srv.readSlot(ctx, repository.CredentialIDToken),
	}

	// Skip the doomed profile call when the token is visibly expired.
	if !tokenExpired(accessToken) {
		attrs, err := srv.identity.GetUserInfo(ctx, accessToken)
		if err == nil {
			srv.adoptSession(entity.NewUser(attrs), tokens)
			srv.log(ctx).Info("restored session from stored credentials")

			return nil
		}
		srv.log(ctx).Warn("stored token rejected, attempting refresh", slog.Any("error", err))
	}

	return srv.refreshWithToken(ctx, tokens.RefreshToken)
}

// SignUp is a stateless pass-through to the identity provider.
func (srv *sessionService) SignUp(ctx context.Context, input *usecase.SignUpInput) error {
	result, err := srv.identity.SignUp(ctx, service.SignUpInput{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
	})

	return srv.passThroughResult(ctx, "sign up", result, err)
}

// ConfirmSignUp is a stateless pass-through to the identity provider.
func (srv *sessionService) ConfirmSignUp(ctx context.Context, input *usecase.ConfirmSignUpInput) error {
	result, err := srv.identity.ConfirmSignUp(ctx, input.Email, input.Code)

	return srv.passThroughResult(ctx, "confirm sign up", result, err)
}

// ResendConfirmationCode is a stateless pass-through to the identity provider.
func (srv *sessionService) ResendConfirmationCode(ctx context.Context, email string) error {
	result, err := srv.identity.ResendConfirmation(ctx, email)

	return srv.passThroughResult(ctx, "resend confirmation", result, err)
}

// ForgotPassword is a stateless pass-through to the identity provider.
func (srv *sessionService) ForgotPassword(ctx context.Context, email string) error {
	result, err := srv.identity.ForgotPassword(ctx, email)

	return srv.passThroughResult(ctx, "forgot password", result, err)
}

// ConfirmForgotPassword is a stateless pass-through to the identity provider.
func (srv *sessionService) ConfirmForgotPassword(ctx context.Context, input *usecase.ConfirmForgotPasswordInput) error {
	result, err := srv.identity.ConfirmForgotPassword(ctx, input.Email, input.Code, input.NewPassword)

	return srv.passThroughResult(ctx, "confirm forgot password", result, err)
}

// SignIn establishes a session from credentials. Tokens are persisted
// before the profile fetch; the profile fetch is best effort and never
// fails the sign-in.
func (srv *sessionService) SignIn(ctx context.Context, input *usecase.SignInInput) (*usecase.SessionOutput, error) {
	srv.setLoading(true)
	defer srv.setLoading(false)

	srv.log(ctx).Debug("starting sign in", slog.String("email", input.Email))

	result, err := srv.identity.SignIn(ctx, input.Email, input.Password)
	if err != nil {
		srv.log(ctx).Warn("sign in failed", slog.String("email", input.Email), slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrIdentityUnavailable, "sign in failed")
	}
	if !result.Success {
		srv.log(ctx).Warn("sign in rejected", slog.String("email", input.Email))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials.WithDetails(result.ErrorMessage), "sign in rejected")
	}

	if err := srv.persistTokens(ctx, result.Tokens); err != nil {
		return nil, err
	}

	// Best-effort profile fetch: a freshly issued token is trusted even when
	// the profile endpoint is down.
	user := srv.fetchProfile(ctx, result.Tokens.AccessToken)
	if user == nil {
		user = entity.NewUser(map[string]string{entity.AttrEmail: input.Email})
	}
	srv.persistUser(ctx, user)
	srv.adoptSession(user, result.Tokens)

	srv.log(ctx).Info("signed in", slog.String("subject", user.Subject()))

	return &usecase.SessionOutput{User: user}, nil
}

// GuestSignUp establishes a session from the device identifier. The device
// id comes from the platform installation id, with a generated identifier
// as fallback; the resulting profile is flagged as a guest account.
func (srv *sessionService) GuestSignUp(ctx context.Context) (*usecase.SessionOutput, error) {
	srv.setLoading(true)
	defer srv.setLoading(false)

	deviceID, err := srv.device.DeviceID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve device id for guest sign up")
	}

	result, err := srv.identity.GuestSignUp(ctx, deviceID)
	if err != nil {
		srv.log(ctx).Warn("guest sign up failed", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrIdentityUnavailable, "guest sign up failed")
	}
	if !result.Success {
		return nil, errors.Wrap(domainerrors.ErrIdentityRejected.WithDetails(result.ErrorMessage), "guest sign up rejected")
	}

	if err := srv.persistTokens(ctx, result.Tokens); err != nil {
		return nil, err
	}

	user := entity.NewGuestUser(deviceID)
	srv.persistUser(ctx, user)
	srv.adoptSession(user, result.Tokens)

	srv.log(ctx).Info("guest session established", slog.String("subject", user.Subject()))

	return &usecase.SessionOutput{User: user}, nil
}

// SignOut clears the stored credentials and the in-memory session. This is
// a client-side transition, not a negotiated one: it succeeds locally even
// when the store or the provider is unreachable.
func (srv *sessionService) SignOut(ctx context.Context) error {
	if err := srv.store.ClearAll(ctx); err != nil {
		srv.log(ctx).Warn("failed to clear stored credentials during sign out", slog.Any("error", err))
	}

	srv.mu.Lock()
	srv.session = entity.Session{}
	srv.mu.Unlock()

	srv.log(ctx).Info("signed out")

	return nil
}

// RefreshAccessToken exchanges the refresh token for a new token set. A
// rejected refresh is unrecoverable: the session is force-signed-out so no
// stale identity stays live.
func (srv *sessionService) RefreshAccessToken(ctx context.Context) (*usecase.SessionOutput, error) {
	srv.setLoading(true)
	defer srv.setLoading(false)

	srv.mu.RLock()
	refreshToken := srv.session.Tokens.RefreshToken
	srv.mu.RUnlock()

	if refreshToken == "" {
		refreshToken = srv.readSlot(ctx, repository.CredentialRefreshToken)
	}

	if err := srv.refreshWithToken(ctx, refreshToken); err != nil {
		return nil, err
	}

	return &usecase.SessionOutput{User: srv.CurrentUser()}, nil
}

// CurrentUser returns the cached profile of the live session, nil when
// unauthenticated.
func (srv *sessionService) CurrentUser() *entity.User {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	return srv.session.User
}

// IsAuthenticated is recomputed from the session on every call, never
// stored, so it cannot diverge from the user/token pair.
func (srv *sessionService) IsAuthenticated() bool {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	return srv.session.IsAuthenticated()
}

// AccessToken returns the bearer credential attached to authenticated
// outbound calls, empty when unauthenticated.
func (srv *sessionService) AccessToken() string {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	return srv.session.Tokens.AccessToken
}

// IsLoading reports whether a sign-in, restore or refresh is in flight.
func (srv *sessionService) IsLoading() bool {
	srv.mu.RLock()
	defer srv.mu.RUnlock()

	return srv.loading
}

// refreshWithToken runs the refresh transition. Any failure forces a
// sign-out; refresh failure must never leave a stale session live.
func (srv *sessionService) refreshWithToken(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		srv.log(ctx).Warn("no refresh token available, signing out")
		_ = srv.SignOut(ctx)

		return errors.Wrap(domainerrors.ErrSessionExpired, "no refresh token available")
	}

	result, err := srv.identity.Refresh(ctx, refreshToken)
	if err != nil || !result.Success {
		if err != nil {
			srv.log(ctx).Warn("token refresh failed", slog.Any("error", err))
		} else {
			srv.log(ctx).Warn("token refresh rejected")
		}
		_ = srv.SignOut(ctx)

		return errors.Wrap(domainerrors.ErrSessionExpired, "token refresh failed")
	}

	if err := srv.persistTokens(ctx, result.Tokens); err != nil {
		return err
	}

	user := srv.CurrentUser()
	if user == nil {
		user = srv.fetchProfile(ctx, result.Tokens.AccessToken)
	}
	if user == nil {
		if stored, err := srv.loadStoredUser(ctx); err == nil {
			user = stored
		}
	}
	if user == nil {
		// A token set without an identity is not a session.
		_ = srv.SignOut(ctx)

		return errors.Wrap(domainerrors.ErrSessionExpired, "refreshed session has no user profile")
	}

	srv.persistUser(ctx, user)
	srv.adoptSession(user, result.Tokens)
	srv.log(ctx).Info("session refreshed", slog.String("subject", user.Subject()))

	return nil
}

// passThroughResult folds the shared error handling of the stateless
// identity pass-throughs.
func (srv *sessionService) passThroughResult(ctx context.Context, op string, result *service.AuthResult, err error) error {
	if err != nil {
		srv.log(ctx).Warn("identity call failed", slog.String("operation", op), slog.Any("error", err))

		return errors.Wrapf(domainerrors.ErrIdentityUnavailable, "%s failed", op)
	}
	if !result.Success {
		srv.log(ctx).Warn("identity call rejected", slog.String("operation", op))

		return errors.Wrapf(domainerrors.ErrIdentityRejected.WithDetails(result.ErrorMessage), "%s rejected", op)
	}

	return nil
}

// adoptSession installs the new session value atomically.
func (srv *sessionService) adoptSession(user *entity.User, tokens entity.TokenSet) {
	srv.mu.Lock()
	srv.session = entity.Session{User: user, Tokens: tokens}
	srv.mu.Unlock()
}

func (srv *sessionService) setLoading(loading bool) {
	srv.mu.Lock()
	srv.loading = loading
	srv.mu.Unlock()
}

// persistTokens mirrors the three credentials to the store. A storage
// failure is terminal for the operation that needed durability.
func (srv *sessionService) persistTokens(ctx context.Context, tokens entity.TokenSet) error {
	slots := map[repository.CredentialKind]string{
		repository.CredentialAccessToken:  tokens.AccessToken,
		repository.CredentialRefreshToken: tokens.RefreshToken,
		repository.CredentialIDToken:      tokens.IDToken,
	}

	for kind, value := range slots {
		if value == "" {
			continue
		}
		if err := srv.store.Set(ctx, kind, value); err != nil {
			srv.log(ctx).Error("failed to persist credential", slog.String("slot", string(kind)), slog.Any("error", err))

			return errors.Wrap(domainerrors.ErrCredentialStorage, "failed to persist session credentials")
		}
	}

	return nil
}

// persistUser mirrors the cached profile to the store, best effort.
func (srv *sessionService) persistUser(ctx context.Context, user *entity.User) {
	encoded, err := json.Marshal(user.Attributes)
	if err != nil {
		srv.log(ctx).Warn("failed to encode user profile", slog.Any("error", err))

		return
	}
	if err := srv.store.Set(ctx, repository.CredentialUserProfile, string(encoded)); err != nil {
		srv.log(ctx).Warn("failed to persist user profile", slog.Any("error", err))
	}
}

// loadStoredUser reads the cached profile back from the store.
func (srv *sessionService) loadStoredUser(ctx context.Context) (*entity.User, error) {
	raw, err := srv.store.Get(ctx, repository.CredentialUserProfile)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to read stored user profile")
	}

	attrs := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil, errors.Wrap(err, "failed to decode stored user profile")
	}

	return entity.NewUser(attrs), nil
}

// fetchProfile fetches the profile attributes, returning nil on failure.
func (srv *sessionService) fetchProfile(ctx context.Context, accessToken string) *entity.User {
	attrs, err := srv.identity.GetUserInfo(ctx, accessToken)
	if err != nil {
		srv.log(ctx).Warn("profile fetch failed", slog.Any("error", err))

		return nil
	}

	return entity.NewUser(attrs)
}

// readSlot reads one credential slot, treating every failure as empty.
func (srv *sessionService) readSlot(ctx context.Context, kind repository.CredentialKind) string {
	value, err := srv.store.Get(ctx, kind)
	if err != nil {
		return ""
	}

	return value
}

// tokenExpired inspects the exp claim without verifying the signature.
// Verification is the identity provider's job; this only avoids spending a
// round trip on a token that is visibly past its lifetime. Opaque tokens
// parse as never-expired and are validated remotely.
func tokenExpired(tokenString string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return exp.Before(time.Now())
}
