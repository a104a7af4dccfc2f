package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc"
	"golang.org/x/oauth2"

	"ai-workflow-hub/backend/internal/config"
	"ai-workflow-hub/backend/internal/repository"
	"ai-workflow-hub/backend/pkg/models"
)

// DevUserEmail is the identity every request assumes in dev bypass mode.
const DevUserEmail = "dev@localhost"

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type contextKey string

const userIDKey contextKey = "user_id"

// WithUserID returns a copy of ctx carrying the authenticated user's id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the id stored by RequireAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// Auth performs OpenID Connect authentication against an Okta issuer and maps
// the verified email to a local user.
type Auth struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	apiVerifier  *oidc.IDTokenVerifier
	users        repository.UserStore
	logger       Logger
	authBypass   bool
}

// New creates an Auth from the application configuration. Outside dev bypass
// mode it discovers the provider and prepares the token verifiers.
func New(ctx context.Context, cfg *config.Config, users repository.UserStore, logger Logger) (*Auth, error) {
	a := &Auth{
		users:      users,
		logger:     logger,
		authBypass: cfg.IsDev() && cfg.DevModeBypass,
	}
	if a.authBypass {
		logger.Info("Authentication bypass enabled", "user", DevUserEmail)
		return a, nil
	}

	if cfg.Auth.OktaDomain == "" || cfg.Auth.ClientID == "" ||
		cfg.Auth.ClientSecret == "" || cfg.Auth.RedirectURL == "" {
		return nil, errors.New("auth configuration is incomplete")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Auth.OktaDomain)
	if err != nil {
		return nil, err
	}

	a.oauth2Config = &oauth2.Config{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  cfg.Auth.RedirectURL,
		Scopes:       []string{ScopeOpenID, ScopeProfile, ScopeEmail},
	}
	a.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.Auth.ClientID})
	// Access tokens carry the API audience rather than the client id.
	a.apiVerifier = provider.Verifier(&oidc.Config{SkipClientIDCheck: true})
	return a, nil
}

// LoginHandler starts the authorization code flow. The state value is kept in
// a cookie and checked on callback.
func (a *Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if a.authBypass {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	state, err := generateState()
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// CallbackHandler completes the code flow and stores the verified ID token in
// a session cookie.
func (a *Auth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if a.authBypass {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	cookie, err := r.Cookie("oauthstate")
	if err != nil || r.URL.Query().Get("state") != cookie.Value {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	token, err := a.oauth2Config.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		http.Error(w, "token exchange failed", http.StatusInternalServerError)
		return
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		http.Error(w, "no id_token in token response", http.StatusInternalServerError)
		return
	}
	if _, err := a.verifier.Verify(r.Context(), rawIDToken); err != nil {
		http.Error(w, "failed to verify id token", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "id_token",
		Value:    rawIDToken,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RequireAuth is middleware that authenticates the request by bearer token or
// session cookie, resolves the local user (creating it on first sight) and
// stores the user's id in the request context.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := DevUserEmail
		if !a.authBypass {
			token, err := a.verify(r)
			if errors.Is(err, http.ErrNoCookie) {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if err != nil {
				http.Error(w, "invalid token: "+err.Error(), http.StatusUnauthorized)
				return
			}

			var claims struct {
				Email string `json:"email"`
			}
			if err := token.Claims(&claims); err != nil {
				http.Error(w, "failed to parse token claims", http.StatusUnauthorized)
				return
			}
			email = claims.Email
		}

		if _, _, ok := strings.Cut(email, "@"); !ok {
			http.Error(w, "invalid email format in token", http.StatusUnauthorized)
			return
		}

		user, err := a.resolveUser(r.Context(), email)
		if err != nil {
			a.logger.Error("failed to resolve user", "email", email, "error", err)
			http.Error(w, "failed to resolve user", http.StatusInternalServerError)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), user.ID)))
	})
}

// verify checks the bearer token if present, otherwise the session cookie.
func (a *Auth) verify(r *http.Request) (*oidc.IDToken, error) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return a.apiVerifier.Verify(r.Context(), strings.TrimPrefix(header, "Bearer "))
	}
	cookie, err := r.Cookie("id_token")
	if err != nil {
		return nil, err
	}
	return a.verifier.Verify(r.Context(), cookie.Value)
}

func (a *Auth) resolveUser(ctx context.Context, email string) (*models.User, error) {
	user, err := a.users.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user = &models.User{Email: email, Role: models.UserRoleUser}
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	a.logger.Info("Provisioned user", "email", email, "user_id", user.ID)
	return user, nil
}

// LogoutHandler clears the session cookie and redirects to the home page.
func (a *Auth) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   "id_token",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
