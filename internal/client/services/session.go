package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dipcp/dipcp/internal/client/models"
	"github.com/dipcp/dipcp/internal/client/settings"
	"github.com/dipcp/dipcp/internal/common"
	"github.com/dipcp/dipcp/internal/logging"
	"github.com/dipcp/dipcp/internal/timex"
)

const (
	credentialsKey = common.SettingsPrefix + "credentials"
	preferencesKey = common.SettingsPrefix + "preferences"
)

// TokenVerifier resolves a token to the user it authenticates and keeps the
// token installed for subsequent authenticated calls. Satisfied by
// *github.Gateway.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*models.User, error)
	SetToken(token string)
}

// Preferences are the persisted user preferences. Presentation is out of
// scope here; this layer only stores them.
type Preferences struct {
	SyncInterval timex.Duration `json:"sync_interval"`
	Theme        string         `json:"theme"`
	Language     string         `json:"language"`
}

// DefaultPreferences returns the preferences of a fresh profile.
func DefaultPreferences() Preferences {
	return Preferences{
		SyncInterval: timex.Duration{Duration: 5 * time.Minute},
		Theme:        "light",
		Language:     "en",
	}
}

// Session manages the saved login state and preferences.
type Session struct {
	settings *settings.Store
	verifier TokenVerifier
	log      logging.Logger
}

func NewSession(st *settings.Store, verifier TokenVerifier, log logging.Logger) *Session {
	return &Session{settings: st, verifier: verifier, log: log}
}

// Login verifies the token against the API and persists the credentials on
// success. The resolved user is returned for display.
func (s *Session) Login(ctx context.Context, token string) (*models.User, error) {
	user, err := s.verifier.VerifyToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}
	creds := models.Credentials{Token: token, User: *user}
	if err := s.settings.Set(credentialsKey, creds); err != nil {
		return nil, fmt.Errorf("saving credentials: %w", err)
	}
	s.log.Info(ctx, "logged in", "login", user.Login)
	return user, nil
}

// Restore re-installs saved credentials at startup. Returns the saved user,
// or common.ErrNotFound when nobody is logged in.
func (s *Session) Restore(ctx context.Context) (*models.User, error) {
	creds, err := s.Credentials()
	if err != nil {
		return nil, err
	}
	s.verifier.SetToken(creds.Token)
	s.log.Debug(ctx, "session restored", "login", creds.User.Login)
	return &creds.User, nil
}

// Credentials returns the saved login state, or common.ErrNotFound.
func (s *Session) Credentials() (*models.Credentials, error) {
	var creds models.Credentials
	if err := s.settings.Get(credentialsKey, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Logout forgets the saved credentials and clears the installed token.
func (s *Session) Logout(ctx context.Context) error {
	s.verifier.SetToken("")
	if err := s.settings.Delete(credentialsKey); err != nil {
		return fmt.Errorf("removing credentials: %w", err)
	}
	s.log.Info(ctx, "logged out")
	return nil
}

// Preferences returns the saved preferences, falling back to defaults when
// none were saved yet.
func (s *Session) Preferences() (Preferences, error) {
	prefs := DefaultPreferences()
	err := s.settings.Get(preferencesKey, &prefs)
	if errors.Is(err, common.ErrNotFound) {
		return prefs, nil
	}
	if err != nil {
		return prefs, err
	}
	return prefs, nil
}

// SavePreferences overwrites the saved preferences.
func (s *Session) SavePreferences(prefs Preferences) error {
	return s.settings.Set(preferencesKey, prefs)
}
