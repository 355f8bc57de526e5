package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	"github.com/rs/zerolog/log"

	"toolkithub/internal/config"
	"toolkithub/internal/metrics"
	"toolkithub/internal/models"
	"toolkithub/internal/repositories"
	"toolkithub/internal/utils"
)

const MaxAge = 86400 * 30

type AuthService interface {
	HandleLogin(ctx context.Context, u goth.User) (string, error)
}

type authService struct {
	userRepo  repositories.UserRepository
	jwtSecret []byte
}

func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) AuthService {
	return &authService{userRepo: userRepo, jwtSecret: []byte(jwtSecret)}
}

// InitializeGoth installs the session store gothic keeps OAuth state in and
// registers every provider with credentials configured. It returns the names
// of the registered providers.
func InitializeGoth(cfg *config.Config) []string {
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))
	store.MaxAge(MaxAge)

	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.CookieSecure
	store.Options.SameSite = http.SameSiteLaxMode

	gothic.Store = store

	var providers []goth.Provider
	var names []string
	if cfg.GoogleClientID != "" {
		providers = append(providers, google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, callbackURL(cfg, "google"), "email", "profile"))
		names = append(names, "google")
	}
	if cfg.GitHubClientID != "" {
		providers = append(providers, github.New(cfg.GitHubClientID, cfg.GitHubClientSecret, callbackURL(cfg, "github"), "read:user", "user:email"))
		names = append(names, "github")
	}
	goth.UseProviders(providers...)

	log.Info().Strs("providers", names).Msg("Goth providers initialized")
	return names
}

func callbackURL(cfg *config.Config, provider string) string {
	return fmt.Sprintf("%s/api/auth/%s/callback", cfg.OAuthCallbackBaseURL, provider)
}

func (a *authService) HandleLogin(ctx context.Context, u goth.User) (string, error) {
	log.Info().Str("provider", u.Provider).Msg("Attempting to handle login for user")
	if u.UserID == "" || u.Provider == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("social", "failed").Inc()
		log.Error().Msg("Missing provider identity in Goth user data")
		return "", errors.New("missing provider identity")
	}

	name := u.Name
	if name == "" {
		name = u.NickName
	}
	user, err := a.userRepo.UpsertFromProvider(ctx, &models.User{
		Provider:       u.Provider,
		ProviderUserID: u.UserID,
		Name:           name,
		Email:          u.Email,
		PhotoURL:       u.AvatarURL,
	})
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("social", "failed").Inc()
		log.Error().Err(err).Str("provider", u.Provider).Msg("Error storing user")
		return "", errors.New("error storing user")
	}
	if user.CreatedAt.Equal(user.UpdatedAt) {
		metrics.NewUsersTotal.Inc()
		log.Info().Str("userID", user.ID.Hex()).Msg("New user created")
	}

	token, err := utils.GenerateJWT(a.jwtSecret, user.ID)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("social", "failed").Inc()
		log.Error().Err(err).Str("userID", user.ID.Hex()).Msg("Error generating JWT for user")
		return "", errors.New("error generating JWT")
	}
	metrics.LoginAttemptsTotal.WithLabelValues("social", "success").Inc()
	log.Info().Str("userID", user.ID.Hex()).Msg("JWT generated successfully")

	return token, nil
}
