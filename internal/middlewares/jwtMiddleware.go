package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"toolkithub/internal/services"
	"toolkithub/internal/utils"
)

const (
	AdminTokenHeader   = "X-Admin-Token"
	AdminSessionCookie = "admin_session"
	UserTokenCookie    = "jwt"
)

// Authenticator resolves user tokens and admin sessions into the request
// context.
type Authenticator struct {
	jwtKey []byte
	admin  services.AdminService
}

func NewAuthenticator(jwtSecret string, admin services.AdminService) *Authenticator {
	return &Authenticator{jwtKey: []byte(jwtSecret), admin: admin}
}

// userToken reads the bearer token, falling back to the jwt cookie.
func userToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", false
		}
		return header[len("Bearer "):], true
	}
	if c, err := r.Cookie(UserTokenCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

// AdminToken reads the admin session from the header or its cookie.
func AdminToken(r *http.Request) string {
	if t := r.Header.Get(AdminTokenHeader); t != "" {
		return t
	}
	if c, err := r.Cookie(AdminSessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// identify attaches whatever identities the request proves. It reports a
// non-nil error only for a presented user token that fails verification
// while no valid admin session accompanies it.
func (a *Authenticator) identify(r *http.Request) (*http.Request, error) {
	ctx := r.Context()
	admin := false
	if token := AdminToken(r); token != "" && a.admin != nil {
		if _, err := a.admin.Validate(token); err == nil {
			ctx = utils.WithAdmin(ctx)
			admin = true
		}
	}
	if token, ok := userToken(r); ok {
		claims, err := utils.ParseJWT(a.jwtKey, token)
		switch {
		case err == nil && !claims.Admin:
			ctx = utils.WithUserID(ctx, claims.ID)
		case admin:
			log.Debug().Str("path", r.URL.Path).Msg("Ignoring invalid user token alongside admin session")
		default:
			return r, errors.New("invalid token")
		}
	}
	return r.WithContext(ctx), nil
}

// AuthMiddleware requires a valid user token or a valid admin session.
func (a *Authenticator) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, err := a.identify(r)
		if err != nil {
			utils.SendJSONError(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		if _, ok := utils.UserIDFromContext(r.Context()); !ok && !utils.IsAdmin(r.Context()) {
			utils.SendJSONError(w, "Missing token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OptionalAuth attaches identities when present and never rejects.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identified, err := a.identify(r); err == nil {
			r = identified
		}
		next.ServeHTTP(w, r)
	})
}

// AdminMiddleware requires an unexpired admin session.
func (a *Authenticator) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.admin == nil || !a.admin.Enabled() {
			utils.SendJSONError(w, "Admin access is not configured", http.StatusServiceUnavailable)
			return
		}
		if _, err := a.admin.Validate(AdminToken(r)); err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("Admin session rejected")
			utils.SendJSONError(w, err.Error(), http.StatusUnauthorized)
			return
		}
		ctx := utils.WithAdmin(r.Context())
		if identified, err := a.identify(r); err == nil {
			ctx = utils.WithAdmin(identified.Context())
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
