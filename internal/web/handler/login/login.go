package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/flowboard/flowboard/internal/auth"
	"github.com/flowboard/flowboard/internal/config"
	"github.com/flowboard/flowboard/internal/db/models"
	"github.com/flowboard/flowboard/internal/stats"
	"github.com/flowboard/flowboard/internal/web/handler"
	"github.com/flowboard/flowboard/internal/web/session"
)

const (
	// Path is the path to the login endpoint.
	Path = "/login"

	// AuthTypeLocal selects local database authentication.
	AuthTypeLocal = "local"

	// AuthTypeLDAP selects directory authentication.
	AuthTypeLDAP = "ldap"
)

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	db  *gorm.DB

	store     *auth.UserStore
	localAuth *auth.LocalProvider
	ldapAuth  *auth.LDAPProvider
	groupSync *auth.Service
}

// Handler is the login handler.
var Handler = Service{}

// credentials is the login form payload.
type credentials struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	AuthType string `form:"auth_type" json:"auth_type"`
}

// Init initializes the login handler. A directory backend that is enabled
// but misconfigured is reported here so the process fails at startup, not
// on the first login attempt.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) error {
	if app == nil || cfg == nil || db == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.db = db
	s.cfg = cfg
	s.store = auth.NewUserStore(db)
	s.localAuth = auth.NewLocalProvider(db)
	s.groupSync = auth.NewService(db)

	if cfg.Auth.LDAP.Enabled {
		provider, err := auth.NewLDAPProvider(&cfg.Auth.LDAP)
		if err != nil {
			return err
		}

		s.ldapAuth = provider
	}

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get reports which authentication methods are available.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"local_db_enabled": s.cfg.Auth.LocalDB.Enabled,
		"ldap_enabled":     s.cfg.Auth.LDAP.Enabled,
	})
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	creds := new(credentials)

	if err := c.BodyParser(creds); err != nil {
		return renderError(c, fiber.StatusBadRequest, ErrInvalidFormData)
	}

	authType, err := s.pickAuthType(creds.AuthType)
	if err != nil {
		return renderError(c, fiber.StatusBadRequest, err)
	}

	sessData, err := s.authenticate(authType, creds.Username, creds.Password)
	if err != nil {
		status := fiber.StatusInternalServerError

		switch {
		case errors.Is(err, ErrInvalidCredentials):
			status = fiber.StatusUnauthorized
		case errors.Is(err, ErrDirectoryUnavailable):
			status = fiber.StatusServiceUnavailable
		}

		return renderError(c, status, err)
	}

	sessionID := session.GenerateSessionID()

	if err = sessData.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")

		return renderError(c, fiber.StatusInternalServerError, ErrInternalServerError)
	}

	stats.SessionOpened()

	// set login cookie
	cookieSettings := &fiber.Cookie{
		Name:     "session",
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax", // TODO: make this configurable
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	return c.Redirect("/dashboard")
}

// pickAuthType resolves the requested authentication method against the
// enabled backends. An empty request picks local first, then ldap.
func (s *Service) pickAuthType(requested string) (string, error) {
	switch requested {
	case "":
		if s.cfg.Auth.LocalDB.Enabled {
			return AuthTypeLocal, nil
		}

		if s.cfg.Auth.LDAP.Enabled {
			return AuthTypeLDAP, nil
		}

		return "", ErrNoAuthMethod
	case AuthTypeLocal:
		if !s.cfg.Auth.LocalDB.Enabled {
			return "", ErrLocalAuthDisabled
		}

		return AuthTypeLocal, nil
	case AuthTypeLDAP:
		if !s.cfg.Auth.LDAP.Enabled || s.ldapAuth == nil {
			return "", ErrLDAPAuthDisabled
		}

		return AuthTypeLDAP, nil
	default:
		return "", ErrInvalidAuthMethod
	}
}

// authenticate verifies the credentials with the selected backend and
// builds the session data of the authenticated user.
func (s *Service) authenticate(authType, username, password string) (*session.Data, error) {
	switch authType {
	case AuthTypeLocal:
		return s.authenticateLocal(username, password)
	case AuthTypeLDAP:
		return s.authenticateLDAP(username, password)
	default:
		return nil, ErrInvalidAuthMethod
	}
}

func (s *Service) authenticateLocal(username, password string) (*session.Data, error) {
	user, err := s.localAuth.Authenticate(username, password)
	if err != nil {
		stats.LoginAttempt(AuthTypeLocal, stats.OutcomeInvalidCredentials)
		log.Info().Str("username", username).Msg("local authentication failed")

		return nil, ErrInvalidCredentials
	}

	stats.LoginAttempt(AuthTypeLocal, stats.OutcomeSuccess)

	// local accounts exist as administrative fallback and are unrestricted
	return newSessionData(user, true, true, nil), nil
}

func (s *Service) authenticateLDAP(username, password string) (*session.Data, error) {
	if err := s.ldapAuth.TryLogin(username, password); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			stats.LoginAttempt(AuthTypeLDAP, stats.OutcomeInvalidCredentials)
			log.Info().Str("username", username).Msg("directory authentication failed")

			return nil, ErrInvalidCredentials
		case errors.Is(err, auth.ErrDirectoryUnreachable):
			stats.LoginAttempt(AuthTypeLDAP, stats.OutcomeUnreachable)
			log.Error().Err(err).Msg("directory unreachable during login")

			return nil, ErrDirectoryUnavailable
		case errors.Is(err, auth.ErrMalformedDirectoryResponse):
			stats.LoginAttempt(AuthTypeLDAP, stats.OutcomeMalformed)
			log.Error().Err(err).Msg("malformed directory response during login")

			return nil, ErrInternalServerError
		default:
			stats.LoginAttempt(AuthTypeLDAP, stats.OutcomeError)
			log.Error().Err(err).Msg("unexpected error during directory login")

			return nil, ErrInternalServerError
		}
	}

	user, err := s.store.FindByUsername(username)
	if errors.Is(err, auth.ErrUserNotFound) {
		// directory users are created on first successful login
		user, err = s.store.CreateUser(username)
	}

	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("failed to load user record")

		return nil, ErrInternalServerError
	}

	if !user.Active {
		stats.LoginAttempt(AuthTypeLDAP, stats.OutcomeInvalidCredentials)
		log.Info().Str("username", username).Msg("login attempt for deactivated account")

		return nil, ErrInvalidCredentials
	}

	identity, err := s.ldapAuth.NewIdentity(user)
	if err != nil {
		stats.LoginAttempt(AuthTypeLDAP, stats.OutcomeError)
		log.Error().Err(err).Str("username", username).Msg("failed to resolve identity")

		return nil, ErrInternalServerError
	}

	if err := s.groupSync.SyncUserGroups(user.ID, identity.Groups(), models.GroupSourceLDAP); err != nil {
		// membership persistence is best effort, the login still succeeds
		log.Warn().Err(err).Str("username", username).Msg("failed to persist group memberships")
	}

	stats.LoginAttempt(AuthTypeLDAP, stats.OutcomeSuccess)

	return newSessionData(user, identity.IsSuperuser(), identity.HasDataProfilingAccess(), identity.Groups()), nil
}

func newSessionData(user *models.User, superuser, dataProfiler bool, groups []string) *session.Data {
	data := &session.Data{
		User:         *user,
		Superuser:    superuser,
		DataProfiler: dataProfiler,
		Groups:       groups,
	}

	// the password hash has no business in the session store
	data.User.Password = ""

	return data
}

func renderError(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
