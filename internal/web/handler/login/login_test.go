package login

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage"
	"gorm.io/gorm"

	"github.com/flowboard/flowboard/internal/auth"
	"github.com/flowboard/flowboard/internal/config"
	"github.com/flowboard/flowboard/internal/db/models"
	websess "github.com/flowboard/flowboard/internal/web/session"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{})
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Group{}, &models.UserGroup{}); err != nil {
		t.Fatalf("failed to migrate models: %v", err)
	}

	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		DevMode: false,
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
		Auth: config.Auth{
			LocalDB: config.LocalDBAuth{Enabled: true},
			LDAP:    config.LDAP{Enabled: false},
		},
	}
}

// testStorage is a minimal in-memory implementation of storage.Storage for tests.
type testStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ storage.Storage = (*testStorage)(nil)

func (s *testStorage) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := s.data[key]
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *testStorage) Set(key string, val []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string][]byte)
	}

	buf := make([]byte, len(val))
	copy(buf, val)
	s.data[key] = buf

	return nil
}

func (s *testStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)

	return nil
}

func (s *testStorage) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string][]byte)

	return nil
}

func (s *testStorage) Close() error { return nil }

func initSessionStore() {
	// Initialize a fresh in-memory session store for each test.
	websess.Init(&testStorage{data: make(map[string][]byte)})
}

// fakeDialer is an in-memory directory for end-to-end LDAP login tests.
type fakeDialer struct {
	passwords map[string]string
	memberOf  []string
}

func (d *fakeDialer) Bind(dn, password string) (auth.Binding, error) {
	if want, ok := d.passwords[dn]; !ok || want != password {
		return nil, fmt.Errorf("%w: bind failed", auth.ErrDirectoryUnreachable)
	}

	return &fakeBinding{dialer: d, dn: dn}, nil
}

type fakeBinding struct {
	dialer *fakeDialer
	dn     string
}

func (b *fakeBinding) DN() string { return b.dn }

func (b *fakeBinding) Search(_, filter string, _ auth.Scope, _ []string) ([]auth.Entry, error) {
	if !strings.Contains(filter, "(uid=bob)") {
		return nil, nil
	}

	attrs := map[string][]string{"uid": {"bob"}}
	if len(b.dialer.memberOf) > 0 {
		attrs["memberOf"] = b.dialer.memberOf
	}

	return []auth.Entry{{DN: "uid=bob,dc=example,dc=com", Attributes: attrs}}, nil
}

func (b *fakeBinding) Unbind() error { return nil }

func ldapTestConfig() config.LDAP {
	return config.LDAP{
		Enabled:      true,
		URI:          "ldaps://ldap.example.com:636",
		BindUser:     "cn=svc,dc=example,dc=com",
		BindPassword: "svcpass",
		BaseDN:       "dc=example,dc=com",
		UserFilter:   "(objectClass=person)",
		UserNameAttr: "uid",
		CacheTTL:     time.Hour,
	}
}

func newLDAPService(t *testing.T, app *fiber.App, cfg *config.Config, db *gorm.DB, dialer auth.Dialer) *Service {
	t.Helper()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	ldapCfg := cfg.Auth.LDAP

	provider, err := auth.NewLDAPProviderWithDialer(&ldapCfg, dialer)
	if err != nil {
		t.Fatalf("NewLDAPProviderWithDialer() error = %v", err)
	}

	s.ldapAuth = provider

	return &s
}

func TestPickAuthType_DefaultsAndErrors(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	// No requested type, Local enabled: choose local
	at, err := s.pickAuthType("")
	if err != nil || at != AuthTypeLocal {
		t.Fatalf("expected local, got at=%q err=%v", at, err)
	}

	// Disable Local, enable LDAP but ldapAuth nil: default pick returns ldap
	s.cfg.Auth.LocalDB.Enabled = false
	s.cfg.Auth.LDAP.Enabled = true

	if at, err = s.pickAuthType(""); err != nil || at != AuthTypeLDAP {
		t.Fatalf("expected default pick ldap, got at=%q err=%v", at, err)
	}

	// Explicitly asking ldap with Enabled but ldapAuth == nil: ErrLDAPAuthDisabled
	if _, err = s.pickAuthType(AuthTypeLDAP); !errors.Is(err, ErrLDAPAuthDisabled) {
		t.Fatalf("expected ErrLDAPAuthDisabled, got %v", err)
	}

	// Provide a non-nil ldapAuth and keep Enabled: selecting ldap succeeds
	s.ldapAuth = &auth.LDAPProvider{}
	if at, err = s.pickAuthType(AuthTypeLDAP); err != nil || at != AuthTypeLDAP {
		t.Fatalf("expected ldap, got at=%q err=%v", at, err)
	}

	// Nothing enabled at all
	s.cfg.Auth.LDAP.Enabled = false
	if _, err = s.pickAuthType(""); !errors.Is(err, ErrNoAuthMethod) {
		t.Fatalf("expected ErrNoAuthMethod, got %v", err)
	}

	// Invalid method
	if _, err = s.pickAuthType("unknown"); !errors.Is(err, ErrInvalidAuthMethod) {
		t.Fatalf("expected ErrInvalidAuthMethod, got %v", err)
	}
}

func TestAuthenticate_Local(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	app := newTestApp()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	// Create a local user
	lp := auth.NewLocalProvider(db)

	user, err := lp.CreateUser("alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if !user.Active {
		t.Fatalf("new user must be active by default")
	}

	// Success
	got, err := s.authenticate(AuthTypeLocal, "alice", "secret")
	if err != nil || got == nil || got.User.Username != "alice" {
		t.Fatalf("expected successful auth for alice, got data=%v err=%v", got, err)
	}

	// local accounts are administrative fallback, unrestricted
	if !got.Superuser || !got.DataProfiler {
		t.Fatalf("local account must carry both capabilities, got %+v", got)
	}

	// the password hash must never reach the session store
	if got.User.Password != "" {
		t.Fatalf("expected password to be stripped from session data")
	}

	// Wrong password
	if _, err = s.authenticate(AuthTypeLocal, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	// Unknown user collapses into the same generic error
	if _, err = s.authenticate(AuthTypeLocal, "nobody", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func performPost(t *testing.T, app *fiber.App, target string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func TestPost_Local_Success_SetsCookieAndRedirects(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.DevMode = false // Secure cookie expected

	app := newTestApp()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	// Create user for local auth
	lp := auth.NewLocalProvider(db)
	if _, err := lp.CreateUser("bob", "bob@example.com", "s3cr3t"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	form := url.Values{
		"username":  {"bob"},
		"password":  {"s3cr3t"},
		"auth_type": {"local"},
	}
	resp := performPost(t, app, Path+"/", form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %s", loc)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if !strings.Contains(setCookie, "session=") {
		t.Fatalf("expected session cookie, got %q", setCookie)
	}

	if !strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("expected Secure flag on cookie when DevMode=false, got %q", setCookie)
	}
}

func TestPost_Local_Success_DevModeDisablesSecure(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.DevMode = true // Secure=false expected

	app := newTestApp()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	lp := auth.NewLocalProvider(db)
	if _, err := lp.CreateUser("carol", "carol@example.com", "pass"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	form := url.Values{
		"username":  {"carol"},
		"password":  {"pass"},
		"auth_type": {"local"},
	}
	resp := performPost(t, app, Path+"/", form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	setCookie := resp.Header.Get("Set-Cookie")
	if strings.Contains(strings.ToLower(setCookie), "secure") {
		t.Fatalf("did not expect Secure flag when DevMode=true, got %q", setCookie)
	}
}

func TestPost_LocalDisabled_ReturnsError(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.Auth.LocalDB.Enabled = false

	app := newTestApp()

	initSessionStore()

	var s Service
	if err := s.Init(app, cfg, db); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	form := url.Values{
		"username":  {"dave"},
		"password":  {"whatever"},
		"auth_type": {"local"},
	}
	resp := performPost(t, app, Path+"/", form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 Bad Request, got %d", resp.StatusCode)
	}

	bodyBytes, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(bodyBytes), ErrLocalAuthDisabled.Error()) {
		t.Fatalf("expected local disabled error, got %q", string(bodyBytes))
	}
}

func TestPost_LDAP_Success_CreatesUserAndSyncsGroups(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.Auth.LDAP = ldapTestConfig()

	app := newTestApp()

	initSessionStore()

	dialer := &fakeDialer{
		passwords: map[string]string{
			"cn=svc,dc=example,dc=com":  "svcpass",
			"uid=bob,dc=example,dc=com": "correct",
		},
		memberOf: []string{
			"cn=Admins,ou=Groups,dc=example,dc=com",
			"cn=Analysts,ou=Groups,dc=example,dc=com",
		},
	}

	s := newLDAPService(t, app, cfg, db, dialer)

	form := url.Values{
		"username":  {"bob"},
		"password":  {"correct"},
		"auth_type": {"ldap"},
	}
	resp := performPost(t, app, Path+"/", form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	// user record created on first login
	user, err := s.store.FindByUsername("bob")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}

	if user.AuthSource != models.AuthSourceLDAP || !user.Active {
		t.Fatalf("expected active ldap user, got %+v", user)
	}

	// directory groups persisted
	groups, err := s.groupSync.GetUserGroups(user.ID)
	if err != nil {
		t.Fatalf("GetUserGroups() error = %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("expected 2 synced groups, got %d", len(groups))
	}
}

func TestPost_LDAP_WrongPassword_ReturnsGenericError(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.Auth.LDAP = ldapTestConfig()

	app := newTestApp()

	initSessionStore()

	dialer := &fakeDialer{
		passwords: map[string]string{
			"cn=svc,dc=example,dc=com":  "svcpass",
			"uid=bob,dc=example,dc=com": "correct",
		},
	}

	newLDAPService(t, app, cfg, db, dialer)

	form := url.Values{
		"username":  {"bob"},
		"password":  {"wrong"},
		"auth_type": {"ldap"},
	}
	resp := performPost(t, app, Path+"/", form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", resp.StatusCode)
	}

	bodyBytes, _ := io.ReadAll(resp.Body)

	// unknown user and wrong password must be indistinguishable
	if !strings.Contains(string(bodyBytes), ErrInvalidCredentials.Error()) {
		t.Fatalf("expected generic credentials error, got %q", string(bodyBytes))
	}
}

func TestPost_LDAP_DirectoryDown_Returns503(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.Auth.LDAP = ldapTestConfig()

	app := newTestApp()

	initSessionStore()

	// no bindable DNs at all: even the service bind fails
	dialer := &fakeDialer{passwords: map[string]string{}}

	newLDAPService(t, app, cfg, db, dialer)

	form := url.Values{
		"username":  {"bob"},
		"password":  {"correct"},
		"auth_type": {"ldap"},
	}
	resp := performPost(t, app, Path+"/", form)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 Service Unavailable, got %d", resp.StatusCode)
	}
}

func TestPost_LDAP_DeactivatedAccount(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	cfg.Auth.LDAP = ldapTestConfig()

	app := newTestApp()

	initSessionStore()

	dialer := &fakeDialer{
		passwords: map[string]string{
			"cn=svc,dc=example,dc=com":  "svcpass",
			"uid=bob,dc=example,dc=com": "correct",
		},
	}

	s := newLDAPService(t, app, cfg, db, dialer)

	user, err := s.store.CreateUser("bob")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	user.Active = false
	if err := s.store.Persist(user); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	form := url.Values{
		"username":  {"bob"},
		"password":  {"correct"},
		"auth_type": {"ldap"},
	}
	resp := performPost(t, app, Path+"/", form)

	defer func() {
		_ = resp.Body.Close()
	}()

	// valid directory credentials, deactivated record: still the generic error
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 Unauthorized, got %d", resp.StatusCode)
	}
}
