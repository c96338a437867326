package auth

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/flowboard/flowboard/internal/db/models"
)

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

func TestUserStore_FindAndCreate(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	if _, err := store.FindByUsername("bob"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("FindByUsername() error = %v, want ErrUserNotFound", err)
	}

	created, err := store.CreateUser("bob")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if !created.Active || created.AuthSource != models.AuthSourceLDAP {
		t.Errorf("created user = %+v, want active ldap user", created)
	}

	found, err := store.FindByUsername("bob")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}

	if found.ID != created.ID {
		t.Errorf("FindByUsername() id = %d, want %d", found.ID, created.ID)
	}

	byID, err := store.FindByID(created.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}

	if byID.Username != "bob" {
		t.Errorf("FindByID() username = %q, want %q", byID.Username, "bob")
	}
}

func TestUserStore_Persist(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)

	user, err := store.CreateUser("bob")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	user.Email = "bob@example.com"
	if err := store.Persist(user); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	found, err := store.FindByID(user.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}

	if found.Email != "bob@example.com" {
		t.Errorf("persisted email = %q, want %q", found.Email, "bob@example.com")
	}
}

func TestLocalProvider_Authenticate(t *testing.T) {
	db := newTestDB(t)
	lp := NewLocalProvider(db)

	user, err := lp.CreateUser("alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if !user.Active {
		t.Fatal("new user must be active by default")
	}

	got, err := lp.Authenticate("alice", "secret")
	if err != nil || got.Username != "alice" {
		t.Fatalf("Authenticate() = %v, %v, want alice", got, err)
	}

	if _, err := lp.Authenticate("alice", "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("Authenticate() error = %v, want ErrInvalidPassword", err)
	}

	if _, err := lp.Authenticate("nobody", "secret"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Authenticate() error = %v, want ErrUserNotFound", err)
	}
}

func TestLocalProvider_DisabledAccount(t *testing.T) {
	db := newTestDB(t)
	lp := NewLocalProvider(db)

	user, err := lp.CreateUser("alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	db.Model(user).Update("active", false)

	if _, err := lp.Authenticate("alice", "secret"); !errors.Is(err, ErrUserAccountDisabled) {
		t.Fatalf("Authenticate() error = %v, want ErrUserAccountDisabled", err)
	}
}

func TestLocalProvider_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	lp := NewLocalProvider(db)

	if _, err := lp.CreateUser("alice", "alice@example.com", "secret"); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if _, err := lp.CreateUser("alice", "other@example.com", "secret"); !errors.Is(err, ErrUserNameExists) {
		t.Fatalf("CreateUser() error = %v, want ErrUserNameExists", err)
	}
}

func TestLocalProvider_ChangePassword(t *testing.T) {
	db := newTestDB(t)
	lp := NewLocalProvider(db)

	user, err := lp.CreateUser("alice", "alice@example.com", "secret")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if err := lp.ChangePassword(user.ID, "wrong", "newpass"); !errors.Is(err, ErrInvalidOldPassword) {
		t.Fatalf("ChangePassword() error = %v, want ErrInvalidOldPassword", err)
	}

	if err := lp.ChangePassword(user.ID, "secret", "newpass"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, err := lp.Authenticate("alice", "newpass"); err != nil {
		t.Fatalf("Authenticate() with new password error = %v", err)
	}
}

func TestService_SyncUserGroups(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)
	svc := NewService(db)

	user, err := store.CreateUser("bob")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if err := svc.SyncUserGroups(user.ID, []string{"Admins", "Analysts"}, models.GroupSourceLDAP); err != nil {
		t.Fatalf("SyncUserGroups() error = %v", err)
	}

	groups, err := svc.GetUserGroups(user.ID)
	if err != nil {
		t.Fatalf("GetUserGroups() error = %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("GetUserGroups() returned %d groups, want 2", len(groups))
	}

	// a second login with a different membership set replaces the old one
	if err := svc.SyncUserGroups(user.ID, []string{"Analysts"}, models.GroupSourceLDAP); err != nil {
		t.Fatalf("SyncUserGroups() error = %v", err)
	}

	groups, err = svc.GetUserGroups(user.ID)
	if err != nil {
		t.Fatalf("GetUserGroups() error = %v", err)
	}

	if len(groups) != 1 || groups[0].Name != "Analysts" {
		t.Errorf("GetUserGroups() = %v, want only Analysts", groups)
	}
}

func TestService_SyncUserGroups_ReusesExistingGroups(t *testing.T) {
	db := newTestDB(t)
	store := NewUserStore(db)
	svc := NewService(db)

	bob, err := store.CreateUser("bob")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	alice, err := store.CreateUser("alice")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if err := svc.SyncUserGroups(bob.ID, []string{"Admins"}, models.GroupSourceLDAP); err != nil {
		t.Fatalf("SyncUserGroups() error = %v", err)
	}

	if err := svc.SyncUserGroups(alice.ID, []string{"Admins"}, models.GroupSourceLDAP); err != nil {
		t.Fatalf("SyncUserGroups() error = %v", err)
	}

	var count int64
	db.Model(&models.Group{}).Count(&count)

	if count != 1 {
		t.Errorf("group count = %d, want 1 shared group record", count)
	}
}
