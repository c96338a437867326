package auth

import "errors"

var (
	// ErrLDAPDisabled is returned when LDAP authentication is disabled via configuration.
	ErrLDAPDisabled = errors.New("ldap authentication is disabled")

	// ErrInvalidCredentials is returned for a bad username/password pair.
	// A missing user, a malformed search match and a rejected user bind all
	// map to this error so that responses never reveal which usernames
	// exist in the directory.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrDirectoryUnreachable is returned when the directory server cannot
	// be reached or the service bind fails. This is an operational
	// condition, not a statement about the supplied credentials.
	ErrDirectoryUnreachable = errors.New("cannot reach or bind to the directory server")

	// ErrMalformedDirectoryResponse is returned when a directory entry
	// cannot be parsed. The message carries operator guidance because the
	// usual cause is a search scope mismatch.
	ErrMalformedDirectoryResponse = errors.New(
		"could not parse the directory structure; if you are using Active Directory " +
			"without specifying an OU, set auth.ldap.search_scope = \"SUBTREE\", or check the server logs")

	// ErrInvalidOldPassword is returned when the provided old password does not match the user's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrUserNameExists is returned when attempting to create a user with a username that already exists.
	ErrUserNameExists = errors.New("user with username already exists")

	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")
)
