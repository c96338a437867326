// Package main provides the entry point for the Flowboard administration
// console. It initializes and runs a web server using the Fiber framework
// with local database and LDAP/Active Directory authentication backends.
// The application uses gorm for data persistence and synchronizes directory
// group memberships on every login.
package main
