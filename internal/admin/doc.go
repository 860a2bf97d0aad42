// Package admin implements todoctl, the operator tool of the to-do list
// server. It shares the server configuration and offers three commands:
//
//	migrate                   apply pending migration scripts
//	create-migration <desc>   create an empty, timestamped migration script
//	passwd <username>         set a user's password, read from the terminal
//
// Commands return a process exit code instead of exiting themselves.
package admin
