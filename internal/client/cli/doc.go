// Package cli is the passvault command-line client.
//
// Each invocation runs one command:
//   - register / login / logout manage the account and the local session
//   - list / show / add / edit / delete work on vault records
//   - backup exports the encrypted vault to object storage
//
// Commands that read or write record contents prompt for the master password,
// derive the vault key with Argon2id and discard it when the command ends.
package cli
