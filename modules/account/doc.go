// Package account exposes the account HTTP surface: email and password
// signup and login with bearer token issuance, plus profile reads and
// updates for the authenticated user.
package account
