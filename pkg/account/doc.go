// Package account provides password-based registration and authentication
// plus user profile management.
//
// Registration hashes passwords with bcrypt, seeds a profile from the
// display name (or the email's local part), and runs an after-register
// hook used to create the speculative pending subscription. Authentication
// collapses every failure into ErrInvalidCredentials so responses cannot
// be used to enumerate accounts.
//
// Profiles are created lazily: EnsureProfile builds one on first access
// when signup-time seeding failed or pre-dates the profile table.
package account
