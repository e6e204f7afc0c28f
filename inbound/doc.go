// Package inbound handles the OAuth callback that closes a three-legged
// login.
//
// Callbacks are claimed by temporary token so a redirect delivered twice
// completes the login once. A failed completion releases the claim and the
// callback can be retried.
package inbound
