// Package common contains shared constants and sentinel errors used across
// taskdesk components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer credential
// on outbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the credential in the Authorization header value.
const BearerPrefix = "Bearer "

// RequestIDHeaderName carries a per-request correlation id.
const RequestIDHeaderName = "X-Request-ID"

// CredentialKey is the durable storage key holding the bearer credential.
const CredentialKey = "token"

// CredentialSaltKey holds the salt used to seal the credential at rest.
const CredentialSaltKey = "token_salt"
