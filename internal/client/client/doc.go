// Package client contains the client-side transport for taskdesk.
//
// # Overview
//
// The package provides:
//  1. The Request Gateway (see Gateway): the single shared HTTP client
//     configuration. It stamps the current bearer credential and a request id
//     on every outgoing request and observes every response. A 401 is
//     reported to the subscribers registered with OnAuthFailure; the gateway
//     itself never retries.
//  2. A transport-agnostic API contract (see Client, split into AuthAPI,
//     TaskAPI and AdminAPI) and its REST/JSON implementation (see HTTPClient).
//  3. Local persistence bootstrap (OpenDatabase) for the client state
//     database, applying embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses surface as *APIError, which unwraps to one of the
// sentinels in package common (ErrAuthorizationLost, ErrPermissionDenied,
// ErrNotFound, ErrValidation, ErrNetworkOrServer, or ErrInvalidCredentials
// for login/register). Transport failures match ErrUnavailable.
//
// # Concurrency
//
// Gateway and HTTPClient are safe for concurrent use. All operations accept
// a context.Context and honor cancellation.
package client
