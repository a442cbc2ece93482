// Package session owns the client's authentication state.
//
// A Store is the single writer of the Session: it restores a persisted
// credential at startup, logs in and out, and downgrades the session to
// anonymous whenever the Request Gateway reports a 401 for the credential
// currently in use. Readers take immutable Snapshots or Subscribe to changes.
//
// The credential is kept in the client state database under one metadata
// key. When a vault passphrase is configured it is sealed with a key derived
// from that passphrase and a per-credential salt.
package session
