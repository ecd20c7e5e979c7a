// Package markers persists the client-side session markers that login flows
// write and sign-out clears.
//
// Two keys exist: [LoggedIn] ("isLoggedIn") and [UserEmail] ("userEmail").
// They are a simplified logged-in signal kept independently of the identity
// provider's own session. The session core only ever clears them.
//
// # Backends
//
//   - [RedisStore]: keys live under <prefix>:{<client>}:<key>, optionally with a TTL.
//   - [MemoryStore]: process-local map, used when no Redis client is configured.
package markers
