// Package identity defines the authenticated principal and the contract the
// session core relies on from an external identity provider.
//
// # Provider contract
//
// A [Provider] exposes exactly two capabilities: Subscribe, which registers a
// [Listener] and returns a [CancelFunc], and SignOut. Providers deliver
// notifications for one subscription in emission order and never invoke a
// listener after its CancelFunc has returned. A nil *Identity means "no
// session".
//
// # Implementations
//
//   - [MemoryProvider]: in-process provider for tests and demos.
//   - [RedisProvider]: remote provider backed by a Redis key holding a signed
//     identity token and a pub/sub channel carrying changes.
//   - [Unavailable]: degraded stand-in used when a provider cannot be built.
//
// # What this package must NOT do
//
//   - Import the root passportr package.
//   - Write local markers; those belong to the session store.
package identity
