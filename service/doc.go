// Package service runs a shard node. It owns the executor, the
// extrinsic pool, and the persistence pair of block journal and state
// store, and serializes every state transition onto one lock.
//
// Transports stay thin: gRPC and the background jobs all go through
// Node and never touch the runtime directly.
package service
