// Package xcmp implements the cross-chain message layer: one bounded,
// sequence-numbered channel per peer shard plus the specialized upward
// and downward channel to the relay chain.
//
// Every direction of every channel carries strictly gapless sequence
// numbers. Outbound messages are queued during block execution and
// drained at finalization; inbound batches arrive relay-ordered once
// per block and are applied exactly once. A message whose sequence is
// not last_processed+1 suspends its channel rather than being skipped
// or replayed, so a fault on one peer never bleeds into another.
package xcmp
