/*
Package ledger is the durable record of which follower accounts have been evaluated, and with what outcome.

The ledger is what keeps evaluation idempotent: an account with a record is skipped until it is explicitly re-checked, so a block is attempted at most once per account. Records are keyed by DID; handles are stored for display only.

Several backends implement [Ledger]: [GormLedger] (sqlite or postgres), [RedisLedger], and [MemLedger] (in-process, for tests and dry runs). [CachedLedger] wraps any of them with an LRU of known-checked DIDs.
*/
package ledger
