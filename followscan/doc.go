/*
Package followscan finds spam and paid-content accounts among the followers of a Bluesky account, and adds them to a moderation list.

An [Evaluator] handles one follower at a time: it consults the [ledger.Ledger] and skips accounts already checked, otherwise it fetches the account's profile, runs it through a [profilematch.Matcher], adds matching accounts to the configured list, and records the outcome. A [Scanner] sources followers, either the most recent page or the full follower set, and feeds them to the Evaluator in order. A [Scheduler] runs recent-follower scans on a fixed interval, never more than one at a time.

Followers are processed strictly sequentially. [NetworkClient] adapts an authenticated atproto API client to the collaborator interfaces, with client-side rate limiting.
*/
package followscan
