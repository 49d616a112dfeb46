// Package profilematch decides whether an account profile looks like follow-spam.
//
// A [Matcher] is built from a [RuleSet]: an optional [FollowRatioRule] (promotional adult content combined with a lopsided following/follower ratio), followed by an ordered list of [BlockPattern] rules over the display name and description. Evaluation is pure: no I/O, no state.
//
// Rule sets are plain data so they can be loaded from JSON; expressions are compiled once by [NewMatcher]. Go regular expressions have no lookahead, so a field pattern may list several expressions in AllOf which must all match.
package profilematch
