// Package bsky has request and response types, and call helpers, for the app.bsky.* endpoints and records used by the bot.
//
// Types follow the lexicon schemas field-for-field (JSON names, optional fields as pointers), restricted to the fields the bot reads or writes.
package bsky
