// Package atproto has request and response types, and call helpers, for the com.atproto.* endpoints used by the bot.
package atproto
