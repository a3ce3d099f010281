// Package dedupe provides a time-windowed claim cache used to reject replayed
// turns that carry a message id the gateway has already accepted.
package dedupe
