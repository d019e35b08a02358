// Package spool sits between a label submission and the printer. It holds the
// visible label set and a single deferred print request: staging a new set
// cancels the pending request for the old one, so only the newest set is ever
// printed and each set is printed at most once.
//
// Two drivers share the same bookkeeping. Event-loop callers (the TUI) stage a
// set with Replace, schedule their own tick, and Claim the ticket when it
// fires; a stale ticket claims nothing. Other callers use Schedule, which arms
// a timer and prints on its own.
package spool
