// Package state keeps per-user conversation values in memory.
//
// Each user owns at most one entry. Access goes through Store.Update, which
// holds a per-user lock for the duration of the callback, so updates of one
// conversation run one at a time while different users proceed in parallel.
// Entries untouched for longer than the configured TTL are treated as absent.
package state
