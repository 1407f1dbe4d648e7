// Package cache stores normalizations behind a context-free address.
//
// It provides key derivation (Keyer), the lookup descriptor (Lookup), the
// Store contract with tag invalidation, max-age freshness and
// context-qualified redirects, an in-memory Store, and a decorator that guards
// any Store with the resilience package.
//
// Entries that vary by cache contexts are reached through a redirect: the
// logical address holds the list of contexts, and the entry itself lives in a
// slot derived from the current values of those contexts (see Slot). Callers
// only ever present the logical address.
package cache
