// Package cacheability describes how long cached content stays valid, what
// invalidates it, and which request contexts it varies by.
//
// Metadata values are immutable. Merging is commutative and associative, so
// folding any number of dependencies yields the same result in any order.
package cacheability
