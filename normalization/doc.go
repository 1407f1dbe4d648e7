// Package normalization defines the payload produced by a normalizer: a base
// envelope plus one part per field, each field carrying its own cacheability.
package normalization
