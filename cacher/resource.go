package cacher

import "github.com/jonwraymond/normcache/cacheability"

// ResourceType describes a kind of resource, e.g. "node--article".
type ResourceType interface {
	// TypeName is stable for the lifetime of the process.
	TypeName() string
}

// ResourceObject is one domain object of some ResourceType.
//
// Contract:
// - ID is unique within the object's type.
// - Cacheability is side-effect free.
type ResourceObject interface {
	cacheability.Dependency
	ID() string
}

// TypeName is a ResourceType backed by a plain string.
type TypeName string

// TypeName implements ResourceType.
func (t TypeName) TypeName() string { return string(t) }
