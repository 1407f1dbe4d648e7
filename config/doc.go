// Package config loads normcache settings from YAML and builds the store,
// observer, health aggregator and cacher options they describe.
//
// String settings that carry endpoints or credentials go through
// secret.Resolver, so ${ENV} expansion and secretref: references work:
//
//	store:
//	  backend: redis
//	  redis:
//	    addr: ${REDIS_ADDR}
//	    password: secretref:env:REDIS_PASSWORD
package config
