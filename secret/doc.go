// Package secret resolves credentials referenced from configuration, such as
// the Redis password.
//
// A value may use strict environment expansion (${REDIS_PASSWORD}) or a
// provider reference with the prefix "secretref:":
//
//	password: secretref:env:REDIS_PASSWORD
//	password: secretref:file:/run/secrets/redis
//
// References may also appear inline, e.g. "redis://:secretref:env:PW@host".
package secret
