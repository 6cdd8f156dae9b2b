// Package cache is a small JSON value cache with prefix invalidation. Values
// are always marshalled so readers never share memory with writers.
//
// Entries that a write can make stale live under a generation. A writer bumps
// the generation after its store write, so a reader that loaded the store
// before the write can only fill a key that nobody reads any more.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/juju/loggo"
	"github.com/redis/go-redis/v9"
)

var logger = loggo.GetLogger("feedback.cache")

// Cache is advisory: a failed Get is a miss and a failed Set or Delete is
// logged, never surfaced to the request.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
	DeletePrefix(ctx context.Context, prefix string)

	// Generation returns the current generation of scope, zero when it was
	// never bumped. An error means callers must bypass the cache.
	Generation(ctx context.Context, scope string) (int64, error)
	// Bump moves scope to a new generation.
	Bump(ctx context.Context, scope string) error
}

// New returns a Redis backed cache when client is set. Without Redis the
// in-process cache is only used when local is set, since its invalidation
// does not reach other replicas; otherwise caching is off.
func New(client *redis.Client, defaultTTL time.Duration, local bool) Cache {
	switch {
	case client != nil:
		return NewRedis(client)
	case local:
		logger.Infof("using in-process cache, run a single API instance")
		return NewMemory(defaultTTL)
	default:
		logger.Infof("no Redis configured, caching disabled")
		return Nop()
	}
}

type nop struct{}

// Nop never stores anything.
func Nop() Cache { return nop{} }

func (nop) Get(context.Context, string, interface{}) bool           { return false }
func (nop) Set(context.Context, string, interface{}, time.Duration) {}
func (nop) Delete(context.Context, ...string)                       {}
func (nop) DeletePrefix(context.Context, string)                    {}
func (nop) Generation(context.Context, string) (int64, error)       { return 0, nil }
func (nop) Bump(context.Context, string) error                      { return nil }

// Key helpers shared by the services and the worker.

// FormsScope versions every cached form entry.
const FormsScope = "forms"

// FormsPrefix covers the form entries of every generation.
const FormsPrefix = FormsScope + ":"

// GenerationKey is where a scope's counter is stored. It sits outside every
// entry prefix so prefix deletes never reset it.
func GenerationKey(scope string) string {
	return "gen:" + scope
}

func PackagesKey(gen int64) string {
	return FormsPrefix + strconv.FormatInt(gen, 10) + ":packages"
}

func ActiveFormKey(gen int64, packageName string) string {
	return FormsPrefix + strconv.FormatInt(gen, 10) + ":active:" + packageName
}

// StatsScope versions the stats entries of one package.
func StatsScope(packageName string) string {
	return "feedback:stats:" + packageName
}

// StatsPrefix covers every stats entry of a package, across generations.
func StatsPrefix(packageName string) string {
	return StatsScope(packageName) + ":"
}

// StatsKey uses "*" for the package-wide entry.
func StatsKey(packageName, formID string, gen int64) string {
	if formID == "" {
		formID = "*"
	}
	return StatsPrefix(packageName) + strconv.FormatInt(gen, 10) + ":" + formID
}
