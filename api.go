package featherquery

import (
	"context"
	"time"

	"github.com/Mehemmed77/FeatherQuery/codec"
	"github.com/Mehemmed77/FeatherQuery/keys"
	"github.com/Mehemmed77/FeatherQuery/store"
)

// Producer loads the value for a query. It must return ctx.Err() (or an
// error wrapping it) once ctx is canceled.
type Producer[V any] func(ctx context.Context) (V, error)

// MutateFunc performs a write.
type MutateFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// Options configure a Client. The zero value is usable.
type Options struct {
	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used

	// Manager configures the stores. Its Observer, if set, still receives
	// every store event.
	Manager store.ManagerOptions

	StaleTime time.Duration // queries; 0 => DefaultStaleTime, store.Forever => never stale, store.AlwaysStale => always revalidate
	CacheMode store.Mode    // default mode for queries and mutations; "" => volatile

	// Idle race scopes are forgotten after RaceRetention (0 => 1h), checked
	// every RaceSweep (0 => 5m).
	RaceRetention time.Duration
	RaceSweep     time.Duration

	Now func() time.Time
}

// QueryOptions tune one query subscription. Zero values fall back to the
// Client's settings.
type QueryOptions[V any] struct {
	Codec codec.Codec[V] // nil => codec.JSON[V]
	// StaleTime 0 inherits the Client's; store.AlwaysStale revalidates on
	// every Fetch.
	StaleTime time.Duration
	Mode      store.Mode
	// Timeout bounds every producer call; a deadline is an ordinary failure.
	Timeout time.Duration
	// Dedupe shares one producer call between concurrent misses for the same
	// mode and key.
	Dedupe bool

	OnSuccess func(v V)
	OnError   func(err error)
	// OnSettled runs after every committed success or failure.
	OnSettled func(v V, err error)
}

// Result is the outcome of Fetch.
type Result[V any] struct {
	Value V
	// FromCache is set when Value came from the store.
	FromCache bool
	// Stale is set when a cached Value is being revalidated in the background.
	Stale bool
	// Superseded is set when a newer request replaced this one; Value is
	// the zero value and nothing was written.
	Superseded bool
}

// MutationOptions tune a Mutation.
type MutationOptions[In, Out any] struct {
	Mode    store.Mode
	Retries int // extra attempts after the first failure
	// RetryDelay maps attempt (1-based) to a delay; nil => DefaultRetryDelay.
	RetryDelay func(attempt int) time.Duration
	// InvalidateKeys are deleted by prefix from the mode's store on success.
	InvalidateKeys []keys.Key

	OnSuccess func(out Out, in In)
	OnError   func(err error, in In)
	OnSettled func(out Out, err error, in In)
}
