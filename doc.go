// Package featherquery deduplicates, caches and keeps fresh the results of
// asynchronous reads and writes requested by many independent call sites.
//
// Components:
//   - keys: composite query keys and their canonical string form.
//   - store: the volatile (LRU) store and the session/permanent stores
//     mirrored to a durable medium, owned by a Manager.
//   - race: monotonic request ids that drop superseded responses.
//   - Client, Query[V], InfiniteQuery[P, V], Mutation[In, Out]: the fetch
//     engine on top.
//
// Read flow:
//
//	q, _ := featherquery.NewQuery(client, keys.K("users", id), loadUser, featherquery.QueryOptions[User]{})
//	res, err := q.Fetch(ctx)
//	// fresh hit  -> cached value
//	// stale hit  -> cached value (res.Stale) + background revalidation
//	// miss       -> producer result, committed iff still the latest request
package featherquery
