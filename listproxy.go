package burrow

import (
	"context"

	"github.com/burrowkit/burrow/request"
)

// ListProxy couples a single-model Proxy with a sibling proxy caching
// aggregate lists of the same content. Putting a single model invalidates
// the list caches so no stale aggregate view survives an item-level update,
// and a freshly fetched list is handed to an optional hook so item-level
// caches can be updated from it.
//
// This is deliberate composition over a related proxy, not a subtype: both
// proxies stay independently usable.
type ListProxy[M, L any] struct {
	*Proxy[M]
	lists        *Proxy[L]
	onListUpdate func(L)
}

// NewList couples models with its aggregate-list proxy. onListUpdate may be
// nil; when set it is invoked with every list freshly fetched from the
// network.
func NewList[M, L any](models *Proxy[M], lists *Proxy[L], onListUpdate func(L)) *ListProxy[M, L] {
	return &ListProxy[M, L]{
		Proxy:        models,
		lists:        lists,
		onListUpdate: onListUpdate,
	}
}

// Lists returns the aggregate-list proxy.
func (lp *ListProxy[M, L]) Lists() *Proxy[L] { return lp.lists }

// GetList resolves a list request according to action, invoking the
// configured list-update hook on fresh fetches.
func (lp *ListProxy[M, L]) GetList(ctx context.Context, action ActionType, req request.Request[L]) (L, bool, error) {
	return lp.lists.GetWithUpdate(ctx, action, req, lp.onListUpdate)
}

// PutList injects a known list into the list caches. Intended for tests and
// local list construction; it does not touch item-level caches.
func (lp *ListProxy[M, L]) PutList(ctx context.Context, key string, list L) error {
	return lp.lists.Put(ctx, key, list)
}

// Put stores a single model and invalidates the list caches, since any
// cached aggregate may now be stale.
func (lp *ListProxy[M, L]) Put(ctx context.Context, key string, model M) error {
	if err := lp.Proxy.Put(ctx, key, model); err != nil {
		return err
	}
	lp.ClearListCache(ctx)
	return nil
}

// PutKeepingLists stores a single model without invalidating the list
// caches, for callers that know the update cannot affect any cached list.
func (lp *ListProxy[M, L]) PutKeepingLists(ctx context.Context, key string, model M) error {
	return lp.Proxy.Put(ctx, key, model)
}

// ClearListCache wipes the list proxy's memory tier and schedules its
// persistent tier wipe. It is non-blocking.
func (lp *ListProxy[M, L]) ClearListCache(ctx context.Context) {
	lp.lists.ClearAll(ctx)
}

// ClearMemory wipes the memory tier of both proxies.
func (lp *ListProxy[M, L]) ClearMemory() {
	lp.Proxy.ClearMemory()
	lp.lists.ClearMemory()
}

// ClearStore synchronously wipes the persistent tier of both proxies.
func (lp *ListProxy[M, L]) ClearStore(ctx context.Context, mode ClearMode) error {
	err := lp.Proxy.ClearStore(ctx, mode)
	if lerr := lp.lists.ClearStore(ctx, mode); err == nil {
		err = lerr
	}
	return err
}

// ScheduleClearStore wipes the persistent tier of both proxies in the
// background.
func (lp *ListProxy[M, L]) ScheduleClearStore(ctx context.Context) {
	lp.Proxy.ScheduleClearStore(ctx)
	lp.lists.ScheduleClearStore(ctx)
}

// ClearAll wipes every cache of both proxies. It is non-blocking.
func (lp *ListProxy[M, L]) ClearAll(ctx context.Context) {
	lp.ClearMemory()
	lp.ScheduleClearStore(ctx)
}
