// Package stores caches master resources for the dashboard.
//
// Each store wraps its data in an observable Loadable: NotLoaded until the
// first fetch, Loaded after a success, Failed only when the first fetch
// fails. A failure after a successful load keeps the stale value so the
// views do not flicker, and a cancelled fetch never changes state.
//
// Projects and experiments keep a secondary index from their parent ID to
// member IDs (see Indexed). A parent fetch replaces that parent's members
// wholesale, so entities removed on the master disappear locally.
//
// Context bundles one instance of each store with shared error handling,
// logging and poll metrics. Auth.Expire resets the whole Context.
package stores
