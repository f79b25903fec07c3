// Package ui provides the Bubble Tea dashboard for mlconsole.
//
// # Architecture Overview
//
// The Model never reads shared state during View. Every store exposed by
// stores.Context is subscribed through a bridge that turns notifications
// into a single pending changedMsg; on each one the Model copies what the
// views need into a snapshot. Requests started from keys (pin, refresh,
// settings reset) run as tea.Cmds with ActionTimeout and report back as
// actionMsg, which routes failures to the errs.Handler.
//
// # Views
//
//   - Cluster: slot usage by device type, agents, and resource pools when
//     the showResourcePools flag is on
//   - Workspaces: workspaces beside the projects of the open workspace;
//     opening one starts its project poller
//   - Experiments: the open project's experiments, filtered with an expr
//     expression, sorted and paged from the stored table settings
//   - Settings: theme, row height, page size and feature flags
//
// # User Settings
//
// Theme, table and feature flag settings live in the remote settings store
// under the mlconsole.* keys. Table fields are written one at a time so two
// consoles editing different fields do not clobber each other. The theme
// also goes to the local prefs file so the next start renders in the right
// mode before settings load.
//
// # Key Bindings
//
//   - tab / shift+tab, 1-4 or c/w/x/s: switch views
//   - j/k, g/G: move; enter: open or change
//   - /: edit the experiment filter; o/O: sort column and order
//   - p: pin or unpin a workspace
//   - T: toggle light and dark; R: refresh now
//   - ?: help; q or ctrl+c: quit
package ui
