package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/mlconsole/internal/errs"
	"github.com/five82/mlconsole/internal/observable"
	"github.com/five82/mlconsole/internal/stores"
)

// changedMsg reports that at least one store changed since the last one.
type changedMsg struct{}

// bridge turns store notifications into Bubble Tea messages. Bursts of
// notifications collapse into one pending message.
type bridge struct {
	changes     chan struct{}
	unsubscribe []func()
}

func newBridge(sc *stores.Context, handler *errs.Handler) *bridge {
	b := &bridge{changes: make(chan struct{}, 1)}
	watch(b, sc.Settings.State())
	watch(b, sc.Auth.Session())
	watch(b, sc.Users.CurrentUser())
	watch(b, sc.Workspaces.All())
	watch(b, sc.Projects.All())
	watch(b, sc.Cluster.Agents())
	watch(b, sc.Cluster.ResourcePools())
	watch(b, sc.Experiments.All())
	watch(b, sc.Tasks.Counts())
	watch(b, sc.Info.Master())
	if handler != nil {
		watch(b, handler.Latest())
	}
	return b
}

func watch[T any](b *bridge, r observable.Readable[T]) {
	b.unsubscribe = append(b.unsubscribe, r.Subscribe(func(T) { b.notify() }))
}

func (b *bridge) notify() {
	select {
	case b.changes <- struct{}{}:
	default:
	}
}

// wait blocks until the next change.
func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-b.changes; !ok {
			return nil
		}
		return changedMsg{}
	}
}

func (b *bridge) close() {
	for _, fn := range b.unsubscribe {
		fn()
	}
	b.unsubscribe = nil
}
