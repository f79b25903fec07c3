package stores

import (
	"context"

	"github.com/five82/mlconsole/internal/api"
	"github.com/five82/mlconsole/internal/loadable"
	"github.com/five82/mlconsole/internal/observable"
)

// Info holds the master's identity. It is fetched once per session and
// never polled.
type Info struct {
	api  api.ResourceAPI
	info *resource[api.MasterInfo]
}

func newInfo(client api.ResourceAPI) *Info {
	return &Info{api: client, info: newResource[api.MasterInfo]("master info")}
}

// Fetch loads the master info unless it is already loaded.
func (i *Info) Fetch(ctx context.Context) error {
	if i.info.state.Get().IsLoaded() {
		return nil
	}
	return i.info.load(ctx, i.api.GetMaster)
}

func (i *Info) Master() observable.Readable[loadable.Loadable[api.MasterInfo]] {
	return i.info.state
}

func (i *Info) Reset() { i.info.reset() }
