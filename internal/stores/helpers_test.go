package stores

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/five82/mlconsole/internal/api/apitest"
	"github.com/five82/mlconsole/internal/errs"
	"github.com/five82/mlconsole/internal/polling"
)

type recordingHandler struct {
	mu   sync.Mutex
	errs []error
}

func (h *recordingHandler) Handle(err error, opts errs.Options) errs.Type {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs = append(h.errs, err)
	if opts.Type != errs.TypeUnknown {
		return opts.Type
	}
	return errs.Classify(err)
}

type memoryTokens struct {
	mu       sync.Mutex
	token    string
	username string
	cleared  int
}

func (m *memoryTokens) SaveSession(token, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.username = token, username
	return nil
}

func (m *memoryTokens) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.username = "", ""
	m.cleared++
	return nil
}

func testPollerFactory(name string, fn polling.Func) *polling.Poller {
	return polling.New(name, fn)
}

func newTestContext(t *testing.T) (*Context, *apitest.Master, *memoryTokens) {
	t.Helper()
	m := apitest.New(t)
	tokens := &memoryTokens{}
	c := New(m.Client(t), Options{
		Handler: &recordingHandler{},
		Logger:  zerolog.Nop(),
		Tokens:  tokens,
	})
	t.Cleanup(c.StopPolling)
	return c, m, tokens
}
