// Package api provides an HTTP client for the experiment-management master.
//
// # Overview
//
// The client covers the REST endpoints the stores consume: user settings,
// users and sessions, workspaces and projects, agents and resource pools,
// experiments, task counts and master info. Every call takes a
// context.Context, which is how stores cancel in-flight polls.
//
// # Endpoints
//
//   - GET  /api/v1/users/setting, POST /api/v1/users/setting,
//     POST /api/v1/users/setting/reset
//   - POST /api/v1/auth/login, POST /api/v1/auth/logout, GET /api/v1/me
//   - GET  /api/v1/users
//   - GET  /api/v1/workspaces, POST /api/v1/workspaces/{id}/pin|unpin
//   - GET  /api/v1/workspaces/{id}/projects
//   - GET  /api/v1/agents, GET /api/v1/resource-pools
//   - GET  /api/v1/experiments
//   - GET  /api/v1/tasks/count, GET /api/v1/master
//
// Settings values travel as JSON-encoded strings. The client does not
// interpret them; the settings store encodes and decodes at the boundary.
//
// # Error Handling
//
//   - Transport failures: "execute request: ..." wrapping the net/http error,
//     so errors.Is(err, context.Canceled) works for aborted polls
//   - 401: wraps ErrUnauthorized
//   - other 4xx/5xx: *StatusError with the server's message
//   - malformed bodies: "decode response: ..."
//
// # Thread Safety
//
// Client is safe for concurrent use. The bearer token can be swapped at any
// time with SetToken; in-flight requests keep the token they started with.
//
// # Testing
//
// Package apitest runs an in-memory master on gin for store tests.
package api
