// Package apitest runs an in-memory master for tests.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/five82/mlconsole/internal/api"
)

// Token is the session token the fake master accepts.
const Token = "test-token"

type settingKey struct {
	storagePath string
	key         string
}

// Master is a fake master backed by maps. All fields are guarded by mu and
// should be changed through the setters while the server is running.
type Master struct {
	URL string

	mu            sync.Mutex
	settings      map[settingKey]string
	users         []api.User
	me            api.User
	workspaces    []api.Workspace
	projects      map[int][]api.Project
	agents        []api.Agent
	pools         []api.ResourcePool
	experiments   []api.Experiment
	tasks         api.TaskCounts
	info          api.MasterInfo
	failures      map[string][]int
	requireToken  bool
	settingWrites []api.UserWebSetting
	calls         map[string]int
}

// New starts a fake master and registers its shutdown with t.Cleanup.
func New(t testing.TB) *Master {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := &Master{
		settings: make(map[settingKey]string),
		projects: make(map[int][]api.Project),
		failures: make(map[string][]int),
		calls:    make(map[string]int),
		me:       api.User{ID: 1, Username: "admin", Admin: true, Active: true},
		info:     api.MasterInfo{Version: "0.0.0-test", ClusterName: "test"},
	}

	router := gin.New()
	router.Use(m.intercept)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", m.login)
	v1.POST("/auth/logout", m.logout)
	v1.GET("/me", m.getMe)
	v1.GET("/users", m.getUsers)
	v1.GET("/users/setting", m.getSettings)
	v1.POST("/users/setting", m.postSettings)
	v1.POST("/users/setting/reset", m.resetSettings)
	v1.GET("/workspaces", m.getWorkspaces)
	v1.POST("/workspaces/:id/pin", m.pinWorkspace(true))
	v1.POST("/workspaces/:id/unpin", m.pinWorkspace(false))
	v1.GET("/workspaces/:id/projects", m.getProjects)
	v1.GET("/agents", m.getAgents)
	v1.GET("/resource-pools", m.getPools)
	v1.GET("/experiments", m.getExperiments)
	v1.GET("/tasks/count", m.getTasks)
	v1.GET("/master", m.getMaster)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	m.URL = srv.URL
	return m
}

// Client returns an api.Client pointed at the fake master.
func (m *Master) Client(t testing.TB) *api.Client {
	t.Helper()
	c, err := api.NewClient(m.URL, api.WithToken(Token))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

// RequireToken makes every route except login answer 401 without the token.
func (m *Master) RequireToken(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requireToken = on
}

// FailNext queues status codes returned for the next calls to path.
func (m *Master) FailNext(path string, statuses ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = append(m.failures[path], statuses...)
}

// Calls reports how many requests reached path, failures included.
func (m *Master) Calls(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

// PutSetting stores a raw JSON value as if written by another client.
func (m *Master) PutSetting(storagePath, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[settingKey{storagePath, key}] = value
}

// Setting returns the raw stored value.
func (m *Master) Setting(storagePath, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.settings[settingKey{storagePath, key}]
	return v, ok
}

// SettingRows returns the stored rows of storagePath keyed by field.
func (m *Master) SettingRows(storagePath string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	for k, v := range m.settings {
		if k.storagePath == storagePath {
			out[k.key] = v
		}
	}
	return out
}

// SettingWrites returns every setting cell received through POST.
func (m *Master) SettingWrites() []api.UserWebSetting {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.UserWebSetting, len(m.settingWrites))
	copy(out, m.settingWrites)
	return out
}

func (m *Master) SetUsers(users ...api.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = users
}

func (m *Master) SetMe(u api.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.me = u
}

func (m *Master) SetWorkspaces(ws ...api.Workspace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workspaces = ws
}

func (m *Master) SetProjects(workspaceID int, ps ...api.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[workspaceID] = ps
}

func (m *Master) SetAgents(agents ...api.Agent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents = agents
}

func (m *Master) SetResourcePools(pools ...api.ResourcePool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools = pools
}

func (m *Master) SetExperiments(exps ...api.Experiment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.experiments = exps
}

func (m *Master) SetTasks(tc api.TaskCounts) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = tc
}

func (m *Master) intercept(c *gin.Context) {
	path := c.Request.URL.Path

	m.mu.Lock()
	m.calls[path]++
	var status int
	if queued := m.failures[path]; len(queued) > 0 {
		status = queued[0]
		m.failures[path] = queued[1:]
	}
	needToken := m.requireToken && path != "/api/v1/auth/login"
	m.mu.Unlock()

	if status != 0 {
		c.AbortWithStatusJSON(status, gin.H{"message": "injected failure"})
		return
	}
	if needToken && c.GetHeader("Authorization") != "Bearer "+Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}
	c.Next()
}

func (m *Master) login(c *gin.Context) {
	var req api.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.Password != "password" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid credentials"})
		return
	}
	m.mu.Lock()
	me := m.me
	m.mu.Unlock()
	c.JSON(http.StatusOK, api.LoginResponse{Token: Token, User: me})
}

func (m *Master) logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{})
}

func (m *Master) getMe(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, api.GetMeResponse{User: m.me})
}

func (m *Master) getUsers(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, api.GetUsersResponse{Users: m.users})
}

func (m *Master) getSettings(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.UserWebSetting, 0, len(m.settings))
	for k, v := range m.settings {
		out = append(out, api.UserWebSetting{StoragePath: k.storagePath, Key: k.key, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoragePath != out[j].StoragePath {
			return out[i].StoragePath < out[j].StoragePath
		}
		return out[i].Key < out[j].Key
	})
	c.JSON(http.StatusOK, api.GetUserSettingResponse{Settings: out})
}

func (m *Master) postSettings(c *gin.Context) {
	var req api.PostUserSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	// Rows are keyed by path and field. Only an empty value deletes one;
	// anything else, "null" and RootField included, is upserted.
	for _, s := range req.Settings {
		m.settingWrites = append(m.settingWrites, s)
		k := settingKey{s.StoragePath, s.Key}
		if s.Value == "" {
			delete(m.settings, k)
			continue
		}
		m.settings[k] = s.Value
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (m *Master) resetSettings(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = make(map[settingKey]string)
	c.JSON(http.StatusOK, gin.H{})
}

func (m *Master) getWorkspaces(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, api.GetWorkspacesResponse{Workspaces: m.workspaces})
}

func (m *Master) pinWorkspace(pinned bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "bad id"})
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		for i := range m.workspaces {
			if m.workspaces[i].ID == id {
				m.workspaces[i].Pinned = pinned
				c.JSON(http.StatusOK, gin.H{})
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"message": "workspace not found"})
	}
}

func (m *Master) getProjects(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "bad id"})
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, api.GetWorkspaceProjectsResponse{Projects: m.projects[id]})
}

func (m *Master) getAgents(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, api.GetAgentsResponse{Agents: m.agents})
}

func (m *Master) getPools(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, api.GetResourcePoolsResponse{ResourcePools: m.pools})
}

func (m *Master) getExperiments(c *gin.Context) {
	projectID, _ := strconv.Atoi(strings.TrimSpace(c.Query("projectId")))
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]api.Experiment, 0, len(m.experiments))
	for _, e := range m.experiments {
		if projectID > 0 && e.ProjectID != projectID {
			continue
		}
		out = append(out, e)
	}
	c.JSON(http.StatusOK, api.GetExperimentsResponse{
		Experiments: out,
		Pagination:  api.Pagination{Total: len(out), EndIndex: len(out)},
	})
}

func (m *Master) getTasks(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, m.tasks)
}

func (m *Master) getMaster(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, m.info)
}
