package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SettingsAPI is the subset of the client the settings store needs.
type SettingsAPI interface {
	GetUserSetting(ctx context.Context) ([]UserWebSetting, error)
	UpdateUserSetting(ctx context.Context, setting UserWebSetting) error
	ResetUserSetting(ctx context.Context) error
}

// ResourceAPI is the read side used by the resource stores.
type ResourceAPI interface {
	GetMe(ctx context.Context) (User, error)
	GetUsers(ctx context.Context) ([]User, error)
	GetWorkspaces(ctx context.Context) ([]Workspace, error)
	GetWorkspaceProjects(ctx context.Context, workspaceID int) ([]Project, error)
	GetAgents(ctx context.Context) ([]Agent, error)
	GetResourcePools(ctx context.Context) ([]ResourcePool, error)
	GetExperiments(ctx context.Context, query ExperimentQuery) (GetExperimentsResponse, error)
	GetActiveTasksCount(ctx context.Context) (TaskCounts, error)
	GetMaster(ctx context.Context) (MasterInfo, error)
}

// AuthAPI covers session management.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (LoginResponse, error)
	Logout(ctx context.Context) error
	GetMe(ctx context.Context) (User, error)
}

// WorkspaceWriter covers the workspace mutations the dashboard issues.
type WorkspaceWriter interface {
	PinWorkspace(ctx context.Context, id int) error
	UnpinWorkspace(ctx context.Context, id int) error
}

var (
	_ SettingsAPI     = (*Client)(nil)
	_ ResourceAPI     = (*Client)(nil)
	_ AuthAPI         = (*Client)(nil)
	_ WorkspaceWriter = (*Client)(nil)
)

// GetUserSetting returns every stored settings cell of the current user.
func (c *Client) GetUserSetting(ctx context.Context) ([]UserWebSetting, error) {
	var payload GetUserSettingResponse
	if err := c.get(ctx, &url.URL{Path: "/api/v1/users/setting"}, &payload); err != nil {
		return nil, err
	}
	return payload.Settings, nil
}

// UpdateUserSetting upserts one settings cell.
func (c *Client) UpdateUserSetting(ctx context.Context, setting UserWebSetting) error {
	body := PostUserSettingRequest{Settings: []UserWebSetting{setting}}
	return c.post(ctx, "/api/v1/users/setting", body, nil)
}

// ResetUserSetting deletes every settings cell of the current user.
func (c *Client) ResetUserSetting(ctx context.Context) error {
	return c.post(ctx, "/api/v1/users/setting/reset", struct{}{}, nil)
}

// GetMe returns the authenticated user.
func (c *Client) GetMe(ctx context.Context) (User, error) {
	var payload GetMeResponse
	if err := c.get(ctx, &url.URL{Path: "/api/v1/me"}, &payload); err != nil {
		return User{}, err
	}
	return payload.User, nil
}

// GetUsers lists all users.
func (c *Client) GetUsers(ctx context.Context) ([]User, error) {
	var payload GetUsersResponse
	if err := c.get(ctx, &url.URL{Path: "/api/v1/users"}, &payload); err != nil {
		return nil, err
	}
	return payload.Users, nil
}

// Login exchanges credentials for a token and installs it on the client.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResponse, error) {
	if strings.TrimSpace(username) == "" {
		return LoginResponse{}, fmt.Errorf("username required")
	}
	var payload LoginResponse
	req := LoginRequest{Username: username, Password: password}
	if err := c.post(ctx, "/api/v1/auth/login", req, &payload); err != nil {
		return LoginResponse{}, err
	}
	c.SetToken(payload.Token)
	return payload, nil
}

// Logout invalidates the session and clears the token locally even when the
// remote call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.post(ctx, "/api/v1/auth/logout", struct{}{}, nil)
	c.SetToken("")
	return err
}

// GetWorkspaces lists workspaces visible to the user.
func (c *Client) GetWorkspaces(ctx context.Context) ([]Workspace, error) {
	var payload GetWorkspacesResponse
	if err := c.get(ctx, &url.URL{Path: "/api/v1/workspaces"}, &payload); err != nil {
		return nil, err
	}
	return payload.Workspaces, nil
}

// PinWorkspace pins a workspace to the user's sidebar.
func (c *Client) PinWorkspace(ctx context.Context, id int) error {
	return c.post(ctx, fmt.Sprintf("/api/v1/workspaces/%d/pin", id), struct{}{}, nil)
}

// UnpinWorkspace removes a workspace pin.
func (c *Client) UnpinWorkspace(ctx context.Context, id int) error {
	return c.post(ctx, fmt.Sprintf("/api/v1/workspaces/%d/unpin", id), struct{}{}, nil)
}

// GetWorkspaceProjects lists the projects of one workspace.
func (c *Client) GetWorkspaceProjects(ctx context.Context, workspaceID int) ([]Project, error) {
	if workspaceID <= 0 {
		return nil, fmt.Errorf("workspace id required")
	}
	var payload GetWorkspaceProjectsResponse
	rel := &url.URL{Path: fmt.Sprintf("/api/v1/workspaces/%d/projects", workspaceID)}
	if err := c.get(ctx, rel, &payload); err != nil {
		return nil, err
	}
	return payload.Projects, nil
}

// GetAgents lists agents with their slots.
func (c *Client) GetAgents(ctx context.Context) ([]Agent, error) {
	var payload GetAgentsResponse
	if err := c.get(ctx, &url.URL{Path: "/api/v1/agents"}, &payload); err != nil {
		return nil, err
	}
	return payload.Agents, nil
}

// GetResourcePools lists resource pools.
func (c *Client) GetResourcePools(ctx context.Context) ([]ResourcePool, error) {
	var payload GetResourcePoolsResponse
	if err := c.get(ctx, &url.URL{Path: "/api/v1/resource-pools"}, &payload); err != nil {
		return nil, err
	}
	return payload.ResourcePools, nil
}

// ExperimentQuery configures /api/v1/experiments requests.
type ExperimentQuery struct {
	ProjectID int
	Limit     int
	Offset    int
	OrderBy   string
	SortBy    string
	Archived  *bool
}

// GetExperiments lists experiments, optionally scoped to a project.
func (c *Client) GetExperiments(ctx context.Context, query ExperimentQuery) (GetExperimentsResponse, error) {
	values := url.Values{}
	if query.ProjectID > 0 {
		values.Set("projectId", strconv.Itoa(query.ProjectID))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Offset > 0 {
		values.Set("offset", strconv.Itoa(query.Offset))
	}
	if by := strings.TrimSpace(query.SortBy); by != "" {
		values.Set("sortBy", by)
	}
	if order := strings.TrimSpace(query.OrderBy); order != "" {
		values.Set("orderBy", order)
	}
	if query.Archived != nil {
		values.Set("archived", strconv.FormatBool(*query.Archived))
	}
	rel := &url.URL{Path: "/api/v1/experiments", RawQuery: values.Encode()}
	var payload GetExperimentsResponse
	if err := c.get(ctx, rel, &payload); err != nil {
		return GetExperimentsResponse{}, err
	}
	return payload, nil
}

// GetActiveTasksCount returns the number of running NTSC tasks.
func (c *Client) GetActiveTasksCount(ctx context.Context) (TaskCounts, error) {
	var payload TaskCounts
	if err := c.get(ctx, &url.URL{Path: "/api/v1/tasks/count"}, &payload); err != nil {
		return TaskCounts{}, err
	}
	return payload, nil
}

// GetMaster returns master version and cluster identity.
func (c *Client) GetMaster(ctx context.Context) (MasterInfo, error) {
	var payload MasterInfo
	if err := c.get(ctx, &url.URL{Path: "/api/v1/master"}, &payload); err != nil {
		return MasterInfo{}, err
	}
	return payload, nil
}
