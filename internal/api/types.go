package api

import "time"

// UserWebSetting is one (storagePath, key) cell of the remote settings
// table. Value holds a JSON-encoded document.
type UserWebSetting struct {
	Key         string `json:"key"`
	StoragePath string `json:"storagePath"`
	Value       string `json:"value"`
}

// GetUserSettingResponse mirrors GET /api/v1/users/setting.
type GetUserSettingResponse struct {
	Settings []UserWebSetting `json:"settings"`
}

// PostUserSettingRequest mirrors the body of POST /api/v1/users/setting.
type PostUserSettingRequest struct {
	Settings []UserWebSetting `json:"settings"`
}

// User is a master account.
type User struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Admin       bool   `json:"admin"`
	Active      bool   `json:"active"`
	Remote      bool   `json:"remote"`
	ModifiedAt  string `json:"modifiedAt"`
}

// Name returns the display name, falling back to the username.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// GetUsersResponse mirrors GET /api/v1/users.
type GetUsersResponse struct {
	Users []User `json:"users"`
}

// GetMeResponse mirrors GET /api/v1/me.
type GetMeResponse struct {
	User User `json:"user"`
}

// LoginRequest mirrors POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsHashed bool   `json:"isHashed"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Workspace groups projects.
type Workspace struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Archived           bool   `json:"archived"`
	Pinned             bool   `json:"pinned"`
	Immutable          bool   `json:"immutable"`
	UserID             int    `json:"userId"`
	Username           string `json:"username"`
	NumProjects        int    `json:"numProjects"`
	NumExperiments     int    `json:"numExperiments"`
	State              string `json:"state"`
	DefaultComputePool string `json:"defaultComputePool"`
	DefaultAuxPool     string `json:"defaultAuxPool"`
}

// GetWorkspacesResponse mirrors GET /api/v1/workspaces.
type GetWorkspacesResponse struct {
	Workspaces []Workspace `json:"workspaces"`
}

// Project groups experiments within a workspace.
type Project struct {
	ID                   int    `json:"id"`
	Name                 string `json:"name"`
	WorkspaceID          int    `json:"workspaceId"`
	WorkspaceName        string `json:"workspaceName"`
	Description          string `json:"description"`
	Archived             bool   `json:"archived"`
	Immutable            bool   `json:"immutable"`
	NumExperiments       int    `json:"numExperiments"`
	NumActiveExperiments int    `json:"numActiveExperiments"`
	UserID               int    `json:"userId"`
	Username             string `json:"username"`
	LastExperimentStart  string `json:"lastExperimentStartedAt"`
}

// GetWorkspaceProjectsResponse mirrors GET /api/v1/workspaces/{id}/projects.
type GetWorkspaceProjectsResponse struct {
	Projects []Project `json:"projects"`
}

// Device describes an accelerator or CPU slot.
type Device struct {
	ID    int    `json:"id"`
	Brand string `json:"brand"`
	UUID  string `json:"uuid"`
	Type  string `json:"type"`
}

// Container is the workload occupying a slot.
type Container struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// Slot is one schedulable unit on an agent.
type Slot struct {
	ID        string     `json:"id"`
	Device    Device     `json:"device"`
	Enabled   bool       `json:"enabled"`
	Draining  bool       `json:"draining"`
	Container *Container `json:"container,omitempty"`
}

// Agent is a compute node registered with the master.
type Agent struct {
	ID            string          `json:"id"`
	Enabled       bool            `json:"enabled"`
	Draining      bool            `json:"draining"`
	Addresses     []string        `json:"addresses"`
	ResourcePools []string        `json:"resourcePools"`
	Slots         map[string]Slot `json:"slots"`
}

// GetAgentsResponse mirrors GET /api/v1/agents.
type GetAgentsResponse struct {
	Agents []Agent `json:"agents"`
}

// ResourcePool is a scheduling partition of the cluster.
type ResourcePool struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	Type                 string `json:"type"`
	NumAgents            int    `json:"numAgents"`
	SlotsAvailable       int    `json:"slotsAvailable"`
	SlotsUsed            int    `json:"slotsUsed"`
	SlotType             string `json:"slotType"`
	AuxContainerCapacity int    `json:"auxContainerCapacity"`
	AuxContainersRunning int    `json:"auxContainersRunning"`
	DefaultComputePool   bool   `json:"defaultComputePool"`
	DefaultAuxPool       bool   `json:"defaultAuxPool"`
}

// GetResourcePoolsResponse mirrors GET /api/v1/resource-pools.
type GetResourcePoolsResponse struct {
	ResourcePools []ResourcePool `json:"resourcePools"`
}

// Experiment is one hyperparameter search or single training run.
type Experiment struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	State        string   `json:"state"`
	ProjectID    int      `json:"projectId"`
	WorkspaceID  int      `json:"workspaceId"`
	UserID       int      `json:"userId"`
	Username     string   `json:"username"`
	NumTrials    int      `json:"numTrials"`
	Progress     float64  `json:"progress"`
	Archived     bool     `json:"archived"`
	SearcherType string   `json:"searcherType"`
	ResourcePool string   `json:"resourcePool"`
	Labels       []string `json:"labels"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
}

// Started returns the parsed start time, or the zero time.
func (e Experiment) Started() time.Time {
	return parseTime(e.StartTime)
}

// Pagination mirrors the master's offset pagination block.
type Pagination struct {
	Offset     int `json:"offset"`
	Limit      int `json:"limit"`
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
	Total      int `json:"total"`
}

// GetExperimentsResponse mirrors GET /api/v1/experiments.
type GetExperimentsResponse struct {
	Experiments []Experiment `json:"experiments"`
	Pagination  Pagination   `json:"pagination"`
}

// TaskCounts mirrors GET /api/v1/tasks/count.
type TaskCounts struct {
	Commands     int `json:"commands"`
	Notebooks    int `json:"notebooks"`
	Shells       int `json:"shells"`
	Tensorboards int `json:"tensorboards"`
}

// Total sums all task kinds.
func (t TaskCounts) Total() int {
	return t.Commands + t.Notebooks + t.Shells + t.Tensorboards
}

// MasterInfo mirrors GET /api/v1/master.
type MasterInfo struct {
	Version          string `json:"version"`
	MasterID         string `json:"masterId"`
	ClusterID        string `json:"clusterId"`
	ClusterName      string `json:"clusterName"`
	TelemetryEnabled bool   `json:"telemetryEnabled"`
	Branding         string `json:"branding"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
