package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultMasterURL {
		t.Fatalf("host = %q, want %q", u.Host, defaultMasterURL)
	}

	u, err = parseBaseURL("https://example.com:1234/det?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
	if u.Scheme != "https" {
		t.Fatalf("scheme = %q, want https", u.Scheme)
	}
}

func TestClient_FetchesEndpointsAndSendsHeaders(t *testing.T) {
	var gotExperimentsQuery url.Values
	var gotAuth, gotUserAgent, gotRequestID string
	var gotSetting PostUserSettingRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUserAgent = r.Header.Get("User-Agent")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/v1/users/setting":
			if r.Method == http.MethodPost {
				_ = json.NewDecoder(r.Body).Decode(&gotSetting)
				_, _ = w.Write([]byte("{}"))
				return
			}
			_ = json.NewEncoder(w).Encode(GetUserSettingResponse{Settings: []UserWebSetting{
				{StoragePath: "theme", Key: "mode", Value: `"dark"`},
			}})
		case "/api/v1/agents":
			_ = json.NewEncoder(w).Encode(GetAgentsResponse{Agents: []Agent{{ID: "a1", Enabled: true}}})
		case "/api/v1/experiments":
			gotExperimentsQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode(GetExperimentsResponse{Experiments: []Experiment{{ID: 7, ProjectID: 3}}})
		case "/api/v1/tasks/count":
			_ = json.NewEncoder(w).Encode(TaskCounts{Commands: 1, Notebooks: 2})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, WithToken("tok"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	settings, err := c.GetUserSetting(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 1)
	assert.Equal(t, `"dark"`, settings[0].Value)

	require.NoError(t, c.UpdateUserSetting(ctx, UserWebSetting{StoragePath: "theme", Key: "mode", Value: `"light"`}))
	require.Len(t, gotSetting.Settings, 1)
	assert.Equal(t, "theme", gotSetting.Settings[0].StoragePath)

	agents, err := c.GetAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "a1", agents[0].ID)

	archived := false
	resp, err := c.GetExperiments(ctx, ExperimentQuery{ProjectID: 3, Limit: 50, SortBy: "SORT_BY_ID", Archived: &archived})
	require.NoError(t, err)
	require.Len(t, resp.Experiments, 1)
	assert.Equal(t, "3", gotExperimentsQuery.Get("projectId"))
	assert.Equal(t, "50", gotExperimentsQuery.Get("limit"))
	assert.Equal(t, "SORT_BY_ID", gotExperimentsQuery.Get("sortBy"))
	assert.Equal(t, "false", gotExperimentsQuery.Get("archived"))

	counts, err := c.GetActiveTasksCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Total())

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.True(t, strings.HasPrefix(gotUserAgent, "mlconsole/"), "User-Agent = %q", gotUserAgent)
	assert.NotEmpty(t, gotRequestID)
}

func TestClient_GetWorkspaceProjectsRequiresID(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	require.NoError(t, err)
	_, err = c.GetWorkspaceProjects(context.Background(), 0)
	assert.Error(t, err)
}

func TestClient_ErrorClassification(t *testing.T) {
	defer gock.Off()

	hc := &http.Client{}
	gock.InterceptClient(hc)
	defer gock.RestoreClient(hc)

	gock.New("http://master.test").
		Get("/api/v1/agents").
		Reply(http.StatusUnauthorized).
		JSON(map[string]string{"message": "invalid credentials"})
	gock.New("http://master.test").
		Get("/api/v1/workspaces").
		Reply(http.StatusInternalServerError).
		JSON(map[string]string{"message": "database is down"})
	gock.New("http://master.test").
		Get("/api/v1/users").
		Reply(http.StatusOK).
		BodyString("{not-json")

	c, err := NewClient("http://master.test", WithHTTPClient(hc))
	require.NoError(t, err)

	_, err = c.GetAgents(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.GetWorkspaces(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "error = %v", err)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "database is down", statusErr.Message)
	assert.Contains(t, err.Error(), "returned status 500")

	_, err = c.GetUsers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")

	assert.True(t, gock.IsDone())
}

func TestClient_LoginInstallsTokenAndLogoutClearsIt(t *testing.T) {
	defer gock.Off()

	hc := &http.Client{}
	gock.InterceptClient(hc)
	defer gock.RestoreClient(hc)

	gock.New("http://master.test").
		Post("/api/v1/auth/login").
		Reply(http.StatusOK).
		JSON(LoginResponse{Token: "fresh", User: User{ID: 4, Username: "ada"}})
	gock.New("http://master.test").
		Post("/api/v1/auth/logout").
		MatchHeader("Authorization", "Bearer fresh").
		Reply(http.StatusInternalServerError)

	c, err := NewClient("http://master.test", WithHTTPClient(hc))
	require.NoError(t, err)

	resp, err := c.Login(context.Background(), "ada", "pw")
	require.NoError(t, err)
	assert.Equal(t, "ada", resp.User.Username)
	assert.Equal(t, "fresh", c.Token())

	err = c.Logout(context.Background())
	assert.Error(t, err)
	assert.Empty(t, c.Token())
}

func TestClient_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.GetMaster(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
