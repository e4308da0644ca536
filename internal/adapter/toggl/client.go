// Package toggl implements ports.Provider against the Toggl Track API
// v9. Durations arrive as signed seconds; a negative value means the
// timer is still running.
package toggl

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"jirify/internal/cache"
	"jirify/internal/domain"
)

// Client fetches projects, clients and time entries for one workspace.
type Client struct {
	baseURL   string
	apiToken  string
	workspace int64
	http      *http.Client
	cache     *cache.Store
	loc       *time.Location
	log       *slog.Logger
}

func NewClient(baseURL, apiToken string, workspaceID int64, cacheStore *cache.Store, loc *time.Location, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.track.toggl.com"
	}
	return &Client{
		baseURL:   baseURL,
		apiToken:  apiToken,
		workspace: workspaceID,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cacheStore,
		loc:   loc,
		log:   log,
	}
}

// Projects returns the workspace's projects indexed by ID,
// cache-backed with the default TTL.
func (c *Client) Projects(ctx context.Context) (map[string]domain.Project, error) {
	if cached, ok := cache.Index[domain.Project](c.cache, "projects"); ok {
		return cached, nil
	}
	c.log.Info("refreshing project data")

	var raw []rawProject
	path := fmt.Sprintf("/api/v9/workspaces/%d/projects", c.workspace)
	if err := c.getJSON(ctx, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("toggl: projects: %w", err)
	}

	out := make(map[string]domain.Project, len(raw))
	for _, p := range raw {
		id := strconv.FormatInt(p.ID, 10)
		project := domain.Project{ID: id, Name: p.Name}
		if p.ClientID != nil {
			project.ClientID = strconv.FormatInt(*p.ClientID, 10)
		}
		out[id] = project
	}
	if err := c.cache.Set("projects", out, cache.DefaultTTL); err != nil {
		c.log.Warn("could not cache projects", slog.String("error", err.Error()))
	}
	return out, nil
}

// Clients returns the workspace's clients indexed by ID, cache-backed
// with the default TTL.
func (c *Client) Clients(ctx context.Context) (map[string]domain.Client, error) {
	if cached, ok := cache.Index[domain.Client](c.cache, "clients"); ok {
		return cached, nil
	}
	c.log.Info("refreshing client data")

	var raw []rawClient
	path := fmt.Sprintf("/api/v9/workspaces/%d/clients", c.workspace)
	if err := c.getJSON(ctx, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("toggl: clients: %w", err)
	}

	out := make(map[string]domain.Client, len(raw))
	for _, cl := range raw {
		id := strconv.FormatInt(cl.ID, 10)
		out[id] = domain.Client{ID: id, Name: cl.Name}
	}
	if err := c.cache.Set("clients", out, cache.DefaultTTL); err != nil {
		c.log.Warn("could not cache clients", slog.String("error", err.Error()))
	}
	return out, nil
}

// Entries fetches time entries in the window. Boundaries are expressed
// in the resolved local offset; the API returns UTC data regardless.
func (c *Client) Entries(ctx context.Context, start, end time.Time, hasEnd bool) ([]domain.TimeEntry, error) {
	q := url.Values{}
	q.Set("start_date", start.In(c.loc).Format(time.RFC3339))
	if hasEnd {
		q.Set("end_date", end.In(c.loc).Format(time.RFC3339))
	}

	var raw []rawTimeEntry
	if err := c.getJSON(ctx, "/api/v9/me/time_entries", q, &raw); err != nil {
		return nil, fmt.Errorf("toggl: entries: %w", err)
	}

	out := make([]domain.TimeEntry, 0, len(raw))
	for _, r := range raw {
		entry := domain.TimeEntry{
			Description: r.Description,
			Start:       r.Start,
			RawDuration: strconv.FormatInt(r.Duration, 10),
		}
		if r.ProjectID != nil {
			entry.ProjectID = strconv.FormatInt(*r.ProjectID, 10)
		}
		// A negative duration is Toggl's running-timer sentinel.
		if r.Duration < 0 {
			entry.Running = true
		} else {
			entry.DurationSec = r.Duration
		}
		out = append(out, entry)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	if c.apiToken == "" {
		return errors.New("missing api token")
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	u.Path = path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	// Basic auth: token:api_token
	auth := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", c.apiToken, "api_token")))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// rawTimeEntry mirrors the JSON from Toggl v9.
type rawTimeEntry struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	ProjectID   *int64    `json:"project_id"`
	Start       time.Time `json:"start"`
	Duration    int64     `json:"duration"`
}

type rawProject struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ClientID *int64 `json:"client_id"`
}

type rawClient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
