// Package clockify implements ports.Provider against the Clockify API
// v1. Durations arrive as ISO-8601 period strings; a null duration
// means the timer is still running.
package clockify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"jirify/internal/cache"
	"jirify/internal/domain"
)

// boundaryLayout is the local wall-clock format Clockify expects for
// start/end query parameters. The API wants boundaries in your local
// time (with a literal Z suffix) but returns all data in UTC.
const boundaryLayout = "2006-01-02T15:04:05Z"

// Client fetches projects, clients and time entries for one workspace
// user.
type Client struct {
	baseURL string
	apiKey  string
	userID  string
	http    *http.Client
	cache   *cache.Store
	loc     *time.Location
	log     *slog.Logger
}

func NewClient(baseURL, apiKey, workspaceID, userID string, cacheStore *cache.Store, loc *time.Location, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://api.clockify.me"
	}
	return &Client{
		baseURL: fmt.Sprintf("%s/api/v1/workspaces/%s", baseURL, url.PathEscape(workspaceID)),
		apiKey:  apiKey,
		userID:  userID,
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
	if err := c.getJSON(ctx, "/projects", nil, &raw); err != nil {
		return nil, fmt.Errorf("clockify: projects: %w", err)
	}

	out := make(map[string]domain.Project, len(raw))
	for _, p := range raw {
		out[p.ID] = domain.Project{ID: p.ID, Name: p.Name, ClientID: p.ClientID}
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
	if err := c.getJSON(ctx, "/clients", nil, &raw); err != nil {
		return nil, fmt.Errorf("clockify: clients: %w", err)
	}

	out := make(map[string]domain.Client, len(raw))
	for _, cl := range raw {
		out[cl.ID] = domain.Client{ID: cl.ID, Name: cl.Name}
	}
	if err := c.cache.Set("clients", out, cache.DefaultTTL); err != nil {
		c.log.Warn("could not cache clients", slog.String("error", err.Error()))
	}
	return out, nil
}

// Entries fetches the user's completed time entries in the window.
// Boundaries are converted to the resolved local wall clock before
// being sent; returned timestamps are UTC and need no conversion.
func (c *Client) Entries(ctx context.Context, start, end time.Time, hasEnd bool) ([]domain.TimeEntry, error) {
	q := url.Values{}
	q.Set("in-progress", "false")
	q.Set("page-size", "200")
	q.Set("start", start.In(c.loc).Format(boundaryLayout))
	if hasEnd {
		q.Set("end", end.In(c.loc).Format(boundaryLayout))
	}

	var raw []rawTimeEntry
	path := fmt.Sprintf("/user/%s/time-entries", url.PathEscape(c.userID))
	if err := c.getJSON(ctx, path, q, &raw); err != nil {
		return nil, fmt.Errorf("clockify: entries: %w", err)
	}

	out := make([]domain.TimeEntry, 0, len(raw))
	for _, r := range raw {
		entry := domain.TimeEntry{
			ProjectID:   r.ProjectID,
			Description: r.Description,
			Start:       r.TimeInterval.Start,
		}
		// A null duration is Clockify's running-timer sentinel.
		if r.TimeInterval.Duration == nil {
			entry.Running = true
		} else {
			entry.RawDuration = *r.TimeInterval.Duration
			entry.DurationSec = periodSeconds(*r.TimeInterval.Duration)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	if c.apiKey == "" {
		return errors.New("missing api key")
	}
	u := c.baseURL + path
	if query != nil {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
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

// periodSeconds decodes an ISO-8601 period string like "PT1H30M" into
// whole seconds. An unparseable string yields 0; the sync engine
// reports that as an invalid duration.
func periodSeconds(period string) int64 {
	var (
		total    int64
		value    int64
		digits   bool
		timePart bool
	)
	if len(period) == 0 || period[0] != 'P' {
		return 0
	}
	for _, r := range period[1:] {
		switch {
		case r >= '0' && r <= '9':
			value = value*10 + int64(r-'0')
			digits = true
		case r == 'T':
			timePart = true
		case r == 'D' && !timePart && digits:
			total += value * 86400
			value, digits = 0, false
		case r == 'H' && timePart && digits:
			total += value * 3600
			value, digits = 0, false
		case r == 'M' && timePart && digits:
			total += value * 60
			value, digits = 0, false
		case r == 'S' && timePart && digits:
			total += value
			value, digits = 0, false
		default:
			return 0
		}
	}
	if digits {
		// Trailing number with no designator.
		return 0
	}
	return total
}

// rawTimeEntry mirrors the JSON from Clockify v1.
type rawTimeEntry struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	ProjectID    string `json:"projectId"`
	TimeInterval struct {
		Start    time.Time `json:"start"`
		Duration *string   `json:"duration"`
	} `json:"timeInterval"`
}

type rawProject struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClientID string `json:"clientId"`
}

type rawClient struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
