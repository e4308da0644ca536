// Package jira implements the issue-tracker side: posting worklogs and
// searching for client issues used to build the mapping.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// startedLayout is the timestamp format Jira accepts for worklog
// `started` fields.
const startedLayout = "2006-01-02T15:04:05.000-0700"

// searchPageSize is Jira's maximum for a single search page; the
// mapping is capped at one page.
const searchPageSize = 100

// Client talks to the Jira Cloud REST API v3.
type Client struct {
	endpoint   string
	email      string
	token      string
	projectKey string
	http       *http.Client
	log        *slog.Logger
}

func NewClient(endpoint, email, token, projectKey string, log *slog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		email:      email,
		token:      token,
		projectKey: projectKey,
		http:       &http.Client{},
		log:        log,
	}
}

// PostWorklog creates a worklog on the issue. ok is true only for
// HTTP 201; any other status is a posting failure, not an error.
// description is sent as the worklog comment when non-empty.
func (c *Client) PostWorklog(ctx context.Context, issueKey string, seconds int64, description string, started time.Time) (bool, error) {
	if c.token == "" || c.email == "" {
		return false, errors.New("jira: missing credentials")
	}
	body := map[string]any{
		"started":          started.UTC().Format(startedLayout),
		"timeSpentSeconds": seconds,
	}
	if description != "" {
		body["comment"] = commentDoc(description)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return false, err
	}

	u := fmt.Sprintf("%s/rest/api/3/issue/%s/worklog", c.endpoint, url.PathEscape(issueKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusCreated {
		c.log.Debug("worklog rejected", slog.String("issue", issueKey), slog.Int("status", resp.StatusCode))
		return false, nil
	}
	return true, nil
}

// ClientIssues searches the configured project for unresolved issues
// of type Client, ordered by summary, and returns summary → issue key
// pairs capped at one search page.
func (c *Client) ClientIssues(ctx context.Context) (map[string]string, error) {
	body, err := json.Marshal(map[string]any{
		"jql":        fmt.Sprintf("project = %s AND issuetype = Client AND resolution = unresolved order by summary ASC", c.projectKey),
		"maxResults": searchPageSize,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/rest/api/3/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("jira: search returned status %d: %s", resp.StatusCode, string(b))
	}

	var raw struct {
		Issues []struct {
			Key    string `json:"key"`
			Fields struct {
				Summary string `json:"summary"`
			} `json:"fields"`
		} `json:"issues"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(raw.Issues))
	for _, issue := range raw.Issues {
		out[issue.Fields.Summary] = issue.Key
	}
	return out, nil
}

func (c *Client) setHeaders(req *http.Request) {
	auth := base64.StdEncoding.EncodeToString([]byte(c.email + ":" + c.token))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// commentDoc wraps plain text in the Atlassian document format worklog
// comments require.
func commentDoc(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []map[string]any{
			{
				"type": "paragraph",
				"content": []map[string]any{
					{"type": "text", "text": text},
				},
			},
		},
	}
}
