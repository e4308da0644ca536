package jira

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPostWorklogCreated(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "me@example.com", "tok", "PROJ", discardLogger())
	started := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	ok, err := c.PostWorklog(context.Background(), "PROJ-4", 1800, "build", started)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "/rest/api/3/issue/PROJ-4/worklog", gotPath)
	assert.Contains(t, gotAuth, "Basic ")
	assert.Equal(t, "2026-08-01T09:30:00.000+0000", gotBody["started"])
	assert.EqualValues(t, 1800, gotBody["timeSpentSeconds"])

	comment, ok := gotBody["comment"].(map[string]any)
	require.True(t, ok, "description must be sent as a comment document")
	assert.Equal(t, "doc", comment["type"])
}

func TestPostWorklogOmitsEmptyComment(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "me@example.com", "tok", "PROJ", discardLogger())
	ok, err := c.PostWorklog(context.Background(), "PROJ-4", 900, "", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotContains(t, gotBody, "comment")
}

func TestPostWorklogNonCreatedIsFailureNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "me@example.com", "tok", "PROJ", discardLogger())
	ok, err := c.PostWorklog(context.Background(), "PROJ-4", 900, "", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostWorklogMissingCredentials(t *testing.T) {
	c := NewClient("http://unused", "", "", "PROJ", discardLogger())
	ok, err := c.PostWorklog(context.Background(), "PROJ-4", 900, "", time.Now())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestClientIssues(t *testing.T) {
	var gotJQL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/search", r.URL.Path)
		var body struct {
			JQL        string `json:"jql"`
			MaxResults int    `json:"maxResults"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotJQL = body.JQL
		assert.Equal(t, 100, body.MaxResults)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"issues":[
			{"key":"PROJ-4","fields":{"summary":"Acme"}},
			{"key":"PROJ-7","fields":{"summary":"Globex"}}
		]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "me@example.com", "tok", "PROJ", discardLogger())
	got, err := c.ClientIssues(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"Acme": "PROJ-4", "Globex": "PROJ-7"}, got)
	assert.Equal(t, "project = PROJ AND issuetype = Client AND resolution = unresolved order by summary ASC", gotJQL)
}

func TestClientIssuesSearchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"errorMessages":["bad token"]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "me@example.com", "tok", "PROJ", discardLogger())
	_, err := c.ClientIssues(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "bad token")
}
