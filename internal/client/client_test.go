package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/proofread/internal/analyzer"
	"github.com/colonyops/proofread/internal/core/editor"
	"github.com/colonyops/proofread/internal/core/highlight"
	"github.com/colonyops/proofread/internal/modules/pronouns"
	"github.com/colonyops/proofread/internal/server"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	reg := analyzer.NewRegistry(2, zerolog.Nop())
	reg.Register(pronouns.New(nil))
	reg.InitAll(context.Background())

	srv := httptest.NewServer(server.New(reg, server.Options{
		Logger:     zerolog.Nop(),
		SampleText: func() (string, error) { return "sample", nil },
	}).Handler())
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", srv.Client())
}

func TestModules(t *testing.T) {
	infos, err := newTestClient(t).Modules(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, pronouns.Name, infos[0].Name)
}

func TestProcess(t *testing.T) {
	results, err := newTestClient(t).Process(context.Background(), "I like this.", []string{pronouns.Name})
	require.NoError(t, err)

	require.Len(t, results[pronouns.Name].Results, 1)
	f := results[pronouns.Name].Results[0]
	assert.Equal(t, 7, f.Start)
	assert.Equal(t, "this", f.TextSpan)
}

func TestProcess_APIError(t *testing.T) {
	_, err := newTestClient(t).Process(context.Background(), "text", []string{"grammar"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "grammar")
}

func TestProcess_NoModulesSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)

	_, err := c.Process(context.Background(), "text", nil)
	assert.ErrorIs(t, err, analyzer.ErrNoModules)
	_, err = c.Highlight(context.Background(), "text", []string{})
	assert.ErrorIs(t, err, analyzer.ErrNoModules)
	assert.Zero(t, calls.Load())
}

func TestAPIError_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Modules(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).Modules(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestHighlight(t *testing.T) {
	resp, err := newTestClient(t).Highlight(context.Background(), "Take it.", []string{pronouns.Name})
	require.NoError(t, err)

	assert.Contains(t, resp.HTML, `>it</span>`)
	require.Len(t, resp.Segments, 3)
	assert.Equal(t, highlight.SegmentMarked, resp.Segments[1].Kind)
}

func TestSampleText(t *testing.T) {
	text, err := newTestClient(t).SampleText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sample", text)
}

// The client drives an editor session the same way the in-process registry
// does.
func TestClient_AsSessionBackend(t *testing.T) {
	c := newTestClient(t)

	s := editor.NewSession(highlight.DefaultPalette(), zerolog.Nop())
	s.SetText("They said so.")

	overlay, err := s.Run(context.Background(), c, []string{pronouns.Name})
	require.NoError(t, err)
	assert.Equal(t, "They said so.", overlay.Text())

	members, ok := s.Select(1)
	require.True(t, ok)
	assert.Equal(t, []highlight.Member{{Module: pronouns.Name, Explanation: "isolated pronoun"}}, members)
}

func TestFindingShapes(t *testing.T) {
	// older servers send only position and text_span
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"legacy": map[string]any{
				"module_name": "legacy",
				"results":     []map[string]any{{"position": 4, "text_span": "that", "explanation": "old"}},
			},
		})
	}))
	defer srv.Close()

	s := editor.NewSession(highlight.DefaultPalette(), zerolog.Nop())
	s.SetText("Not that one.")

	overlay, err := s.Run(context.Background(), New(srv.URL, nil), []string{"legacy"})
	require.NoError(t, err)

	seg, ok := overlay.At(5)
	require.True(t, ok)
	assert.Equal(t, "that", seg.Text)
}
