//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/stretchr/testify/require"

	"github.com/2beens/trainingplanner/internal/middleware"
)

// coachTokenTransport adds the coach token to every outgoing request.
type coachTokenTransport struct {
	base http.RoundTripper
}

func (t *coachTokenTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set(middleware.CoachTokenHeader, coachToken)
	return t.base.RoundTrip(r)
}

func (s *PlannerTestSuite) do(ctx context.Context, method, path, body string, withToken bool) (int, []byte) {
	t := s.T()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s%s", serverEndpoint, path), reqBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if withToken {
		req.Header.Set(middleware.CoachTokenHeader, coachToken)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, respBytes
}

func (s *PlannerTestSuite) doJSON(ctx context.Context, method, path, body string, wantStatus int, v any) {
	t := s.T()
	status, respBytes := s.do(ctx, method, path, body, true)
	require.Equal(t, wantStatus, status, string(respBytes))
	if v != nil {
		require.NoError(t, json.Unmarshal(respBytes, v))
	}
}
