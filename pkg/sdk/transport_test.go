package sdk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picobrain/console/pkg/sdk"
)

// testStack wires a session, scheduler and authenticated client against the
// given server, the way the console assembles them.
func testStack(t *testing.T, server *httptest.Server, onEnded func()) (*sdk.Session, *sdk.Client) {
	t.Helper()

	session := sdk.NewSession(sdk.NewMemoryStore())
	// The renewal path injects the credential but never retries on 401;
	// an unauthorized renewal is terminal.
	authHTTP := &http.Client{
		Timeout:   sdk.RequestTimeout,
		Transport: &sdk.Transport{Session: session},
	}
	authClient := sdk.NewAuthClient(sdk.NewClient(server.URL, sdk.WithHTTPClient(authHTTP)), session)

	opts := []sdk.SchedulerOption{}
	if onEnded != nil {
		opts = append(opts, sdk.OnSessionEnded(onEnded))
	}
	scheduler := sdk.NewRenewalScheduler(session, authClient.RenewToken, opts...)

	client := sdk.NewClient(server.URL, sdk.WithHTTPClient(sdk.NewHTTPClient(session, scheduler)))
	return session, client
}

func TestTransportInjectsBearerCredential(t *testing.T) {
	var gotAuth atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"items": []any{}, "total": 0})
	}))
	defer server.Close()

	session, client := testStack(t, server, nil)
	require.NoError(t, session.SetCredential("tok-1", time.Hour))

	employees := sdk.NewCollection[sdk.Employee](client, "employees")
	_, err := employees.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth.Load())
}

func TestTransportRenewsOnceOnUnauthorized(t *testing.T) {
	var listCalls, renewCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/refresh":
			renewCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-2",
				"token_type":   "bearer",
				"expires_in":   1800,
			})
		case "/api/v1/employees":
			listCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer tok-2" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"items": []any{}, "total": 0})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	session, client := testStack(t, server, nil)
	require.NoError(t, session.SetCredential("tok-stale", time.Hour))

	employees := sdk.NewCollection[sdk.Employee](client, "employees")
	_, err := employees.List(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), renewCalls.Load(), "exactly one renewal")
	assert.Equal(t, int64(2), listCalls.Load(), "original call plus one retry")

	creds, ok := session.Credential()
	require.True(t, ok)
	assert.Equal(t, "tok-2", creds.AccessToken)
}

func TestTransportSecondUnauthorizedEndsSession(t *testing.T) {
	var renewCalls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			renewCalls.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "tok-2",
				"token_type":   "bearer",
				"expires_in":   1800,
			})
			return
		}
		// The collection endpoint rejects every credential.
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ended := false
	session, client := testStack(t, server, func() { ended = true })
	require.NoError(t, session.SetCredential("tok-stale", time.Hour))

	employees := sdk.NewCollection[sdk.Employee](client, "employees")
	_, err := employees.List(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, sdk.KindSessionExpired, sdk.KindOf(err), "second 401 yields SessionExpired, not a loop")
	assert.Equal(t, int64(1), renewCalls.Load(), "at most one renewal per call")
	assert.True(t, ended)

	_, ok := session.Credential()
	assert.False(t, ok, "session cleared after unrecoverable 401")
}

func TestTransportFailedRenewalSurfacesSessionExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	ended := false
	session, client := testStack(t, server, func() { ended = true })
	require.NoError(t, session.SetCredential("tok-stale", time.Hour))

	employees := sdk.NewCollection[sdk.Employee](client, "employees")
	_, err := employees.List(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, sdk.KindSessionExpired, sdk.KindOf(err))
	assert.True(t, ended)
}

func TestErrorKindsPropagateUntranslated(t *testing.T) {
	cases := []struct {
		name   string
		status int
		kind   sdk.Kind
	}{
		{"forbidden", http.StatusForbidden, sdk.KindForbidden},
		{"not found", http.StatusNotFound, sdk.KindNotFound},
		{"server error", http.StatusInternalServerError, sdk.KindServerError},
		{"validation", http.StatusUnprocessableEntity, sdk.KindValidationRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(map[string]any{"detail": "nope"})
			}))
			defer server.Close()

			session, client := testStack(t, server, nil)
			require.NoError(t, session.SetCredential("tok-1", time.Hour))

			employees := sdk.NewCollection[sdk.Employee](client, "employees")
			_, err := employees.List(context.Background(), nil)

			require.Error(t, err)
			assert.Equal(t, tc.kind, sdk.KindOf(err))
		})
	}
}

func TestValidationDetailPassedThroughOpaquely(t *testing.T) {
	detail := `[{"loc":["body","code"],"msg":"field required","type":"value_error.missing"}]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"detail":` + detail + `}`))
	}))
	defer server.Close()

	session, client := testStack(t, server, nil)
	require.NoError(t, session.SetCredential("tok-1", time.Hour))

	clinics := sdk.NewCollection[sdk.Clinic](client, "clinics")
	_, err := clinics.Create(context.Background(), map[string]any{"name": "Main"})

	var apiErr *sdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, sdk.KindValidationRejected, apiErr.Kind)
	assert.JSONEq(t, detail, string(apiErr.Detail))
}

func TestNetworkFailureTagsKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // unreachable from the start

	session, client := testStack(t, server, nil)
	require.NoError(t, session.SetCredential("tok-1", time.Hour))

	employees := sdk.NewCollection[sdk.Employee](client, "employees")
	_, err := employees.List(context.Background(), nil)

	require.Error(t, err)
	assert.Equal(t, sdk.KindNetwork, sdk.KindOf(err))
}
