package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFlatWorldSourceBelowAndAboveGround(t *testing.T) {
	w := NewFlatWorldSource()
	b, err := w.GetBlock(Position{X: 0, Y: 0, Z: 0})
	require.NoError(t, err)
	require.Equal(t, BlockState{ID: 1}, b)

	b, err = w.GetBlock(Position{X: 0, Y: 64, Z: 0})
	require.NoError(t, err)
	require.Equal(t, BlockState{ID: 0}, b)

	require.NoError(t, w.SetBlock(Position{X: 0, Y: 64, Z: 0}, BlockState{ID: 5}))
	b, err = w.GetBlock(Position{X: 0, Y: 64, Z: 0})
	require.NoError(t, err)
	require.Equal(t, BlockState{ID: 5}, b)
}

func TestLoggingDispatcherTracksOnlineCount(t *testing.T) {
	d := NewLoggingDispatcher(zap.NewNop(), "1.16.5", 754, 20, "hello")
	p := PlayerProfile{Username: "Alice"}
	d.OnJoin(p)
	status := d.OnStatusRequest()
	require.Equal(t, 1, status.OnlinePlayers)
	require.Equal(t, 754, status.ProtocolVersion)

	d.OnLeave(p)
	status = d.OnStatusRequest()
	require.Equal(t, 0, status.OnlinePlayers)
}

func TestMojangAuthenticatorVerifySession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Alice", r.URL.Query().Get("username"))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":   "0123456789abcdef0123456789abcdef",
			"name": "Alice",
		})
	}))
	defer srv.Close()

	auth := NewMojangAuthenticator(srv.URL)
	profile, err := auth.VerifySession(context.Background(), "Alice", "somehash")
	require.NoError(t, err)
	require.Equal(t, "Alice", profile.Username)
}

func TestMojangAuthenticatorRejectsNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	auth := NewMojangAuthenticator(srv.URL)
	_, err := auth.VerifySession(context.Background(), "Alice", "somehash")
	require.Error(t, err)
}
