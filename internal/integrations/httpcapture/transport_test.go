package httpcapture

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransport_CapturesAndRestoresBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tr := New(nil)
	resp, err := tr.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, `{"ok":true}`, string(body))
	require.Equal(t, `{"ok":true}`, string(tr.ResponseBody))
	require.Equal(t, http.StatusAccepted, tr.StatusCode)
}

func TestTransport_MaxBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	tr := &Transport{MaxBody: 4}
	resp, err := tr.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "0123", string(tr.ResponseBody))
}

func TestTransport_TransportError(t *testing.T) {
	tr := New(http.DefaultTransport)
	_, err := tr.Client().Get("http://127.0.0.1:1")
	require.Error(t, err)
	require.Nil(t, tr.ResponseBody)
}
