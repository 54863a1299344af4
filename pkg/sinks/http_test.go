package sinks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

func TestHTTPSinkPostsJSON(t *testing.T) {
	var got domain.ArtifactMetadata
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink, err := newHTTPSink(context.Background(), sanitizeSinkConfig(SinkConfig{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPConfig{URL: srv.URL, Method: "put", Headers: map[string]string{"X-Token": "secret"}},
	}), nil)
	require.NoError(t, err)

	md := sampleMetadata()
	require.NoError(t, sink.Save(context.Background(), md))
	require.Equal(t, md.RecordID, got.RecordID)
	require.Equal(t, md.NormalizedDate, got.NormalizedDate)
}

func TestHTTPSinkReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sink, err := newHTTPSink(context.Background(), sanitizeSinkConfig(SinkConfig{
		ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{URL: srv.URL},
	}), nil)
	require.NoError(t, err)

	err = sink.Save(context.Background(), sampleMetadata())
	require.ErrorContains(t, err, "503")
	require.ErrorContains(t, err, "down for maintenance")
}
