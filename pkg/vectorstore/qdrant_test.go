package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Jeyavarman-2005/Rane-Mainta/pkg/config"
)

func TestQdrantStore_UpsertRequestShape(t *testing.T) {
	var captured map[string]interface{}
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/machine_data_1200/points", r.URL.Path)
		assert.Equal(t, "wait=true", r.URL.RawQuery)
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		return okResponse(t, map[string]interface{}{"status": "completed"}), nil
	})

	payload := map[string]interface{}{"machine_name": "Press 3"}
	err := s.Upsert(context.Background(), "machine_data_1200", []Point{
		{ID: "8f0d3c1e-0000-4000-8000-000000000001", Vector: []float32{1, 2, 3}, Payload: payload},
	})
	require.NoError(t, err)

	points, ok := captured["points"].([]interface{})
	require.True(t, ok)
	require.Len(t, points, 1)
	first := points[0].(map[string]interface{})
	assert.Equal(t, "8f0d3c1e-0000-4000-8000-000000000001", first["id"])
	assert.Equal(t, []interface{}{1.0, 2.0, 3.0}, first["vector"])
	assert.Equal(t, map[string]interface{}{"machine_name": "Press 3"}, first["payload"])
}

func TestQdrantStore_UpsertValidation(t *testing.T) {
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	assert.NoError(t, s.Upsert(context.Background(), "c", nil))

	err := s.Upsert(context.Background(), "c", []Point{{ID: "", Vector: []float32{1}}})
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OperationErrorValidation, opErr.Code)
	assert.False(t, IsRetryable(err))
}

func TestQdrantStore_CreateCollection(t *testing.T) {
	var captured map[string]interface{}
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/collections/machine_data_master", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		return okResponse(t, true), nil
	})

	tuning := (&config.QdrantConfig{ShardNumber: 2, IndexingThreshold: 20000}).TuningOptions()
	err := s.CreateCollection(context.Background(), CollectionSpec{
		Name:       "machine_data_master",
		VectorSize: 768,
		Tuning:     tuning,
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"size": 768.0, "distance": DistanceCosine}, captured["vectors"])
	assert.Equal(t, 2.0, captured["shard_number"])
	assert.Equal(t, map[string]interface{}{"indexing_threshold": 20000.0}, captured["optimizers_config"])
}

func TestQdrantStore_CollectionExists(t *testing.T) {
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/collections/machine_data_1300/exists", r.URL.Path)
		return okResponse(t, map[string]interface{}{"exists": true}), nil
	})

	exists, err := s.CollectionExists(context.Background(), "machine_data_1300")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestQdrantStore_Search(t *testing.T) {
	var captured map[string]interface{}
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/machine_data_master/points/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		return okResponse(t, []map[string]interface{}{
			{"id": "a", "score": 0.9, "payload": map[string]interface{}{"machine_name": "Lathe"}},
			{"id": 42, "score": 0.5, "payload": map[string]interface{}{}},
		}), nil
	})

	hits, err := s.Search(context.Background(), "machine_data_master", []float32{0.1, 0.2}, 50)
	require.NoError(t, err)

	assert.Equal(t, 50.0, captured["limit"])
	assert.Equal(t, true, captured["with_payload"])
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "Lathe", hits[0].Payload["machine_name"])
	assert.Equal(t, "42", hits[1].ID)
}

func TestQdrantStore_Count(t *testing.T) {
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/collections/machine_data_master/points/count", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"exact":true}`, string(body))
		return okResponse(t, map[string]interface{}{"count": 1234}), nil
	})

	n, err := s.Count(context.Background(), "machine_data_master")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), n)
}

func TestQdrantStore_HTTPErrorStatus(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusServiceUnavailable, true},
		{http.StatusTooManyRequests, true},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: tt.status,
					Header:     make(http.Header),
					Body:       io.NopCloser(bytes.NewReader([]byte(`{"status":{"error":"boom"}}`))),
				}, nil
			})

			_, err := s.Count(context.Background(), "c")
			var opErr *OperationError
			require.True(t, errors.As(err, &opErr))
			assert.Equal(t, tt.status, opErr.StatusCode)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestQdrantStore_EnvelopeError(t *testing.T) {
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		raw := []byte(`{"result":null,"status":{"error":"Wrong input: vector dimension"},"time":0}`)
		return &http.Response{StatusCode: http.StatusOK, Header: make(http.Header), Body: io.NopCloser(bytes.NewReader(raw))}, nil
	})

	err := s.Upsert(context.Background(), "c", []Point{{ID: "x", Vector: []float32{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Wrong input: vector dimension")
}

func TestQdrantStore_Ready(t *testing.T) {
	s := newTestStore(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/readyz", r.URL.Path)
		return &http.Response{StatusCode: http.StatusOK, Header: make(http.Header), Body: io.NopCloser(bytes.NewReader([]byte("all shards are ready")))}, nil
	})
	assert.NoError(t, s.Ready(context.Background()))
}

func TestClassifyHTTPCallError(t *testing.T) {
	err := classifyHTTPCallError("search", "timeout", context.DeadlineExceeded)
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OperationErrorTimeout, opErr.Code)
	assert.True(t, IsRetryable(err))

	err = classifyHTTPCallError("search", "transport", fmt.Errorf("boom"))
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, OperationErrorTransportFailed, opErr.Code)

	err = classifyHTTPCallError("search", "cancelled", context.Canceled)
	assert.False(t, IsRetryable(err))
}

func newTestStore(t *testing.T, roundTrip func(*http.Request) (*http.Response, error)) *QdrantStore {
	t.Helper()
	return NewQdrantStore(config.QdrantConfig{URL: "http://qdrant.local/", APIKey: "secret"}, zap.NewNop()).
		WithHTTPClient(&http.Client{Transport: roundTripFunc(roundTrip)})
}

func okResponse(t *testing.T, result interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"result": result,
		"status": "ok",
		"time":   0.001,
	})
	require.NoError(t, err)
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(bytes.NewReader(raw)),
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
