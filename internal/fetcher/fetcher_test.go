package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestFetchAllAlignedToInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Path)
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/a", srv.URL + "/b", srv.URL + "/c"}
	results := New(srv.Client(), time.Millisecond, testLogger()).FetchAll(context.Background(), urls)

	require.Len(t, results, 3)
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, urls[i], res.URL)
	}
	assert.Equal(t, "/a", string(results[0].Body))
	assert.Equal(t, "/b", string(results[1].Body))
	assert.Equal(t, "/c", string(results[2].Body))
}

func TestFetchAllIsolatesPermanentFailure(t *testing.T) {
	// url #2 每次都5xx直到重试上限，#1/#3不受影响
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/1", srv.URL + "/bad", srv.URL + "/3"}
	results := New(srv.Client(), time.Millisecond, testLogger()).FetchAll(context.Background(), urls)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, "ok", string(results[0].Body))
	assert.NoError(t, results[2].Err)

	require.Error(t, results[1].Err)
	assert.Equal(t, urls[1], results[1].URL)
	assert.Contains(t, results[1].Err.Error(), "HTTP 500")
}

func TestFetchOneRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "recovered")
	}))
	defer srv.Close()

	results := New(srv.Client(), time.Millisecond, testLogger()).FetchAll(context.Background(), []string{srv.URL})

	require.NoError(t, results[0].Err)
	assert.Equal(t, "recovered", string(results[0].Body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchOneStopsAtAttemptCap(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	results := New(srv.Client(), time.Millisecond, testLogger()).FetchAll(context.Background(), []string{srv.URL})

	require.Error(t, results[0].Err)
	assert.Equal(t, int32(maxAttempts), calls.Load())
}
