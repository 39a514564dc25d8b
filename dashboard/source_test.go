package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"usage-dashboard/cache"
	"usage-dashboard/config"
)

const sourceCSV = "Day,Age,Gender,A,B,C,Calls\n" +
	"4/10/2022,15-25,Male,10,20,30,5\n" +
	"31/13/2022,15-25,Male,1,1,1,1\n" +
	"5/10/2022,>25,Female,5,5,5,2\n"

func TestSource_FetchParsesAndNormalizes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sourceCSV))
	}))
	defer server.Close()

	source := NewSource(server.URL, 5*time.Second, nil, NewPipeline(testFeatures))

	rows, err := source.Rows(context.Background())
	if err != nil {
		t.Fatalf("Rows() error = %v", err)
	}

	// The 31/13/2022 row is dropped during normalization
	if len(rows) != 2 {
		t.Fatalf("Rows() returned %d rows, want 2", len(rows))
	}
	if rows[0].Day != "2022-10-04" || rows[1].Day != "2022-10-05" {
		t.Errorf("Unexpected normalized days: %s, %s", rows[0].Day, rows[1].Day)
	}
}

func TestSource_CachesDataset(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(sourceCSV))
	}))
	defer server.Close()

	cacheClient, err := cache.New(config.CacheConfig{
		Enabled:     true,
		MaxSizeMB:   10,
		TTLSeconds:  60,
		CounterSize: 1000,
	})
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	defer cacheClient.Close()

	source := NewSource(server.URL, 5*time.Second, cacheClient, NewPipeline(testFeatures))

	if _, err := source.Rows(context.Background()); err != nil {
		t.Fatalf("Rows() error = %v", err)
	}

	// Ristretto admits entries asynchronously
	time.Sleep(20 * time.Millisecond)

	if _, err := source.Rows(context.Background()); err != nil {
		t.Fatalf("Rows() second call error = %v", err)
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Feed fetched %d times, want 1", got)
	}
}

func TestSource_NoURLConfigured(t *testing.T) {
	source := NewSource("", 5*time.Second, nil, NewPipeline(testFeatures))

	if _, err := source.Rows(context.Background()); !errors.Is(err, ErrNoDatasetURL) {
		t.Errorf("Rows() error = %v, want ErrNoDatasetURL", err)
	}
}

func TestSource_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewSource(server.URL, 5*time.Second, nil, NewPipeline(testFeatures))

	if _, err := source.Rows(context.Background()); err == nil {
		t.Error("Rows() should fail on a non-200 upstream response")
	}
}
