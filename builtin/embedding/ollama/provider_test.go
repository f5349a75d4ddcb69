package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func fakeOllama(t *testing.T, embedding []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/embeddings":
			json.NewEncoder(w).Encode(map[string]any{"embedding": embedding})
		case "/api/version":
			json.NewEncoder(w).Encode(map[string]string{"version": "0.1.0"})
		case "/api/show":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestEmbed(t *testing.T) {
	srv := fakeOllama(t, []float64{0.25, -0.5, 1.0})
	defer srv.Close()

	p := New(Config{Endpoint: srv.URL})
	got, err := p.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d embeddings, want 2", len(got))
	}
	if got[0][0] != 0.25 || got[0][1] != -0.5 || got[0][2] != 1.0 {
		t.Errorf("embedding = %v", got[0])
	}
	if p.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3 after auto-detect", p.Dimensions())
	}
}

func TestEmbedConcurrentWithDimensions(t *testing.T) {
	// The indexer embeds from worker goroutines while Dimensions is read
	// for metadata; the auto-detect write must be synchronized.
	srv := fakeOllama(t, []float64{0.1, 0.2, 0.3})
	defer srv.Close()

	p := New(Config{Endpoint: srv.URL})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Embed(context.Background(), []string{"a", "b"}); err != nil {
				t.Errorf("Embed: %v", err)
			}
			_ = p.Dimensions()
		}()
	}
	wg.Wait()

	if p.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3", p.Dimensions())
	}
}

func TestEmbedEmpty(t *testing.T) {
	p := New(Config{Endpoint: "http://127.0.0.1:1"})
	got, err := p.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestAvailable(t *testing.T) {
	srv := fakeOllama(t, nil)
	defer srv.Close()

	p := New(Config{Endpoint: srv.URL})
	if err := p.Available(context.Background()); err != nil {
		t.Errorf("Available: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	p := New(Config{})
	if p.config.Model != DefaultModel {
		t.Errorf("model = %q, want %q", p.config.Model, DefaultModel)
	}
	if p.Dimensions() != DefaultDimensions {
		t.Errorf("dimensions = %d, want %d", p.Dimensions(), DefaultDimensions)
	}
	if p.MaxBatchSize() != DefaultBatchSize {
		t.Errorf("batch size = %d", p.MaxBatchSize())
	}
}
