package pagespeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

const sampleResponse = `{
  "id": "https://example.com/",
  "lighthouseResult": {
    "categories": {
      "performance": {"id": "performance", "score": 0.856},
      "accessibility": {"id": "accessibility", "score": 0.98},
      "best-practices": {"id": "best-practices", "score": 1},
      "seo": {"id": "seo", "score": 0.92}
    }
  }
}`

// newTestServer starts a server that records the last query and answers
// with status and body.
func newTestServer(t *testing.T, status int, body string, lastQuery *string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lastQuery != nil {
			*lastQuery = r.URL.RawQuery
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient("key", nil)
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}
		if c.endpoint != DefaultEndpoint {
			t.Errorf("endpoint = %q, want %q", c.endpoint, DefaultEndpoint)
		}
		if c.strategy != StrategyMobile {
			t.Errorf("strategy = %q, want %q", c.strategy, StrategyMobile)
		}
		if c.timeout != DefaultTimeout {
			t.Errorf("timeout = %v, want %v", c.timeout, DefaultTimeout)
		}
		if len(c.categories) != 4 {
			t.Errorf("categories = %v, want all four", c.categories)
		}
	})

	t.Run("rejects unknown strategy", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("", nil, WithStrategy("tablet"))
		if !errors.Is(err, ErrInvalidStrategy) {
			t.Errorf("NewClient() error = %v, want ErrInvalidStrategy", err)
		}
	})

	t.Run("validates proxy address", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			address string
			wantErr bool
		}{
			{"127.0.0.1:1080", false},
			{"proxy.internal:9050", false},
			{"127.0.0.1", true},
			{":1080", true},
			{"127.0.0.1:0", true},
			{"127.0.0.1:70000", true},
			{"127.0.0.1:abc", true},
		}

		for _, tt := range tests {
			_, err := NewClient("", nil, WithProxy(tt.address), WithTimeout(time.Second))
			if tt.wantErr && !errors.Is(err, ErrInvalidProxyAddress) {
				t.Errorf("WithProxy(%q) error = %v, want ErrInvalidProxyAddress", tt.address, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("WithProxy(%q) unexpected error = %v", tt.address, err)
			}
		}
	})
}

func TestClient_Fetch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("parses scores in request order", func(t *testing.T) {
		t.Parallel()

		var query string
		srv := newTestServer(t, http.StatusOK, sampleResponse, &query)

		c, err := NewClient("secret-key", model.AllCategories(), WithEndpoint(srv.URL))
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		scores, err := c.Fetch(ctx, "https://example.com/")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}

		want := map[model.Category]int{
			model.CategoryPerformance:   86,
			model.CategoryAccessibility: 98,
			model.CategoryBestPractices: 100,
			model.CategorySEO:           92,
		}
		for cat, w := range want {
			got, ok := scores.Score(cat)
			if !ok || got != w {
				t.Errorf("Score(%s) = %d, %v; want %d", cat, got, ok, w)
			}
		}
		if cats := scores.Categories(); cats[0] != model.CategoryPerformance || cats[3] != model.CategorySEO {
			t.Errorf("category order = %v", cats)
		}

		for _, part := range []string{
			"url=https%3A%2F%2Fexample.com%2F",
			"strategy=mobile",
			"category=PERFORMANCE",
			"category=BEST_PRACTICES",
			"key=secret-key",
		} {
			if !strings.Contains(query, part) {
				t.Errorf("query %q does not contain %q", query, part)
			}
		}
	})

	t.Run("only requested categories are returned", func(t *testing.T) {
		t.Parallel()

		var query string
		srv := newTestServer(t, http.StatusOK, sampleResponse, &query)
		c, err := NewClient("", []model.Category{model.CategorySEO}, WithEndpoint(srv.URL), WithStrategy(StrategyDesktop))
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		scores, err := c.Fetch(ctx, "https://example.com/")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if scores.Len() != 1 {
			t.Errorf("Len() = %d, want 1", scores.Len())
		}
		if strings.Contains(query, "key=") {
			t.Errorf("query %q must not carry an empty key", query)
		}
		if !strings.Contains(query, "strategy=desktop") {
			t.Errorf("query %q does not select desktop", query)
		}
	})

	t.Run("API error is reported with message", func(t *testing.T) {
		t.Parallel()

		body := `{"error": {"code": 429, "message": "Quota exceeded for quota metric 'Queries'", "status": "RESOURCE_EXHAUSTED"}}`
		srv := newTestServer(t, http.StatusTooManyRequests, body, nil)
		c, err := NewClient("", nil, WithEndpoint(srv.URL))
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		_, err = c.Fetch(ctx, "https://example.com/")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("Fetch() error = %v, want *APIError", err)
		}
		if apiErr.StatusCode != http.StatusTooManyRequests {
			t.Errorf("StatusCode = %d, want 429", apiErr.StatusCode)
		}
		if !strings.Contains(apiErr.Error(), "Quota exceeded") {
			t.Errorf("Error() = %q, want the API message", apiErr.Error())
		}
	})

	t.Run("API error without envelope", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, http.StatusBadGateway, "upstream failure", nil)
		c, err := NewClient("", nil, WithEndpoint(srv.URL))
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		_, err = c.Fetch(ctx, "https://example.com/")
		if err == nil || !strings.Contains(err.Error(), "HTTP 502") {
			t.Errorf("Fetch() error = %v, want HTTP 502", err)
		}
	})

	t.Run("transport errors do not leak the API key", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		endpoint := srv.URL
		srv.Close()

		c, err := NewClient("AIzaSyTopSecret", nil, WithEndpoint(endpoint), WithTimeout(2*time.Second))
		if err != nil {
			t.Fatalf("NewClient() error = %v", err)
		}

		_, err = c.Fetch(ctx, "https://example.com/")
		if err == nil {
			t.Fatal("Fetch() expected error")
		}
		if strings.Contains(err.Error(), "AIzaSyTopSecret") {
			t.Errorf("error %q leaks the API key", err.Error())
		}
	})
}

func TestParseScores(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		categories []model.Category
		want       map[model.Category]int
		wantErr    error
	}{
		{
			name:       "hyphenless key is accepted",
			body:       `{"lighthouseResult": {"categories": {"bestpractices": {"score": 0.75}}}}`,
			categories: []model.Category{model.CategoryBestPractices},
			want:       map[model.Category]int{model.CategoryBestPractices: 75},
		},
		{
			name:       "null score is skipped",
			body:       `{"lighthouseResult": {"categories": {"performance": {"score": null}, "seo": {"score": 0.5}}}}`,
			categories: []model.Category{model.CategoryPerformance, model.CategorySEO},
			want:       map[model.Category]int{model.CategorySEO: 50},
		},
		{
			name:       "rounds to nearest",
			body:       `{"lighthouseResult": {"categories": {"performance": {"score": 0.289}}}}`,
			categories: []model.Category{model.CategoryPerformance},
			want:       map[model.Category]int{model.CategoryPerformance: 29},
		},
		{
			name:       "float error does not truncate",
			body:       `{"lighthouseResult": {"categories": {"performance": {"score": 0.29}, "seo": {"score": 0.57}}}}`,
			categories: []model.Category{model.CategoryPerformance, model.CategorySEO},
			want:       map[model.Category]int{model.CategoryPerformance: 29, model.CategorySEO: 57},
		},
		{
			name:       "no categories",
			body:       `{"lighthouseResult": {"categories": {}}}`,
			categories: model.AllCategories(),
			wantErr:    ErrNoScores,
		},
		{
			name:       "missing lighthouse result",
			body:       `{}`,
			categories: model.AllCategories(),
			wantErr:    ErrNoScores,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseScores([]byte(tt.body), tt.categories)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseScores() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseScores() error = %v", err)
			}
			if got.Len() != len(tt.want) {
				t.Fatalf("Len() = %d, want %d", got.Len(), len(tt.want))
			}
			for cat, w := range tt.want {
				if s, ok := got.Score(cat); !ok || s != w {
					t.Errorf("Score(%s) = %d, %v; want %d", cat, s, ok, w)
				}
			}
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		if _, err := parseScores([]byte("<html>"), model.AllCategories()); err == nil {
			t.Error("parseScores() expected error")
		}
	})
}
