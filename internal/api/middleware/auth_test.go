package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	const apiKey = "test-api-key-12345"

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "valid key", authHeader: "Bearer " + apiKey, wantStatus: http.StatusOK},
		{name: "bearer is case insensitive", authHeader: "bearer " + apiKey, wantStatus: http.StatusOK},
		{name: "missing header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", authHeader: "Basic " + apiKey, wantStatus: http.StatusUnauthorized},
		{name: "no scheme", authHeader: apiKey, wantStatus: http.StatusUnauthorized},
		{name: "wrong key", authHeader: "Bearer wrong-key", wantStatus: http.StatusUnauthorized},
		{name: "key prefix only", authHeader: "Bearer " + apiKey[:5], wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Auth(apiKey)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/v1/datasets", http.NoBody)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			if tt.wantStatus == http.StatusUnauthorized &&
				rec.Header().Get("Content-Type") != "application/problem+json" {
				t.Errorf("content type = %q, want problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(1, 2)(okHandler())

	statuses := make([]int, 0, 4)

	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/datasets", http.NoBody)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	// Burst of 2 passes; the rest of the tight loop is shed.
	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("first two requests = %v, want them allowed", statuses[:2])
	}

	if statuses[3] != http.StatusTooManyRequests {
		t.Errorf("fourth request = %d, want 429", statuses[3])
	}
}

func TestMaxBody(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.Copy(io.Discard, r.Body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusOK)
	})

	t.Run("small body passes", func(t *testing.T) {
		handler := MaxBody(128, nil)(echo)

		req := httptest.NewRequest(http.MethodPost, "/v1/datasets", strings.NewReader("small"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("oversized body returns 413", func(t *testing.T) {
		handler := MaxBody(8, nil)(echo)

		req := httptest.NewRequest(http.MethodPost, "/v1/datasets",
			strings.NewReader(strings.Repeat("x", 64)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("status = %d, want 413", rec.Code)
		}
	})

	t.Run("end of body keeps io.EOF identity", func(t *testing.T) {
		r := &maxBodyReader{ReadCloser: io.NopCloser(strings.NewReader("ab"))}

		buf := make([]byte, 8)
		for {
			_, err := r.Read(buf)
			if err == nil {
				continue
			}

			if err != io.EOF {
				t.Fatalf("err = %v, want io.EOF", err)
			}

			break
		}
	})

	t.Run("disabled limit passes everything", func(t *testing.T) {
		handler := MaxBody(0, nil)(echo)

		req := httptest.NewRequest(http.MethodPost, "/v1/datasets",
			strings.NewReader(strings.Repeat("x", 1024)))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
