package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"usage-dashboard/config"
	"usage-dashboard/model"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})

	return client, s
}

func newTestViewHandler(t *testing.T) (*ViewHandler, *miniredis.Miniredis, func()) {
	t.Helper()

	client, s := setupTestRedis(t)

	cfg := config.Config{
		WebServer: config.WebServerConfig{
			Scheme: "http",
			IP:     "localhost",
			Port:   "8080",
		},
		Redis: config.RedisConfig{OperationTimeout: 5},
		Views: config.ViewsConfig{TTLHours: 1},
	}

	vh := NewViewHandler(client, cfg)
	cleanup := func() {
		client.Close()
		s.Close()
	}
	return vh, s, cleanup
}

func viewRouter(vh *ViewHandler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/views", vh.CreateView).Methods("POST")
	r.HandleFunc("/api/views/{id}", vh.GetView).Methods("GET")
	r.HandleFunc("/api/views/{id}", vh.DeleteView).Methods("DELETE")
	r.HandleFunc("/api/views/{id}/qr", vh.ViewQR).Methods("GET")
	return r
}

func createView(t *testing.T, router *mux.Router, reqBody model.SavedViewRequest) model.SavedViewResponse {
	t.Helper()

	body, _ := json.Marshal(reqBody)
	req := httptest.NewRequest(http.MethodPost, "/api/views", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("CreateView status = %d: %s", w.Code, w.Body.String())
	}

	var resp model.SavedViewResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode view response: %v", err)
	}
	return resp
}

func TestCreateView_ThenResolve(t *testing.T) {
	vh, _, cleanup := newTestViewHandler(t)
	defer cleanup()
	router := viewRouter(vh)

	created := createView(t, router, model.SavedViewRequest{
		From:     "2022-10-04",
		To:       "2022-10-29",
		Feature:  "C",
		AgeGroup: "15-25",
		Gender:   "Male",
	})

	if len(created.ID) != viewIDLength {
		t.Errorf("View ID length = %d, want %d", len(created.ID), viewIDLength)
	}
	if created.ManagementID == "" {
		t.Error("ManagementID should be set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/views/"+created.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GetView status = %d: %s", w.Code, w.Body.String())
	}

	var view model.SavedView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode view: %v", err)
	}

	if view.From != "2022-10-04" || view.To != "2022-10-29" || view.Feature != "C" ||
		view.AgeGroup != "15-25" || view.Gender != "Male" {
		t.Errorf("Resolved view = %+v", view)
	}
	if view.ManagementID != "" {
		t.Error("ManagementID must not leak to readers")
	}
}

func TestCreateView_DefaultsEmptyGroups(t *testing.T) {
	vh, _, cleanup := newTestViewHandler(t)
	defer cleanup()
	router := viewRouter(vh)

	created := createView(t, router, model.SavedViewRequest{
		From: "2022-10-04",
		To:   "2022-10-29",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/views/"+created.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var view model.SavedView
	json.NewDecoder(w.Body).Decode(&view)

	if view.AgeGroup != "all" || view.Gender != "all" {
		t.Errorf("Empty groups should default to all, got %+v", view)
	}
}

func TestCreateView_InvalidDates(t *testing.T) {
	vh, _, cleanup := newTestViewHandler(t)
	defer cleanup()
	router := viewRouter(vh)

	tests := []struct {
		name string
		req  model.SavedViewRequest
	}{
		{"Bad from", model.SavedViewRequest{From: "4/10/2022", To: "2022-10-29"}},
		{"Bad to", model.SavedViewRequest{From: "2022-10-04", To: "tomorrow"}},
		{"Empty", model.SavedViewRequest{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.req)
			req := httptest.NewRequest(http.MethodPost, "/api/views", bytes.NewBuffer(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("CreateView status = %d, want 400", w.Code)
			}
		})
	}
}

func TestGetView_NotFound(t *testing.T) {
	vh, _, cleanup := newTestViewHandler(t)
	defer cleanup()
	router := viewRouter(vh)

	req := httptest.NewRequest(http.MethodGet, "/api/views/missing1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("GetView status = %d, want 404", w.Code)
	}
}

func TestGetView_Expired(t *testing.T) {
	vh, s, cleanup := newTestViewHandler(t)
	defer cleanup()
	router := viewRouter(vh)

	created := createView(t, router, model.SavedViewRequest{From: "2022-10-04", To: "2022-10-29"})

	// Advance miniredis past the TTL
	s.FastForward(2 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/api/views/"+created.ID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("GetView status after expiry = %d, want 404", w.Code)
	}
}

func TestDeleteView(t *testing.T) {
	vh, _, cleanup := newTestViewHandler(t)
	defer cleanup()
	router := viewRouter(vh)

	created := createView(t, router, model.SavedViewRequest{From: "2022-10-04", To: "2022-10-29"})

	t.Run("Wrong_management_ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/views/"+created.ID, nil)
		req.Header.Set("X-Management-ID", "not-the-right-one")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("DeleteView status = %d, want 403", w.Code)
		}
	})

	t.Run("Missing_header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/views/"+created.ID, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("DeleteView status = %d, want 400", w.Code)
		}
	})

	t.Run("Correct_management_ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/views/"+created.ID, nil)
		req.Header.Set("X-Management-ID", created.ManagementID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("DeleteView status = %d, want 200", w.Code)
		}

		// Gone afterwards
		get := httptest.NewRequest(http.MethodGet, "/api/views/"+created.ID, nil)
		w2 := httptest.NewRecorder()
		router.ServeHTTP(w2, get)
		if w2.Code != http.StatusNotFound {
			t.Errorf("GetView after delete = %d, want 404", w2.Code)
		}
	})
}

func TestViewQR(t *testing.T) {
	vh, _, cleanup := newTestViewHandler(t)
	defer cleanup()
	router := viewRouter(vh)

	created := createView(t, router, model.SavedViewRequest{From: "2022-10-04", To: "2022-10-29"})

	t.Run("PNG", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/views/"+created.ID+"/qr", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("ViewQR status = %d: %s", w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("Content-Type = %q, want image/png", ct)
		}
		// PNG magic bytes
		if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
			t.Error("Response body is not a PNG")
		}
	})

	t.Run("Bad_size", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/views/"+created.ID+"/qr?size=64", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("ViewQR status = %d, want 400", w.Code)
		}
	})

	t.Run("Unknown_view", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/views/unknown1/qr", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("ViewQR status = %d, want 404", w.Code)
		}
	})
}
