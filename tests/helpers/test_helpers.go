package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/mux"
)

// FakeBackend is an in-process stand-in for the remote REST API. It serves
// the collection endpoints the sync core consumes and records every write it
// receives so tests can assert on pushed payloads.
type FakeBackend struct {
	Server *httptest.Server

	mu          sync.Mutex
	collections map[string][]map[string]any
	profile     map[string]any
	writes      []RecordedWrite
	failWrites  bool
}

type RecordedWrite struct {
	Method string
	Path   string
	Body   map[string]json.RawMessage
}

func NewFakeBackend() *FakeBackend {
	f := &FakeBackend{
		collections: map[string][]map[string]any{
			"challenges":   {},
			"participants": {},
			"checkins":     {},
		},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	for _, name := range []string{"challenges", "participants", "checkins"} {
		api.HandleFunc("/"+name, f.listHandler(name)).Methods("GET")
		api.HandleFunc("/"+name, f.writeHandler).Methods("POST")
		api.HandleFunc("/"+name+"/{id}", f.writeHandler).Methods("PUT", "DELETE")
	}
	api.HandleFunc("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"profile": f.profile})
	}).Methods("GET")
	api.HandleFunc("/users/{id}", f.writeHandler).Methods("PUT")
	api.HandleFunc("/badges", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"badges": []map[string]any{}})
	}).Methods("GET")

	f.Server = httptest.NewServer(r)
	return f
}

func (f *FakeBackend) Close() {
	f.Server.Close()
}

func (f *FakeBackend) URL() string {
	return f.Server.URL
}

// SetCollection seeds what GET returns for one collection.
func (f *FakeBackend) SetCollection(name string, items []map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[name] = items
}

func (f *FakeBackend) SetProfile(p map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = p
}

// FailWrites makes every POST/PUT/DELETE return HTTP 500 until cleared.
func (f *FakeBackend) FailWrites(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = fail
}

// Writes returns the writes recorded so far.
func (f *FakeBackend) Writes() []RecordedWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedWrite(nil), f.writes...)
}

func (f *FakeBackend) listHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{name: f.collections[name]})
	}
}

func (f *FakeBackend) writeHandler(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]json.RawMessage
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}
	f.writes = append(f.writes, RecordedWrite{
		Method: r.Method,
		Path:   r.URL.Path,
		Body:   body,
	})
	if f.failWrites {
		http.Error(w, "backend down", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
