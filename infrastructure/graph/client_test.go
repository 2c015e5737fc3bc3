package graph

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/spauth"
)

// fakeGraph serves the token endpoint and a routed subset of Graph.
type fakeGraph struct {
	server *httptest.Server

	mu       sync.Mutex
	calls    []string
	auth     []string
	routes   map[string]http.HandlerFunc
	tokenErr bool
}

func newFakeGraph(t *testing.T) *fakeGraph {
	t.Helper()
	f := &fakeGraph{routes: map[string]http.HandlerFunc{}}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGraph) serve(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/oauth2/v2.0/token") {
		w.Header().Set("Content-Type", "application/json")
		if f.tokenErr {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		w.Write([]byte(`{"access_token":"test-token","token_type":"Bearer","expires_in":3600}`))
		return
	}

	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	h, ok := f.routes[key]
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": "itemNotFound", "message": "no route " + key}})
		return
	}
	h(w, r)
}

func (f *fakeGraph) handle(key string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[key] = h
}

func (f *fakeGraph) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == key {
			n++
		}
	}
	return n
}

func (f *fakeGraph) config() spauth.Config {
	return spauth.Config{
		TenantID:      "tenant",
		ClientID:      "client",
		ClientSecret:  "secret",
		AuthorityHost: f.server.URL,
		GraphBaseURL:  f.server.URL + "/v1.0",
	}
}

func (f *fakeGraph) session(t *testing.T, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithHTTPClient(f.server.Client())}, opts...)
	s, err := NewClient(f.config(), opts...).AcquireSession(context.Background())
	require.NoError(t, err)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestClient_Acquire_TokenFailure(t *testing.T) {
	f := newFakeGraph(t)
	f.tokenErr = true

	_, err := NewClient(f.config(), WithHTTPClient(f.server.Client())).Acquire(context.Background())

	var authErr *apperrors.AuthenticationError
	assert.True(t, errors.As(err, &authErr))
}

func TestSession_ResolveSiteID(t *testing.T) {
	f := newFakeGraph(t)
	f.handle("GET /v1.0/sites/contoso.sharepoint.com:/sites/gauteng", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "contoso.sharepoint.com,aaa,bbb"})
	})
	s := f.session(t)

	id, err := s.ResolveSiteID(context.Background(), "https://contoso.sharepoint.com/sites/gauteng/")
	require.NoError(t, err)

	assert.Equal(t, "contoso.sharepoint.com,aaa,bbb", id)
	assert.Equal(t, []string{"Bearer test-token"}, f.auth)
}

func TestSession_ResolveSiteID_NotFoundPropagatesGraphError(t *testing.T) {
	f := newFakeGraph(t)
	s := f.session(t)

	_, err := s.ResolveSiteID(context.Background(), "https://contoso.sharepoint.com/sites/missing")

	var graphErr *apperrors.GraphError
	require.True(t, errors.As(err, &graphErr))
	assert.Equal(t, http.StatusNotFound, graphErr.StatusCode)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Contains(t, graphErr.Message, "itemNotFound")
}

func TestSession_ResolveSiteID_InvalidURL(t *testing.T) {
	f := newFakeGraph(t)
	s := f.session(t)

	_, err := s.ResolveSiteID(context.Background(), "not a url")

	var cfgErr *apperrors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Zero(t, f.count("GET /v1.0/sites/"))
}

func TestSession_EnsureFolder_Idempotent(t *testing.T) {
	f := newFakeGraph(t)
	const lookup = "GET /v1.0/sites/site-1/drive/root:/D1 Documents/acme_co"
	const create = "POST /v1.0/sites/site-1/drive/root:/D1 Documents:/children"

	var createdBody map[string]any
	f.handle(create, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&createdBody)
		f.handle(lookup, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"id": "folder-1", "name": "acme_co", "folder": map[string]any{}})
		})
		writeJSON(w, http.StatusCreated, map[string]any{"id": "folder-1", "name": "acme_co", "folder": map[string]any{}})
	})
	s := f.session(t)

	first, err := s.EnsureFolder(context.Background(), "site-1", "D1 Documents", "acme_co")
	require.NoError(t, err)
	second, err := s.EnsureFolder(context.Background(), "site-1", "D1 Documents", "acme_co")
	require.NoError(t, err)

	assert.Equal(t, "D1 Documents/acme_co", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.count(create))
	assert.Equal(t, 2, f.count(lookup))
	assert.Equal(t, "rename", createdBody["@microsoft.graph.conflictBehavior"])
	assert.Equal(t, "acme_co", createdBody["name"])
}

func TestSession_EnsureFolder_ReturnsRenamedPath(t *testing.T) {
	f := newFakeGraph(t)
	f.handle("POST /v1.0/sites/site-1/drive/root:/D1 Documents:/children", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": "folder-2", "name": "acme_co 1"})
	})
	s := f.session(t)

	path, err := s.EnsureFolder(context.Background(), "site-1", "D1 Documents", "acme_co")
	require.NoError(t, err)
	assert.Equal(t, "D1 Documents/acme_co 1", path)
}

func TestSession_EnsureFolder_AtLibraryRoot(t *testing.T) {
	f := newFakeGraph(t)
	f.handle("POST /v1.0/sites/site-1/drive/root/children", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": "root-folder", "name": "D1 Documents"})
	})
	s := f.session(t)

	path, err := s.EnsureFolder(context.Background(), "site-1", "", "D1 Documents")
	require.NoError(t, err)
	assert.Equal(t, "D1 Documents", path)
}

func TestSession_EnsureFolder_LookupFailureIsFatal(t *testing.T) {
	f := newFakeGraph(t)
	f.handle("GET /v1.0/sites/site-1/drive/root:/D1 Documents/acme_co", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"error": map[string]any{"code": "accessDenied", "message": "nope"}})
	})
	s := f.session(t)

	_, err := s.EnsureFolder(context.Background(), "site-1", "D1 Documents", "acme_co")

	var graphErr *apperrors.GraphError
	require.True(t, errors.As(err, &graphErr))
	assert.Equal(t, http.StatusForbidden, graphErr.StatusCode)
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Zero(t, f.count("POST /v1.0/sites/site-1/drive/root:/D1 Documents:/children"))
}

func TestSession_UploadFile_Simple(t *testing.T) {
	f := newFakeGraph(t)
	var gotBody, gotConflict string
	f.handle("PUT /v1.0/sites/site-1/drive/root:/D1 Documents/acme_co/acme_co_NHBRC10001_1.pdf:/content", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotConflict = r.URL.Query().Get("@microsoft.graph.conflictBehavior")
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": "file-1", "name": "acme_co_NHBRC10001_1.pdf", "size": 5,
			"webUrl": "https://contoso.sharepoint.com/D1/acme_co_NHBRC10001_1.pdf",
		})
	})
	s := f.session(t)

	item, err := s.UploadFile(context.Background(), "site-1", "D1 Documents/acme_co", "acme_co_NHBRC10001_1.pdf", strings.NewReader("hello"), 5)
	require.NoError(t, err)

	assert.Equal(t, "hello", gotBody)
	assert.Equal(t, "rename", gotConflict)
	assert.Equal(t, "https://contoso.sharepoint.com/D1/acme_co_NHBRC10001_1.pdf", item.WebURL)
	assert.Equal(t, int64(5), item.Size)
}

func TestSession_UploadFile_UploadSession(t *testing.T) {
	f := newFakeGraph(t)
	content := strings.Repeat("x", 25)

	f.handle("POST /v1.0/sites/site-1/drive/root:/General Uploads/big.bin:/createUploadSession", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"uploadUrl": f.server.URL + "/upload/session-1"})
	})
	var gotRange, gotBody string
	f.handle("PUT /upload/session-1", func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Content-Range")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		writeJSON(w, http.StatusCreated, map[string]any{"id": "file-2", "name": "big.bin", "webUrl": "https://contoso/big.bin", "size": 25})
	})
	s := f.session(t, WithSimpleUploadMaxBytes(10))

	item, err := s.UploadFile(context.Background(), "site-1", "General Uploads", "big.bin", strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)

	assert.Equal(t, "https://contoso/big.bin", item.WebURL)
	assert.Equal(t, "bytes 0-24/25", gotRange)
	assert.Equal(t, content, gotBody)

	f.mu.Lock()
	defer f.mu.Unlock()
	// the pre-authenticated upload URL must not receive the bearer token
	assert.Equal(t, "", f.auth[len(f.auth)-1])
}

func TestSession_UploadFile_UploadSessionCancelledOnShortContent(t *testing.T) {
	f := newFakeGraph(t)
	f.handle("POST /v1.0/sites/site-1/drive/root:/General Uploads/big.bin:/createUploadSession", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"uploadUrl": f.server.URL + "/upload/session-2"})
	})
	f.handle("DELETE /upload/session-2", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s := f.session(t, WithSimpleUploadMaxBytes(10))

	_, err := s.UploadFile(context.Background(), "site-1", "General Uploads", "big.bin", strings.NewReader("short"), 25)

	assert.Error(t, err)
	assert.Equal(t, 1, f.count("DELETE /upload/session-2"))
}

func TestSession_FindList_FollowsNextLink(t *testing.T) {
	f := newFakeGraph(t)
	f.handle("GET /v1.0/sites/site-1/lists", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, http.StatusOK, map[string]any{"value": []map[string]any{
				{"id": "list-3", "name": "GautengRegistrations", "displayName": "Gauteng Registrations"},
			}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"value": []map[string]any{
				{"id": "list-1", "name": "Documents", "displayName": "Documents"},
				{"id": "list-2", "name": "gautengregistrations", "displayName": "lower"},
			},
			"@odata.nextLink": f.server.URL + "/v1.0/sites/site-1/lists?page=2",
		})
	})
	s := f.session(t)

	list, err := s.FindList(context.Background(), "site-1", "GautengRegistrations")
	require.NoError(t, err)

	assert.Equal(t, "list-3", list.ID)
	assert.Equal(t, "Gauteng Registrations", list.DisplayName)
	assert.Equal(t, 2, f.count("GET /v1.0/sites/site-1/lists"))
}

func TestSession_FindList_NotFoundNamesAvailableLists(t *testing.T) {
	f := newFakeGraph(t)
	f.handle("GET /v1.0/sites/site-1/lists", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"value": []map[string]any{
			{"id": "list-1", "name": "Documents"},
			{"id": "list-2", "name": "SitePages"},
		}})
	})
	s := f.session(t)

	_, err := s.FindList(context.Background(), "site-1", "Registrations")

	var nf *apperrors.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []string{"Documents", "SitePages"}, nf.Available)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Contains(t, err.Error(), "Documents, SitePages")
}

func TestSession_CreateListItem(t *testing.T) {
	f := newFakeGraph(t)
	var got map[string]map[string]any
	f.handle("POST /v1.0/sites/site-1/lists/list-3/items", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusCreated, map[string]any{"id": "42"})
	})
	s := f.session(t)

	id, err := s.CreateListItem(context.Background(), "site-1", "list-3", map[string]any{"Title": "Acme", "ReferenceNumber": "NHBRC10001"})
	require.NoError(t, err)

	assert.Equal(t, "42", id)
	assert.Equal(t, "Acme", got["fields"]["Title"])
	assert.Equal(t, "NHBRC10001", got["fields"]["ReferenceNumber"])
}

func TestSession_CreateListItem_GraphErrorWrapped(t *testing.T) {
	f := newFakeGraph(t)
	f.handle("POST /v1.0/sites/site-1/lists/list-3/items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"code": "invalidRequest", "message": "Field 'Foo' is not recognized"}})
	})
	s := f.session(t)

	_, err := s.CreateListItem(context.Background(), "site-1", "list-3", map[string]any{"Foo": "bar"})

	var graphErr *apperrors.GraphError
	require.True(t, errors.As(err, &graphErr))
	assert.Equal(t, http.StatusBadRequest, graphErr.StatusCode)
	assert.Contains(t, graphErr.Body, "not recognized")
}
