package spauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nhbrcforms/domain/apperrors"
)

func testConfig(authority string) Config {
	return Config{
		TenantID:      "tenant-1",
		ClientID:      "client-1",
		ClientSecret:  "secret-1",
		AuthorityHost: authority,
	}
}

func TestAcquireToken_Success(t *testing.T) {
	var gotPath, gotGrant, gotScope, gotClient string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotPath = r.URL.Path
		gotGrant = r.PostForm.Get("grant_type")
		gotScope = r.PostForm.Get("scope")
		gotClient = r.PostForm.Get("client_id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"Bearer","expires_in":3599}`))
	}))
	defer server.Close()

	token, err := AcquireToken(context.Background(), testConfig(server.URL), server.Client())
	require.NoError(t, err)

	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "/tenant-1/oauth2/v2.0/token", gotPath)
	assert.Equal(t, "client_credentials", gotGrant)
	assert.Equal(t, GraphScope, gotScope)
	assert.Equal(t, "client-1", gotClient)
}

func TestAcquireToken_MissingCredentials(t *testing.T) {
	cfg := Config{TenantID: "tenant-1"}

	_, err := AcquireToken(context.Background(), cfg, nil)

	var authErr *apperrors.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Contains(t, authErr.Error(), "SHAREPOINT_CLIENT_ID")
	assert.Contains(t, authErr.Error(), "SHAREPOINT_CLIENT_SECRET")
}

func TestAcquireToken_EndpointRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client","error_description":"bad secret"}`))
	}))
	defer server.Close()

	_, err := AcquireToken(context.Background(), testConfig(server.URL), server.Client())

	var authErr *apperrors.AuthenticationError
	require.True(t, errors.As(err, &authErr))
	assert.Contains(t, authErr.Reason, "401")
}

func TestAcquireToken_EmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"","token_type":"Bearer"}`))
	}))
	defer server.Close()

	_, err := AcquireToken(context.Background(), testConfig(server.URL), server.Client())

	var authErr *apperrors.AuthenticationError
	assert.True(t, errors.As(err, &authErr))
}

func TestConfig_TokenURL(t *testing.T) {
	cfg := Config{TenantID: "abc"}
	assert.Equal(t, "https://login.microsoftonline.com/abc/oauth2/v2.0/token", cfg.TokenURL())

	cfg.AuthorityHost = "https://login.example.test/"
	assert.Equal(t, "https://login.example.test/abc/oauth2/v2.0/token", cfg.TokenURL())
}
