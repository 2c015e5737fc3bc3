package spauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"nhbrcforms/domain/apperrors"
)

const (
	DefaultAuthorityHost = "https://login.microsoftonline.com"
	DefaultGraphBaseURL  = "https://graph.microsoft.com/v1.0"
	GraphScope           = "https://graph.microsoft.com/.default"
)

// Config holds the app registration used for the client-credentials flow.
type Config struct {
	TenantID      string
	ClientID      string
	ClientSecret  string
	AuthorityHost string
	GraphBaseURL  string
	HTTPTimeout   time.Duration
}

// Validate reports missing credentials as an AuthenticationError.
func (c Config) Validate() error {
	var missing []string
	if c.TenantID == "" {
		missing = append(missing, "TENANT_ID")
	}
	if c.ClientID == "" {
		missing = append(missing, "SHAREPOINT_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		missing = append(missing, "SHAREPOINT_CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return &apperrors.AuthenticationError{Reason: "missing credentials: " + strings.Join(missing, ", ")}
	}
	return nil
}

// TokenURL is the tenant's v2 token endpoint.
func (c Config) TokenURL() string {
	host := c.AuthorityHost
	if host == "" {
		host = DefaultAuthorityHost
	}
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", strings.TrimRight(host, "/"), c.TenantID)
}

// AcquireToken performs one client-credentials exchange and returns the bearer token.
// The token is not cached; callers acquire per logical operation.
func AcquireToken(ctx context.Context, cfg Config, httpClient *http.Client) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL(),
		Scopes:       []string{GraphScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	tok, err := cc.Token(ctx)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return "", &apperrors.AuthenticationError{
				Reason: fmt.Sprintf("token endpoint returned %d", re.Response.StatusCode),
				Err:    err,
			}
		}
		return "", &apperrors.AuthenticationError{Reason: "token request failed", Err: err}
	}
	if tok.AccessToken == "" {
		return "", &apperrors.AuthenticationError{Reason: "token endpoint returned an empty access token"}
	}
	return tok.AccessToken, nil
}
