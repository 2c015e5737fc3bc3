package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"nhbrcforms/domain/apperrors"
)

// ResolveSiteID looks up the Graph site id of an absolute SharePoint site URL.
// The result is not cached; a missing or inaccessible site surfaces as *apperrors.GraphError.
func (s *Session) ResolveSiteID(ctx context.Context, siteURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(siteURL))
	if err != nil || u.Hostname() == "" {
		return "", &apperrors.ConfigurationError{Key: "siteUrl", Reason: fmt.Sprintf("invalid site URL %q", siteURL)}
	}

	endpoint := "/sites/" + u.Hostname()
	if p := strings.Trim(u.Path, "/"); p != "" {
		endpoint += ":/" + escapePath(p)
	}

	data, err := s.Call(ctx, http.MethodGet, endpoint+"?$select=id,webUrl", nil)
	if err != nil {
		return "", err
	}

	var site siteJSON
	if err := decode(data, &site, "site"); err != nil {
		return "", err
	}
	if site.ID == "" {
		return "", fmt.Errorf("site %s: response carried no id", siteURL)
	}

	s.logger.WithContext(ctx).SharePoint("Resolved site", "site_url", siteURL, "site_id", site.ID)
	return site.ID, nil
}
