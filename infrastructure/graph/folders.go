package graph

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"nhbrcforms/domain/apperrors"
)

// EnsureFolder makes sure parentPath/folderName exists in the site's default library.
//
// The folder is looked up first; an existing folder is returned unchanged. Only a 404
// leads to creation, with conflictBehavior=rename so a concurrent creator yields a
// uniquely named sibling instead of an error. Any other lookup failure is returned
// without attempting creation.
func (s *Session) EnsureFolder(ctx context.Context, siteID, parentPath, folderName string) (string, error) {
	parentPath = strings.Trim(parentPath, "/")
	folderName = strings.Trim(folderName, "/")
	if folderName == "" {
		return "", fmt.Errorf("ensure folder under %q: empty folder name", parentPath)
	}
	full := joinDrivePath(parentPath, folderName)

	_, err := s.Call(ctx, http.MethodGet, driveItemPath(siteID, full)+"?$select=id,name,folder", nil)
	if err == nil {
		return full, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("look up folder %s: %w", full, err)
	}

	body := map[string]any{
		"name":                              folderName,
		"folder":                            map[string]any{},
		"@microsoft.graph.conflictBehavior": "rename",
	}
	data, err := s.Call(ctx, http.MethodPost, driveChildrenPath(siteID, parentPath), body)
	if err != nil {
		return "", fmt.Errorf("create folder %s: %w", full, err)
	}

	var item driveItemJSON
	if err := decode(data, &item, "created folder"); err != nil {
		return "", err
	}
	name := item.Name
	if name == "" {
		name = folderName
	}
	created := joinDrivePath(parentPath, name)

	s.logger.WithContext(ctx).SharePoint("Created folder", "site_id", siteID, "path", created, "renamed", name != folderName)
	return created, nil
}
