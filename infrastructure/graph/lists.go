package graph

import (
	"context"
	"fmt"
	"net/http"

	"nhbrcforms/domain/apperrors"
	"nhbrcforms/domain/contracts"
)

// FindList pages through the site's lists and returns the one whose internal
// name equals internalName exactly. The NotFoundError names every list seen.
func (s *Session) FindList(ctx context.Context, siteID, internalName string) (*contracts.SharePointList, error) {
	next := "/sites/" + siteID + "/lists?$select=id,name,displayName"
	var available []string

	for next != "" {
		data, err := s.Call(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("list site lists: %w", err)
		}
		var page listPageJSON
		if err := decode(data, &page, "lists page"); err != nil {
			return nil, err
		}
		for _, l := range page.Value {
			if l.Name == internalName {
				return &contracts.SharePointList{ID: l.ID, Name: l.Name, DisplayName: l.DisplayName}, nil
			}
			available = append(available, l.Name)
		}
		next = page.NextLink
	}

	return nil, &apperrors.NotFoundError{Kind: "list", Name: internalName, Available: available}
}

// CreateListItem creates one item carrying fields and returns the new item id.
func (s *Session) CreateListItem(ctx context.Context, siteID, listID string, fields map[string]any) (string, error) {
	endpoint := "/sites/" + siteID + "/lists/" + listID + "/items"
	data, err := s.Call(ctx, http.MethodPost, endpoint, map[string]any{"fields": fields})
	if err != nil {
		return "", fmt.Errorf("create list item: %w", err)
	}

	var item listItemJSON
	if err := decode(data, &item, "list item"); err != nil {
		return "", err
	}
	if item.ID == "" {
		return "", fmt.Errorf("create list item: response carried no id")
	}
	return item.ID, nil
}
