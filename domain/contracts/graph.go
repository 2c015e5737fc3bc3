package contracts

import (
	"context"
	"io"
)

// DriveItem is a file or folder in a site's default document library.
type DriveItem struct {
	ID     string
	Name   string
	WebURL string
	Size   int64
}

// SharePointList identifies a list on a site. Name is the internal name.
type SharePointList struct {
	ID          string
	Name        string
	DisplayName string
}

// GraphSession is an authenticated handle on Microsoft Graph bound to one bearer token.
// A session is owned by the operation that acquired it and is never refreshed.
type GraphSession interface {
	// ResolveSiteID turns an absolute SharePoint site URL into a Graph site id.
	ResolveSiteID(ctx context.Context, siteURL string) (string, error)

	// EnsureFolder returns the path of parentPath/folderName, creating the folder when
	// the lookup reports it missing. The returned path may carry a server-renamed leaf.
	EnsureFolder(ctx context.Context, siteID, parentPath, folderName string) (string, error)

	// UploadFile stores content under folderPath/fileName in the site's default library.
	UploadFile(ctx context.Context, siteID, folderPath, fileName string, content io.Reader, size int64) (*DriveItem, error)

	// FindList resolves a list by exact, case-sensitive internal name.
	FindList(ctx context.Context, siteID, internalName string) (*SharePointList, error)

	// CreateListItem creates one list item and returns its id.
	CreateListItem(ctx context.Context, siteID, listID string, fields map[string]any) (string, error)
}

// GraphConnector acquires fresh Graph sessions.
type GraphConnector interface {
	Acquire(ctx context.Context) (GraphSession, error)
}
