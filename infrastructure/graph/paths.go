package graph

import (
	"net/url"
	"strings"
)

// joinDrivePath joins library-relative path segments, dropping empty ones.
func joinDrivePath(parts ...string) string {
	var segs []string
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, "/")
}

// escapePath percent-escapes every segment of a slash-separated path.
func escapePath(p string) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// driveItemPath addresses an item in the site's default library by path.
// An empty itemPath addresses the library root.
func driveItemPath(siteID, itemPath string) string {
	if itemPath == "" {
		return "/sites/" + siteID + "/drive/root"
	}
	return "/sites/" + siteID + "/drive/root:/" + escapePath(itemPath)
}

// driveChildrenPath addresses the children collection of a library folder.
func driveChildrenPath(siteID, folderPath string) string {
	if folderPath == "" {
		return "/sites/" + siteID + "/drive/root/children"
	}
	return driveItemPath(siteID, folderPath) + ":/children"
}
