package graph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"nhbrcforms/domain/contracts"
)

// uploadChunkSize must be a multiple of 320 KiB for Graph upload sessions.
const uploadChunkSize = 12 * 320 * 1024

// UploadFile stores content as folderPath/fileName. Files up to the simple-upload
// limit go in one PUT; larger files use an upload session. Name clashes are
// resolved server-side by renaming the new file.
func (s *Session) UploadFile(ctx context.Context, siteID, folderPath, fileName string, content io.Reader, size int64) (*contracts.DriveItem, error) {
	itemPath := joinDrivePath(folderPath, fileName)
	if s.simpleMaxBytes > 0 && size > s.simpleMaxBytes {
		return s.uploadInChunks(ctx, siteID, itemPath, fileName, content, size)
	}

	body := content
	if size == 0 {
		body = http.NoBody
	}
	data, err := s.send(ctx, request{
		method:        http.MethodPut,
		url:           s.resolve(driveItemPath(siteID, itemPath) + ":/content?@microsoft.graph.conflictBehavior=rename"),
		body:          body,
		contentType:   "application/octet-stream",
		contentLength: size,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", itemPath, err)
	}
	return toDriveItem(data, itemPath)
}

func (s *Session) uploadInChunks(ctx context.Context, siteID, itemPath, fileName string, content io.Reader, size int64) (*contracts.DriveItem, error) {
	createBody := map[string]any{
		"item": map[string]any{
			"@microsoft.graph.conflictBehavior": "rename",
			"name":                              fileName,
		},
	}
	data, err := s.Call(ctx, http.MethodPost, driveItemPath(siteID, itemPath)+":/createUploadSession", createBody)
	if err != nil {
		return nil, fmt.Errorf("create upload session for %s: %w", itemPath, err)
	}
	var session uploadSessionJSON
	if err := decode(data, &session, "upload session"); err != nil {
		return nil, err
	}
	if session.UploadURL == "" {
		return nil, fmt.Errorf("create upload session for %s: response carried no uploadUrl", itemPath)
	}

	item, err := s.putChunks(ctx, session.UploadURL, itemPath, content, size)
	if err != nil {
		s.cancelUploadSession(ctx, session.UploadURL)
		return nil, err
	}
	return item, nil
}

func (s *Session) putChunks(ctx context.Context, uploadURL, itemPath string, content io.Reader, size int64) (*contracts.DriveItem, error) {
	buf := make([]byte, uploadChunkSize)
	var offset int64

	for offset < size {
		want := min(int64(len(buf)), size-offset)
		n, err := io.ReadFull(content, buf[:want])
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("upload %s: content ended at byte %d of %d", itemPath, offset+int64(n), size)
			}
			return nil, fmt.Errorf("upload %s: read content: %w", itemPath, err)
		}

		end := offset + int64(n) - 1
		data, err := s.send(ctx, request{
			method:        http.MethodPut,
			url:           uploadURL,
			body:          bytes.NewReader(buf[:n]),
			contentLength: int64(n),
			headers:       map[string]string{"Content-Range": fmt.Sprintf("bytes %d-%d/%d", offset, end, size)},
			anonymous:     true,
		})
		if err != nil {
			return nil, fmt.Errorf("upload %s bytes %d-%d: %w", itemPath, offset, end, err)
		}
		offset = end + 1

		if offset == size {
			return toDriveItem(data, itemPath)
		}
	}
	return nil, fmt.Errorf("upload %s: no content", itemPath)
}

func (s *Session) cancelUploadSession(ctx context.Context, uploadURL string) {
	if _, err := s.send(context.WithoutCancel(ctx), request{method: http.MethodDelete, url: uploadURL, anonymous: true}); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to cancel upload session", "error", err.Error())
	}
}

func toDriveItem(data []byte, itemPath string) (*contracts.DriveItem, error) {
	var item driveItemJSON
	if err := decode(data, &item, "uploaded item"); err != nil {
		return nil, err
	}
	if item.WebURL == "" {
		return nil, fmt.Errorf("upload %s: response carried no webUrl", itemPath)
	}
	return &contracts.DriveItem{ID: item.ID, Name: item.Name, WebURL: item.WebURL, Size: item.Size}, nil
}
