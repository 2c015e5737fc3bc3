package graph

import (
	"encoding/json"
	"strings"
)

// Graph JSON shapes. Only the fields this service reads are mapped.

type siteJSON struct {
	ID     string `json:"id"`
	WebURL string `json:"webUrl"`
}

type driveItemJSON struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	WebURL string          `json:"webUrl"`
	Size   int64           `json:"size"`
	Folder json.RawMessage `json:"folder,omitempty"`
}

type listJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type listPageJSON struct {
	Value    []listJSON `json:"value"`
	NextLink string     `json:"@odata.nextLink"`
}

type listItemJSON struct {
	ID string `json:"id"`
}

type uploadSessionJSON struct {
	UploadURL string `json:"uploadUrl"`
}

// errorEnvelope is Graph's standard error body: {"error":{"code":..,"message":..}}
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// errorMessage extracts a readable message from a Graph error body.
func errorMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		if env.Error.Code != "" {
			return env.Error.Code + ": " + env.Error.Message
		}
		return env.Error.Message
	}
	return strings.TrimSpace(string(body))
}
