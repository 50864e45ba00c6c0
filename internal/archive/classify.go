package archive

import (
	"errors"
	"net/http"
	"strings"
)

// Body markers the service returns when the key pair itself is rejected.
var credentialFailureMarkers = []string{
	"InvalidAccessKeyId",
	"SignatureDoesNotMatch",
}

// IsCredentialFailureStatus classifies an upload failure from its status
// and diagnostic body alone. It is a pure function so the caller can route
// the user to credential re-entry regardless of orchestrator state.
func IsCredentialFailureStatus(status int, body string) bool {
	if status == http.StatusForbidden {
		return true
	}
	for _, marker := range credentialFailureMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// IsCredentialFailure reports whether err is an upload failure caused by
// rejected credentials.
func IsCredentialFailure(err error) bool {
	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		return false
	}
	return IsCredentialFailureStatus(uploadErr.Status, uploadErr.Body)
}
