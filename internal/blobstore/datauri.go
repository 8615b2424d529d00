package blobstore

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// IsDataURI reports whether s is an inline data: payload.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:")
}

// IsImageDataURI reports whether s is an inline image payload.
func IsImageDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:image")
}

// DecodeDataURI parses "data:[<type>][;base64],<payload>".
func DecodeDataURI(s string) (Blob, error) {
	s = strings.TrimSpace(s)
	if !IsDataURI(s) {
		return Blob{}, fmt.Errorf("%w: missing data: scheme", ErrInvalidData)
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return Blob{}, fmt.Errorf("%w: missing payload", ErrInvalidData)
	}

	isBase64 := strings.HasSuffix(header, ";base64")
	contentType := strings.TrimSuffix(header, ";base64")
	if contentType == "" {
		contentType = "text/plain;charset=US-ASCII"
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return Blob{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		data = decoded
	} else {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return Blob{}, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		data = []byte(decoded)
	}
	return Blob{Data: data, ContentType: contentType}, nil
}

// EncodeDataURI is the inverse of DecodeDataURI, always base64.
func EncodeDataURI(b Blob) string {
	return "data:" + b.ContentType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}
