package objectstore

import (
	"fmt"
	"strings"

	dserrors "github.com/systmms/containerkit/internal/errors"
)

// Scheme is the URI scheme for object storage paths.
const Scheme = "s3://"

// URI identifies one object as a bucket plus a key.
type URI struct {
	Bucket string
	Key    string
}

// ParseURI splits an s3://bucket/key string into its parts.
func ParseURI(raw string) (URI, error) {
	if !strings.HasPrefix(raw, Scheme) {
		return URI{}, dserrors.UserError{
			Message:    fmt.Sprintf("invalid object URI %q", raw),
			Suggestion: fmt.Sprintf("URIs must look like %sbucket/path/to/object", Scheme),
		}
	}
	rest := strings.TrimPrefix(raw, Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return URI{}, dserrors.UserError{
			Message:    fmt.Sprintf("object URI %q is missing a bucket or key", raw),
			Suggestion: fmt.Sprintf("URIs must look like %sbucket/path/to/object", Scheme),
		}
	}
	return URI{Bucket: bucket, Key: CleanKey(key)}, nil
}

// String renders the URI back into s3://bucket/key form.
func (u URI) String() string {
	return Scheme + u.Bucket + "/" + u.Key
}

// Base returns the last path element of the key.
func (u URI) Base() string {
	if i := strings.LastIndex(u.Key, "/"); i >= 0 {
		return u.Key[i+1:]
	}
	return u.Key
}

// JoinURI builds a full URI from bucket, path and filename, cleaning up
// separator artifacts from blank or dot path segments.
func JoinURI(bucket, path, filename string) string {
	return Scheme + bucket + "/" + CleanKey("/"+path+"/"+filename)
}

// CleanKey collapses the separator junk that slips in when a path
// segment is blank, a space or a dot.
func CleanKey(key string) string {
	for _, junk := range []string{"/ /", "/./", "//"} {
		for strings.Contains(key, junk) {
			key = strings.ReplaceAll(key, junk, "/")
		}
	}
	return strings.TrimPrefix(key, "/")
}
