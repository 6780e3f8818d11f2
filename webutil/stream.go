package webutil

import (
	"fmt"
	"net/http"
	"regexp"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeFilename replaces every character outside [a-zA-Z0-9] with an underscore.
func SanitizeFilename(title string) string {
	return nonAlphanumeric.ReplaceAllString(title, "_")
}

// AttachmentDisposition builds a Content-Disposition header value for a download.
func AttachmentDisposition(filename string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, filename)
}

// ResponseSink streams a file download into an http.ResponseWriter.
// Headers and the 200 status are committed on the first Write.
type ResponseSink struct {
	w           http.ResponseWriter
	filename    string
	contentType string
	started     bool
	written     int64
}

func NewResponseSink(w http.ResponseWriter) *ResponseSink {
	return &ResponseSink{w: w}
}

func (s *ResponseSink) Prepare(filename, contentType string) {
	s.filename = filename
	s.contentType = contentType
}

func (s *ResponseSink) Write(p []byte) (int, error) {
	if !s.started {
		s.started = true
		h := s.w.Header()
		h.Set(HeaderContentType, s.contentType)
		if s.filename != "" {
			h.Set(HeaderContentDisposition, AttachmentDisposition(s.filename))
		}
		h.Set(HeaderCacheControl, "no-store")
		s.w.WriteHeader(http.StatusOK)
	}
	n, err := s.w.Write(p)
	s.written += int64(n)
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}

func (s *ResponseSink) Started() bool { return s.started }

// Written returns the number of body bytes sent so far.
func (s *ResponseSink) Written() int64 { return s.written }
