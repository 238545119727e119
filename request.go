package rest

import (
	"net/http"
	"time"
)

// BodyEncoding selects how row values are serialized into a POST body
type BodyEncoding = string

const (
	// JSONEncoding serializes row values as a JSON object (application/json)
	JSONEncoding BodyEncoding = "json"
	// FormEncoding serializes row values as a form (application/x-www-form-urlencoded)
	FormEncoding BodyEncoding = "form"
)

// RequestSpec describes how each row is turned into a request. It is shared,
// read-only, by every invocation within a job.
type RequestSpec struct {
	URL               string        // url template. {name} placeholders are replaced by the row's escaped value for name
	Method            string        // http.MethodGet or http.MethodPost
	UserID            string        // basic-auth user, if any
	UserPassword      string        // basic-auth password
	ConnectionTimeout time.Duration // bound on establishing the connection
	ReadTimeout       time.Duration // bound on receiving the response
	BodyEncoding      BodyEncoding  // POST body encoding
	Headers           http.Header   // additional headers sent with every request
}

// HasBasicAuth returns true iff credentials are configured
func (s *RequestSpec) HasBasicAuth() bool {
	return len(s.UserID) > 0
}
