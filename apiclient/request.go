package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	contentTypeJSON = "application/json"
	headerRequestID = "X-Request-ID"
)

// Request describes one logical call to the API. The client never mutates
// it, so a Request may be reused or issued from several goroutines.
type Request struct {
	Method string      // GET, POST, PUT, PATCH or DELETE
	Path   string      // Relative to the base URL, e.g. "tasks/12/"
	Query  url.Values  // Merged into any query already present in Path
	Header http.Header // Extra per-call headers

	// Body is sent as-is when it is a []byte or io.Reader (set Content-Type
	// in Header), and JSON encoded otherwise. A nil Body sends no body.
	Body any

	// NoAuth sends the request without credentials and skips the refresh
	// handling. Used for the login call.
	NoAuth bool
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[apiclient Decode] %w", err)
	}
	return nil
}

// call is the per-invocation state of a Request: the resolved target, the
// encoded body (so it can be replayed) and how many credential retries it
// has used.
type call struct {
	req         *Request
	url         string
	body        []byte
	contentType string
	requestID   string
	attempt     int
}

// maxAuthRetries bounds the refresh-and-resend cycles of one call
const maxAuthRetries = 1

func (c *call) canRetryAuth() bool {
	return !c.req.NoAuth && c.attempt < maxAuthRetries
}

func encodeBody(body any) ([]byte, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return b, "", nil
	case io.Reader:
		data, err := io.ReadAll(b)
		if err != nil {
			return nil, "", fmt.Errorf("read body: %w", err)
		}
		return data, "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode body: %w", err)
		}
		return data, contentTypeJSON, nil
	}
}
