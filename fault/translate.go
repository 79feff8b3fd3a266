package fault

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/xiaot623/gogo/sdapi/domain"
)

// TransportError is a failed response that carried no known fault. The
// response is kept as received.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("debugger returned status %d for %s %s: %s", e.StatusCode, e.Method, e.URL, string(e.Body))
}

// Decode extracts the fault document from a response body. It returns nil
// when the body is not a fault document.
func Decode(body []byte) *domain.Fault {
	var resp domain.FaultResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}
	return resp.Fault
}

// Translate converts a failed response into an error. A fault whose type is
// known becomes an *Error carrying the server's message; anything else
// becomes a *TransportError.
func Translate(resp *http.Response, body []byte) error {
	if f := Decode(body); f != nil {
		if kind, ok := Lookup(f.Type); ok {
			return New(kind, f.Message)
		}
	}

	te := &TransportError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       body,
	}
	if resp.Request != nil {
		te.Method = resp.Request.Method
		if resp.Request.URL != nil {
			te.URL = resp.Request.URL.String()
		}
	}
	return te
}
