package dispatch

import (
	"fmt"
	"html"
	"net/http"

	"github.com/vitalvas/rewriter/internal/httpjson"
)

const htmlContentType = "text/html; charset=utf-8"

// Response is a fully rendered handler result.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// JSON encodes v as a JSON response.
func JSON(status int, v any) (*Response, error) {
	body, err := httpjson.Encode(v)
	if err != nil {
		return nil, err
	}

	return &Response{
		Status:      status,
		ContentType: httpjson.ContentType,
		Body:        body,
	}, nil
}

// HTML returns an HTML fragment response.
func HTML(status int, fragment string) *Response {
	return &Response{
		Status:      status,
		ContentType: htmlContentType,
		Body:        []byte(fragment),
	}
}

func (r *Response) write(w http.ResponseWriter) {
	if r.ContentType != "" {
		w.Header().Set("Content-Type", r.ContentType)
	}
	w.WriteHeader(r.Status)
	_, _ = w.Write(r.Body)
}

// Error is a client-facing failure. Reason is shown to the caller verbatim.
type Error struct {
	Status int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Reason)
}

// BadRequest returns a 400 error.
func BadRequest(reason string) *Error {
	return &Error{Status: http.StatusBadRequest, Reason: reason}
}

// NotFound returns a 404 error.
func NotFound(reason string) *Error {
	return &Error{Status: http.StatusNotFound, Reason: reason}
}

// render converts e to a response of the given kind. JSON errors are
// {"error": reason}; HTML errors are a single escaped paragraph.
func (e *Error) render(kind Kind) *Response {
	if kind == KindHTML {
		return HTML(e.Status, "<p>"+html.EscapeString(e.Reason)+"</p>")
	}

	resp, err := JSON(e.Status, httpjson.JSON{"error": e.Reason})
	if err != nil {
		return HTML(http.StatusInternalServerError, "Internal server error")
	}
	return resp
}
