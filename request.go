package resilient

import (
	"maps"
	"net/http"

	"github.com/egorkaBurkenya/resilient-rest/jsontree"
)

// Request describes one REST call. Build it with Get, Post, Put or Delete;
// the zero Request is not valid.
type Request struct {
	method  string
	path    string
	query   map[string]string
	body    jsontree.Value
	hasBody bool
}

// Get describes a GET of path with the given query parameters.
func Get(path string, query map[string]string) Request {
	return newRequest(http.MethodGet, path, query)
}

// Post describes a POST of body to path.
func Post(path string, query map[string]string, body jsontree.Value) Request {
	r := newRequest(http.MethodPost, path, query)
	r.body, r.hasBody = body, true
	return r
}

// Put describes a PUT of body to path.
func Put(path string, query map[string]string, body jsontree.Value) Request {
	r := newRequest(http.MethodPut, path, query)
	r.body, r.hasBody = body, true
	return r
}

// Delete describes a DELETE of path.
func Delete(path string, query map[string]string) Request {
	return newRequest(http.MethodDelete, path, query)
}

func newRequest(method, path string, query map[string]string) Request {
	return Request{method: method, path: path, query: maps.Clone(query)}
}

// Method returns the HTTP method.
func (r Request) Method() string { return r.method }

// Path returns the endpoint path.
func (r Request) Path() string { return r.path }

// Query returns a copy of the query parameters.
func (r Request) Query() map[string]string { return maps.Clone(r.query) }

// Body returns the JSON body of a Post or Put.
func (r Request) Body() (jsontree.Value, bool) { return r.body, r.hasBody }

func (r Request) String() string { return r.method + " " + r.path }
