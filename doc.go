// Package resilient provides a REST fetch core: dispatch a request, parse
// the response as JSON, pull one node out of it and decode that node into a
// typed value, retrying the whole sequence a bounded number of times.
//
// It wraps the standard net/http client and adds:
//   - Proactive rate limiting via a token bucket (golang.org/x/time/rate)
//   - Adaptive rate reduction on 429 responses (halves rate, auto-restores)
//   - Retry-After header parsing (seconds and HTTP-date formats)
//   - Path extraction over a generic JSON tree (package jsontree)
//   - Flat retry of the full fetch pipeline (package retry)
//   - Four failure kinds: transport, response broken, json parse error and
//     not wanted json format
//   - Atomic stats tracking (total requests, errors, rate-limited count)
//   - Configurable callbacks and request/response hooks
//   - Thread-safe concurrent usage
//
// Configuration uses the functional options pattern:
//
//	client := resilient.New(
//	    resilient.WithBaseURL("https://shop.example.com/admin/api/2024-01"),
//	    resilient.WithAccessToken(token),
//	    resilient.WithRateLimit(2, 4),
//	    resilient.WithAdaptive(time.Minute),
//	)
//	defer client.Close()
//
//	type product struct {
//	    ID    int64  `json:"id"`
//	    Title string `json:"title"`
//	}
//	p, err := resilient.Fetch[product](ctx, client,
//	    resilient.Get("products.json", map[string]string{"limit": "1"}),
//	    jsontree.Key("products"), jsontree.Index(0))
package resilient
