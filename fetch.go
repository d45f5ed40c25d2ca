package resilient

import (
	"context"

	"github.com/go-json-experiment/json"

	"github.com/egorkaBurkenya/resilient-rest/jsontree"
	"github.com/egorkaBurkenya/resilient-rest/retry"
)

type fetchArgs struct {
	client *Client
	req    Request
	path   []jsontree.Step
}

// Fetch dispatches req, parses the response body as JSON, narrows it to path
// and decodes the result into T. The whole sequence is retried up to the
// client's attempt ceiling (DefaultMaxAttempts unless WithMaxAttempts is
// used); every failure kind is retried the same way and the error of the last
// attempt is returned as is.
//
// With no path the whole document is decoded. When T is jsontree.Value the
// tree node is returned without re-encoding.
func Fetch[T any](ctx context.Context, c *Client, req Request, path ...jsontree.Step) (T, error) {
	out, err := retry.Do(ctx, c.cfg.maxAttempts, attempt[T], fetchArgs{client: c, req: req, path: path})
	if err != nil {
		c.cfg.logger.Warn().Err(err).
			Str("kind", KindOf(err).String()).
			Str("request", req.String()).
			Str("path", jsontree.Path(path).String()).
			Int("max_attempts", max(c.cfg.maxAttempts, 1)).
			Msg("REST fetch failed")
	}
	return out, err
}

// FetchValue is Fetch with a jsontree.Value result.
func (c *Client) FetchValue(ctx context.Context, req Request, path ...jsontree.Step) (jsontree.Value, error) {
	return Fetch[jsontree.Value](ctx, c, req, path...)
}

func attempt[T any](ctx context.Context, a fetchArgs) (T, error) {
	var zero T
	resp, err := a.client.Do(ctx, a.req)
	if err != nil {
		return zero, err
	}
	out, err := extract[T](resp.Body, a.path)
	if err != nil {
		a.client.totalErrors.Add(1)
		return zero, err
	}
	return out, nil
}

// extract parses body, navigates to path and decodes the node into T.
func extract[T any](body []byte, path []jsontree.Step) (T, error) {
	var zero T
	root, err := jsontree.Parse(body)
	if err != nil {
		return zero, newError(KindJSONParse, err)
	}

	node := root
	if len(path) > 0 {
		node, err = jsontree.Navigate(root, path...)
		if err != nil {
			return zero, &Error{Kind: KindNotWantedJSONFormat, Detail: root.String(), Err: err}
		}
	}

	var out T
	if err := decodeTree(node, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// decodeTree hands a generic node to a typed value. json/v2 has no direct
// tree-to-struct conversion, so the node goes through its text form.
func decodeTree[T any](node jsontree.Value, out *T) error {
	if v, ok := any(out).(*jsontree.Value); ok {
		*v = node
		return nil
	}

	text, err := json.Marshal(node)
	if err != nil {
		return &Error{Kind: KindNotWantedJSONFormat, Detail: node.String(), Err: err}
	}
	if err := json.Unmarshal(text, out); err != nil {
		return &Error{Kind: KindNotWantedJSONFormat, Detail: string(text), Err: err}
	}
	return nil
}
