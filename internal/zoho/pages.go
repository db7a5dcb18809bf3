package zoho

import (
	"context"
	"iter"
	"net/url"
	"strconv"
)

// Resource names a list endpoint and the response key holding its records.
type Resource struct {
	Path   string
	Key    string
	Params url.Values
}

// Pages returns the pages of a list endpoint as a lazy sequence. Each range over
// the sequence starts again from page 1; iteration stops at the first error,
// which is yielded with a nil page.
func Pages[T any](ctx context.Context, c *Client, op string, res Resource, params url.Values) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for page := 1; ; page++ {
			q := url.Values{}
			for k, v := range res.Params {
				q[k] = v
			}
			for k, v := range params {
				q[k] = v
			}
			q.Set("page", strconv.Itoa(page))
			q.Set("per_page", strconv.Itoa(c.perPage))

			var items []T
			pc, err := c.getJSON(ctx, request{op: op, path: res.Path, params: q}, res.Key, &items)
			if err != nil {
				yield(nil, err)
				return
			}

			c.log.Debug().
				Str("resource", res.Path).
				Int("page", page).
				Int("records", len(items)).
				Bool("has_more", pc.HasMorePage).
				Msg("Fetched page")

			if !yield(items, nil) {
				return
			}
			if !pc.HasMorePage || len(items) == 0 {
				return
			}
		}
	}
}

// All collects every record of a list endpoint.
func All[T any](ctx context.Context, c *Client, op string, res Resource, params url.Values) ([]T, error) {
	var all []T
	for page, err := range Pages[T](ctx, c, op, res, params) {
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
	return all, nil
}
