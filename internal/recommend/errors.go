package recommend

import "errors"

// ErrInvalidQuery rejects a query before any scoring work starts: the user is
// not in the graph, k is below 1 or the explanation cap is negative.
var ErrInvalidQuery = errors.New("recommend: invalid query")
