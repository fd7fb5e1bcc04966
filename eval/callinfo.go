package eval

import "strings"

// AggregateCall reports whether n is a recognized aggregate function call
// (SUM, AVG, MIN, MAX, COUNT, MEDIAN, VARIANCE, ARRAY_AGG) and, if so,
// returns its name and single argument expression (nil for a zero-arg
// call). Package plan uses this to rewrite a SELECT/GROUP BY projection
// item into an aggregator slot instead of evaluating the call directly.
func AggregateCall(n Node) (name string, arg Node, ok bool) {
	c, isCall := n.(callNode)
	if !isCall || !c.isAggregate {
		return "", nil, false
	}
	if len(c.args) == 0 {
		return c.name, nil, true
	}
	return c.name, c.args[0], true
}

// AggregatePostproc reports ARRAY_AGG's optional second argument,
// `ARRAY_AGG(val, postproc)`: the bare name of a user function (registered
// via RunOptions.UserInit) to run once over the finished list, rather than
// per row. ok is false when n isn't a recognized aggregate call or carries
// no second argument.
func AggregatePostproc(n Node) (funcName string, ok bool) {
	c, isCall := n.(callNode)
	if !isCall || !c.isAggregate || len(c.args) < 2 {
		return "", false
	}
	v, isVar := c.args[1].(varNode)
	if !isVar {
		return "", false
	}
	return v.name, true
}

// UnnestCall reports whether n is an UNNEST(...) call, returning its
// argument expression. Package plan uses this to recognize a SELECT item
// that fans a row out into multiple output rows.
func UnnestCall(n Node) (arg Node, ok bool) {
	c, isCall := n.(callNode)
	if !isCall || !strings.EqualFold(c.name, "UNNEST") {
		return nil, false
	}
	if len(c.args) != 1 {
		return nil, false
	}
	return c.args[0], true
}
