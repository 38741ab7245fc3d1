// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package model

// Method is the comparison or structural method a Query applies.
type Method string

// the query methods the engine and adapter understand
const (
	MethodEqual          Method = "equal"
	MethodNotEqual       Method = "notEqual"
	MethodLessThan       Method = "lessThan"
	MethodLessThanEqual  Method = "lessThanEqual"
	MethodGreaterThan    Method = "greaterThan"
	MethodGreaterEqual   Method = "greaterThanEqual"
	MethodContains       Method = "contains"
	MethodSearch         Method = "search"
	MethodIsNull         Method = "isNull"
	MethodIsNotNull      Method = "isNotNull"
	MethodStartsWith     Method = "startsWith"
	MethodEndsWith       Method = "endsWith"
	MethodSelect         Method = "select"
	MethodOrderAsc       Method = "orderAsc"
	MethodOrderDesc      Method = "orderDesc"
	MethodLimit          Method = "limit"
	MethodOffset         Method = "offset"
	MethodCursorAfter    Method = "cursorAfter"
	MethodCursorBefore   Method = "cursorBefore"
)

// Order is a sort direction.
type Order string

// order directions, bit-exact per spec §6
const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

// CursorDirection is the pagination direction relative to the cursor document.
type CursorDirection string

// cursor directions, bit-exact per spec §6
const (
	CursorBefore CursorDirection = "before"
	CursorAfter  CursorDirection = "after"
)

// Query is a single predicate, selection, or pagination directive built by
// the application and consumed by the document engine and, ultimately, the
// adapter. It is an external collaborator: the engine only ever calls
// Method/Attribute/Values/GroupByType on it.
type Query struct {
	method    Method
	attribute string
	values    []interface{}
}

// NewQuery constructs a Query for method against attribute with values.
func NewQuery(method Method, attribute string, values ...interface{}) Query {
	return Query{method: method, attribute: attribute, values: values}
}

// Equal builds an equality query on attribute.
func Equal(attribute string, value interface{}) Query {
	return NewQuery(MethodEqual, attribute, value)
}

// Limit builds a limit directive.
func Limit(n int) Query { return NewQuery(MethodLimit, "", n) }

// Offset builds an offset directive.
func Offset(n int) Query { return NewQuery(MethodOffset, "", n) }

// Select builds a selection directive naming the attributes to return.
func Select(attributes ...string) Query {
	values := make([]interface{}, len(attributes))
	for i, a := range attributes {
		values[i] = a
	}
	return NewQuery(MethodSelect, "", values...)
}

// GetMethod returns the query's method.
func (q Query) GetMethod() Method { return q.method }

// GetAttribute returns the query's target attribute, if any.
func (q Query) GetAttribute() string { return q.attribute }

// GetValues returns the query's literal operands.
func (q Query) GetValues() []interface{} { return q.values }

// SetValues replaces the query's literal operands; used by the query
// normalizer to rewrite datetime literals into canonical form in place.
func (q *Query) SetValues(values []interface{}) { q.values = values }

// Grouped is the result of GroupByType: queries partitioned by their role in
// a find/count/sum call.
type Grouped struct {
	Filters         []Query
	Selections      []Query
	Limit           int
	Offset          int
	OrderAttributes []string
	OrderTypes      []Order
	Cursor          string
	CursorDirection CursorDirection
}

// default pagination values, see spec §4.7 "find"
const (
	DefaultLimit  = 25
	DefaultOffset = 0
)

// GroupByType partitions queries into filters, selections, and pagination
// directives. Method-specific queries (limit/offset/cursor/order/select)
// are consumed into Grouped's dedicated fields; everything else is treated
// as a filter predicate.
func GroupByType(queries []Query) Grouped {
	g := Grouped{Limit: DefaultLimit, Offset: DefaultOffset, CursorDirection: CursorAfter}
	for _, q := range queries {
		switch q.method {
		case MethodSelect:
			g.Selections = append(g.Selections, q)
		case MethodLimit:
			if len(q.values) > 0 {
				if n, ok := q.values[0].(int); ok {
					g.Limit = n
				}
			}
		case MethodOffset:
			if len(q.values) > 0 {
				if n, ok := q.values[0].(int); ok {
					g.Offset = n
				}
			}
		case MethodOrderAsc:
			g.OrderAttributes = append(g.OrderAttributes, q.attribute)
			g.OrderTypes = append(g.OrderTypes, OrderAsc)
		case MethodOrderDesc:
			g.OrderAttributes = append(g.OrderAttributes, q.attribute)
			g.OrderTypes = append(g.OrderTypes, OrderDesc)
		case MethodCursorAfter:
			if len(q.values) > 0 {
				if s, ok := q.values[0].(string); ok {
					g.Cursor = s
				}
			}
			g.CursorDirection = CursorAfter
		case MethodCursorBefore:
			if len(q.values) > 0 {
				if s, ok := q.values[0].(string); ok {
					g.Cursor = s
				}
			}
			g.CursorDirection = CursorBefore
		default:
			g.Filters = append(g.Filters, q)
		}
	}
	return g
}

// SelectedAttributes returns the flat attribute list named by a set of
// selection queries, or nil if there are none (meaning "select everything").
func SelectedAttributes(selections []Query) []string {
	var out []string
	for _, q := range selections {
		for _, v := range q.values {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
