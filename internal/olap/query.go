// Package olap defines the named analytical queries and t-tests that run
// against the warehouse.
package olap

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParamKind is the Go type a query parameter is parsed into.
type ParamKind int

// Parameter kinds.
const (
	Int ParamKind = iota
	Float
	String
)

func (k ParamKind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return "string"
	}
}

// Param describes one positional query parameter. Params bind to $1, $2, ...
// in declaration order.
type Param struct {
	Name        string
	Kind        ParamKind
	Default     string
	Description string
}

func (p Param) parse(raw string) (any, error) {
	switch p.Kind {
	case Int:
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %q is not an integer", p.Name, raw)
		}
		return v, nil
	case Float:
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %q is not a number", p.Name, raw)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// Query is a named, parameterized report over the warehouse.
type Query struct {
	Name        string
	Description string
	SQL         string
	Params      []Param
}

// Args resolves the query's bind arguments. Values in set override the
// parameter defaults; a name that is not a parameter of q is an error.
func (q Query) Args(set map[string]string) ([]any, error) {
	known := make(map[string]bool, len(q.Params))
	for _, p := range q.Params {
		known[p.Name] = true
	}
	var unknown []string
	for name := range set {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("query %s has no parameter %s", q.Name, strings.Join(unknown, ", "))
	}

	args := make([]any, len(q.Params))
	for i, p := range q.Params {
		raw, ok := set[p.Name]
		if !ok {
			raw = p.Default
		}
		v, err := p.parse(raw)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// ParseParams parses name=value pairs.
func ParseParams(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		name, value, ok := strings.Cut(kv, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q (want name=value)", kv)
		}
		out[name] = value
	}
	return out, nil
}

// TTest is a two-sample t statistic computed in SQL. Its query returns one
// row of (t, n1, n2); the row is missing when either sample is empty.
type TTest struct {
	Name        string
	Description string
	SQL         string

	// Sample1 and Sample2 label the two samples, in the order the
	// statistic subtracts them.
	Sample1 string
	Sample2 string
}
