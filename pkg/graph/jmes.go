// pkg/graph/jmes.go
package graph

import (
	jmes "github.com/jmespath/go-jmespath"
)

// String evaluates a JMESPath expression against a decoded JSON document and
// returns the result as a string, or "" when the path does not resolve.
func String(doc any, expr string) string {
	v, err := jmes.Search(expr, doc)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Strings evaluates a JMESPath expression expected to yield a list of
// strings. Non-string elements are skipped.
func Strings(doc any, expr string) []string {
	v, err := jmes.Search(expr, doc)
	if err != nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
