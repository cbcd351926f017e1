package oscquery

import (
	"fmt"
	"strings"
)

// Matcher selects nodes by their full path.
type Matcher func(path string) bool

// Exact matches one full path.
func Exact(path string) Matcher {
	return func(p string) bool { return p == path }
}

// Suffix matches any non-empty path ending in suffix.
func Suffix(suffix string) Matcher {
	return func(p string) bool { return p != "" && strings.HasSuffix(p, suffix) }
}

// Find returns the first node accepted by match, visiting the tree depth
// first in pre-order with children in document order.
func Find(root *Node, match Matcher) *Node {
	if root == nil {
		return nil
	}

	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if match(n.Path) {
			return n
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i].Node)
		}
	}

	return nil
}

// Locate returns the value of the first node accepted by match. The second
// result is false when no node matches or the first match has no value.
func Locate(root *Node, match Matcher) (Value, bool) {
	n := Find(root, match)
	if n == nil || !n.Value.Present() {
		return Value{}, false
	}

	return n.Value, true
}

// Probe checks candidate paths in the given order and returns the first one
// whose node carries a present value.
func Probe(root *Node, candidates []string) (string, Value, bool) {
	for _, path := range candidates {
		if v, ok := Locate(root, Exact(path)); ok {
			return path, v, true
		}
	}

	return "", Value{}, false
}

// Candidates expands an indexed path template for indices 0..n-1 in
// ascending order. The template must contain exactly one %d verb.
func Candidates(template string, n int) []string {
	out := make([]string, 0, n)
	for i := range n {
		out = append(out, fmt.Sprintf(template, i))
	}

	return out
}
