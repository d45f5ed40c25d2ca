package jsontree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is matched by every navigation failure.
var ErrNotFound = errors.New("jsontree: path not found")

// Step is one hop through a tree: an object key or an array index.
type Step struct {
	key     string
	index   int
	byIndex bool
}

// Key returns a step selecting the object member named k.
func Key(k string) Step { return Step{key: k} }

// Index returns a step selecting the 0-based array element i.
func Index(i int) Step { return Step{index: i, byIndex: true} }

// IsIndex reports whether s selects an array element.
func (s Step) IsIndex() bool { return s.byIndex }

// Key returns the member name selected by s.
func (s Step) Key() string { return s.key }

// Index returns the element position selected by s.
func (s Step) Index() int { return s.index }

func (s Step) String() string {
	if s.byIndex {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return strconv.Quote(s.key)
}

// Path is an ordered sequence of steps from a root value.
type Path []Step

// String renders p as products[0].title. Keys that are not plain
// identifiers are quoted.
func (p Path) String() string {
	var sb strings.Builder
	for i, s := range p {
		switch {
		case s.byIndex:
			sb.WriteString(s.String())
		case isPlainKey(s.key):
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(s.key)
		default:
			if i > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(strconv.Quote(s.key))
		}
	}
	return sb.String()
}

func isPlainKey(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if r == '.' || r == '[' || r == ']' || r == '"' || r == ' ' {
			return false
		}
	}
	return true
}

// NotFoundError reports the first step that did not resolve.
type NotFoundError struct {
	Path  Path
	Pos   int  // index of the failing step in Path
	Found Kind // kind of the value the step was applied to
}

func (e *NotFoundError) Error() string {
	s := e.Path[e.Pos]
	var what string
	if s.byIndex {
		what = "index " + strconv.Itoa(s.index)
	} else {
		what = "key " + strconv.Quote(s.key)
	}
	return fmt.Sprintf("jsontree: %s not found in %s at step %d of %s", what, e.Found, e.Pos, e.Path)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Navigate applies path to root left to right and returns the value reached.
// An empty path returns root. The first step that does not resolve stops
// navigation with a *NotFoundError; later steps are never evaluated.
func Navigate(root Value, path ...Step) (Value, error) {
	cur := root
	for i, s := range path {
		var (
			next Value
			ok   bool
		)
		if s.byIndex {
			next, ok = cur.At(s.index)
		} else {
			next, ok = cur.Lookup(s.key)
		}
		if !ok {
			return Value{}, &NotFoundError{Path: Path(path), Pos: i, Found: cur.kind}
		}
		cur = next
	}
	return cur, nil
}

// ParsePath parses a dotted path such as products[0].title or
// "odd.key".items[2]. Bare segments are keys; bracketed integers are indices.
func ParsePath(s string) (Path, error) {
	var (
		path Path
		i    int
	)
	for i < len(s) {
		switch c := s[i]; {
		case c == '.':
			if i == 0 || i == len(s)-1 || s[i+1] == '.' {
				return nil, fmt.Errorf("jsontree: empty key at offset %d in %q", i, s)
			}
			i++
		case c == '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("jsontree: unclosed index at offset %d in %q", i, s)
			}
			n, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("jsontree: invalid index %q in %q", s[i+1:i+end], s)
			}
			path = append(path, Index(n))
			i += end + 1
		case c == '"':
			quoted, err := strconv.QuotedPrefix(s[i:])
			if err != nil {
				return nil, fmt.Errorf("jsontree: invalid quoted key at offset %d in %q: %w", i, s, err)
			}
			k, _ := strconv.Unquote(quoted)
			path = append(path, Key(k))
			i += len(quoted)
		default:
			end := strings.IndexAny(s[i:], ".[")
			if end < 0 {
				end = len(s) - i
			}
			path = append(path, Key(s[i:i+end]))
			i += end
		}
	}
	return path, nil
}
