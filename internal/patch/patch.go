// Package patch assembles JSON Patch documents for partial-update endpoints.
package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kolah/oinkctl/internal/form"
	"github.com/kolah/oinkctl/internal/models"
	"github.com/kolah/oinkctl/internal/schema"
)

type Op string

const (
	OpAdd     Op = "add"
	OpReplace Op = "replace"
	OpRemove  Op = "remove"
	OpMove    Op = "move"
	OpCopy    Op = "copy"
	OpTest    Op = "test"
)

func (o Op) Valid() bool {
	switch o {
	case OpAdd, OpReplace, OpRemove, OpMove, OpCopy, OpTest:
		return true
	}
	return false
}

// PathStyle selects how entry paths are written on the wire.
type PathStyle string

const (
	// SlashPath writes JSON Pointers: "/attributes/additionalAudience".
	SlashPath PathStyle = "slash"
	// DotPath writes dotted paths: "attributes.additionalAudience".
	DotPath PathStyle = "dot"
)

func ParsePathStyle(s string) (PathStyle, error) {
	switch PathStyle(strings.ToLower(s)) {
	case SlashPath, "":
		return SlashPath, nil
	case DotPath:
		return DotPath, nil
	}
	return "", fmt.Errorf("unknown patch path style %q (supported: slash, dot)", s)
}

type Entry struct {
	Op    Op     `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value,omitempty"`
}

type Assembler struct {
	style PathStyle
}

func New(style PathStyle) *Assembler {
	if style == "" {
		style = SlashPath
	}
	return &Assembler{style: style}
}

// Build validates and normalizes entries. When target is the schema of the
// patched resource, values of add, replace and test entries are converted to
// the type declared at their path.
func (a *Assembler) Build(target *schema.Node, entries []Entry) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		e.Op = Op(strings.ToLower(strings.TrimSpace(string(e.Op))))
		if !e.Op.Valid() {
			return nil, &InvalidOpError{Op: string(e.Op)}
		}

		pointer := normalize(e.Path)
		if pointer == "/" {
			return nil, &MalformedArgumentError{Argument: e.Path, Reason: "path is empty"}
		}

		switch e.Op {
		case OpRemove:
			e.Value = nil
		case OpMove, OpCopy:
			if strings.TrimSpace(e.From) == "" {
				return nil, &MalformedArgumentError{Argument: e.Path, Reason: fmt.Sprintf("%s needs a from path", e.Op)}
			}
			e.From = a.render(normalize(e.From))
			e.Value = nil
		default:
			if e.Value == nil {
				return nil, &MalformedArgumentError{Argument: e.Path, Reason: fmt.Sprintf("%s needs a value", e.Op)}
			}
			if n := nodeAt(target, pointer); n != nil {
				v, err := form.Coerce(n, e.Value)
				if err != nil {
					return nil, &form.FieldValidationError{Field: pointer, Value: e.Value, Reason: err.Error()}
				}
				e.Value = v
			}
		}

		e.Path = a.render(pointer)
		out = append(out, e)
	}
	return out, nil
}

// Shorthand builds the single entry of a --patch-add, --patch-replace or
// --patch-remove flag. Add and replace take "key:value"; remove takes a key
// and ignores any value.
func Shorthand(op Op, arg string) (Entry, error) {
	if !op.Valid() {
		return Entry{}, &InvalidOpError{Op: string(op)}
	}
	flag := "--patch-" + string(op)
	if op == OpRemove {
		key, _, _ := strings.Cut(arg, ":")
		if strings.TrimSpace(key) == "" {
			return Entry{}, &MalformedArgumentError{Flag: flag, Argument: arg, Reason: "expected a key"}
		}
		return Entry{Op: op, Path: strings.TrimSpace(key)}, nil
	}
	if strings.Count(arg, ":") != 1 {
		return Entry{}, &MalformedArgumentError{Flag: flag, Argument: arg, Reason: "expected exactly one ':' separating key and value"}
	}
	key, value, _ := strings.Cut(arg, ":")
	key = strings.TrimSpace(key)
	if key == "" {
		return Entry{}, &MalformedArgumentError{Flag: flag, Argument: arg, Reason: "expected a key before ':'"}
	}
	return Entry{Op: op, Path: key, Value: strings.TrimSpace(value)}, nil
}

// FromValues reads entries collected by a form over the patch item schema.
func FromValues(trees []models.ValueTree) []Entry {
	entries := make([]Entry, 0, len(trees))
	for _, t := range trees {
		e := Entry{Value: t["value"]}
		e.Op = Op(fmt.Sprint(valueOr(t["op"], "")))
		e.Path = fmt.Sprint(valueOr(t["path"], ""))
		if from, ok := t["from"]; ok {
			e.From = fmt.Sprint(from)
		}
		entries = append(entries, e)
	}
	return entries
}

func valueOr(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func (a *Assembler) render(pointer string) string {
	if a.style == DotPath {
		return strings.ReplaceAll(strings.TrimPrefix(pointer, "/"), "/", ".")
	}
	return pointer
}

// nodeAt follows a JSON Pointer through the schema. Array segments are
// indexes or "-".
func nodeAt(n *schema.Node, pointer string) *schema.Node {
	for _, seg := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		if n == nil {
			return nil
		}
		switch n.Kind {
		case schema.KindObject:
			n = n.Property(unescape(seg))
		case schema.KindArray:
			if _, err := strconv.Atoi(seg); err != nil && seg != "-" {
				return nil
			}
			n = n.Items
		default:
			return nil
		}
	}
	return n
}

func unescape(seg string) string {
	return strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
}
