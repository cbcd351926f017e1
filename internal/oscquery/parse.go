package oscquery

import (
	"encoding/json"
	"fmt"
	"strings"

	"codeberg.org/mutker/rnboctl/internal/errors"
	"github.com/buger/jsonparser"
)

const (
	keyFullPath = "FULL_PATH"
	keyContents = "CONTENTS"
	keyValue    = "value"
)

type pending struct {
	raw  []byte
	node *Node
}

// Parse validates an OSCQuery document into a Node tree. Only FULL_PATH,
// CONTENTS and VALUE (any case) are read; every other field is ignored.
// Nesting depth is not bounded by the call stack.
func Parse(data []byte) (*Node, error) {
	errFactory := errors.New()

	if !json.Valid(data) {
		return nil, errFactory.WithData(ErrMalformed, "invalid JSON")
	}

	_, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, errFactory.Wrap(ErrMalformed, err)
	}
	if dataType != jsonparser.Object {
		return nil, errFactory.WithData(ErrMalformed, fmt.Sprintf("root is %s, not an object", dataType))
	}

	root := &Node{}
	stack := []pending{{raw: data, node: root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children, err := decodeNode(p.raw, p.node)
		if err != nil {
			return nil, errFactory.Wrap(ErrMalformed, err)
		}
		stack = append(stack, children...)
	}

	return root, nil
}

// decodeNode fills n from raw and returns its children still to be decoded.
// n.Children is complete and in document order when it returns.
func decodeNode(raw []byte, n *Node) ([]pending, error) {
	var (
		children  []pending
		valueSeen bool
	)

	err := jsonparser.ObjectEach(raw, func(key, val []byte, dataType jsonparser.ValueType, _ int) error {
		name := string(key)
		switch {
		case name == keyFullPath:
			if dataType != jsonparser.String {
				return fmt.Errorf("%s is %s, not a string", keyFullPath, dataType)
			}
			path, err := jsonparser.ParseString(val)
			if err != nil {
				return fmt.Errorf("%s: %w", keyFullPath, err)
			}
			n.Path = path

		case name == keyContents:
			if dataType == jsonparser.Null {
				return nil
			}
			if dataType != jsonparser.Object {
				return fmt.Errorf("%s of %q is %s, not an object", keyContents, n.Path, dataType)
			}

			return jsonparser.ObjectEach(val, func(childKey, childVal []byte, childType jsonparser.ValueType, _ int) error {
				if childType != jsonparser.Object {
					return fmt.Errorf("child %q is %s, not an object", childKey, childType)
				}
				child := &Node{}
				n.Children = append(n.Children, Child{Key: string(childKey), Node: child})
				children = append(children, pending{raw: childVal, node: child})

				return nil
			})

		case strings.EqualFold(name, keyValue):
			// First spelling in document order wins.
			if valueSeen {
				return nil
			}
			valueSeen = true
			v, err := decodeValue(val, dataType)
			if err != nil {
				return err
			}
			n.Value = v
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return children, nil
}

func decodeValue(val []byte, dataType jsonparser.ValueType) (Value, error) {
	if dataType != jsonparser.Array {
		s, err := decodeScalar(val, dataType)
		if err != nil {
			return Value{}, err
		}

		return ScalarValue(s), nil
	}

	var (
		items   []Scalar
		itemErr error
	)
	_, err := jsonparser.ArrayEach(val, func(item []byte, itemType jsonparser.ValueType, _ int, err error) {
		if itemErr != nil {
			return
		}
		if err != nil {
			itemErr = err
			return
		}
		s, err := decodeScalar(item, itemType)
		if err != nil {
			itemErr = err
			return
		}
		items = append(items, s)
	})
	if err != nil {
		return Value{}, fmt.Errorf("value: %w", err)
	}
	if itemErr != nil {
		return Value{}, fmt.Errorf("value: %w", itemErr)
	}

	return SequenceValue(items...), nil
}

func decodeScalar(val []byte, dataType jsonparser.ValueType) (Scalar, error) {
	switch dataType {
	case jsonparser.Number:
		return Scalar{Type: ScalarNumber, Text: string(val)}, nil
	case jsonparser.String:
		s, err := jsonparser.ParseString(val)
		if err != nil {
			return Scalar{}, err
		}

		return Scalar{Type: ScalarString, Text: s}, nil
	case jsonparser.Boolean:
		return Scalar{Type: ScalarBool, Text: string(val)}, nil
	case jsonparser.Null:
		return NullScalar(), nil
	default:
		return Scalar{Type: ScalarOther, Text: string(val)}, nil
	}
}
