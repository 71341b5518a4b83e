package remote

import (
	"bytes"
	"encoding/json"
)

// list decodes either a bare JSON array or an object holding the array
// under key. The backend is inconsistent across routes.
type list[T any] struct {
	key   string
	items []T
}

func newList[T any](key string) *list[T] {
	return &list[T]{key: key}
}

func (l *list[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &l.items)
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	raw, ok := wrapper[l.key]
	if !ok || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, &l.items)
}

// Items never returns nil so callers can tell "empty" from "not loaded".
func (l *list[T]) Items() []T {
	if l.items == nil {
		return []T{}
	}
	return l.items
}

// one decodes either {"<key>": {...}} or the bare object.
type one[T any] struct {
	key   string
	value *T
}

func newOne[T any](key string) *one[T] {
	return &one[T]{key: key}
}

func (o *one[T]) UnmarshalJSON(data []byte) error {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	if raw, ok := wrapper[o.key]; ok {
		if string(raw) == "null" {
			return nil
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		o.value = &v
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}

// Value is nil when the response carried no object.
func (o *one[T]) Value() *T {
	return o.value
}
