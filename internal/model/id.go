package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a backend identifier. The API emits ids as JSON numbers on some
// routes and strings on others; ID accepts both and keeps the string form
// so client-side joins compare like with like.
type ID string

// String returns the id as sent on the wire in paths.
func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}
