// ABOUTME: Tolerant JSON field types for Zoho payloads
// ABOUTME: Number accepts numbers, numeric strings, or null; Lookup accepts strings or {id,name} objects
package models

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Number is a float that decodes from a JSON number, a numeric string, or
// null. Anything unparseable decodes to 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// Float returns the value as float64.
func (n Number) Float() float64 {
	return float64(n)
}

// Lookup is a CRM lookup field. The API returns {"id","name"} objects but
// older payloads and webhooks carry a bare name.
type Lookup struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

func (l *Lookup) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*l = Lookup{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		return json.Unmarshal(data, &l.Name)
	}

	type plain Lookup
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	*l = Lookup(p)
	return nil
}

// Present reports whether the lookup references anything.
func (l Lookup) Present() bool {
	return l.Name != "" || l.ID != ""
}

func failedNames(details map[string]SyncResult) []string {
	var names []string
	for name, result := range details {
		if !result.Success {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
