package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RunData maps node names to their ordered run attempts. It keeps the node
// names in the order the remote serialized them: failure extraction returns
// the first failing node, and a plain Go map would lose that ordering.
type RunData struct {
	names []string
	runs  map[string][]NodeRun
}

// Add appends a node with its run attempts. Re-adding a name replaces its
// runs but keeps the original position.
func (d *RunData) Add(name string, runs []NodeRun) {
	if d.runs == nil {
		d.runs = make(map[string][]NodeRun)
	}

	if _, exists := d.runs[name]; !exists {
		d.names = append(d.names, name)
	}

	d.runs[name] = runs
}

// Names returns the node names in serialization order.
func (d RunData) Names() []string {
	return d.names
}

// Runs returns the run attempts recorded for the named node.
func (d RunData) Runs(name string) []NodeRun {
	return d.runs[name]
}

// Len reports how many nodes have run data.
func (d RunData) Len() int {
	return len(d.names)
}

// UnmarshalJSON decodes the runData object token by token so the key order
// of the JSON document is preserved.
func (d *RunData) UnmarshalJSON(data []byte) error {
	d.names = nil
	d.runs = nil

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to decode runData: %w", err)
	}

	if tok == nil { // JSON null
		return nil
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("runData is not a JSON object (got %v)", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to decode runData key: %w", err)
		}

		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("runData key is not a string (got %v)", keyTok)
		}

		var runs []NodeRun
		if err := dec.Decode(&runs); err != nil {
			return fmt.Errorf("failed to decode runs for node %q: %w", name, err)
		}

		d.Add(name, runs)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to decode runData: %w", err)
	}

	return nil
}

// MarshalJSON writes the nodes back out in their recorded order.
func (d RunData) MarshalJSON() ([]byte, error) {
	if d.names == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, name := range d.names {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')

		runs, err := json.Marshal(d.runs[name])
		if err != nil {
			return nil, fmt.Errorf("failed to marshal runs for node %q: %w", name, err)
		}

		buf.Write(runs)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
