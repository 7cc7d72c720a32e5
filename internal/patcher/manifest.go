package patcher

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// manifest is a JSON object that remembers the order of its top-level keys,
// so a rewritten package.json diffs cleanly against the packaged one.
type manifest struct {
	keys   []string
	values map[string]json.RawMessage
}

func parseManifest(data []byte) (*manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("failed to parse manifest: top level is not an object")
	}

	m := &manifest{values: map[string]json.RawMessage{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("failed to parse manifest: unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse manifest field %q: %w", key, err)
		}
		if _, seen := m.values[key]; !seen {
			m.keys = append(m.keys, key)
		}
		m.values[key] = raw
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return m, nil
}

func (m *manifest) set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if _, seen := m.values[key]; !seen {
		m.keys = append(m.keys, key)
	}
	m.values[key] = raw
	return nil
}

func (m *manifest) getString(key string) string {
	raw, ok := m.values[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// encode renders the manifest with two-space indentation.
func (m *manifest) encode() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		compact.Write(k)
		compact.WriteByte(':')
		compact.Write(m.values[key])
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to format manifest: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
