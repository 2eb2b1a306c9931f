package aikit

import (
	"bytes"
	"encoding/json"

	"github.com/go-kratos/aikit/capability"
	"github.com/google/jsonschema-go/jsonschema"
)

type manifestCapability struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
	DependsOn   []string           `json:"dependsOn,omitempty"`
}

type manifestGroup struct {
	Identifier   string       `json:"identifier"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Capabilities capabilityMap `json:"capabilities"`
}

// capabilityMap encodes capabilities as a JSON object keyed by name,
// keeping registration order.
type capabilityMap []*capability.Capability

func (m capabilityMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(manifestCapability{
			Name:        c.Name,
			Description: c.Description,
			Parameters:  c.Parameters,
			DependsOn:   c.DependsOn,
		})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Manifest renders groups as a pretty-printed JSON array describing every
// group and its capabilities. The output is deterministic for a given input.
func Manifest(groups []*capability.Group) (string, error) {
	doc := make([]manifestGroup, 0, len(groups))
	for _, g := range groups {
		doc = append(doc, manifestGroup{
			Identifier:   g.ID,
			Name:         g.Name,
			Description:  g.Description,
			Capabilities: g.Capabilities(),
		})
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
