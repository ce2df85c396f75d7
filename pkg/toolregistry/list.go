package toolregistry

import "encoding/json"

type listEntry struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	HasSchema   bool   `json:"hasSchema"`
	IsDynamic   bool   `json:"isDynamic"`
	Type        string `json:"type"`
}

func marshalList(slots []slot) string {
	return marshalFilteredList(slots, "", false)
}

// marshalFilteredList narrows the listing to tools of kind (empty matches
// every kind) and, when dynamicOnly is set, to dynamically registered
// tools only (SPEC_FULL.md supplement: tool.list filtering).
func marshalFilteredList(slots []slot, kind string, dynamicOnly bool) string {
	entries := make([]listEntry, 0, len(slots))
	for _, s := range slots {
		if !s.active {
			continue
		}
		if kind != "" && s.def.Kind.String() != kind {
			continue
		}
		if dynamicOnly && !s.def.IsDynamic {
			continue
		}
		entries = append(entries, listEntry{
			Name:        s.def.Name,
			Description: s.def.Description,
			HasSchema:   s.def.Schema != "",
			IsDynamic:   s.def.IsDynamic,
			Type:        s.def.Kind.String(),
		})
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(b)
}
