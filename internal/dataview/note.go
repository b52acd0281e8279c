package dataview

// Note is one record the executor matches against. Per the Redesign Flags'
// call to stop duck-typing records, callers may hand either a flat shape
// (note["path"], note["folder"]) or a nested shape (note["file"]["path"]);
// flatten normalizes both into a single lookup map so field resolution
// doesn't care which one it was handed.
type Note map[string]any

func (n Note) flatten() map[string]any {
	flat := make(map[string]any, len(n)*2)
	for k, v := range n {
		flat[k] = v
		if nested, ok := v.(map[string]any); ok {
			for nk, nv := range nested {
				flat[k+"."+nk] = nv
				if _, exists := flat[nk]; !exists {
					flat[nk] = nv
				}
			}
		} else if nested, ok := v.(Note); ok {
			for nk, nv := range nested {
				flat[k+"."+nk] = nv
				if _, exists := flat[nk]; !exists {
					flat[nk] = nv
				}
			}
		}
	}
	return flat
}

// path returns the note's path, preferring the flat "path" key and falling
// back to the nested "file.path" shape, mirroring the original executor's
// _filter_by_from lookup.
func (n Note) path() string {
	if v, ok := n["path"].(string); ok {
		return v
	}
	if file, ok := n["file"].(map[string]any); ok {
		if v, ok := file["path"].(string); ok {
			return v
		}
	}
	return ""
}

func (n Note) title() string {
	if v, ok := n["title"].(string); ok && v != "" {
		return v
	}
	return "Untitled"
}

func (n Note) content() string {
	if v, ok := n["content"].(string); ok {
		return v
	}
	return ""
}
