package model

import "strings"

// Document is a flexible map representing a JSON document.
// The documentID is the only required field for document identification.
// Other fields like "title" or "body" are accessed by their string keys and depend on index configuration.
// Example: doc["title"], doc["body"]
type Document map[string]interface{}

// GetDocumentID returns the documentID if it's stored in the document map under "documentID" key.
func (d Document) GetDocumentID() (string, bool) {
	if id, ok := d["documentID"]; ok {
		if str, sok := id.(string); sok {
			if str = strings.TrimSpace(str); str != "" {
				return str, true
			}
		}
	}
	return "", false
}

// FieldText returns the text content of a field. String arrays are joined with
// spaces, so their elements are numbered as one continuous token stream.
// The second result is false when the field is missing or has an unsupported type.
func (d Document) FieldText(field string) (string, bool) {
	val, exists := d[field]
	if !exists {
		return "", false
	}
	switch v := val.(type) {
	case string:
		return v, true
	case []interface{}: // JSON arrays are often unmarshalled to []interface{}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if strItem, ok := item.(string); ok {
				parts = append(parts, strItem)
			}
		}
		return strings.Join(parts, " "), true
	case []string:
		return strings.Join(v, " "), true
	default:
		return "", false
	}
}
