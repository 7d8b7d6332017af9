package jsonschema

// Schema is a minimal JSON Schema representation used for export.
// Keep this struct small and extend incrementally.
type Schema struct {
	// Root only
	Schema string             `json:"$schema,omitempty"`
	Defs   map[string]*Schema `json:"$defs,omitempty"`

	// Core
	Ref             string   `json:"$ref,omitempty"`
	Title           string   `json:"title,omitempty"`
	Type            string   `json:"type,omitempty"`
	Format          string   `json:"format,omitempty"`
	ContentEncoding string   `json:"contentEncoding,omitempty"`
	Enum            []string `json:"enum,omitempty"`
	Const           any      `json:"const,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`

	// Union
	OneOf []*Schema `json:"oneOf,omitempty"`
}
