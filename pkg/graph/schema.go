package graph

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema describes Model as JSON Schema for renderers written against the
// wire format.
func Schema() *jsonschema.Schema {
	return GenerateSchema(Model{})
}

// GenerateSchema reflects a JSON Schema from the type of value.
func GenerateSchema(value any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	v := reflect.New(t).Interface()
	return reflector.Reflect(v)
}
