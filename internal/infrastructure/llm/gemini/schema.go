package gemini

import (
	"github.com/getkin/kin-openapi/openapi3"
	"google.golang.org/genai"
)

// toGenaiSchema mirrors the report schema in Gemini's schema dialect.
// Property ordering follows the Required list.
func toGenaiSchema(s *openapi3.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Minimum:     s.Min,
		Maximum:     s.Max,
	}
	for _, v := range s.Enum {
		if str, ok := v.(string); ok {
			out.Enum = append(out.Enum, str)
		}
	}
	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items.Value)
	}
	if s.MinItems > 0 {
		out.MinItems = genai.Ptr(int64(s.MinItems))
	}
	if s.MaxItems != nil {
		out.MaxItems = genai.Ptr(int64(*s.MaxItems))
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, ref := range s.Properties {
			if ref == nil {
				continue
			}
			out.Properties[name] = toGenaiSchema(ref.Value)
		}
		out.Required = append([]string(nil), s.Required...)
		out.PropertyOrdering = append([]string(nil), s.Required...)
	}
	return out
}

func genaiType(t *openapi3.Types) genai.Type {
	switch {
	case t.Is(openapi3.TypeObject):
		return genai.TypeObject
	case t.Is(openapi3.TypeArray):
		return genai.TypeArray
	case t.Is(openapi3.TypeNumber):
		return genai.TypeNumber
	case t.Is(openapi3.TypeInteger):
		return genai.TypeInteger
	case t.Is(openapi3.TypeBoolean):
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
