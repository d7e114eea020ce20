package tools

import (
	"sort"

	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// FunctionDeclarations returns the provider-side declarations for every
// registered tool, built from the same parameter definitions as the eino infos.
func (r *Registry) FunctionDeclarations() []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(r.defs))
	for _, s := range r.defs {
		out = append(out, s.declaration())
	}
	return out
}

// GenaiTool wraps the declarations in the single tool entry the provider expects.
func (r *Registry) GenaiTool() *genai.Tool {
	return &genai.Tool{FunctionDeclarations: r.FunctionDeclarations()}
}

func (s toolDef) declaration() *genai.FunctionDeclaration {
	params := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(s.params)),
	}
	names := make([]string, 0, len(s.params))
	for name := range s.params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := s.params[name]
		params.Properties[name] = &genai.Schema{
			Type:        schemaType(p.Type),
			Description: p.Desc,
		}
		if p.Required {
			params.Required = append(params.Required, name)
		}
	}
	return &genai.FunctionDeclaration{
		Name:        string(s.name),
		Description: s.desc,
		Parameters:  params,
	}
}

func schemaType(t schema.DataType) genai.Type {
	switch t {
	case schema.Integer:
		return genai.TypeInteger
	case schema.Number:
		return genai.TypeNumber
	case schema.Boolean:
		return genai.TypeBoolean
	case schema.Array:
		return genai.TypeArray
	case schema.Object:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
