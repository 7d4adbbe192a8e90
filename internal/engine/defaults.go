package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

var ErrValueEmpty = errors.New("value is empty")

// NewDefaultRegistry creates a registry pre-loaded with the built-in
// operations. Hosts register their own AI and document operations on top
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	_ = r.Register(api.StepTypeDataTransform, "identity", opIdentity)
	_ = r.Register(api.StepTypeDataTransform, "pick", opPick)
	_ = r.Register(api.StepTypeDataTransform, "uppercase", opUppercase)
	_ = r.Register(api.StepTypeDataTransform, "lowercase", opLowercase)
	_ = r.Register(api.StepTypeValidation, "not-empty", opNotEmpty)
	_ = r.Register(api.StepTypeFormatting, "join", opJoin)

	return r
}

func opIdentity(_ context.Context, inputs api.Args) (api.Args, error) {
	if val, ok := inputs["value"]; ok {
		return api.Args{"value": val}, nil
	}
	return inputs, nil
}

func opPick(_ context.Context, inputs api.Args) (api.Args, error) {
	field := inputs.GetString("field", "")
	src, ok := inputs["value"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: value", ErrInputMissing)
	}
	return api.Args{"value": src[field]}, nil
}

func opUppercase(_ context.Context, inputs api.Args) (api.Args, error) {
	return api.Args{
		"value": strings.ToUpper(inputs.GetString("value", "")),
	}, nil
}

func opLowercase(_ context.Context, inputs api.Args) (api.Args, error) {
	return api.Args{
		"value": strings.ToLower(inputs.GetString("value", "")),
	}, nil
}

func opNotEmpty(_ context.Context, inputs api.Args) (api.Args, error) {
	val, ok := inputs["value"]
	if !ok || val == nil || val == "" {
		return nil, ErrValueEmpty
	}
	return api.Args{"value": true}, nil
}

func opJoin(_ context.Context, inputs api.Args) (api.Args, error) {
	sep := inputs.GetString("separator", ", ")
	items := asArray(inputs["items"])
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%v", item)
	}
	return api.Args{"value": strings.Join(parts, sep)}, nil
}
