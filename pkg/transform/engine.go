// Package transform compiles tool-call arguments into downstream API
// payloads using a declarative mapping, and executes the resulting call.
package transform

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/pkg/errors"

	"github.com/lazaroMB/mcp-to-api/pkg/models"
)

// FieldError is a transformation failure scoped to one target field. The
// whole transform aborts on the first one; no partial payload reaches the
// downstream API.
type FieldError struct {
	APIField string
	Err      error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("transformation failed for field %q: %v", e.APIField, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Apply builds the downstream payload from tool arguments. It is a pure
// function: identical inputs always yield identical payloads.
//
// Mappings run in declaration order. A direct mapping with an absent source
// field omits the target key rather than emitting null. Static fields are
// merged last and win on conflict.
func Apply(args map[string]interface{}, cfg models.MappingConfig) (map[string]interface{}, error) {
	payload := make(map[string]interface{}, len(cfg.FieldMappings)+len(cfg.StaticFields))

	for _, fm := range cfg.FieldMappings {
		if fm.APIField == "" {
			return nil, &FieldError{APIField: fm.ToolField, Err: errors.New("api_field is required")}
		}

		switch fm.Transformation {
		case models.TransformDirect, "":
			if v, ok := args[fm.ToolField]; ok {
				payload[fm.APIField] = v
			}
		case models.TransformConstant:
			payload[fm.APIField] = fm.Value
		case models.TransformExpression:
			v, ok := args[fm.ToolField]
			if !ok {
				continue
			}
			out, err := evalExpression(fm.Expression, v)
			if err != nil {
				return nil, &FieldError{APIField: fm.APIField, Err: err}
			}
			payload[fm.APIField] = out
		default:
			return nil, &FieldError{APIField: fm.APIField, Err: errors.Errorf("unknown transformation %q", fm.Transformation)}
		}
	}

	for k, v := range cfg.StaticFields {
		payload[k] = v
	}
	return payload, nil
}

// evalExpression runs a single-argument expression against one tool
// argument. The environment exposes only "value"; the interpreter has no
// access to ambient state, I/O or reflection.
func evalExpression(src string, value interface{}) (interface{}, error) {
	if src == "" {
		return nil, errors.New("expression is empty")
	}
	out, err := expr.Eval(src, map[string]interface{}{"value": value})
	if err != nil {
		return nil, errors.Wrap(err, "expression evaluation failed")
	}
	return out, nil
}
