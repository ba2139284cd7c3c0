package graph

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Value is a tagged union over the three parameter value spaces. The tag is
// resolved when the value is constructed (typically against a parameter's
// declared type), not re-inferred at every evaluation.
//
// Value serializes as a plain scalar so persisted graphs stay readable.
type Value struct {
	Type   ParameterType
	Number float64
	Bool   bool
	Str    string
}

// Number constructs a numeric value.
func NumberValue(v float64) Value { return Value{Type: ParameterNumber, Number: v} }

// BoolValue constructs a boolean value.
func BoolValue(v bool) Value { return Value{Type: ParameterBoolean, Bool: v} }

// StringValue constructs a string value.
func StringValue(v string) Value { return Value{Type: ParameterString, Str: v} }

// NewValue coerces a raw scalar into a Value of the declared type.
func NewValue(t ParameterType, raw any) (Value, error) {
	switch t {
	case ParameterNumber:
		switch v := raw.(type) {
		case float64:
			return NumberValue(v), nil
		case float32:
			return NumberValue(float64(v)), nil
		case int:
			return NumberValue(float64(v)), nil
		case int64:
			return NumberValue(float64(v)), nil
		}
		return Value{}, fmt.Errorf("expected number, got %T", raw)
	case ParameterBoolean:
		if v, ok := raw.(bool); ok {
			return BoolValue(v), nil
		}
		return Value{}, fmt.Errorf("expected boolean, got %T", raw)
	case ParameterString:
		if v, ok := raw.(string); ok {
			return StringValue(v), nil
		}
		return Value{}, fmt.Errorf("expected string, got %T", raw)
	}
	return Value{}, fmt.Errorf("unknown parameter type %q", t)
}

// InferValue builds a Value from a raw scalar, inferring the tag from the
// Go type. Used when no parameter declaration is available (forward-compatible
// snapshots).
func InferValue(raw any) Value {
	switch v := raw.(type) {
	case bool:
		return BoolValue(v)
	case string:
		return StringValue(v)
	case float64:
		return NumberValue(v)
	case float32:
		return NumberValue(float64(v))
	case int:
		return NumberValue(float64(v))
	case int64:
		return NumberValue(float64(v))
	default:
		return StringValue(fmt.Sprintf("%v", v))
	}
}

// IsZero reports whether the value is the untagged zero Value. Used by
// serialization to omit empty condition values.
func (v Value) IsZero() bool { return v.Type == "" }

// Scalar returns the underlying Go scalar.
func (v Value) Scalar() any {
	switch v.Type {
	case ParameterBoolean:
		return v.Bool
	case ParameterString:
		return v.Str
	default:
		return v.Number
	}
}

// String renders the scalar for labels and generated artifacts.
func (v Value) String() string {
	switch v.Type {
	case ParameterBoolean:
		return fmt.Sprintf("%t", v.Bool)
	case ParameterString:
		return v.Str
	default:
		return trimFloat(v.Number)
	}
}

// trimFloat renders a float without a trailing ".0" for whole numbers,
// matching how graph authors write thresholds.
func trimFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}

// MarshalJSON emits the plain scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Scalar())
}

// UnmarshalJSON sniffs the scalar type from the JSON token.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*v = Value{}
		return nil
	}
	*v = InferValue(raw)
	return nil
}

// MarshalYAML emits the plain scalar.
func (v Value) MarshalYAML() (any, error) {
	return v.Scalar(), nil
}

// UnmarshalYAML sniffs the scalar type from the YAML node.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*v = Value{}
		return nil
	}
	*v = InferValue(raw)
	return nil
}
