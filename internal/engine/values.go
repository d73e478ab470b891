package engine

import (
	"fmt"
	"strconv"

	"github.com/groupgate/groupgate/internal/language"
)

// coerceVariableValues validates and coerces the request's variables against
// the operation's variable definitions.
func coerceVariableValues(sch *language.Schema, op *language.OperationDefinition, variables map[string]any) (map[string]any, error) {
	if variables == nil {
		variables = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, vd := range op.VariableDefinitions {
		val, provided := variables[vd.Variable]
		if !provided {
			if vd.DefaultValue != nil {
				val = astValueToGo(vd.DefaultValue, nil)
			} else if vd.Type.NonNull {
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", vd.Variable, vd.Type.String())
			} else {
				continue
			}
		}
		if val == nil && vd.Type.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", vd.Variable, vd.Type.String())
		}
		cv, err := coerceValue(val, vd.Type)
		if err != nil {
			return nil, fmt.Errorf("variable $%s: %v", vd.Variable, err)
		}
		coerced[vd.Variable] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces the literal and variable arguments of one
// field. Coercion failures are recorded as located errors; the argument is
// then omitted.
func coerceArgumentValues(st *execState, fieldDef *language.FieldDefinition, arguments language.ArgumentList, path []any) map[string]any {
	coerced := make(map[string]any)
	for _, arg := range arguments {
		argDef := fieldDef.Arguments.ForName(arg.Name)
		if argDef == nil {
			continue
		}
		cv, err := coerceValue(astValueToGo(arg.Value, st.vars), argDef.Type)
		if err != nil {
			st.addError(GraphQLError{
				Message:    fmt.Sprintf("argument %q: %v", arg.Name, err),
				Path:       path,
				Extensions: map[string]any{"code": CodeBadUserInput},
			})
			continue
		}
		coerced[arg.Name] = cv
	}
	for _, argDef := range fieldDef.Arguments {
		if _, ok := coerced[argDef.Name]; ok {
			continue
		}
		if argDef.DefaultValue != nil {
			coerced[argDef.Name] = astValueToGo(argDef.DefaultValue, nil)
		} else if argDef.Type.NonNull {
			st.addError(GraphQLError{
				Message:    fmt.Sprintf("argument %q of required type was not provided", argDef.Name),
				Path:       path,
				Extensions: map[string]any{"code": CodeBadUserInput},
			})
		}
	}
	return coerced
}

// astValueToGo converts an AST value to a Go value, substituting variables
// recursively so inputs like {id: $id} resolve correctly.
func astValueToGo(value *language.Value, vars map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.Variable:
		if vars == nil {
			return nil
		}
		return vars[value.Raw]
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.NullValue:
		return nil
	case language.EnumValue:
		return value.Raw
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = astValueToGo(c.Value, vars)
		}
		return out
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			m[c.Name] = astValueToGo(c.Value, vars)
		}
		return m
	default:
		return nil
	}
}

// coerceValue coerces a runtime value to the given GraphQL type.
func coerceValue(value any, t *language.Type) (any, error) {
	if value == nil {
		if t.NonNull {
			return nil, fmt.Errorf("cannot provide null for non-null type %s", t.String())
		}
		return nil, nil
	}

	if t.Elem != nil {
		items, ok := toSlice(value)
		if !ok {
			// A single value coerces to a one-element list.
			cv, err := coerceValue(value, t.Elem)
			if err != nil {
				return nil, err
			}
			return []any{cv}, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			cv, err := coerceValue(item, t.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	}

	switch t.NamedType {
	case "Int":
		return coerceInt(value)
	case "Float":
		return coerceFloat(value)
	case "String":
		return coerceString(value)
	case "Boolean":
		return coerceBool(value)
	case "ID":
		return coerceID(value)
	default:
		// Input objects and custom scalars pass through.
		return value, nil
	}
}

func coerceInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		if iv, err := strconv.Atoi(v); err == nil {
			return iv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return fv, nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceBool(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatInt(int64(v), 10), nil
	default:
		return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
	}
}
