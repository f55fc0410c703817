// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package helpers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var mapstructureUnmarshallerHookFuncs = []mapstructure.DecodeHookFunc{}

// RegisterMapstructureUnmarshallerHook registers a new decoder hook for
// mapstructure. This should only be done during init.
func RegisterMapstructureUnmarshallerHook(hook mapstructure.DecodeHookFunc) {
	mapstructureUnmarshallerHookFuncs = append(mapstructureUnmarshallerHookFuncs, hook)
}

// GetMapStructureDecoderConfig returns a decoder config for mapstructure
// with all registered hooks. Unknown keys are an error.
func GetMapStructureDecoderConfig(config any, hooks ...mapstructure.DecodeHookFunc) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		Result:           config,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		MatchName:        MapStructureMatchName,
		DecodeHook: ProtectedDecodeHookFunc(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.ComposeDecodeHookFunc(hooks...),
				mapstructure.ComposeDecodeHookFunc(mapstructureUnmarshallerHookFuncs...),
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		),
	}
}

// ProtectedDecodeHookFunc wraps a DecodeHookFunc to turn a panic into an
// error.
func ProtectedDecodeHookFunc(hook mapstructure.DecodeHookFunc) mapstructure.DecodeHookFunc {
	return func(from, to reflect.Value) (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				v = nil
				err = fmt.Errorf("internal error while parsing: %s", r)
			}
		}()
		return mapstructure.DecodeHookExec(hook, from, to)
	}
}

// MapStructureMatchName tells if a map key matches a field name. Dashes
// are ignored: "queue-size" matches QueueSize.
func MapStructureMatchName(mapKey, fieldName string) bool {
	return strings.EqualFold(strings.ReplaceAll(mapKey, "-", ""), fieldName)
}

// ParametrizedConfigurationUnmarshallerHook decodes an outer configuration
// holding a "Config" field whose concrete type depends on the "type" key
// of the source map. Keys not matching a field of the outer
// configuration are moved into "config". When "type" is missing, the
// type currently in "Config" is kept.
func ParametrizedConfigurationUnmarshallerHook[OuterConfiguration any, InnerConfiguration any](zeroOuterConfiguration OuterConfiguration, innerConfigurationMap map[string](func() InnerConfiguration)) mapstructure.DecodeHookFunc {
	return func(from, to reflect.Value) (any, error) {
		if to.Type() != reflect.TypeOf(zeroOuterConfiguration) {
			return from.Interface(), nil
		}
		from = ElemOrIdentity(from)
		if from.Kind() != reflect.Map {
			return nil, errors.New("configuration should be a map")
		}
		configField := to.FieldByName("Config")
		innerConfig := map[string]any{}
		outerConfig := map[string]any{}

		var innerType string
	keys:
		for _, key := range from.MapKeys() {
			k := ElemOrIdentity(key)
			if k.Kind() != reflect.String {
				continue
			}
			keyStr := k.String()
			value := from.MapIndex(key).Interface()
			switch strings.ToLower(keyStr) {
			case "type":
				s, ok := value.(string)
				if !ok {
					return nil, fmt.Errorf("type should be a string, not %T", value)
				}
				innerType = strings.ToLower(s)
				continue
			case "config":
				return nil, errors.New("configuration should not have a `config' key")
			}
			for i := 0; i < to.Type().NumField(); i++ {
				if MapStructureMatchName(keyStr, to.Type().Field(i).Name) {
					outerConfig[keyStr] = value
					continue keys
				}
			}
			innerConfig[keyStr] = value
		}

		if innerType == "" && !configField.IsNil() {
			current := reflect.Indirect(configField.Elem()).Type()
			for k, v := range innerConfigurationMap {
				if reflect.Indirect(reflect.ValueOf(v())).Type() == current {
					innerType = k
					break
				}
			}
		}
		if innerType == "" {
			return nil, errors.New("configuration has no type")
		}
		newInner, ok := innerConfigurationMap[innerType]
		if !ok {
			return nil, fmt.Errorf("%q is not a known type", innerType)
		}

		// Start from the existing inner configuration when the type
		// does not change, otherwise from the default one.
		defaultV := newInner()
		original := reflect.Indirect(reflect.ValueOf(defaultV))
		if !configField.IsNil() && configField.Elem().Type() == reflect.TypeOf(defaultV) {
			original = reflect.Indirect(configField.Elem())
		}
		copied := reflect.New(original.Type())
		copied.Elem().Set(original)
		configField.Set(copied)

		outerConfig["config"] = innerConfig
		return outerConfig, nil
	}
}

// ParametrizedConfigurationMarshalYAML undoes ParametrizedConfigurationUnmarshallerHook().
func ParametrizedConfigurationMarshalYAML[OuterConfiguration any, InnerConfiguration any](oc OuterConfiguration, innerConfigurationMap map[string](func() InnerConfiguration)) (any, error) {
	outer := reflect.Indirect(reflect.ValueOf(oc))
	result := map[string]any{}
	var inner reflect.Value
	for i, field := range reflect.VisibleFields(outer.Type()) {
		if field.Name == "Config" {
			inner = reflect.Indirect(ElemOrIdentity(outer.Field(i)))
			continue
		}
		result[strings.ToLower(field.Name)] = outer.Field(i).Interface()
	}
	if !inner.IsValid() {
		return nil, errors.New("configuration has no inner configuration")
	}
	for k, v := range innerConfigurationMap {
		if reflect.Indirect(reflect.ValueOf(v())).Type() == inner.Type() {
			result["type"] = k
			break
		}
	}
	if result["type"] == nil {
		return nil, errors.New("unable to guess configuration type")
	}
	for i, field := range reflect.VisibleFields(inner.Type()) {
		result[strings.ToLower(field.Name)] = inner.Field(i).Interface()
	}
	return result, nil
}
