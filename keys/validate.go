package keys

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"unicode/utf8"
)

var (
	errInvalidUTF8 = errors.New("string is not valid UTF-8")
	errByteSlice   = errors.New("[]byte segments are not supported")
)

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// validateSegment rejects values encoding/json would encode lossily:
// invalid UTF-8 is replaced with U+FFFD and []byte becomes base64, either
// of which lets two different keys share a canonical form.
func validateSegment(seg any) error {
	return validate(reflect.ValueOf(seg), make(map[visit]struct{}))
}

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

func validate(v reflect.Value, seen map[visit]struct{}) error {
	if !v.IsValid() {
		return nil
	}
	t := v.Type()
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return nil
	}

	switch v.Kind() {
	case reflect.String:
		if !utf8.ValidString(v.String()) {
			return fmt.Errorf("%w: %q", errInvalidUTF8, v.String())
		}
	case reflect.Interface:
		return validate(v.Elem(), seen)
	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		// Cycles are left for encoding/json to report.
		k := visit{ptr: v.Pointer(), typ: t}
		if _, ok := seen[k]; ok {
			return nil
		}
		seen[k] = struct{}{}
		defer delete(seen, k)
		return validate(v.Elem(), seen)
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return errByteSlice
		}
		if v.IsNil() {
			return nil
		}
		k := visit{ptr: v.Pointer(), typ: t, len: v.Len()}
		if _, ok := seen[k]; ok {
			return nil
		}
		seen[k] = struct{}{}
		defer delete(seen, k)
		return validateElems(v, seen)
	case reflect.Array:
		return validateElems(v, seen)
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		k := visit{ptr: v.Pointer(), typ: t}
		if _, ok := seen[k]; ok {
			return nil
		}
		seen[k] = struct{}{}
		defer delete(seen, k)
		it := v.MapRange()
		for it.Next() {
			if err := validate(it.Key(), seen); err != nil {
				return err
			}
			if err := validate(it.Value(), seen); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := validate(v.Field(i), seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateElems(v reflect.Value, seen map[visit]struct{}) error {
	for i := 0; i < v.Len(); i++ {
		if err := validate(v.Index(i), seen); err != nil {
			return err
		}
	}
	return nil
}
