package helper

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ValidateStructIsPopulated will check if any mandatory fields in cfg are missing.
// It uses struct tags to determine which fields are mandatory and the error text to fetch.
// The error text returned is just a list of the struct tags with key "errorTxt".
func ValidateStructIsPopulated(cfg interface{}) (err error) {
	errs := make([]string, 0)
	GetStructErrorTxt4UnsetFields(cfg, &errs)
	if len(errs) > 0 {
		err = fmt.Errorf("please supply values for %v", strings.Join(errs, ", "))
	}
	return
}

// GetStructErrorTxt4UnsetFields will reflect over interface i and build a slice containing error text strings for any
// struct fields that are unset i.e. are the zero value for the given field type.
// The error text strings are fetched from the errorTxt tags values found in the supplied interface (struct)
// where tag mandatory:"yes" is set.
// Nested structs, pointers to structs and map values that are structs are checked too.
func GetStructErrorTxt4UnsetFields(i interface{}, errTags *[]string) {
	val := reflect.ValueOf(i)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return
	}
	typ := val.Type()
	for idx := 0; idx < val.NumField(); idx++ { // for each field in the value/struct...
		f := val.Field(idx)
		sf := typ.Field(idx)
		if sf.PkgPath != "" { // if the field is unexported...
			continue
		}
		switch f.Kind() {
		case reflect.Struct: // descend into nested structs.
			GetStructErrorTxt4UnsetFields(f.Interface(), errTags)
		case reflect.Ptr:
			if !f.IsNil() && f.Elem().Kind() == reflect.Struct {
				GetStructErrorTxt4UnsetFields(f.Interface(), errTags)
			} else if f.IsNil() && sf.Tag.Get("mandatory") == "yes" {
				*errTags = append(*errTags, sf.Tag.Get("errorTxt"))
			}
		case reflect.Map:
			keys := f.MapKeys()
			// Sort keys so the error text is stable.
			strKeys := make([]string, 0, len(keys))
			byName := make(map[string]reflect.Value, len(keys))
			for _, k := range keys {
				s := fmt.Sprint(k.Interface())
				strKeys = append(strKeys, s)
				byName[s] = k
			}
			sort.Strings(strKeys)
			for _, s := range strKeys {
				mapVal := f.MapIndex(byName[s])
				if mapVal.Kind() == reflect.Struct {
					GetStructErrorTxt4UnsetFields(mapVal.Interface(), errTags)
				}
			}
		case reflect.Slice:
			if f.Len() == 0 && sf.Tag.Get("mandatory") == "yes" {
				*errTags = append(*errTags, sf.Tag.Get("errorTxt"))
			}
		default: // check this struct field...
			if f.IsZero() && sf.Tag.Get("mandatory") == "yes" { // if the field is its zero value and it is mandatory...
				*errTags = append(*errTags, sf.Tag.Get("errorTxt"))
			}
		}
	}
}
