package tui

import (
	"fmt"
	"reflect"
	"strings"
)

// renderFields walks data's exported fields with reflection (the same
// technique the render package uses for table output) and produces one
// "Label: value" line per field, recursing one level into embedded
// structs and nested slices so a payload like StringDetail's Traces
// renders as an indented list instead of "[N items]".
func renderFields(data any) string {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return fmt.Sprintf("%v\n", data)
	}

	var b strings.Builder
	walkStruct(&b, v, "")
	return b.String()
}

func walkStruct(b *strings.Builder, v reflect.Value, indent string) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		if field.Anonymous && fv.Kind() == reflect.Struct {
			walkStruct(b, fv, indent)
			continue
		}
		label := fieldName(field)
		switch fv.Kind() {
		case reflect.Slice, reflect.Array:
			b.WriteString(indent + fieldLine(label, fmt.Sprintf("%d item(s)", fv.Len())))
			for j := 0; j < fv.Len(); j++ {
				elem := fv.Index(j)
				if elem.Kind() == reflect.Struct {
					b.WriteString(indent + "  - \n")
					walkStruct(b, elem, indent+"    ")
				} else if elem.Kind() == reflect.Slice {
					parts := make([]string, elem.Len())
					for k := 0; k < elem.Len(); k++ {
						parts[k] = fmt.Sprintf("%v", elem.Index(k).Interface())
					}
					b.WriteString(indent + "  - " + strings.Join(parts, ", ") + "\n")
				} else {
					b.WriteString(indent + fmt.Sprintf("  - %v\n", elem.Interface()))
				}
			}
		case reflect.Struct:
			b.WriteString(indent + TitleStyle.Render(label))
			b.WriteString("\n")
			walkStruct(b, fv, indent+"  ")
		default:
			b.WriteString(indent + fieldLine(label, fmt.Sprintf("%v", fv.Interface())))
		}
	}
}

func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		name := strings.Split(tag, ",")[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}
