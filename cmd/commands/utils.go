package commands

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// FormatValue converts a reflect.Value to a string representation
func FormatValue(fieldValue reflect.Value) string {
	if d, ok := fieldValue.Interface().(time.Duration); ok {
		return d.String()
	}
	switch fieldValue.Kind() {
	case reflect.String:
		return fieldValue.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(fieldValue.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(fieldValue.Uint(), 10)
	case reflect.Bool:
		return strconv.FormatBool(fieldValue.Bool())
	case reflect.Ptr:
		if fieldValue.IsNil() {
			return "<nil>"
		}
		return FormatValue(fieldValue.Elem())
	default:
		return fmt.Sprintf("%v", fieldValue.Interface())
	}
}

// Tableizer prints a slice as a table on stdout, one column per exported
// struct field.
func Tableizer(data any) {
	if err := tableize(os.Stdout, data); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
}

func tableize(w io.Writer, data any) error {
	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Errorf("tableize requires a slice or array, got %s", v.Kind())
	}
	if v.Len() == 0 {
		_, err := fmt.Fprintln(w, "No data to display.")
		return err
	}

	elemType := v.Type().Elem()
	if elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}

	var fields []int
	var headers []any
	if elemType.Kind() == reflect.Struct {
		for i := 0; i < elemType.NumField(); i++ {
			if f := elemType.Field(i); f.IsExported() {
				fields = append(fields, i)
				headers = append(headers, f.Name)
			}
		}
	} else {
		name := elemType.Name()
		if name == "" {
			name = "Value"
		}
		headers = append(headers, name)
	}
	if len(headers) == 0 {
		return fmt.Errorf("tableize: %s has no exported fields", elemType)
	}

	table := tablewriter.NewWriter(w)
	table.Header(headers...)
	for i := 0; i < v.Len(); i++ {
		item := v.Index(i)
		row := make([]any, len(headers))
		if item.Kind() == reflect.Ptr {
			if item.IsNil() {
				for j := range row {
					row[j] = "<nil>"
				}
				table.Append(row...)
				continue
			}
			item = item.Elem()
		}
		if fields == nil {
			row[0] = FormatValue(item)
		} else {
			for j, idx := range fields {
				row[j] = FormatValue(item.Field(idx))
			}
		}
		if err := table.Append(row...); err != nil {
			return err
		}
	}
	return table.Render()
}
