package rtcontainer

import (
	"reflect"

	"purple_go/pkg/rtvalue"
)

// ptrOf returns a stable identity value for any Heaper implementation,
// all of which are pointer types in this runtime.
func ptrOf(obj rtvalue.Heaper) uintptr {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr {
		return 0
	}
	return v.Pointer()
}
