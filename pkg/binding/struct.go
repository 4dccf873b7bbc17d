package binding

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/goliatone/go-formkit/pkg/forms"
	"github.com/goliatone/go-formkit/pkg/validators"
)

// Struct tags read by FromStruct.
const (
	TagForm     = "form"
	TagGroup    = "group"
	TagValidate = "validate"
	TagAsync    = "async"
	TagUpdateOn = "updateOn"
)

// ErrNotStruct is returned when FromStruct or Bind receive something other
// than a struct (or a pointer to one for Bind).
var ErrNotStruct = errors.New("binding: expected a struct")

// FromStruct derives a definition from the exported fields of v, a struct
// or pointer to struct. The current field values become the defaults.
//
//	type User struct {
//		Nickname string `form:"nickname" validate:"required;minlength:2" async:"unique" updateOn:"blur"`
//		City     string `group:"address" validate:"required"`
//	}
//
// The group tag places a flat field into a named group. Further ";"
// segments of the group tag are directives for that group. Nested struct
// fields become groups and their validate tag applies to the group.
func FromStruct(v any) (Definition, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Definition{}, ErrNotStruct
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Definition{}, fmt.Errorf("%w, got %s", ErrNotStruct, rv.Kind())
	}
	def := Definition{Name: rv.Type().Name()}
	groups := make(map[string]int)
	if err := collectStruct(&def, groups, rv, ""); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func collectStruct(def *Definition, groups map[string]int, rv reflect.Value, prefix string) error {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, skip := fieldName(sf)
		if skip {
			continue
		}
		validate, err := ParseDirectives(sf.Tag.Get(TagValidate))
		if err != nil {
			return fmt.Errorf("binding: %s.%s: %w", rt.Name(), sf.Name, err)
		}

		base := prefix
		if tag, ok := sf.Tag.Lookup(TagGroup); ok {
			groupName, groupRules, _ := strings.Cut(tag, ";")
			base = joinPath(prefix, strings.TrimSpace(groupName))
			refs, err := ParseDirectives(groupRules)
			if err != nil {
				return fmt.Errorf("binding: %s.%s group: %w", rt.Name(), sf.Name, err)
			}
			addGroupRules(def, groups, base, refs, "")
		}
		path := joinPath(base, name)

		fv := rv.Field(i)
		if isNested(fv) {
			addGroupRules(def, groups, path, validate, sf.Tag.Get(TagUpdateOn))
			if err := collectStruct(def, groups, fv, path); err != nil {
				return err
			}
			continue
		}

		async, err := ParseDirectives(sf.Tag.Get(TagAsync))
		if err != nil {
			return fmt.Errorf("binding: %s.%s async: %w", rt.Name(), sf.Name, err)
		}
		def.Fields = append(def.Fields, FieldDef{
			Path:       path,
			Default:    fv.Interface(),
			Validators: validate,
			Async:      async,
			UpdateOn:   sf.Tag.Get(TagUpdateOn),
		})
	}
	return nil
}

func addGroupRules(def *Definition, groups map[string]int, path string, refs []DirectiveRef, updateOn string) {
	idx, ok := groups[path]
	if !ok {
		if len(refs) == 0 && updateOn == "" {
			return
		}
		def.Groups = append(def.Groups, GroupDef{Path: path})
		idx = len(def.Groups) - 1
		groups[path] = idx
	}
	def.Groups[idx].Validators = append(def.Groups[idx].Validators, refs...)
	if updateOn != "" {
		def.Groups[idx].UpdateOn = updateOn
	}
}

func fieldName(sf reflect.StructField) (string, bool) {
	tag := strings.TrimSpace(sf.Tag.Get(TagForm))
	if tag == "-" {
		return "", true
	}
	if tag != "" {
		return tag, false
	}
	return lowerFirst(sf.Name), false
}

func lowerFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func isNested(fv reflect.Value) bool {
	return fv.Kind() == reflect.Struct && fv.Type().PkgPath() != "time"
}

func joinPath(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + "." + name
	}
}

// Binder keeps a struct and a control tree in sync. Control value changes
// are written into the struct as they happen; Load pushes the struct into
// the controls. A Binder shares the owner goroutine of its tree.
type Binder struct {
	target reflect.Value
	group  *forms.Group
	fields map[string][]int
	unsubs []func()
	errs   []error
}

// Bind links ptr, a pointer to the struct the definition was read from, to
// group. Only paths present in both are linked.
func Bind(ptr any, group *forms.Group) (*Binder, error) {
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w pointer", ErrNotStruct)
	}
	if group == nil {
		return nil, errors.New("binding: nil group")
	}
	b := &Binder{target: rv.Elem(), group: group, fields: make(map[string][]int)}
	indexStruct(b.fields, rv.Elem().Type(), "", nil)

	for path, index := range b.fields {
		ctrl := group.Get(path)
		if ctrl == nil {
			delete(b.fields, path)
			continue
		}
		path, index := path, index
		b.unsubs = append(b.unsubs, ctrl.OnValueChange(func(value any) {
			if err := assign(b.target.FieldByIndex(index), value); err != nil {
				b.errs = append(b.errs, fmt.Errorf("binding: write %s: %w", path, err))
			}
		}))
	}
	return b, nil
}

func indexStruct(out map[string][]int, rt reflect.Type, prefix string, parent []int) {
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, skip := fieldName(sf)
		if skip {
			continue
		}
		base := prefix
		if tag, ok := sf.Tag.Lookup(TagGroup); ok {
			groupName, _, _ := strings.Cut(tag, ";")
			base = joinPath(prefix, strings.TrimSpace(groupName))
		}
		index := append(append([]int(nil), parent...), i)
		path := joinPath(base, name)
		if sf.Type.Kind() == reflect.Struct && sf.Type.PkgPath() != "time" {
			indexStruct(out, sf.Type, path, index)
			continue
		}
		out[path] = index
	}
}

// Load copies the struct values into the linked controls.
func (b *Binder) Load(opts ...forms.UpdateOption) error {
	values := make(map[string]any, len(b.fields))
	for path, index := range b.fields {
		values[path] = b.target.FieldByIndex(index).Interface()
	}
	return b.group.PatchPaths(values, opts...)
}

// Paths lists the linked control paths.
func (b *Binder) Paths() []string {
	paths := make([]string, 0, len(b.fields))
	for path := range b.fields {
		paths = append(paths, path)
	}
	return paths
}

// Err returns the conversion failures seen while writing into the struct.
func (b *Binder) Err() error {
	return errors.Join(b.errs...)
}

// Unbind stops writing control changes into the struct.
func (b *Binder) Unbind() {
	for _, fn := range b.unsubs {
		fn()
	}
	b.unsubs = nil
}

// assign converts value to the kind of dst. Empty input zeroes dst.
func assign(dst reflect.Value, value any) error {
	if validators.IsEmpty(value) {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(value)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(validators.Text(value))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := integral(value)
		if err != nil {
			return err
		}
		if dst.OverflowInt(int64(n)) {
			return fmt.Errorf("%v overflows %s", value, dst.Type())
		}
		dst.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := integral(value)
		if err != nil {
			return err
		}
		if n < 0 || dst.OverflowUint(uint64(n)) {
			return fmt.Errorf("%v overflows %s", value, dst.Type())
		}
		dst.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		n, ok := validators.Number(value)
		if !ok {
			return fmt.Errorf("%v is not a number", value)
		}
		dst.SetFloat(n)
	case reflect.Bool:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%v is not a bool", value)
		}
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		dst.SetBool(parsed)
	default:
		if !src.Type().ConvertibleTo(dst.Type()) {
			return fmt.Errorf("cannot store %T in %s", value, dst.Type())
		}
		dst.Set(src.Convert(dst.Type()))
	}
	return nil
}

func integral(value any) (float64, error) {
	n, ok := validators.Number(value)
	if !ok {
		return 0, fmt.Errorf("%v is not a number", value)
	}
	if n != math.Trunc(n) {
		return 0, fmt.Errorf("%v is not an integer", value)
	}
	return n, nil
}
