package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/celements/wikibridge/reference"
	"github.com/celements/wikibridge/types"
)

// ErrInvalidDocument is wrapped by every validation failure.
var ErrInvalidDocument = errors.New("invalid document")

// maxObjectsPerDocument bounds the objects of one document by the object
// count field of the id layout.
const maxObjectsPerDocument = 4095

// Validate checks a document before it is saved
func Validate(doc *types.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	if !reference.IsAbsoluteRef(doc.Reference) {
		return fmt.Errorf("%w: reference %v is not absolute", ErrInvalidDocument, doc.Reference)
	}
	if err := ValidateLanguage(doc.Language); err != nil {
		return err
	}
	if n := len(doc.Objects) + len(doc.RemovedObjects); n > maxObjectsPerDocument {
		return fmt.Errorf("%w: %s: too many objects: %d (maximum %d)", ErrInvalidDocument, doc.Reference, n, maxObjectsPerDocument)
	}

	seen := make(map[string]bool)
	for _, obj := range doc.Objects {
		if obj == nil || obj.Reference.Entity() == nil {
			return fmt.Errorf("%w: %s: object without reference", ErrInvalidDocument, doc.Reference)
		}
		if !obj.Reference.DocumentReference().Equal(doc.Reference) {
			return fmt.Errorf("%w: object %s does not belong to %s", ErrInvalidDocument, obj.Reference, doc.Reference)
		}
		name := obj.Reference.Name()
		if seen[name] {
			return fmt.Errorf("%w: %s: duplicate object %s", ErrInvalidDocument, doc.Reference, name)
		}
		seen[name] = true

		for prop, value := range obj.Properties {
			if err := ValidatePropertyName(prop); err != nil {
				return fmt.Errorf("%w: object %s: %v", ErrInvalidDocument, name, err)
			}
			if err := ValidatePropertyValue(value, prop); err != nil {
				return fmt.Errorf("%w: object %s: %v", ErrInvalidDocument, name, err)
			}
		}
	}
	return nil
}

// ValidateLanguage accepts the empty default language and BCP 47 tags.
func ValidateLanguage(lang string) error {
	if lang == "" {
		return nil
	}
	if _, err := language.Parse(lang); err != nil {
		return fmt.Errorf("%w: language %q: %v", ErrInvalidDocument, lang, err)
	}
	return nil
}

// ValidatePropertyName rejects empty and reserved property names.
func ValidatePropertyName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("property name cannot be empty")
	}
	if IsReservedPropertyName(name) {
		return fmt.Errorf("'%s' is a reserved property name", name)
	}
	return nil
}

// IsReservedPropertyName checks if a property name is used by the object
// storage itself
func IsReservedPropertyName(name string) bool {
	reserved := []string{
		"id", "number", "classname", "name", "language",
		// SQL keywords that could cause issues
		"select", "from", "where", "order", "by", "group", "having",
		"insert", "update", "delete", "create", "drop", "alter",
	}

	name = strings.ToLower(name)
	for _, reservedName := range reserved {
		if name == reservedName {
			return true
		}
	}

	return false
}

// ValidatePropertyValue ensures a property value is storable: a simple type
// (string, number, bool, time), or a list of simple types.
func ValidatePropertyValue(value any, property string) error {
	return validateValue(value, property, true)
}

func validateValue(value any, property string, allowList bool) error {
	if value == nil {
		return nil
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Slice, reflect.Array:
		if !allowList {
			return fmt.Errorf("property '%s' cannot nest lists, got %T", property, value)
		}
		for i := 0; i < v.Len(); i++ {
			if err := validateValue(v.Index(i).Interface(), property, false); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		return fmt.Errorf("property '%s' cannot be a map type, got %T", property, value)
	case reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		return validateValue(v.Elem().Interface(), property, allowList)
	case reflect.Struct:
		if _, ok := value.(time.Time); ok {
			return nil
		}
		return fmt.Errorf("property '%s' cannot be a struct type, got %T", property, value)
	default:
		return fmt.Errorf("property '%s' must be a simple type or a list of them, got %T", property, value)
	}
}
