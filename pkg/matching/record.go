package matching

import (
	"context"

	"github.com/Ramsey-B/iris/pkg/models"
)

// Record is a catalog row the engine can score
type Record interface {
	RecordID() int64
	Category() models.Category
	Subtype() string
	Field(name string) (string, bool)
	Attributes() map[string]string
}

// MultiValueRecord is a Record with list-valued fields, such as a person's phones. The
// best score across the values is used.
type MultiValueRecord interface {
	Record
	FieldValues(name string) []string
}

// Catalog yields the active records of a category. An empty subtype means all subtypes.
// Implementations query the store on every call.
type Catalog interface {
	ActiveRecords(ctx context.Context, category models.Category, subtype string) ([]Record, error)
}

func fieldValues(r Record, field string) []string {
	if mv, ok := r.(MultiValueRecord); ok {
		return mv.FieldValues(field)
	}
	if v, ok := r.Field(field); ok {
		return []string{v}
	}
	return nil
}
