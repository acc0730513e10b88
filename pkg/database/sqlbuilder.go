package database

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"
)

// Flavor is the SQL dialect every repository builds against.
var Flavor = sqlbuilder.PostgreSQL

func NewSelectBuilder() *sqlbuilder.SelectBuilder {
	return Flavor.NewSelectBuilder()
}

func NewInsertBuilder() *sqlbuilder.InsertBuilder {
	return Flavor.NewInsertBuilder()
}

func NewUpdateBuilder() *sqlbuilder.UpdateBuilder {
	return Flavor.NewUpdateBuilder()
}

// WhereActive restricts a select to live rows: not soft-deleted and not deactivated.
func WhereActive(sb *sqlbuilder.SelectBuilder) *sqlbuilder.SelectBuilder {
	sb.Where(
		sb.Equal("is_active", true),
		sb.IsNull("deleted_at"),
	)
	return sb
}

func Excluded(column string) any {
	return sqlbuilder.Raw(fmt.Sprintf("EXCLUDED.%s", column))
}
