// Package querybuilder assembles the small set of SQL shapes the local
// store needs, with ? placeholders for the sqlite driver.
package querybuilder

import (
	"fmt"
	"strings"
)

type Condition interface {
	appendSQL(buf *strings.Builder, args *[]any)
}

type eqCondition struct {
	column string
	value  any
}

func Eq(column string, value any) Condition {
	return eqCondition{column: column, value: value}
}

func (c eqCondition) appendSQL(buf *strings.Builder, args *[]any) {
	buf.WriteString(c.column)
	buf.WriteString(" = ?")
	*args = append(*args, c.value)
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	orderBy []string
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *SelectBuilder) OrderBy(columns ...string) *SelectBuilder {
	b.orderBy = append(b.orderBy, columns...)
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("select requires a table")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("select requires columns")
	}

	var buf strings.Builder
	var args []any
	buf.WriteString("SELECT ")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(" FROM ")
	buf.WriteString(b.table)
	appendWhere(&buf, &args, b.where)
	if len(b.orderBy) > 0 {
		buf.WriteString(" ORDER BY ")
		buf.WriteString(strings.Join(b.orderBy, ", "))
	}
	return buf.String(), args, nil
}

type UpsertBuilder struct {
	table   string
	columns []string
	values  []any
}

// Upsert builds an INSERT OR REPLACE, the sqlite idiom for the local
// store's put-by-key writes.
func Upsert(table string) *UpsertBuilder {
	return &UpsertBuilder{table: table}
}

func (b *UpsertBuilder) Set(column string, value any) *UpsertBuilder {
	b.columns = append(b.columns, column)
	b.values = append(b.values, value)
	return b
}

func (b *UpsertBuilder) ToSQL() (string, []any, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("upsert requires a table")
	}
	if len(b.columns) == 0 {
		return "", nil, fmt.Errorf("upsert requires at least one column")
	}

	var buf strings.Builder
	buf.WriteString("INSERT OR REPLACE INTO ")
	buf.WriteString(b.table)
	buf.WriteString(" (")
	buf.WriteString(strings.Join(b.columns, ", "))
	buf.WriteString(") VALUES (")
	buf.WriteString(strings.TrimSuffix(strings.Repeat("?, ", len(b.columns)), ", "))
	buf.WriteString(")")
	return buf.String(), b.values, nil
}

type DeleteBuilder struct {
	table string
	where []Condition
}

func Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conditions ...Condition) *DeleteBuilder {
	b.where = append(b.where, conditions...)
	return b
}

func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if b.table == "" {
		return "", nil, fmt.Errorf("delete requires a table")
	}

	var buf strings.Builder
	var args []any
	buf.WriteString("DELETE FROM ")
	buf.WriteString(b.table)
	appendWhere(&buf, &args, b.where)
	return buf.String(), args, nil
}

func appendWhere(buf *strings.Builder, args *[]any, conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	buf.WriteString(" WHERE ")
	for i, cond := range conditions {
		if i > 0 {
			buf.WriteString(" AND ")
		}
		cond.appendSQL(buf, args)
	}
}
