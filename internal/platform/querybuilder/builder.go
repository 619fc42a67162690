// Package querybuilder renders the small subset of postgres SQL the
// repositories need, numbering bind parameters as $1..$n.
package querybuilder

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrNoTable   = errors.New("querybuilder: table is required")
	ErrNoColumns = errors.New("querybuilder: columns are required")
	ErrNoValues  = errors.New("querybuilder: values are required")
)

// binds collects bound values in placeholder order.
type binds struct {
	values []any
}

func (b *binds) bind(value any) string {
	b.values = append(b.values, value)
	return "$" + strconv.Itoa(len(b.values))
}

// expand replaces each '?' in expr with a placeholder for the matching value.
// Markers beyond len(values) are kept literally.
func (b *binds) expand(expr string, values []any) string {
	if len(values) == 0 {
		return expr
	}
	var out strings.Builder
	out.Grow(len(expr) + 2*len(values))
	next := 0
	for _, r := range expr {
		if r == '?' && next < len(values) {
			out.WriteString(b.bind(values[next]))
			next++
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// Condition is one term of a WHERE or HAVING clause. Terms are ANDed.
type Condition interface {
	render(b *binds) string
}

type comparison struct {
	column string
	op     string
	value  any
}

func (c comparison) render(b *binds) string {
	return c.column + " " + c.op + " " + b.bind(c.value)
}

func Eq(column string, value any) Condition  { return comparison{column, "=", value} }
func Lt(column string, value any) Condition  { return comparison{column, "<", value} }
func Gt(column string, value any) Condition  { return comparison{column, ">", value} }
func Gte(column string, value any) Condition { return comparison{column, ">=", value} }

type rawExpr struct {
	sql    string
	values []any
}

func (e rawExpr) render(b *binds) string {
	return b.expand(e.sql, e.values)
}

// Expr is a literal SQL fragment whose '?' markers bind values in order.
func Expr(sql string, values ...any) Condition {
	return rawExpr{sql: sql, values: values}
}

func renderConditions(keyword string, conditions []Condition, b *binds) string {
	if len(conditions) == 0 {
		return ""
	}
	parts := make([]string, len(conditions))
	for i, c := range conditions {
		parts[i] = c.render(b)
	}
	return " " + keyword + " " + strings.Join(parts, " AND ")
}

type SelectBuilder struct {
	columns []string
	table   string
	where   []Condition
	groupBy []string
	having  []Condition
	orderBy []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: columns}
}

func (s *SelectBuilder) From(table string) *SelectBuilder {
	s.table = table
	return s
}

func (s *SelectBuilder) Where(conditions ...Condition) *SelectBuilder {
	s.where = append(s.where, conditions...)
	return s
}

func (s *SelectBuilder) GroupBy(columns ...string) *SelectBuilder {
	s.groupBy = append(s.groupBy, columns...)
	return s
}

func (s *SelectBuilder) Having(conditions ...Condition) *SelectBuilder {
	s.having = append(s.having, conditions...)
	return s
}

func (s *SelectBuilder) OrderBy(terms ...string) *SelectBuilder {
	s.orderBy = append(s.orderBy, terms...)
	return s
}

func (s *SelectBuilder) Limit(limit int) *SelectBuilder {
	s.limit = limit
	return s
}

func (s *SelectBuilder) ToSQL() (string, []any, error) {
	if len(s.columns) == 0 {
		return "", nil, ErrNoColumns
	}
	if strings.TrimSpace(s.table) == "" {
		return "", nil, ErrNoTable
	}

	var b binds
	sql := "SELECT " + strings.Join(s.columns, ", ") + " FROM " + s.table
	sql += renderConditions("WHERE", s.where, &b)
	if len(s.groupBy) > 0 {
		sql += " GROUP BY " + strings.Join(s.groupBy, ", ")
	}
	sql += renderConditions("HAVING", s.having, &b)
	if len(s.orderBy) > 0 {
		sql += " ORDER BY " + strings.Join(s.orderBy, ", ")
	}
	if s.limit > 0 {
		sql += " LIMIT " + strconv.Itoa(s.limit)
	}
	return sql, b.values, nil
}

type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (i *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	i.columns = columns
	return i
}

// Values appends one row. Call it repeatedly for multi-row inserts.
func (i *InsertBuilder) Values(values ...any) *InsertBuilder {
	i.rows = append(i.rows, values)
	return i
}

// Suffix appends trailing SQL such as ON CONFLICT or RETURNING verbatim.
func (i *InsertBuilder) Suffix(sql string) *InsertBuilder {
	i.suffix = strings.TrimSpace(sql)
	return i
}

func (i *InsertBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(i.table) == "" {
		return "", nil, ErrNoTable
	}
	if len(i.columns) == 0 {
		return "", nil, ErrNoColumns
	}
	if len(i.rows) == 0 {
		return "", nil, ErrNoValues
	}

	var b binds
	tuples := make([]string, len(i.rows))
	for n, row := range i.rows {
		if len(row) != len(i.columns) {
			return "", nil, errors.New("querybuilder: row " + strconv.Itoa(n) + " has " +
				strconv.Itoa(len(row)) + " values for " + strconv.Itoa(len(i.columns)) + " columns")
		}
		placeholders := make([]string, len(row))
		for c, value := range row {
			placeholders[c] = b.bind(value)
		}
		tuples[n] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	sql := "INSERT INTO " + i.table + " (" + strings.Join(i.columns, ", ") + ") VALUES " + strings.Join(tuples, ", ")
	if i.suffix != "" {
		sql += " " + i.suffix
	}
	return sql, b.values, nil
}

type assignment struct {
	column string
	expr   Condition
}

type UpdateBuilder struct {
	table string
	sets  []assignment
	where []Condition
}

func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

func (u *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, expr: Expr("?", value)})
	return u
}

// SetExpr assigns a SQL expression, e.g. SetExpr("updated_at", "NOW()").
func (u *UpdateBuilder) SetExpr(column, sql string, values ...any) *UpdateBuilder {
	u.sets = append(u.sets, assignment{column: column, expr: Expr(sql, values...)})
	return u
}

func (u *UpdateBuilder) Where(conditions ...Condition) *UpdateBuilder {
	u.where = append(u.where, conditions...)
	return u
}

func (u *UpdateBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(u.table) == "" {
		return "", nil, ErrNoTable
	}
	if len(u.sets) == 0 {
		return "", nil, ErrNoColumns
	}

	var b binds
	sets := make([]string, len(u.sets))
	for n, set := range u.sets {
		sets[n] = set.column + " = " + set.expr.render(&b)
	}
	sql := "UPDATE " + u.table + " SET " + strings.Join(sets, ", ")
	sql += renderConditions("WHERE", u.where, &b)
	return sql, b.values, nil
}
