package readmodel

import (
	"strconv"
	"strings"
)

// query composes one read model. Stages may be declared in any order but are
// always rendered as filter, join, compute, project, sort, skip, limit: the
// joined and computed row is projected inside a subselect so sorting and
// pagination only ever see the final shape.
type query struct {
	from     string
	joins    []string
	filters  []string
	computed []string
	columns  []string

	sortBy   string
	tiebreak string
	dir      Direction

	page  Page
	paged bool
	args  []any
}

func newQuery(from string) *query {
	return &query{from: from}
}

// arg registers a bind value and returns its placeholder.
func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *query) where(cond string) *query {
	q.filters = append(q.filters, cond)
	return q
}

func (q *query) join(clause string) *query {
	q.joins = append(q.joins, clause)
	return q
}

func (q *query) compute(expr, alias string) *query {
	q.computed = append(q.computed, expr+" AS "+alias)
	return q
}

func (q *query) project(columns ...string) *query {
	q.columns = append(q.columns, columns...)
	return q
}

// orderBy sorts by a projected alias. Ties are broken by tiebreak in the same
// direction so every page boundary is stable.
func (q *query) orderBy(alias, tiebreak string, dir Direction) *query {
	q.sortBy = alias
	q.tiebreak = tiebreak
	q.dir = dir
	return q
}

func (q *query) paginate(p Page) *query {
	q.page = p.normalized()
	q.paged = true
	return q
}

func (q *query) build() (string, []any) {
	var b strings.Builder
	args := append([]any{}, q.args...)
	bind := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	b.WriteString("SELECT * FROM (SELECT ")
	b.WriteString(strings.Join(append(append([]string{}, q.columns...), q.computed...), ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.from)
	for _, j := range q.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if len(q.filters) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.filters, " AND "))
	}
	b.WriteString(") rm")

	if q.sortBy != "" {
		dir := q.dir
		if dir == "" {
			dir = Descending
		}
		b.WriteString(" ORDER BY rm.")
		b.WriteString(q.sortBy)
		b.WriteString(" ")
		b.WriteString(string(dir))
		if q.tiebreak != "" && q.tiebreak != q.sortBy {
			b.WriteString(", rm.")
			b.WriteString(q.tiebreak)
			b.WriteString(" ")
			b.WriteString(string(dir))
		}
	}

	if q.paged {
		b.WriteString(" LIMIT ")
		b.WriteString(bind(q.page.Limit))
		b.WriteString(" OFFSET ")
		b.WriteString(bind(q.page.Offset()))
	}

	return b.String(), args
}

// nullable turns an empty identifier into SQL NULL so optional viewer filters
// never match instead of failing to parse.
func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
