package pagereader

import (
	"fmt"
	"slices"

	sq "github.com/Masterminds/squirrel"
)

// SelectQueryProvider renders page queries of the form
//
//	SELECT <columns> FROM <from> WHERE (<where>) [AND <tuple predicate>] ORDER BY <sort keys> LIMIT <page size>
//
// The where clause uses "?" placeholders for filter parameters, in the order of
// their sorted parameter names. FROM may be a table or a parenthesized
// sub-select with an alias.
type SelectQueryProvider struct {
	columns     []string
	from        string
	where       string
	sortKeys    SortKeys
	placeholder sq.PlaceholderFormat
}

func NewSelectQueryProvider(sortKeys ...SortKey) *SelectQueryProvider {
	return (&SelectQueryProvider{}).WithSortKeys(sortKeys...)
}

// WithSelect sets the result columns. "*" is used when none are set.
func (p *SelectQueryProvider) WithSelect(columns ...string) *SelectQueryProvider {
	if p == nil {
		p = new(SelectQueryProvider)
	}

	p.columns = slices.Clone(columns)

	return p
}

// WithFrom sets the FROM clause.
func (p *SelectQueryProvider) WithFrom(from string) *SelectQueryProvider {
	if p == nil {
		p = new(SelectQueryProvider)
	}

	p.from = from

	return p
}

// WithWhere sets the filter clause.
func (p *SelectQueryProvider) WithWhere(where string) *SelectQueryProvider {
	if p == nil {
		p = new(SelectQueryProvider)
	}

	p.where = where

	return p
}

// WithSortKeys replaces the sort keys.
func (p *SelectQueryProvider) WithSortKeys(sortKeys ...SortKey) *SelectQueryProvider {
	if p == nil {
		p = new(SelectQueryProvider)
	}

	p.sortKeys = slices.Clone(sortKeys)

	return p
}

// WithPlaceholderFormat sets the placeholder style, e.g. sq.Dollar for drivers
// that do not rebind "?". Executors that rebind (GormExecutor) need the default.
func (p *SelectQueryProvider) WithPlaceholderFormat(format sq.PlaceholderFormat) *SelectQueryProvider {
	if p == nil {
		p = new(SelectQueryProvider)
	}

	p.placeholder = format

	return p
}

// SortKeys - implements QueryProvider.
func (p *SelectQueryProvider) SortKeys() SortKeys {
	if p == nil {
		return nil
	}

	return slices.Clone(p.sortKeys)
}

// FirstPageQuery - implements QueryProvider.
func (p *SelectQueryProvider) FirstPageQuery(pageSize int) (string, error) {
	builder, err := p.builder(pageSize)
	if err != nil {
		return "", fmt.Errorf("cannot render first page query: %w", err)
	}

	return p.render(builder)
}

// RemainingPagesQuery - implements QueryProvider.
func (p *SelectQueryProvider) RemainingPagesQuery(pageSize int) (string, error) {
	builder, err := p.builder(pageSize)
	if err != nil {
		return "", fmt.Errorf("cannot render remaining pages query: %w", err)
	}

	predicate, _ := toDNF(p.sortKeys, nil).toSQLClause()

	return p.render(builder.Where(predicate))
}

func (p *SelectQueryProvider) builder(pageSize int) (sq.SelectBuilder, error) {
	if p == nil {
		return sq.SelectBuilder{}, fmt.Errorf("query provider is nil")
	}

	if pageSize <= 0 {
		return sq.SelectBuilder{}, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	if p.from == "" {
		return sq.SelectBuilder{}, fmt.Errorf("empty from clause")
	}

	if err := p.sortKeys.validate(); err != nil {
		return sq.SelectBuilder{}, err
	}

	columns := p.columns
	if len(columns) == 0 {
		columns = []string{"*"}
	}

	builder := sq.Select(columns...).From(p.from)
	if p.where != "" {
		builder = builder.Where(fmt.Sprintf("(%s)", p.where))
	}

	return builder.OrderBy(p.sortKeys.ToSQLSlice()...).Limit(uint64(pageSize)), nil
}

func (p *SelectQueryProvider) render(builder sq.SelectBuilder) (string, error) {
	if p.placeholder != nil {
		builder = builder.PlaceholderFormat(p.placeholder)
	}

	query, _, err := builder.ToSql()
	if err != nil {
		return "", fmt.Errorf("cannot render query: %w", err)
	}

	return query, nil
}

var _ QueryProvider = (*SelectQueryProvider)(nil)
