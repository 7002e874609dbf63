package pagereader

// QueryProvider renders the dialect specific text of the two page queries.
//
// FirstPageQuery selects at most pageSize rows ordered by SortKeys, with only
// the filter placeholders. RemainingPagesQuery adds the tuple predicate after
// the filter placeholders; its placeholders must follow BuildParameters order,
// key by key as returned by SortKeys. The reader never parses either text.
type QueryProvider interface {
	SortKeys() SortKeys
	FirstPageQuery(pageSize int) (string, error)
	RemainingPagesQuery(pageSize int) (string, error)
}
