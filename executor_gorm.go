package pagereader

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormExecutor runs page queries as raw SQL through gorm. Queries must use
// "?" placeholders; gorm rebinds them for the dialect of db.
//
// FetchSize is not supported by gorm and is ignored.
type GormExecutor struct {
	db *gorm.DB
}

func NewGormExecutor(db *gorm.DB) *GormExecutor {
	return &GormExecutor{db: db}
}

// Query - implements Executor.
func (e *GormExecutor) Query(ctx context.Context, q Query) ([]Row, error) {
	if e == nil || e.db == nil {
		return nil, fmt.Errorf("gorm executor has no database")
	}

	db := e.db.WithContext(ctx)

	rows, err := db.Raw(q.SQL, q.Args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("cannot query page %d: %w", q.Page, err)
	}
	defer rows.Close()

	ret := make([]Row, 0, max(q.MaxRows, 0))
	for rows.Next() {
		if q.MaxRows > 0 && len(ret) >= q.MaxRows {
			break
		}

		row := make(map[string]any)
		if err = db.ScanRows(rows, &row); err != nil {
			return nil, fmt.Errorf("cannot scan page %d row %d: %w", q.Page, len(ret), err)
		}

		ret = append(ret, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot iterate page %d: %w", q.Page, err)
	}

	return ret, nil
}

var _ Executor = (*GormExecutor)(nil)
