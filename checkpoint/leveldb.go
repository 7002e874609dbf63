package checkpoint

import (
	"context"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/Alp4ka/pagereader"
)

var _ Store = (*LevelDB)(nil)

var (
	writeOpt = opt.WriteOptions{Sync: true}
	readOpt  = opt.ReadOptions{}
)

const jobKeyPrefix = "job/"

// LevelDB stores execution contexts in a level db, one key per job.
type LevelDB struct {
	db *leveldb.DB
}

// OpenLevelDB opens a persistent level db at path, creating it if needed.
func OpenLevelDB(path string) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open checkpoint level db")
	}

	return openLevelDB(stg)
}

// NewMemLevelDB creates a level db in memory.
func NewMemLevelDB() (*LevelDB, error) {
	return openLevelDB(storage.NewMemStorage())
}

func openLevelDB(stg storage.Storage) (*LevelDB, error) {
	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: 16,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}

	return &LevelDB{db: db}, nil
}

// Load - implements Store.
func (l *LevelDB) Load(_ context.Context, job string) (pagereader.ExecutionContext, error) {
	data, err := l.db.Get([]byte(jobKeyPrefix+job), &readOpt)
	if err == leveldb.ErrNotFound {
		return pagereader.ExecutionContext{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load checkpoint of job '%s'", job)
	}

	return decode(data)
}

// Save - implements Store.
func (l *LevelDB) Save(_ context.Context, job string, ec pagereader.ExecutionContext) error {
	data, err := encode(ec)
	if err != nil {
		return err
	}

	return errors.Wrapf(l.db.Put([]byte(jobKeyPrefix+job), data, &writeOpt), "save checkpoint of job '%s'", job)
}

// Close - implements Store. Later operations all fail.
func (l *LevelDB) Close() error {
	return l.db.Close()
}
