package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Alp4ka/pagereader"
	"github.com/Alp4ka/pagereader/checkpoint"
)

const (
	driverMySQL    = "mysql"
	driverPostgres = "postgres"
	driverSQLite   = "sqlite"

	storeMemory  = "memory"
	storeLevelDB = "leveldb"
	storeRedis   = "redis"
)

func openDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case driverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case driverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case driverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver '%s'", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	return db, nil
}

func openStore(cfg CheckpointConfig) (checkpoint.Store, error) {
	switch cfg.Store {
	case storeMemory:
		return checkpoint.NewMemory(), nil
	case storeLevelDB:
		return checkpoint.OpenLevelDB(cfg.Path)
	case storeRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return checkpoint.NewRedis(client, cfg.RedisPrefix, cfg.RedisTTL), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint store '%s'", cfg.Store)
	}
}

// job dumps the rows of one query as JSON lines, checkpointing after every
// batch. Workers may hold half-read pages at a checkpoint: a restart resumes
// before the oldest of them and can write some rows twice.
type job struct {
	cfg     *Config
	db      *gorm.DB
	store   checkpoint.Store
	metrics *pagereader.Metrics
	logger  zerolog.Logger
}

func (j *job) newReader() (*pagereader.Reader[pagereader.Row], error) {
	sortKeys, err := pagereader.ParseSortKeys(j.cfg.Query.Sort, nil)
	if err != nil {
		return nil, fmt.Errorf("parse sort keys: %w", err)
	}

	provider := pagereader.NewSelectQueryProvider(sortKeys...).
		WithSelect(j.cfg.Query.Select...).
		WithFrom(j.cfg.Query.From).
		WithWhere(j.cfg.Query.Where)

	mapper := pagereader.ColumnMapper(sortKeys, func(row pagereader.Row) (pagereader.Row, error) {
		return row, nil
	})

	return pagereader.NewReader(pagereader.NewGormExecutor(j.db), provider, mapper).
		WithName(j.cfg.Reader.Name).
		WithPageSize(j.cfg.Reader.PageSize).
		WithFetchSize(j.cfg.Reader.FetchSize).
		WithQueryTimeout(j.cfg.Reader.QueryTimeout).
		WithParameters(j.cfg.Query.Parameters).
		WithSaveState(j.cfg.Reader.SaveState).
		WithLogger(j.logger).
		WithMetrics(j.metrics), nil
}

// run returns the number of rows written.
func (j *job) run(ctx context.Context, out io.Writer) (int64, error) {
	reader, err := j.newReader()
	if err != nil {
		return 0, err
	}

	ec, err := j.store.Load(ctx, j.cfg.Job)
	if err != nil {
		return 0, fmt.Errorf("load checkpoint: %w", err)
	}

	if err = reader.Open(ec); err != nil {
		return 0, err
	}
	defer reader.Close()

	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	var mu sync.Mutex

	workers := make([]*pagereader.Worker[pagereader.Row], 0, j.cfg.Reader.Workers)
	for range j.cfg.Reader.Workers {
		workers = append(workers, reader.NewWorker())
	}

	for batch := 0; ; batch++ {
		var (
			budget atomic.Int64
			done   atomic.Bool
		)
		budget.Store(int64(j.cfg.Reader.BatchSize))

		g, gctx := errgroup.WithContext(ctx)
		for _, worker := range workers {
			g.Go(func() error {
				for budget.Add(-1) >= 0 {
					row, ok, err := worker.Read(gctx)
					if err != nil {
						return err
					}
					if !ok {
						done.Store(true)
						return nil
					}

					mu.Lock()
					err = enc.Encode(row)
					mu.Unlock()
					if err != nil {
						return fmt.Errorf("write row: %w", err)
					}
				}
				return nil
			})
		}
		if err = g.Wait(); err != nil {
			return reader.ReadCount(), err
		}

		if err = w.Flush(); err != nil {
			return reader.ReadCount(), fmt.Errorf("flush output: %w", err)
		}

		if err = reader.Update(ec); err != nil {
			return reader.ReadCount(), fmt.Errorf("update checkpoint: %w", err)
		}
		if err = j.store.Save(ctx, j.cfg.Job, ec); err != nil {
			return reader.ReadCount(), fmt.Errorf("save checkpoint: %w", err)
		}

		j.logger.Info().
			Int("batch", batch).
			Int64("rows", reader.ReadCount()).
			Int("page", reader.PageIndex()).
			Msg("Checkpoint saved")

		if done.Load() {
			return reader.ReadCount(), nil
		}
	}
}
