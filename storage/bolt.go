package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/browserwing/nopo/models"
)

var (
	pagesBucket = []byte("pages")
	runsBucket  = []byte("runs")
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("not found")

type BoltDB struct {
	db *bolt.DB
}

func NewBoltDB(dbPath string) (*BoltDB, error) {
	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create database directory %s", dir)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", dbPath)
	}

	// 创建必要的 bucket
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{pagesBucket, runsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "create bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltDB{db: db}, nil
}

func (b *BoltDB) Close() error {
	return b.db.Close()
}

func put(tx *bolt.Tx, bucket []byte, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s/%s", bucket, id)
	}
	return tx.Bucket(bucket).Put([]byte(id), data)
}

func get(tx *bolt.Tx, bucket []byte, id string, v any) error {
	data := tx.Bucket(bucket).Get([]byte(id))
	if data == nil {
		return errors.Wrapf(ErrNotFound, "%s %s", bucket, id)
	}
	return errors.Wrapf(json.Unmarshal(data, v), "decode %s/%s", bucket, id)
}

// ============= 页面定义 =============

// SavePage 保存页面定义
func (b *BoltDB) SavePage(page *models.PageDefinition) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return put(tx, pagesBucket, page.ID, page)
	})
}

// GetPage 获取页面定义
func (b *BoltDB) GetPage(id string) (*models.PageDefinition, error) {
	var page models.PageDefinition
	err := b.db.View(func(tx *bolt.Tx) error {
		return get(tx, pagesBucket, id, &page)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPages 列出所有页面定义，按创建时间倒序
func (b *BoltDB) ListPages() ([]*models.PageDefinition, error) {
	var pages []*models.PageDefinition
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(pagesBucket).ForEach(func(k, v []byte) error {
			var page models.PageDefinition
			if err := json.Unmarshal(v, &page); err != nil {
				return errors.Wrapf(err, "decode page %s", k)
			}
			pages = append(pages, &page)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return pages[i].CreatedAt.After(pages[j].CreatedAt)
	})
	return pages, nil
}

// UpdatePage 更新页面定义，页面必须已存在
func (b *BoltDB) UpdatePage(page *models.PageDefinition) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		var old models.PageDefinition
		if err := get(tx, pagesBucket, page.ID, &old); err != nil {
			return err
		}
		page.CreatedAt = old.CreatedAt
		page.UpdatedAt = time.Now()
		return put(tx, pagesBucket, page.ID, page)
	})
}

// DeletePage 删除页面定义及其执行记录
func (b *BoltDB) DeletePage(id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(pagesBucket).Get([]byte(id)) == nil {
			return errors.Wrapf(ErrNotFound, "%s %s", pagesBucket, id)
		}
		if err := tx.Bucket(pagesBucket).Delete([]byte(id)); err != nil {
			return err
		}
		return deleteRuns(tx, id)
	})
}

// ============= 执行记录 =============

// SaveRun 保存执行记录
func (b *BoltDB) SaveRun(run *models.Run) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return put(tx, runsBucket, run.ID, run)
	})
}

// GetRun 获取单个执行记录
func (b *BoltDB) GetRun(id string) (*models.Run, error) {
	var run models.Run
	err := b.db.View(func(tx *bolt.Tx) error {
		return get(tx, runsBucket, id, &run)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns 列出执行记录（pageID 为空时返回全部），最新的在前
func (b *BoltDB) ListRuns(pageID string) ([]*models.Run, error) {
	var runs []*models.Run
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(k, v []byte) error {
			var run models.Run
			if err := json.Unmarshal(v, &run); err != nil {
				return errors.Wrapf(err, "decode run %s", k)
			}
			if pageID == "" || run.PageID == pageID {
				runs = append(runs, &run)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})
	return runs, nil
}

// DeleteRunsByPageID 删除指定页面的所有执行记录
func (b *BoltDB) DeleteRunsByPageID(pageID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return deleteRuns(tx, pageID)
	})
}

func deleteRuns(tx *bolt.Tx, pageID string) error {
	bucket := tx.Bucket(runsBucket)
	// 先收集要删除的 key，ForEach 中不能修改 bucket
	var keys [][]byte
	err := bucket.ForEach(func(k, v []byte) error {
		var run models.Run
		if err := json.Unmarshal(v, &run); err != nil {
			return errors.Wrapf(err, "decode run %s", k)
		}
		if run.PageID == pageID {
			keys = append(keys, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := bucket.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
