package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"cakemap/catalog/internal/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	bookmarkKeyPrefix  = "bookmark:"
	bookmarkSequenceID = "seq:bookmark"
)

type badgerBookmark struct {
	Seq      uint64          `json:"seq"`
	Bookmark domain.Bookmark `json:"bookmark"`
}

type badgerBookmarkRepository struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewBadgerBookmarkRepository stores bookmarks in an embedded Badger database.
// The repository takes ownership of db.
func NewBadgerBookmarkRepository(db *badger.DB) (BookmarkRepository, error) {
	seq, err := db.GetSequence([]byte(bookmarkSequenceID), 100)
	if err != nil {
		return nil, fmt.Errorf("failed to open bookmark sequence: %w", err)
	}
	return &badgerBookmarkRepository{db: db, seq: seq}, nil
}

// OpenBadger opens the bookmark database at dir, or in memory when dir is empty.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", dir, err)
	}
	return db, nil
}

func bookmarkKey(id int64) []byte {
	return []byte(bookmarkKeyPrefix + strconv.FormatInt(id, 10))
}

func (r *badgerBookmarkRepository) Upsert(ctx context.Context, bookmark domain.Bookmark) error {
	return r.db.Update(func(txn *badger.Txn) error {
		key := bookmarkKey(bookmark.ID)

		record := badgerBookmark{Bookmark: bookmark}
		item, err := txn.Get(key)
		switch {
		case err == nil:
			var existing badgerBookmark
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); err != nil {
				return fmt.Errorf("failed to decode bookmark %d: %w", bookmark.ID, err)
			}
			record.Seq = existing.Seq
		case errors.Is(err, badger.ErrKeyNotFound):
			next, err := r.seq.Next()
			if err != nil {
				return fmt.Errorf("failed to allocate bookmark sequence: %w", err)
			}
			record.Seq = next
		default:
			return fmt.Errorf("failed to read bookmark %d: %w", bookmark.ID, err)
		}

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode bookmark %d: %w", bookmark.ID, err)
		}
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("failed to save bookmark %d: %w", bookmark.ID, err)
		}
		return nil
	})
}

func (r *badgerBookmarkRepository) Delete(ctx context.Context, id int64) error {
	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(bookmarkKey(id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to delete bookmark %d: %w", id, err)
		}
		return nil
	})
}

func (r *badgerBookmarkRepository) Exists(ctx context.Context, id int64) (bool, error) {
	found := false
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(bookmarkKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to check bookmark %d: %w", id, err)
	}
	return found, nil
}

func (r *badgerBookmarkRepository) List(ctx context.Context) ([]domain.Bookmark, error) {
	var records []badgerBookmark

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(bookmarkKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var record badgerBookmark
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				return err
			}
			records = append(records, record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Seq < records[j].Seq
	})

	bookmarks := make([]domain.Bookmark, 0, len(records))
	for _, record := range records {
		bookmarks = append(bookmarks, record.Bookmark)
	}
	return bookmarks, nil
}

func (r *badgerBookmarkRepository) Close() error {
	if err := r.seq.Release(); err != nil {
		return fmt.Errorf("failed to release bookmark sequence: %w", err)
	}
	return r.db.Close()
}
