package session

import (
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// BadgerStorage keeps sessions in an embedded badger database. It satisfies
// fiber.Storage.
type BadgerStorage struct {
	db       *badger.DB
	stopGC   chan struct{}
	stopOnce sync.Once
}

// NewBadgerStorage opens (or creates) the badger database at path
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, errors.Wrap(err, "could not open badger session storage")
	}
	s := &BadgerStorage{
		db:     db,
		stopGC: make(chan struct{}),
	}
	go s.runGC(5 * time.Minute)
	return s, nil
}

func (s *BadgerStorage) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			for s.db.RunValueLogGC(0.7) == nil {
			}
		}
	}
}

// Get returns the stored value or nil if the key does not exist or expired
func (s *BadgerStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	var val []byte
	err := s.db.View(
		func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}
			val, err = item.ValueCopy(nil)
			return err
		},
	)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return val, errors.Wrap(err, "badger: get failed")
}

// Set stores val under key; exp of 0 means no expiry
func (s *BadgerStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	err := s.db.Update(
		func(txn *badger.Txn) error {
			entry := badger.NewEntry([]byte(key), val)
			if exp > 0 {
				entry = entry.WithTTL(exp)
			}
			return txn.SetEntry(entry)
		},
	)
	return errors.Wrap(err, "badger: set failed")
}

// Delete removes key
func (s *BadgerStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	err := s.db.Update(
		func(txn *badger.Txn) error {
			return txn.Delete([]byte(key))
		},
	)
	return errors.Wrap(err, "badger: delete failed")
}

// Reset removes all sessions
func (s *BadgerStorage) Reset() error {
	return errors.Wrap(s.db.DropAll(), "badger: reset failed")
}

// Close stops the value log GC and closes the database
func (s *BadgerStorage) Close() error {
	s.stopOnce.Do(func() { close(s.stopGC) })
	if err := s.db.Close(); err != nil {
		log.WithError(err).Error("could not close badger session storage")
		return err
	}
	return nil
}
