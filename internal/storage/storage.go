// Package storage persists the history of sent messages and webhook statistics.
package storage

import (
	"errors"
	"log/slog"

	bolt "go.etcd.io/bbolt"

	"github.com/ErikKalkoken/hookpost/internal/config"
)

const (
	bucketSent  = "sent"
	bucketStats = "stats"
)

// AdhocWebhook is the name used for webhooks given as URL instead of by name.
const AdhocWebhook = "adhoc"

var ErrNotFound = errors.New("not found")

type Storage struct {
	db  *bolt.DB
	cfg config.Config
}

func New(db *bolt.DB, cfg config.Config) *Storage {
	st := &Storage{
		db:  db,
		cfg: cfg,
	}
	return st
}

// Init creates all required buckets and deletes obsolete buckets.
func (st *Storage) Init() error {
	webhooks := map[string]bool{AdhocWebhook: true}
	for _, wh := range st.cfg.Webhooks {
		webhooks[wh.Name] = true
	}
	err := st.db.Update(func(tx *bolt.Tx) error {
		bs, err := tx.CreateBucketIfNotExists([]byte(bucketSent))
		if err != nil {
			return err
		}
		for name := range webhooks {
			if _, err := bs.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		obsolete := make([][]byte, 0)
		err = bs.ForEachBucket(func(k []byte) error {
			if !webhooks[string(k)] {
				obsolete = append(obsolete, k)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range obsolete {
			if err := bs.DeleteBucket(k); err != nil {
				return err
			}
			slog.Info("Deleted obsolete bucket for webhook", "name", string(k))
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketStats)); err != nil {
			return err
		}
		return nil
	})
	return err
}

func (st *Storage) DB() *bolt.DB {
	return st.db
}
