package storage

import (
	"bytes"
	"encoding/gob"
	"time"

	bolt "go.etcd.io/bbolt"
)

// WebhookStats are the statistics of a webhook.
type WebhookStats struct {
	Name       string
	SentCount  int
	ErrorCount int
	SentLast   time.Time
}

// UpdateWebhookStats updates the stats of a webhook with fn.
// New stats are created when they do not yet exist.
func (st *Storage) UpdateWebhookStats(name string, fn func(ws *WebhookStats)) error {
	err := st.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketStats))
		var ws *WebhookStats
		v := b.Get([]byte(name))
		var err error
		if v != nil {
			ws, err = webhookStatsFromDB(v)
			if err != nil {
				return err
			}
		} else {
			ws = &WebhookStats{Name: name}
		}
		fn(ws)
		v, err = dbFromWebhookStats(ws)
		if err != nil {
			return err
		}
		return b.Put([]byte(name), v)
	})
	return err
}

// GetWebhookStats returns the stats for a webhook or [ErrNotFound] if there are none.
func (st *Storage) GetWebhookStats(name string) (*WebhookStats, error) {
	var ws *WebhookStats
	err := st.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketStats))
		v := b.Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		var err error
		ws, err = webhookStatsFromDB(v)
		if err != nil {
			return err
		}
		return nil
	})
	return ws, err
}

func webhookStatsFromDB(v []byte) (*WebhookStats, error) {
	buf := bytes.NewBuffer(v)
	dec := gob.NewDecoder(buf)
	var o WebhookStats
	if err := dec.Decode(&o); err != nil {
		return nil, err
	}
	return &o, nil
}

func dbFromWebhookStats(ws *WebhookStats) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	err := enc.Encode(*ws)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
