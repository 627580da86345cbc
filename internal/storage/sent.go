package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ErikKalkoken/hookpost/internal/snowflake"
)

// SentMessage is a message which was successfully posted to a webhook.
type SentMessage struct {
	ID         snowflake.ID
	ChannelID  snowflake.ID
	ThreadName string
	Content    string
	URL        string
	SentAt     time.Time
}

// RecordSent adds a message to the history of a webhook.
func (st *Storage) RecordSent(webhook string, m SentMessage) error {
	err := st.db.Update(func(tx *bolt.Tx) error {
		b, err := sentBucket(tx, webhook)
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if m.SentAt.IsZero() {
			m.SentAt = time.Now().UTC()
		}
		v, err := dbFromSentMessage(m)
		if err != nil {
			return err
		}
		return b.Put(sentKey(seq), v)
	})
	return err
}

// ListSent returns the latest messages of a webhook, newest first.
// A limit of zero or less returns all messages.
func (st *Storage) ListSent(webhook string, limit int) ([]SentMessage, error) {
	messages := make([]SentMessage, 0)
	err := st.db.View(func(tx *bolt.Tx) error {
		b, err := sentBucket(tx, webhook)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(messages) == limit {
				break
			}
			m, err := sentMessageFromDB(v)
			if err != nil {
				return err
			}
			messages = append(messages, m)
		}
		return nil
	})
	return messages, err
}

// CullSent deletes the oldest messages of a webhook when there are more messages then a limit.
func (st *Storage) CullSent(webhook string, limit int) error {
	err := st.db.Update(func(tx *bolt.Tx) error {
		b, err := sentBucket(tx, webhook)
		if err != nil {
			return err
		}
		keys := make([][]byte, 0)
		c := b.Cursor()
		var n int
		for k, _ := c.Last(); k != nil; k, _ = c.Prev() {
			n++
			if n > limit {
				keys = append(keys, k)
			}
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

// SentCount returns the number of messages in the history of a webhook.
func (st *Storage) SentCount(webhook string) int {
	var c int
	st.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(bucketSent))
		b := root.Bucket([]byte(webhook))
		if b == nil {
			return nil
		}
		c = b.Stats().KeyN
		return nil
	})
	return c
}

func sentBucket(tx *bolt.Tx, webhook string) (*bolt.Bucket, error) {
	root := tx.Bucket([]byte(bucketSent))
	b := root.Bucket([]byte(webhook))
	if b == nil {
		return nil, fmt.Errorf("webhook %s: %w", webhook, ErrNotFound)
	}
	return b, nil
}

func sentKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func sentMessageFromDB(v []byte) (SentMessage, error) {
	var m SentMessage
	dec := gob.NewDecoder(bytes.NewBuffer(v))
	if err := dec.Decode(&m); err != nil {
		return m, err
	}
	return m, nil
}

func dbFromSentMessage(m SentMessage) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
