package main

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/boltdb/bolt"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

type boltLoanJournal struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the root bucket then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltLoanJournal provides an instance of bolt-based loan journal. Each
// user gets a nested bucket whose keys are the bucket sequence numbers,
// so a cursor walks the events in recording order.
func NewBoltLoanJournal(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) LoanJournal {
	return &boltLoanJournal{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// Close shuts down the bolt-based loan journal.
func (bj *boltLoanJournal) Close() error {
	return bj.client.Close()
}

// Record appends a loan event to the user's history.
func (bj *boltLoanJournal) Record(_ context.Context, event LoanEvent) error {
	eventBytes, err := jsoniter.ConfigFastest.Marshal(event)
	if err != nil {
		return err
	}
	return bj.client.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket([]byte(bj.config.BucketName)).CreateBucketIfNotExists([]byte(event.UserID))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(itob(seq), eventBytes)
	})
}

// History retrieves all events recorded for a user, oldest first.
func (bj *boltLoanJournal) History(_ context.Context, userID string) ([]LoanEvent, error) {
	tx, err := bj.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	events := []LoanEvent{}
	b := tx.Bucket([]byte(bj.config.BucketName)).Bucket([]byte(userID))
	if b == nil {
		return events, nil
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var event LoanEvent
		if err = jsoniter.ConfigFastest.Unmarshal(v, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// itob returns an 8-byte big endian representation of v.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
