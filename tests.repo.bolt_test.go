package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBoltJournal returns a new journal in a temporary path.
func newTestBoltJournal() (*boltLoanJournal, error) {
	f, err := os.CreateTemp("", "tmp.bolt.db-")
	if err != nil {
		return nil, err
	}
	f.Close()
	testConfig := &Config{
		BoltDB: BoltDBConfig{
			FilePath:   f.Name(),
			Timeout:    5 * time.Second,
			BucketName: "test.loans",
		},
	}

	client, err := GetBoltDBClient(testConfig)
	if err != nil {
		os.Remove(f.Name())
		return nil, err
	}

	return &boltLoanJournal{
		logger: zap.NewNop(),
		client: client,
		config: &testConfig.BoltDB,
	}, nil
}

// closeTestBoltJournal closes the temporary journal and removes the underlying data file.
func (bj *boltLoanJournal) closeTestBoltJournal() error {
	defer os.Remove(bj.config.FilePath)
	return bj.Close()
}

// Ensure bolt journal keeps each user history in recording order.
func TestBoltJournal_RecordAndHistory(t *testing.T) {
	bj, err := newTestBoltJournal()
	require.NoError(t, err, "failed in creating a test bolt journal")
	defer bj.closeTestBoltJournal()

	at := NewMockClocker().Now()
	events := []LoanEvent{
		{ID: "l:1", Kind: LoanBorrowed, UserID: "u1", ISBN: "i1", Title: "A", DueDate: at.Add(LoanPeriod), At: at},
		{ID: "l:2", Kind: LoanBorrowed, UserID: "u2", ISBN: "i2", Title: "B", DueDate: at.Add(LoanPeriod), At: at},
		{ID: "l:3", Kind: LoanReturned, UserID: "u1", ISBN: "i1", Title: "A", DueDate: at.Add(LoanPeriod), At: at.Add(time.Hour)},
	}
	for _, e := range events {
		require.NoError(t, bj.Record(context.TODO(), e))
	}

	history, err := bj.History(context.TODO(), "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "l:1", history[0].ID)
	assert.Equal(t, LoanBorrowed, history[0].Kind)
	assert.Equal(t, "l:3", history[1].ID)
	assert.Equal(t, LoanReturned, history[1].Kind)
	assert.True(t, at.Add(time.Hour).Equal(history[1].At))
	assert.True(t, at.Add(LoanPeriod).Equal(history[1].DueDate))

	history, err = bj.History(context.TODO(), "u2")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

// Ensure an unknown user has an empty history.
func TestBoltJournal_EmptyHistory(t *testing.T) {
	bj, err := newTestBoltJournal()
	require.NoError(t, err, "failed in creating a test bolt journal")
	defer bj.closeTestBoltJournal()

	history, err := bj.History(context.TODO(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}
