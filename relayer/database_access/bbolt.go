package databaseaccess

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Ethernal-Tech/deposit-relayer/relayer/core"
	"go.etcd.io/bbolt"
)

var (
	scanStateBucket         = []byte("scanState")
	processedNoncesBucket   = []byte("processedNonces")
	pendingEventsBucket     = []byte("pendingEvents")
	escalatedEventsBucket   = []byte("escalatedEvents")
	failedSubmissionsBucket = []byte("failedSubmissions")

	lastScannedBlockKey = []byte("lastScannedBlock")

	allBuckets = [][]byte{
		scanStateBucket, processedNoncesBucket, pendingEventsBucket,
		escalatedEventsBucket, failedSubmissionsBucket,
	}
)

// the file is locked while a relayer has it open
const openTimeout = 2 * time.Second

type BBoltDatabase struct {
	db *bbolt.DB
}

var _ core.Database = (*BBoltDatabase)(nil)

func (bd *BBoltDatabase) Init(filePath string) error {
	db, err := bbolt.Open(filePath, 0660, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("could not open db: %w", err)
	}

	bd.db = db

	return db.Update(func(tx *bbolt.Tx) error {
		for _, bn := range allBuckets {
			_, err := tx.CreateBucketIfNotExists(bn)
			if err != nil {
				return fmt.Errorf("could not bucket: %s, err: %w", string(bn), err)
			}
		}

		return nil
	})
}

// InitReadOnly opens an existing relayer database, every write on it fails
func (bd *BBoltDatabase) InitReadOnly(filePath string) error {
	db, err := bbolt.Open(filePath, 0660, &bbolt.Options{Timeout: openTimeout, ReadOnly: true})
	if err != nil {
		return fmt.Errorf("could not open db: %w", err)
	}

	err = db.View(func(tx *bbolt.Tx) error {
		for _, bn := range allBuckets {
			if tx.Bucket(bn) == nil {
				return fmt.Errorf("not a relayer database, missing bucket: %s", string(bn))
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()

		return err
	}

	bd.db = db

	return nil
}

func (bd *BBoltDatabase) Close() error {
	return bd.db.Close()
}

func (bd *BBoltDatabase) GetLastScannedBlock() (result uint64, exists bool, err error) {
	err = bd.db.View(func(tx *bbolt.Tx) error {
		bytes := tx.Bucket(scanStateBucket).Get(lastScannedBlockKey)
		if bytes == nil {
			return nil
		}

		if len(bytes) != 8 {
			return core.NewFatalError("last scanned block", fmt.Errorf("invalid value length: %d", len(bytes)))
		}

		result, exists = binary.BigEndian.Uint64(bytes), true

		return nil
	})

	return result, exists, err
}

func (bd *BBoltDatabase) SaveScanResult(lastScannedBlock uint64, events []*core.ChainEvent) error {
	return bd.db.Update(func(tx *bbolt.Tx) error {
		pendingBucket := tx.Bucket(pendingEventsBucket)

		for _, ev := range events {
			key := uint64ToKey(ev.Nonce)
			if pendingBucket.Get(key) != nil {
				continue
			}

			bytes, err := json.Marshal(&core.PendingEvent{Event: ev})
			if err != nil {
				return fmt.Errorf("could not marshal pending event: %w", err)
			}

			if err := pendingBucket.Put(key, bytes); err != nil {
				return fmt.Errorf("pending event write error: %w", err)
			}
		}

		if err := tx.Bucket(scanStateBucket).Put(lastScannedBlockKey, uint64ToKey(lastScannedBlock)); err != nil {
			return fmt.Errorf("last scanned block write error: %w", err)
		}

		return nil
	})
}

func (bd *BBoltDatabase) IsNonceProcessed(nonce uint64) (result bool, err error) {
	err = bd.db.View(func(tx *bbolt.Tx) error {
		result = tx.Bucket(processedNoncesBucket).Get(uint64ToKey(nonce)) != nil

		return nil
	})

	return result, err
}

func (bd *BBoltDatabase) AddProcessedNonce(entry *core.ProcessedNonce) error {
	return bd.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(processedNoncesBucket)
		key := uint64ToKey(entry.Nonce)

		if bucket.Get(key) != nil {
			return fmt.Errorf("%w: %d", core.ErrNonceAlreadyProcessed, entry.Nonce)
		}

		bytes, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("could not marshal processed nonce: %w", err)
		}

		if err := bucket.Put(key, bytes); err != nil {
			return fmt.Errorf("processed nonce write error: %w", err)
		}

		return nil
	})
}

func (bd *BBoltDatabase) GetProcessedNonce(nonce uint64) (result *core.ProcessedNonce, err error) {
	err = bd.db.View(func(tx *bbolt.Tx) error {
		bytes := tx.Bucket(processedNoncesBucket).Get(uint64ToKey(nonce))
		if bytes == nil {
			return nil
		}

		result, err = unmarshalValue[core.ProcessedNonce](bytes)

		return err
	})

	return result, err
}

func (bd *BBoltDatabase) GetProcessedNoncesCount() (result int, err error) {
	err = bd.db.View(func(tx *bbolt.Tx) error {
		result = tx.Bucket(processedNoncesBucket).Stats().KeyN

		return nil
	})

	return result, err
}

func (bd *BBoltDatabase) PruneProcessedNonces(belowBlock uint64) (count int, err error) {
	err = bd.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(processedNoncesBucket)
		keys := [][]byte(nil)

		err := bucket.ForEach(func(k, v []byte) error {
			entry, err := unmarshalValue[core.ProcessedNonce](v)
			if err != nil {
				return err
			}

			if entry.BlockNumber < belowBlock {
				keys = append(keys, k)
			}

			return nil
		})
		if err != nil {
			return err
		}

		// keys can not be deleted while iterating with ForEach
		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return fmt.Errorf("processed nonce delete error: %w", err)
			}
		}

		count = len(keys)

		return nil
	})

	return count, err
}

func (bd *BBoltDatabase) GetPendingEvents() ([]*core.PendingEvent, error) {
	return getAllValues[core.PendingEvent](bd.db, pendingEventsBucket)
}

func (bd *BBoltDatabase) UpdatePendingEvent(event *core.PendingEvent) error {
	return bd.db.Update(func(tx *bbolt.Tx) error {
		return putValue(tx, pendingEventsBucket, uint64ToKey(event.Event.Nonce), event)
	})
}

func (bd *BBoltDatabase) RemovePendingEvent(nonce uint64) error {
	return bd.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(pendingEventsBucket).Delete(uint64ToKey(nonce)); err != nil {
			return fmt.Errorf("pending event delete error: %w", err)
		}

		return nil
	})
}

func (bd *BBoltDatabase) EscalatePendingEvent(event *core.PendingEvent) error {
	return bd.db.Update(func(tx *bbolt.Tx) error {
		key := uint64ToKey(event.Event.Nonce)

		if err := tx.Bucket(pendingEventsBucket).Delete(key); err != nil {
			return fmt.Errorf("pending event delete error: %w", err)
		}

		return putValue(tx, escalatedEventsBucket, key, event)
	})
}

func (bd *BBoltDatabase) GetEscalatedEvents() ([]*core.PendingEvent, error) {
	return getAllValues[core.PendingEvent](bd.db, escalatedEventsBucket)
}

func (bd *BBoltDatabase) AddFailedSubmission(failed *core.FailedSubmission) error {
	return bd.db.Update(func(tx *bbolt.Tx) error {
		return putValue(tx, failedSubmissionsBucket, uint64ToKey(failed.Call.SourceNonce), failed)
	})
}

func (bd *BBoltDatabase) GetFailedSubmissions() ([]*core.FailedSubmission, error) {
	return getAllValues[core.FailedSubmission](bd.db, failedSubmissionsBucket)
}

func putValue(tx *bbolt.Tx, bucketName []byte, key []byte, value any) error {
	bytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("could not marshal %s value: %w", string(bucketName), err)
	}

	if err := tx.Bucket(bucketName).Put(key, bytes); err != nil {
		return fmt.Errorf("%s write error: %w", string(bucketName), err)
	}

	return nil
}

// getAllValues returns the values of the bucket ordered by key
func getAllValues[T any](db *bbolt.DB, bucketName []byte) (result []*T, err error) {
	err = db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(_, v []byte) error {
			value, err := unmarshalValue[T](v)
			if err != nil {
				return err
			}

			result = append(result, value)

			return nil
		})
	})

	return result, err
}

func unmarshalValue[T any](bytes []byte) (*T, error) {
	var value T

	if err := json.Unmarshal(bytes, &value); err != nil {
		return nil, core.NewFatalError("could not unmarshal db value", err)
	}

	return &value, nil
}
