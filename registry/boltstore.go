package registry

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/arcpay/escrow-go/escrow"
	"github.com/arcpay/escrow-go/invoice"
)

var (
	bucketEscrows     = []byte("escrows")
	bucketEscrowIndex = []byte("escrow_index")
	bucketReceipts    = []byte("receipts")
)

// BoltStore wraps a bbolt database persisting escrow snapshots and the
// settlement receipt journal. It implements both Store and Journal.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface checks.
var (
	_ Store   = (*BoltStore)(nil)
	_ Journal = (*BoltStore)(nil)
)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("registry: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketEscrows, bucketEscrowIndex, bucketReceipts} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// PutSnapshot stores or replaces the snapshot for its invoice ID. The first
// put of an ID also records it in the insertion-order index.
func (s *BoltStore) PutSnapshot(snap *escrow.Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}

	data, err := encodeGob(snap)
	if err != nil {
		return fmt.Errorf("registry: encode snapshot: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		eb := tx.Bucket(bucketEscrows)
		isNew := eb.Get(snap.InvoiceID[:]) == nil

		if err := eb.Put(snap.InvoiceID[:], data); err != nil {
			return fmt.Errorf("boltstore: put snapshot: %w", err)
		}
		if isNew {
			ib := tx.Bucket(bucketEscrowIndex)
			seq, err := ib.NextSequence()
			if err != nil {
				return fmt.Errorf("boltstore: index sequence: %w", err)
			}
			if err := ib.Put(seqKey(seq), snap.InvoiceID[:]); err != nil {
				return fmt.Errorf("boltstore: put index entry: %w", err)
			}
		}
		return nil
	})
}

// GetSnapshot retrieves a snapshot by invoice ID.
func (s *BoltStore) GetSnapshot(id invoice.ID) (*escrow.Snapshot, error) {
	var snap escrow.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketEscrows).Get(id[:])
		if data == nil {
			return ErrNotFound
		}
		if err := decodeGob(data, &snap); err != nil {
			return fmt.Errorf("registry: decode snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshots returns all snapshots in insertion order.
func (s *BoltStore) ListSnapshots() ([]*escrow.Snapshot, error) {
	var out []*escrow.Snapshot
	err := s.db.View(func(tx *bbolt.Tx) error {
		eb := tx.Bucket(bucketEscrows)
		return tx.Bucket(bucketEscrowIndex).ForEach(func(_, id []byte) error {
			data := eb.Get(id)
			if data == nil {
				return fmt.Errorf("registry: index entry without snapshot: %x", id)
			}
			var snap escrow.Snapshot
			if err := decodeGob(data, &snap); err != nil {
				return fmt.Errorf("registry: decode snapshot: %w", err)
			}
			out = append(out, &snap)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Append records a receipt under its invoice ID in append order.
func (s *BoltStore) Append(r *escrow.Receipt) error {
	if r == nil {
		return ErrNilReceipt
	}

	data, err := encodeGob(r)
	if err != nil {
		return fmt.Errorf("registry: encode receipt: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		rb := tx.Bucket(bucketReceipts)
		seq, err := rb.NextSequence()
		if err != nil {
			return fmt.Errorf("boltstore: receipt sequence: %w", err)
		}
		return rb.Put(receiptKey(r.InvoiceID, seq), data)
	})
}

// List returns all receipts for an invoice in append order.
func (s *BoltStore) List(id invoice.ID) ([]*escrow.Receipt, error) {
	out := []*escrow.Receipt{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketReceipts).Cursor()
		prefix := id[:]
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var r escrow.Receipt
			if err := decodeGob(v, &r); err != nil {
				return fmt.Errorf("registry: decode receipt: %w", err)
			}
			out = append(out, &r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// seqKey encodes a sequence number as an 8-byte big-endian key for sorted
// iteration.
func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

// receiptKey prefixes the sequence key with the invoice ID so one cursor
// scan yields a single invoice's receipts in order.
func receiptKey(id invoice.ID, seq uint64) []byte {
	k := make([]byte, 0, len(id)+8)
	k = append(k, id[:]...)
	return append(k, seqKey(seq)...)
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
