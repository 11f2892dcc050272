package cache

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("socialkit_cache")

// Bolt is a file-backed cache for hosts that restart between issuing an
// auth URL and receiving the callback. Each value is stored with an
// absolute expiry prefix; expired entries read as absent.
type Bolt struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenBolt opens (or creates) the database file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db, now: time.Now}, nil
}

func (b *Bolt) Close() error { return b.db.Close() }

func (b *Bolt) Set(key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = b.now().Add(ttl).UnixNano()
	}
	buf := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(buf, uint64(expiresAt))
	copy(buf[8:], value)

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), buf)
	})
}

func (b *Bolt) Get(key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		value = b.decode(tx.Bucket(boltBucket).Get([]byte(key)))
		return nil
	})
	return value, err
}

func (b *Bolt) Delete(key string) ([]byte, error) {
	var previous []byte
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		previous = b.decode(bucket.Get([]byte(key)))
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return nil, err
	}
	return previous, nil
}

// decode strips the expiry prefix, returning nil for absent or expired
// entries. The returned slice is copied out of the transaction.
func (b *Bolt) decode(raw []byte) []byte {
	if len(raw) < 8 {
		return nil
	}
	expiresAt := int64(binary.BigEndian.Uint64(raw))
	if expiresAt != 0 && b.now().UnixNano() > expiresAt {
		return nil
	}
	return append([]byte(nil), raw[8:]...)
}
