package session

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/imgr-dev/imgr/shared/crypto"
	"github.com/imgr-dev/imgr/shared/domain"
)

var (
	sessionBucket     = []byte("session")
	preferencesBucket = []byte("preferences")

	currentKey      = []byte("current")
	stayLoggedInKey = []byte("stay_logged_in")
)

// BoltStore keeps the session in an on-device bolt file.
type BoltStore struct {
	db    *bolt.DB
	codec codec
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [...][]byte{sessionBucket, preferencesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bolt buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// UseSealer encrypts sessions saved from now on and expects cached ones to
// be sealed with the same key.
func (s *BoltStore) UseSealer(sealer *crypto.Sealer) {
	s.codec.sealer = sealer
}

func (s *BoltStore) LoadSession(_ context.Context) (*domain.Session, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		// bolt values are only valid inside the transaction
		if v := tx.Bucket(sessionBucket).Get(currentKey); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	return s.codec.decode(data)
}

func (s *BoltStore) SaveSession(_ context.Context, session domain.Session) error {
	data, err := s.codec.encode(session)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(currentKey, data)
	})
}

func (s *BoltStore) ClearSession(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(currentKey)
	})
}

func (s *BoltStore) StayLoggedIn(_ context.Context) (bool, error) {
	stay := true
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(preferencesBucket).Get(stayLoggedInKey); v != nil {
			stay = decodeBool(v)
		}
		return nil
	})
	return stay, err
}

func (s *BoltStore) SetStayLoggedIn(_ context.Context, stay bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(preferencesBucket).Put(stayLoggedInKey, encodeBool(stay))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
