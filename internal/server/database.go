package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const conversionBucketName = "conversions"

// ErrConversionNotFound is returned for an unknown conversion ID
var ErrConversionNotFound = errors.New("conversion not found")

// DB stores the conversion history
type DB interface {
	// SaveConversion saves a conversion to the database
	SaveConversion(conversion *Conversion) error

	// GetConversion retrieves a conversion by ID
	GetConversion(id string) (*Conversion, error)

	// ListConversions returns all conversions, newest first
	ListConversions() ([]*Conversion, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(conversionBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveConversion saves a conversion to the database
func (b *BoltDB) SaveConversion(conversion *Conversion) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(conversionBucketName))
		data, err := json.Marshal(conversion)
		if err != nil {
			return fmt.Errorf("marshaling conversion: %w", err)
		}
		return bucket.Put([]byte(conversion.ID), data)
	})
}

// GetConversion retrieves a conversion by ID
func (b *BoltDB) GetConversion(id string) (*Conversion, error) {
	var conversion *Conversion
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(conversionBucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrConversionNotFound, id)
		}
		return json.Unmarshal(data, &conversion)
	})
	if err != nil {
		return nil, err
	}
	return conversion, nil
}

// ListConversions returns all conversions, newest first
func (b *BoltDB) ListConversions() ([]*Conversion, error) {
	conversions := make([]*Conversion, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(conversionBucketName))
		return bucket.ForEach(func(k, v []byte) error {
			var conversion Conversion
			if err := json.Unmarshal(v, &conversion); err != nil {
				return fmt.Errorf("unmarshaling conversion: %w", err)
			}
			conversions = append(conversions, &conversion)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(conversions, func(i, j int) bool {
		return conversions[i].CreatedAt.After(conversions[j].CreatedAt)
	})
	return conversions, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
