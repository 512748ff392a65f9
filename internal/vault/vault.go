// Package vault keeps every saved version of a mission in a local bbolt
// file. Versions are append-only and numbered from 1 per mission.
package vault

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/cjeanneret/FlyGo/internal/debug"
	"github.com/cjeanneret/FlyGo/internal/mission"
)

const missionsBucket = "missions"

// ErrMissionNotFound is returned when no version exists for a mission id.
var ErrMissionNotFound = errors.New("mission not found")

// Version is one saved snapshot of a mission.
type Version struct {
	Version int             `json:"version" msgpack:"version"`
	Mission mission.Mission `json:"mission" msgpack:"mission"`
	SavedAt time.Time       `json:"saved_at" msgpack:"saved_at"`
	Note    string          `json:"note,omitempty" msgpack:"note"`
}

// Vault is safe for concurrent use; bbolt serializes writers.
type Vault struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the vault file at path.
func Open(path string) (*Vault, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create vault directory: %w", err)
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(missionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init vault: %w", err)
	}
	debug.Verbose("vault opened at %s", path)
	return &Vault{db: db, now: time.Now}, nil
}

func (v *Vault) Close() error {
	return v.db.Close()
}

func versionKey(n uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], n)
	return k[:]
}

// Save appends m as the next version of m.ID and returns it.
func (v *Vault) Save(m mission.Mission, note string) (Version, error) {
	if m.ID == "" {
		return Version{}, fmt.Errorf("save mission: empty id")
	}
	var saved Version
	err := v.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.Bucket([]byte(missionsBucket)).CreateBucketIfNotExists([]byte(m.ID))
		if err != nil {
			return err
		}
		n, err := b.NextSequence()
		if err != nil {
			return err
		}
		saved = Version{
			Version: int(n),
			Mission: m,
			SavedAt: v.now().UTC(),
			Note:    note,
		}
		data, err := msgpack.Marshal(&saved)
		if err != nil {
			return fmt.Errorf("encode version: %w", err)
		}
		return b.Put(versionKey(n), data)
	})
	if err != nil {
		return Version{}, fmt.Errorf("save mission %s: %w", m.ID, err)
	}
	debug.Info("Saved mission %s version %d", m.ID, saved.Version)
	return saved, nil
}

// Versions returns every version of mission id, oldest first.
func (v *Vault) Versions(id string) ([]Version, error) {
	var out []Version
	err := v.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(missionsBucket)).Bucket([]byte(id))
		if b == nil {
			return ErrMissionNotFound
		}
		return b.ForEach(func(_, data []byte) error {
			var ver Version
			if err := msgpack.Unmarshal(data, &ver); err != nil {
				return fmt.Errorf("decode version: %w", err)
			}
			out = append(out, ver)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("mission %s: %w", id, err)
	}
	return out, nil
}

// Latest returns the most recent version of mission id.
func (v *Vault) Latest(id string) (Version, error) {
	var ver Version
	err := v.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(missionsBucket)).Bucket([]byte(id))
		if b == nil {
			return ErrMissionNotFound
		}
		_, data := b.Cursor().Last()
		if data == nil {
			return ErrMissionNotFound
		}
		return msgpack.Unmarshal(data, &ver)
	})
	if err != nil {
		return Version{}, fmt.Errorf("mission %s: %w", id, err)
	}
	return ver, nil
}

// Missions returns the ids of every stored mission in key order.
func (v *Vault) Missions() ([]string, error) {
	var ids []string
	err := v.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(missionsBucket)).ForEachBucket(func(k []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}
