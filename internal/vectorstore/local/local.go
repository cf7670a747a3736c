package local

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"pdfchat/internal/domain"
	"pdfchat/internal/vectorstore/memory"
)

// FileName is the index file created inside the workspace directory.
const FileName = "index.db"

var (
	chunksBucket = []byte("chunks")
	metaBucket   = []byte("meta")
	dimensionKey = []byte("dimension")
)

type record struct {
	Chunk  domain.Chunk `json:"chunk"`
	Vector []float64    `json:"vector"`
}

// Storage persists chunks and vectors in a bbolt file inside the workspace and
// serves searches from an in-memory index loaded at open time.
type Storage struct {
	db    *bolt.DB
	index *memory.Storage
}

// Open opens or creates the index file in dir.
func Open(dir string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: local vector store needs a directory", domain.ErrFilesystem)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFilesystem, err)
	}
	db, err := bolt.Open(filepath.Join(dir, FileName), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open index: %v", domain.ErrFilesystem, err)
	}
	s := &Storage{db: db, index: memory.NewStorage()}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) load() error {
	var chunks []domain.Chunk
	var vectors [][]float64
	var dim int
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(chunksBucket)
		if err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return err
		}
		if v := meta.Get(dimensionKey); len(v) == 8 {
			dim = int(binary.BigEndian.Uint64(v))
		}
		return b.ForEach(func(_, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			chunks = append(chunks, r.Chunk)
			vectors = append(vectors, r.Vector)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("%w: load index: %v", domain.ErrFilesystem, err)
	}
	if dim > 0 {
		if err := s.index.Init(dim); err != nil {
			return err
		}
	}
	return s.index.Upsert(chunks, vectors)
}

// Init records the dimension and drops every stored vector.
func (s *Storage) Init(dimension int) error {
	if err := s.index.Init(dimension); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := resetBucket(tx, chunksBucket); err != nil {
			return err
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(dimension))
		return tx.Bucket(metaBucket).Put(dimensionKey, buf)
	})
}

func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if err := s.index.Upsert(chunks, vectors); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(chunksBucket)
		for i, ch := range chunks {
			data, err := json.Marshal(record{Chunk: ch, Vector: vectors[i]})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(ch.ChunkID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	return s.index.Search(vector, topK)
}

func (s *Storage) Clear() error {
	if err := s.index.Clear(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := resetBucket(tx, chunksBucket); err != nil {
			return err
		}
		return resetBucket(tx, metaBucket)
	})
}

// Len reports the number of stored chunks.
func (s *Storage) Len() int { return s.index.Len() }

// Close releases the file lock so the workspace directory can be removed.
func (s *Storage) Close() error {
	return s.db.Close()
}

func resetBucket(tx *bolt.Tx, name []byte) error {
	if tx.Bucket(name) != nil {
		if err := tx.DeleteBucket(name); err != nil {
			return err
		}
	}
	_, err := tx.CreateBucket(name)
	return err
}
