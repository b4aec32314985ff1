// Package memory provides an in-process artifact store.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/restoinsight/insights-server/internal/model"
	"github.com/restoinsight/insights-server/internal/storage"
)

var _ model.ArtifactStore = (*Store)(nil)

type object struct {
	data        []byte
	contentType string
}

type Store struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewStore() *Store {
	return &Store{
		objects: make(map[string]object),
	}
}

func (s *Store) Save(_ context.Context, ownerID uuid.UUID, name, contentType string, data []byte) (string, error) {
	key, err := storage.ObjectKey(ownerID, name)
	if err != nil {
		return "", model.ErrStorage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = object{data: bytes.Clone(data), contentType: contentType}

	return name, nil
}

func (s *Store) Open(_ context.Context, ownerID uuid.UUID, storedName string) (model.Artifact, error) {
	key, err := storage.ObjectKey(ownerID, storedName)
	if err != nil {
		return model.Artifact{}, err
	}

	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return model.Artifact{}, model.ErrNotFound
	}

	return model.Artifact{
		Name:        storedName,
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
	}, nil
}

func (s *Store) Delete(_ context.Context, ownerID uuid.UUID, storedName string) error {
	key, err := storage.ObjectKey(ownerID, storedName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)

	return nil
}

// Len returns the number of stored artifacts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
