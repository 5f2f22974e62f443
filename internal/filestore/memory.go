package filestore

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryUploader records uploads and hands back deterministic URLs.
// Tests and local development use it instead of the media service.
type InMemoryUploader struct {
	mu       sync.Mutex
	uploads  []File
	failWith error
}

func NewInMemoryUploader() *InMemoryUploader {
	return &InMemoryUploader{}
}

// FailWith makes every subsequent Upload return err.
func (u *InMemoryUploader) FailWith(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failWith = err
}

func (u *InMemoryUploader) Upload(_ context.Context, folder string, file File) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.failWith != nil {
		return "", u.failWith
	}
	u.uploads = append(u.uploads, file)
	return fmt.Sprintf("https://media.local/%s/%s", folder, file.Name), nil
}

// Uploads returns every stored file in upload order.
func (u *InMemoryUploader) Uploads() []File {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]File, len(u.uploads))
	copy(out, u.uploads)
	return out
}
