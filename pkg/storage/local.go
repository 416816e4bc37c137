package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// ErrInvalidRef is returned for references that do not belong to the store
var ErrInvalidRef = errors.New("invalid document reference")

// Object is an upload waiting to be stored
type Object struct {
	Kind        string // identity_document, guest_photo
	Filename    string
	ContentType string
	Body        io.Reader
}

// StoredObject describes an object after it was written
type StoredObject struct {
	Ref      string `json:"ref"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// ObjectInfo is returned by List
type ObjectInfo struct {
	Ref     string
	Size    int64
	ModTime time.Time
}

// LocalStore keeps uploaded documents on the local filesystem. References
// are opaque "<kind>/<uuid><ext>" strings.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Put writes the object and returns its reference and blake2b-256 checksum
func (s *LocalStore) Put(ctx context.Context, obj Object) (*StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	kind := sanitizeKind(obj.Kind)
	if kind == "" {
		return nil, fmt.Errorf("object kind is required")
	}

	ref := path.Join(kind, uuid.NewString()+strings.ToLower(filepath.Ext(obj.Filename)))
	dest, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hash, _ := blake2b.New256(nil)
	size, err := io.Copy(io.MultiWriter(tmp, hash), obj.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write object: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, fmt.Errorf("failed to finalize object: %w", err)
	}

	return &StoredObject{
		Ref:      ref,
		Size:     size,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// List walks the store and returns every object
func (s *LocalStore) List(ctx context.Context) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{
			Ref:     filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	return objects, nil
}

func (s *LocalStore) resolve(ref string) (string, error) {
	clean := path.Clean(ref)
	if ref == "" || path.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func sanitizeKind(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	var b strings.Builder
	for _, r := range kind {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
