// Package vault implements the Item Store: a set of stage directories under
// a single vault root, holding markdown items whose location encodes their
// workflow state. The store is the single source of truth for what exists;
// the ledger and audit log are derived, rebuildable views.
package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/DevDonzo/DigitalFTE/pkg/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an item does not exist in the given stage.
	ErrNotFound = errors.New("item not found")
	// ErrNameTaken is returned when creating an item whose name already
	// exists in any stage. At most one item per name may exist vault-wide.
	ErrNameTaken = errors.New("item name already exists")
)

// Store is the interface to the vault's stage directories.
type Store interface {
	// Root returns the vault root path.
	Root() string
	// EnsureLayout creates every stage directory that does not yet exist.
	EnsureLayout() error
	// List returns the item names in a stage, sorted ascending. Only .md
	// files count as items; dotfiles and subdirectories are ignored.
	List(stage models.Stage) ([]string, error)
	// Read loads and parses one item.
	Read(stage models.Stage, name string) (*models.Item, error)
	// Create writes a new item into a stage atomically (temp file + rename).
	// It fails with ErrNameTaken if the name exists in any stage.
	Create(stage models.Stage, item *models.Item) error
	// Replace rewrites an existing item in place. Only valid for items the
	// caller just created and still owns; routed items are immutable.
	Replace(stage models.Stage, item *models.Item) error
	// Move transitions an item between stages. The name never changes.
	Move(name string, from, to models.Stage) error
	// Exists reports whether the named item is present in the stage.
	Exists(stage models.Stage, name string) bool
	// StagePath returns the absolute directory path of a stage.
	StagePath(stage models.Stage) string
}

// dirStore implements Store over a plain directory tree.
type dirStore struct {
	root string
}

// NewStore creates a Store rooted at the given vault path.
func NewStore(root string) Store {
	return &dirStore{root: root}
}

func (s *dirStore) Root() string {
	return s.root
}

func (s *dirStore) StagePath(stage models.Stage) string {
	return filepath.Join(s.root, string(stage))
}

func (s *dirStore) itemPath(stage models.Stage, name string) string {
	return filepath.Join(s.StagePath(stage), name)
}

func (s *dirStore) EnsureLayout() error {
	for _, stage := range models.AllStages {
		if err := os.MkdirAll(s.StagePath(stage), 0o755); err != nil {
			return fmt.Errorf("creating stage directory %s: %w", stage, err)
		}
	}
	return nil
}

func (s *dirStore) List(stage models.Stage) ([]string, error) {
	entries, err := os.ReadDir(s.StagePath(stage))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading stage %s: %w", stage, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *dirStore) Read(stage models.Stage, name string) (*models.Item, error) {
	data, err := os.ReadFile(s.itemPath(stage, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, name, stage)
		}
		return nil, fmt.Errorf("reading item %s: %w", name, err)
	}
	return DecodeItem(name, stage, string(data)), nil
}

func (s *dirStore) Create(stage models.Stage, item *models.Item) error {
	if item.Name == "" {
		return fmt.Errorf("creating item: name is empty")
	}
	for _, other := range models.AllStages {
		if s.Exists(other, item.Name) {
			return fmt.Errorf("%w: %s in %s", ErrNameTaken, item.Name, other)
		}
	}
	return s.write(stage, item)
}

func (s *dirStore) Replace(stage models.Stage, item *models.Item) error {
	if !s.Exists(stage, item.Name) {
		return fmt.Errorf("%w: %s in %s", ErrNotFound, item.Name, stage)
	}
	return s.write(stage, item)
}

// write renders the item and installs it atomically so a concurrent watcher
// never observes a half-written file.
func (s *dirStore) write(stage models.Stage, item *models.Item) error {
	content, err := EncodeItem(item)
	if err != nil {
		return fmt.Errorf("encoding item %s: %w", item.Name, err)
	}

	dir := s.StagePath(stage)
	tmp, err := os.CreateTemp(dir, ".tmp_*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", item.Name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing item %s: %w", item.Name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing item %s: %w", item.Name, err)
	}
	if err := os.Rename(tmpName, s.itemPath(stage, item.Name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("installing item %s: %w", item.Name, err)
	}

	item.Stage = stage
	return nil
}

func (s *dirStore) Move(name string, from, to models.Stage) error {
	src := s.itemPath(from, name)
	dst := s.itemPath(to, name)
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s in %s", ErrNotFound, name, from)
		}
		return fmt.Errorf("moving %s from %s to %s: %w", name, from, to, err)
	}
	return nil
}

func (s *dirStore) Exists(stage models.Stage, name string) bool {
	_, err := os.Stat(s.itemPath(stage, name))
	return err == nil
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// NewName generates a unique item name for the given kind with the vault
// naming convention, using a short random suffix to disambiguate items
// created within the same second.
func NewName(kind models.ItemKind, now time.Time) string {
	short := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return models.NewItemName(models.KindPrefix(kind), now, short)
}
