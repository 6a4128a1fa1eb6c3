// Package gitstore provides a Git plumbing-based implementation of SnapshotStore.
package gitstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/board/internal/domain"
)

// boardFile is the tree entry holding the board YAML.
const boardFile = "board.yaml"

// Store implements domain.SnapshotStore using Git plumbing (refs, blobs,
// trees and commits), outside of any branch.
//
// Data structure:
//
//	refs/<namespace>/board → commit
//	  tree
//	    board.yaml → blob (snapshot YAML)
//	  parent → previous revision
type Store struct {
	repo      *git.Repository
	clock     domain.Clock
	namespace string // e.g., "board"
	mu        sync.RWMutex
}

// Revision is one entry of the board history.
type Revision struct {
	When    string
	Hash    string
	Message string
}

// New opens the repository containing repoPath.
func New(repoPath, namespace string) (*Store, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository: %w", err)
	}
	return NewWithRepo(repo, namespace), nil
}

// NewWithRepo creates a new Store with an existing repository instance.
func NewWithRepo(repo *git.Repository, namespace string) *Store {
	return &Store{
		repo:      repo,
		namespace: namespace,
		clock:     domain.RealClock{},
	}
}

// SetClock replaces the clock used for commit timestamps.
func (s *Store) SetClock(c domain.Clock) {
	s.clock = c
}

// boardRef returns the ref name of the board history.
func (s *Store) boardRef() plumbing.ReferenceName {
	return plumbing.ReferenceName("refs/" + s.namespace + "/board")
}

// View runs fn with the latest board revision.
func (s *Store) View(_ context.Context, fn func(*domain.Snapshot) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, _, err := s.load()
	if err != nil {
		return err
	}
	return fn(snap)
}

// Update runs fn with the latest board and commits the result as a new
// revision when fn succeeds.
func (s *Store) Update(_ context.Context, fn func(*domain.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, parent, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(snap); err != nil {
		return err
	}
	return s.commit(snap, parent, "update board")
}

// Initialize creates the first revision with an empty board.
// Returns true if it was created.
func (s *Store) Initialize(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.repo.Reference(s.boardRef(), true)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, fmt.Errorf("check board ref: %w", err)
	}
	if err := s.commit(&domain.Snapshot{}, plumbing.ZeroHash, "initialize board"); err != nil {
		return false, err
	}
	return true, nil
}

// History returns up to limit revisions, newest first.
func (s *Store) History(limit int) ([]Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, err := s.repo.Reference(s.boardRef(), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, domain.ErrNotInitialized
		}
		return nil, fmt.Errorf("get board ref: %w", err)
	}

	var revs []Revision
	hash := ref.Hash()
	for !hash.IsZero() && (limit <= 0 || len(revs) < limit) {
		c, err := s.repo.CommitObject(hash)
		if err != nil {
			return nil, fmt.Errorf("get commit: %w", err)
		}
		revs = append(revs, Revision{
			Hash:    c.Hash.String(),
			Message: c.Message,
			When:    c.Author.When.UTC().Format("2006-01-02 15:04:05"),
		})
		if c.NumParents() == 0 {
			break
		}
		hash = c.ParentHashes[0]
	}
	return revs, nil
}

// load reads the latest board and returns it with its commit hash.
func (s *Store) load() (*domain.Snapshot, plumbing.Hash, error) {
	ref, err := s.repo.Reference(s.boardRef(), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, plumbing.ZeroHash, domain.ErrNotInitialized
		}
		return nil, plumbing.ZeroHash, fmt.Errorf("get board ref: %w", err)
	}

	c, err := s.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("get commit: %w", err)
	}
	tree, err := c.Tree()
	if err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("get tree: %w", err)
	}
	entry, err := tree.FindEntry(boardFile)
	if err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("find %s: %w", boardFile, err)
	}
	data, err := s.readBlob(entry.Hash)
	if err != nil {
		return nil, plumbing.ZeroHash, err
	}

	var snap domain.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, plumbing.ZeroHash, fmt.Errorf("decode board: %w", err)
	}
	return &snap, ref.Hash(), nil
}

// commit writes snap as a new revision on top of parent.
func (s *Store) commit(snap *domain.Snapshot, parent plumbing.Hash, message string) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}
	blob, err := s.writeBlob(data)
	if err != nil {
		return err
	}

	tree := &object.Tree{Entries: []object.TreeEntry{{Name: boardFile, Mode: filemode.Regular, Hash: blob}}}
	treeObj := s.repo.Storer.NewEncodedObject()
	if err := tree.Encode(treeObj); err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	treeHash, err := s.repo.Storer.SetEncodedObject(treeObj)
	if err != nil {
		return fmt.Errorf("store tree: %w", err)
	}

	sig := object.Signature{Name: "board", Email: "board@localhost", When: s.clock.Now()}
	c := &object.Commit{
		Author:    sig,
		Committer: sig,
		Message:   message,
		TreeHash:  treeHash,
	}
	if !parent.IsZero() {
		c.ParentHashes = []plumbing.Hash{parent}
	}
	commitObj := s.repo.Storer.NewEncodedObject()
	if err := c.Encode(commitObj); err != nil {
		return fmt.Errorf("encode commit: %w", err)
	}
	commitHash, err := s.repo.Storer.SetEncodedObject(commitObj)
	if err != nil {
		return fmt.Errorf("store commit: %w", err)
	}

	if err := s.repo.Storer.SetReference(plumbing.NewHashReference(s.boardRef(), commitHash)); err != nil {
		return fmt.Errorf("set board ref: %w", err)
	}
	return nil
}

// writeBlob writes data to a blob and returns the hash.
func (s *Store) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("create blob writer: %w", err)
	}

	if _, writeErr := writer.Write(data); writeErr != nil {
		_ = writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("write blob: %w", writeErr)
	}
	_ = writer.Close()

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store blob: %w", err)
	}

	return hash, nil
}

// readBlob reads a blob's content.
func (s *Store) readBlob(hash plumbing.Hash) ([]byte, error) {
	blob, err := s.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}

	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read blob data: %w", err)
	}
	return data, nil
}

var (
	_ domain.SnapshotStore    = (*Store)(nil)
	_ domain.StoreInitializer = (*Store)(nil)
)
