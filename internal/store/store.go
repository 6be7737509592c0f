// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package store keeps the rolling code of every paired remote in a file.
//
// The file maps a remote name to its address and next rolling code, as TOML
// (default) or CBOR (.cbor extension). Every Persist rewrites the file
// atomically. A Store is safe for concurrent use, but only one process may
// own a given file.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Thermoquad/rtsctl/pkg/rts"
)

// DefaultPath is used when no store path is configured
const DefaultPath = "./remotes.toml"

var (
	ErrRemoteNotFound  = errors.New("remote not found")
	ErrAddressNotFound = errors.New("no remote with this address")
	ErrRemoteExists    = errors.New("remote already exists")
)

// Entry is the persisted state of one remote
type Entry struct {
	Address     uint32 `toml:"address" cbor:"address"`
	RollingCode uint16 `toml:"rolling_code" cbor:"rolling_code"`
}

// Store is a file-backed rolling code table
type Store struct {
	path    string
	codec   codec
	mu      sync.Mutex
	entries map[string]Entry
}

// New creates an empty store bound to path. Nothing is read until Load.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		path:    path,
		codec:   codecForPath(path),
		entries: make(map[string]Entry),
	}
}

// Open creates a store and loads it
func Open(path string) (*Store, error) {
	s := New(path)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory table with the file contents
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("load store %s: %w", s.path, err)
	}

	entries, err := s.codec.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("load store %s: %w", s.path, err)
	}

	seen := make(map[uint32]string, len(entries))
	for name, e := range entries {
		if !rts.Address(e.Address).Valid() {
			return fmt.Errorf("load store %s: remote %q: address 0x%X exceeds 24 bits", s.path, name, e.Address)
		}
		if other, ok := seen[e.Address]; ok {
			return fmt.Errorf("load store %s: remotes %q and %q share address 0x%06X", s.path, other, name, e.Address)
		}
		seen[e.Address] = name
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return nil
}

// Names returns the remote names in sorted order
func (s *Store) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Entry returns the stored state of a remote
func (s *Store) Entry(name string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	return e, ok
}

// Remote returns a sequencer for the named remote, starting at its stored
// rolling code.
func (s *Store) Remote(name string) (*rts.Remote, error) {
	e, ok := s.Entry(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRemoteNotFound, name)
	}
	return rts.NewRemote(rts.Address(e.Address), e.RollingCode), nil
}

// Add registers a new remote and saves the file. Names and addresses must
// both be unique.
func (s *Store) Add(name string, address rts.Address, rollingCode uint16) error {
	if name == "" {
		return errors.New("remote name must not be empty")
	}
	if !address.Valid() {
		return fmt.Errorf("remote %q: address %s exceeds 24 bits", name, address)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrRemoteExists, name)
	}
	for other, e := range s.entries {
		if e.Address == uint32(address) {
			return fmt.Errorf("%w: address %s is used by %q", ErrRemoteExists, address, other)
		}
	}

	s.entries[name] = Entry{Address: uint32(address), RollingCode: rollingCode}
	if err := s.saveLocked(); err != nil {
		delete(s.entries, name)
		return err
	}
	return nil
}

// Remove deletes a remote and saves the file
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrRemoteNotFound, name)
	}

	delete(s.entries, name)
	if err := s.saveLocked(); err != nil {
		s.entries[name] = e
		return err
	}
	return nil
}

// Persist implements rts.RollingCodeStore. The entry is found by address.
//
// The in-memory table keeps the new code even if the write fails, so later
// sends in this process never reuse a code that already went out.
func (s *Store) Persist(remote *rts.Remote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	address := uint32(remote.Address())
	for name, e := range s.entries {
		if e.Address != address {
			continue
		}
		e.RollingCode = remote.RollingCode()
		s.entries[name] = e
		return s.saveLocked()
	}
	return fmt.Errorf("%w: %s", ErrAddressNotFound, remote.Address())
}

// Save writes the current table to disk
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	data, err := s.codec.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("save store %s: %w", s.path, err)
	}
	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("save store %s: %w", s.path, err)
	}
	return nil
}

// writeFileAtomic writes data to a temporary file in the same directory,
// syncs it and renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
