// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/fox/blob/master/LICENSE.txt.

package mars

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// storedPattern is the on-disk shape of a Pattern: the YAML codec round-trips
// through pre-order streams rather than the Node interface directly, since
// yaml.v3 cannot marshal an unexported-method interface on its own.
type storedPattern struct {
	Name     string       `yaml:"name"`
	Original []storedNode `yaml:"original"`
	Modified []storedNode `yaml:"modified"`
}

// storedNode is one element of a pre-order stream, tagged by Kind. Internal
// (non-leaf) kinds carry no payload of their own since their children follow
// them in the stream and Reconstruct's rebuild walk consumes them; the only
// exception is Assign's Op, which is a plain string rather than a Node and so
// never appears in the stream on its own. Wildcard/Use carry their Wrapped
// subtree out of band (as its own nested stream) since a leaf's walk never
// descends into it.
type storedNode struct {
	Kind         string       `yaml:"kind"`
	Name         string       `yaml:"name,omitempty"`
	ConstantKind ConstantKind `yaml:"constant_kind,omitempty"`
	Literal      string       `yaml:"literal,omitempty"`
	Op           string       `yaml:"op,omitempty"`
	Source       EditOpKind   `yaml:"source,omitempty"`
	Index        int          `yaml:"index,omitempty"`
	Wrapped      []storedNode `yaml:"wrapped,omitempty"`
}

func encodeStream(stream []Node) []storedNode {
	out := make([]storedNode, len(stream))
	for i, n := range stream {
		out[i] = encodeOne(n)
	}
	return out
}

func encodeOne(n Node) storedNode {
	switch v := n.(type) {
	case *Variable:
		return storedNode{Kind: "variable", Name: v.Name}
	case *Constant:
		return storedNode{Kind: "constant", ConstantKind: v.Kind, Literal: v.Literal}
	case *FunctionName:
		return storedNode{Kind: "function_name", Name: v.Name}
	case *Empty:
		return storedNode{Kind: "empty"}
	case *Start:
		return storedNode{Kind: "start"}
	case *End:
		return storedNode{Kind: "end"}
	case *Assign:
		return storedNode{Kind: "assign", Op: v.Op}
	case *Compare:
		return storedNode{Kind: "compare"}
	case *BoolOperation:
		return storedNode{Kind: "bool_operation"}
	case *UnaryOperation:
		return storedNode{Kind: "unary_operation"}
	case *Condition:
		return storedNode{Kind: "condition"}
	case *Body:
		return storedNode{Kind: "body"}
	case *If:
		return storedNode{Kind: "if"}
	case *ElIf:
		return storedNode{Kind: "elif"}
	case *Else:
		return storedNode{Kind: "else"}
	case *While:
		return storedNode{Kind: "while"}
	case *For:
		return storedNode{Kind: "for"}
	case *Function:
		return storedNode{Kind: "function"}
	case *Wildcard:
		return storedNode{Kind: "wildcard", Source: v.Source, Index: v.Index, Wrapped: encodeStream(Walk(v.Wrapped, PreOrder))}
	case *Use:
		return storedNode{Kind: "use", Source: v.Source, Index: v.Index, Wrapped: encodeStream(Walk(v.Wrapped, PreOrder))}
	default:
		return storedNode{Kind: "unrecognised"}
	}
}

func decodeStream(stream []storedNode) []Node {
	out := make([]Node, len(stream))
	for i, sn := range stream {
		out[i] = decodeOne(sn)
	}
	return out
}

func decodeOne(sn storedNode) Node {
	switch sn.Kind {
	case "variable":
		return &Variable{Name: sn.Name}
	case "constant":
		return &Constant{Kind: sn.ConstantKind, Literal: sn.Literal}
	case "function_name":
		return &FunctionName{Name: sn.Name}
	case "empty":
		return &Empty{}
	case "start":
		return &Start{}
	case "end":
		return &End{}
	case "assign":
		return &Assign{Op: sn.Op}
	case "compare":
		return &Compare{}
	case "bool_operation":
		return &BoolOperation{}
	case "unary_operation":
		return &UnaryOperation{}
	case "condition":
		return &Condition{}
	case "body":
		return &Body{}
	case "if":
		return &If{}
	case "elif":
		return &ElIf{}
	case "else":
		return &Else{}
	case "while":
		return &While{}
	case "for":
		return &For{}
	case "function":
		return &Function{}
	case "wildcard":
		return &Wildcard{Source: sn.Source, Index: sn.Index, Wrapped: Reconstruct(decodeStream(sn.Wrapped))}
	case "use":
		return &Use{Source: sn.Source, Index: sn.Index, Wrapped: Reconstruct(decodeStream(sn.Wrapped))}
	default:
		return &Empty{}
	}
}

// StorageContext is an append-only blob store for mined patterns, backed by
// a single file holding one YAML document per pattern separated by "---".
// save appends without reading the rest of the file; rewrite replaces the
// whole file atomically via rename-over, so a concurrent load never observes
// a half-written file. Within a single process only one writer is active at
// a time, enforced by an internal RWMutex rather than a cross-process file
// lock, matching the single mining-process assumption.
type StorageContext struct {
	path string
	mu   sync.RWMutex
}

// NewStorageContext returns a StorageContext backed by path. The file need
// not exist yet; it is created on first Save or Rewrite.
func NewStorageContext(path string) *StorageContext {
	return &StorageContext{path: path}
}

// Save appends p to the store. It acquires an exclusive lock for its
// duration, per the single-writer concurrency model.
func (s *StorageContext) Save(p *Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	enc, err := encodePattern(p)
	if err != nil {
		return &StoreIOError{Op: "save", Path: s.path, Err: err}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &StoreIOError{Op: "save", Path: s.path, Err: err}
	}
	defer f.Close()

	if _, err := f.Write(enc); err != nil {
		return &StoreIOError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// Load returns every pattern currently in the store, in append order. It
// acquires a shared lock for its duration.
func (s *StorageContext) Load() ([]*Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StoreIOError{Op: "load", Path: s.path, Err: err}
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	var patterns []*Pattern
	for {
		var sp storedPattern
		if err := dec.Decode(&sp); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &StoreIOError{Op: "load", Path: s.path, Err: err}
		}
		patterns = append(patterns, decodePattern(&sp))
	}
	return patterns, nil
}

// Rewrite atomically replaces the store's contents with patterns, via
// write-to-temp-then-rename so a concurrent Load always sees either the old
// or the new contents in full, never a partial file. This is how the Refiner
// persists a freshly fused pool back over the one it started from.
func (s *StorageContext) Rewrite(patterns []*Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	for _, p := range patterns {
		enc, err := encodePattern(p)
		if err != nil {
			return &StoreIOError{Op: "rewrite", Path: s.path, Err: err}
		}
		buf.Write(enc)
	}

	if err := atomic.WriteFile(s.path, &buf); err != nil {
		return &StoreIOError{Op: "rewrite", Path: s.path, Err: err}
	}
	return nil
}

// Delete purges the store entirely.
func (s *StorageContext) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return &StoreIOError{Op: "delete", Path: s.path, Err: err}
	}
	return nil
}

func encodePattern(p *Pattern) ([]byte, error) {
	sp := storedPattern{
		Name:     p.Name,
		Original: encodeStream(Walk(p.Original, PreOrder)),
		Modified: encodeStream(Walk(p.Modified, PreOrder)),
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(sp); err != nil {
		return nil, fmt.Errorf("encode pattern %q: %w", p.Name, err)
	}
	_ = enc.Close()
	return buf.Bytes(), nil
}

func decodePattern(sp *storedPattern) *Pattern {
	return &Pattern{
		Name:     sp.Name,
		Original: Reconstruct(decodeStream(sp.Original)),
		Modified: Reconstruct(decodeStream(sp.Modified)),
		Pairing:  NewPairing(),
	}
}
