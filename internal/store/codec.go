// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package store

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
)

// codec serialises the name -> entry table
type codec interface {
	Marshal(entries map[string]Entry) ([]byte, error)
	Unmarshal(data []byte) (map[string]Entry, error)
}

// codecForPath picks the file format from the extension. Anything that is
// not .cbor is treated as TOML.
func codecForPath(path string) codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbor":
		return cborCodec{}
	default:
		return tomlCodec{}
	}
}

type tomlCodec struct{}

func (tomlCodec) Marshal(entries map[string]Entry) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(entries); err != nil {
		return nil, fmt.Errorf("encode toml: %w", err)
	}
	return buf.Bytes(), nil
}

func (tomlCodec) Unmarshal(data []byte) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}
	return entries, nil
}

var cborEncMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: cbor enc mode: %v", err))
	}
	return em
}()

type cborCodec struct{}

func (cborCodec) Marshal(entries map[string]Entry) ([]byte, error) {
	data, err := cborEncMode.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode cbor: %w", err)
	}
	return data, nil
}

func (cborCodec) Unmarshal(data []byte) (map[string]Entry, error) {
	entries := make(map[string]Entry)
	if len(data) == 0 {
		return entries, nil
	}
	if err := cbor.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode cbor: %w", err)
	}
	// CBOR null decodes to a nil map
	if entries == nil {
		entries = make(map[string]Entry)
	}
	return entries, nil
}
