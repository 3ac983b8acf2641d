// Package fingerprint derives a stable content hash for a set of command
// descriptors. Generated files carry the fingerprint of their inputs so a
// stale file can be detected without regenerating it.
package fingerprint

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/cligen/pkgs/descriptor"
)

// FormatVersion is mixed into every fingerprint. Bump it whenever generated
// output changes for identical inputs.
const FormatVersion = 1

// Size is the fingerprint length in bytes.
const Size = blake2b.Size256

// Fingerprint is a blake2b-256 digest of a canonical descriptor encoding.
type Fingerprint [Size]byte

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Parse reads a fingerprint in the hex form String produces.
func Parse(s string) (Fingerprint, error) {
	var f Fingerprint
	b, err := hex.DecodeString(s)
	if err != nil {
		return f, fmt.Errorf("invalid fingerprint: %w", err)
	}
	if len(b) != Size {
		return f, fmt.Errorf("invalid fingerprint: want %d bytes, got %d", Size, len(b))
	}
	copy(f[:], b)
	return f, nil
}

// Entry is one fingerprinted command: its descriptor plus the Go binding
// details that shape generated code.
type Entry struct {
	TypeName string
	GoTypes  map[string]string
	Command  *descriptor.Command
}

// Canonical forms use explicit field keys and string type names so the
// encoding does not depend on Go declaration order or enum values.
type canonicalSet struct {
	Version  int                `cbor:"v"`
	Package  string             `cbor:"pkg"`
	Commands []canonicalCommand `cbor:"cmds"`
}

type canonicalCommand struct {
	TypeName     string               `cbor:"type"`
	GoTypes      map[string]string    `cbor:"gotypes"`
	Name         string               `cbor:"name"`
	Description  string               `cbor:"desc"`
	Version      string               `cbor:"version"`
	StandardHelp bool                 `cbor:"stdhelp"`
	Options      []canonicalOption    `cbor:"opts"`
	Parameters   []canonicalParameter `cbor:"params"`
}

type canonicalOption struct {
	Field       string   `cbor:"field"`
	Aliases     []string `cbor:"aliases"`
	Description string   `cbor:"desc"`
	Required    bool     `cbor:"req"`
	Default     string   `cbor:"default"`
	Arity       string   `cbor:"arity"`
	Type        string   `cbor:"type"`
	Converter   string   `cbor:"conv"`
}

type canonicalParameter struct {
	Field       string `cbor:"field"`
	Index       int    `cbor:"index"`
	Description string `cbor:"desc"`
	Required    bool   `cbor:"req"`
	Type        string `cbor:"type"`
}

// Encode returns the canonical CBOR encoding of the entries of one package.
// Entry order is significant; option and parameter order is too.
func Encode(pkg string, entries []Entry) ([]byte, error) {
	set := canonicalSet{
		Version:  FormatVersion,
		Package:  pkg,
		Commands: make([]canonicalCommand, 0, len(entries)),
	}
	for _, e := range entries {
		set.Commands = append(set.Commands, canonicalize(e))
	}

	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	data, err := encMode.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// Of fingerprints the entries of one package.
func Of(pkg string, entries []Entry) (Fingerprint, error) {
	data, err := Encode(pkg, entries)
	if err != nil {
		return Fingerprint{}, err
	}
	return blake2b.Sum256(data), nil
}

func canonicalize(e Entry) canonicalCommand {
	cmd := e.Command
	cc := canonicalCommand{
		TypeName:     e.TypeName,
		GoTypes:      e.GoTypes,
		Name:         cmd.Name,
		Description:  cmd.Description,
		Version:      cmd.Version,
		StandardHelp: cmd.StandardHelp,
		Options:      make([]canonicalOption, 0, len(cmd.Options)),
		Parameters:   make([]canonicalParameter, 0, len(cmd.Parameters)),
	}
	if cc.GoTypes == nil {
		cc.GoTypes = map[string]string{}
	}
	for _, o := range cmd.Options {
		cc.Options = append(cc.Options, canonicalOption{
			Field:       o.Field,
			Aliases:     o.Aliases,
			Description: o.Description,
			Required:    o.Required,
			Default:     o.DefaultValue,
			Arity:       o.Arity,
			Type:        o.Type.String(),
			Converter:   o.ConverterName,
		})
	}
	for _, p := range cmd.Parameters {
		cc.Parameters = append(cc.Parameters, canonicalParameter{
			Field:       p.Field,
			Index:       p.Index,
			Description: p.Description,
			Required:    p.Required,
			Type:        p.Type.String(),
		})
	}
	return cc
}
