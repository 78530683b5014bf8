// Package transfer turns save payloads into copy-pasteable text:
// "IK1." followed by base64 of an lz4 frame.
package transfer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pierrec/lz4/v4"

	"idlekingdom.dev/internal/persistence/snapshot"
	"idlekingdom.dev/internal/sim/game"
)

const prefix = "IK1."

var ErrFormat = errors.New("transfer: not an export string")

func compressLZ4(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressLZ4(src []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(src))
	return io.ReadAll(zr)
}

// EncodeText wraps an arbitrary payload. DecodeText(EncodeText(p)) == p.
func EncodeText(payload []byte) (string, error) {
	packed, err := compressLZ4(payload)
	if err != nil {
		return "", fmt.Errorf("lz4: %w", err)
	}
	return prefix + base64.StdEncoding.EncodeToString(packed), nil
}

// DecodeText accepts surrounding whitespace, as pasted text often has it.
func DecodeText(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, prefix) {
		return nil, ErrFormat
	}
	packed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(text, prefix))
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrFormat, err)
	}
	payload, err := decompressLZ4(packed)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrFormat, err)
	}
	return payload, nil
}

func Export(s game.State) (string, error) {
	payload, err := snapshot.Encode(s)
	if err != nil {
		return "", err
	}
	return EncodeText(payload)
}

// Import decodes an export string. Unreadable text and version mismatches
// both wrap snapshot.ErrNoSave.
func Import(text string, d snapshot.Defaults) (game.State, error) {
	payload, err := DecodeText(text)
	if err != nil {
		return game.State{}, fmt.Errorf("%w: %v", snapshot.ErrNoSave, err)
	}
	s, _, err := snapshot.Decode(payload, d)
	return s, err
}
