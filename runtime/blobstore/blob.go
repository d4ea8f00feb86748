package blobstore

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"goa.design/convo/runtime/planerrors"
)

// Serialize encodes doc to JSON, gzips it, hashes the compressed body, and
// prepends the fixed header. The version written is migrations.CurrentVersion
// when migrations is non-nil, otherwise 1 (spec §4.7 default).
func Serialize(doc StateDoc, migrations *MigrationRegistry) ([]byte, error) {
	version := uint16(1)
	if migrations != nil {
		version = migrations.CurrentVersion
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	if _, err := gw.Write(jsonBytes); err != nil {
		return nil, fmt.Errorf("gzip state: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	compressed := gzBuf.Bytes()

	hash := sha256.Sum256(compressed)

	out := make([]byte, headerLen+len(compressed))
	copy(out[magicOffset:], magic)
	binary.BigEndian.PutUint16(out[versionOff:], version)
	copy(out[hashOffset:hashOffset+hashLen], hash[:])
	copy(out[payloadStart:], compressed)
	return out, nil
}

// Deserialize verifies and decodes a blob produced by Serialize, applying
// any migrations necessary to bring it up to migrations.CurrentVersion.
// Returns planerrors (Kind IntegrityError or MigrationError) on any
// verification or migration failure; these must abort the turn and must
// never be silently replaced with a fresh blob (spec §7 tier 2).
func Deserialize(blob []byte, migrations *MigrationRegistry) (StateDoc, error) {
	var empty StateDoc
	if len(blob) < headerLen {
		return empty, planerrors.New(planerrors.KindIntegrity, "blob shorter than header")
	}
	if string(blob[magicOffset:magicOffset+len(magic)]) != magic {
		return empty, planerrors.New(planerrors.KindIntegrity, "bad magic")
	}
	blobVersion := binary.BigEndian.Uint16(blob[versionOff:])

	currentVersion := uint16(1)
	if migrations != nil {
		currentVersion = migrations.CurrentVersion
	}
	if blobVersion > currentVersion {
		return empty, planerrors.Errorf(planerrors.KindMigration,
			"blob version %d is newer than current version %d", blobVersion, currentVersion)
	}

	wantHash := blob[hashOffset : hashOffset+hashLen]
	compressed := blob[payloadStart:]
	gotHash := sha256.Sum256(compressed)
	if !bytes.Equal(wantHash, gotHash[:]) {
		return empty, planerrors.New(planerrors.KindIntegrity, "hash mismatch")
	}

	jsonBytes, err := gunzip(compressed)
	if err != nil {
		return empty, planerrors.NewWithCause(planerrors.KindIntegrity, "decompress failed", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return empty, planerrors.NewWithCause(planerrors.KindIntegrity, "decode json failed", err)
	}

	if blobVersion < currentVersion {
		if migrations == nil {
			return empty, planerrors.Errorf(planerrors.KindMigration, "no migration for %d->%d", blobVersion, currentVersion)
		}
		doc, err = migrations.apply(blobVersion, doc)
		if err != nil {
			return empty, err
		}
	}

	migratedJSON, err := json.Marshal(doc)
	if err != nil {
		return empty, planerrors.NewWithCause(planerrors.KindIntegrity, "re-encode migrated doc failed", err)
	}
	var out StateDoc
	if err := json.Unmarshal(migratedJSON, &out); err != nil {
		return empty, planerrors.NewWithCause(planerrors.KindIntegrity, "decode migrated state failed", err)
	}
	return out, nil
}

// ReadableJSON decompresses and pretty-prints a blob's payload without
// requiring integrity verification, for operator debugging. Returns a
// {"error": "..."} document on any failure rather than propagating it.
func ReadableJSON(blob []byte) []byte {
	fail := func(msg string) []byte {
		out, _ := json.MarshalIndent(map[string]string{"error": msg}, "", "  ")
		return out
	}
	if len(blob) < headerLen {
		return fail("blob shorter than header")
	}
	jsonBytes, err := gunzip(blob[payloadStart:])
	if err != nil {
		return fail(err.Error())
	}
	var doc any
	if err := json.Unmarshal(jsonBytes, &doc); err != nil {
		return fail(err.Error())
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fail(err.Error())
	}
	return out
}

func gunzip(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = gr.Close() }()
	return io.ReadAll(gr)
}
