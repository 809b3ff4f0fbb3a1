// Package interchange reads and writes the on-disk containers the analyzer
// consumes: a device timing database (.dmp) and a physical netlist (.pmp),
// both msgpack-encoded with a schema version field so stale files fail loudly
// instead of decoding garbage.
package interchange

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"fpgasta/internal/device"
	"fpgasta/internal/physnet"
)

// Bumped whenever the encoded layout of the payload structs changes.
const (
	deviceSchemaVersion  uint16 = 1
	netlistSchemaVersion uint16 = 1
)

type deviceFile struct {
	Schema uint16
	Device *device.Resources
}

type netlistFile struct {
	Schema  uint16
	Netlist *physnet.Netlist
}

// ReadDevice loads a device timing database.
func ReadDevice(path string) (*device.Resources, error) {
	var file deviceFile
	if err := readFile(path, &file); err != nil {
		return nil, fmt.Errorf("read device %s: %w", path, err)
	}
	if file.Schema != deviceSchemaVersion {
		return nil, fmt.Errorf("read device %s: schema %d, want %d", path, file.Schema, deviceSchemaVersion)
	}
	if file.Device == nil {
		return nil, fmt.Errorf("read device %s: empty payload", path)
	}
	return file.Device, nil
}

// WriteDevice stores a device timing database, replacing path atomically.
func WriteDevice(path string, dev *device.Resources) error {
	if err := writeFile(path, deviceFile{Schema: deviceSchemaVersion, Device: dev}); err != nil {
		return fmt.Errorf("write device %s: %w", path, err)
	}
	return nil
}

// ReadNetlist loads a physical netlist.
func ReadNetlist(path string) (*physnet.Netlist, error) {
	var file netlistFile
	if err := readFile(path, &file); err != nil {
		return nil, fmt.Errorf("read netlist %s: %w", path, err)
	}
	if file.Schema != netlistSchemaVersion {
		return nil, fmt.Errorf("read netlist %s: schema %d, want %d", path, file.Schema, netlistSchemaVersion)
	}
	if file.Netlist == nil {
		return nil, fmt.Errorf("read netlist %s: empty payload", path)
	}
	return file.Netlist, nil
}

// WriteNetlist stores a physical netlist, replacing path atomically.
func WriteNetlist(path string, net *physnet.Netlist) error {
	if err := writeFile(path, netlistFile{Schema: netlistSchemaVersion, Netlist: net}); err != nil {
		return fmt.Errorf("write netlist %s: %w", path, err)
	}
	return nil
}

func readFile(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return msgpack.NewDecoder(f).Decode(out)
}

func writeFile(path string, payload any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "failed to remove temp file: %v\n", err)
		}
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
