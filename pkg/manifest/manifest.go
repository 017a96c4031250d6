// Package manifest records how a program name came about, as a JSON file
// that ships next to the firmware image.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/os303/progname/pkg/progname"
	"github.com/os303/progname/pkg/version"
)

// Host describes the machine that computed the name.
type Host struct {
	Hostname        string `json:"hostname,omitempty"`
	OS              string `json:"os,omitempty"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	KernelArch      string `json:"kernel_arch,omitempty"`
}

// Manifest is the provenance record of one program name.
type Manifest struct {
	BuildID     string    `json:"build_id"`
	ProgramName string    `json:"program_name"`
	Variable    string    `json:"variable"`
	Prefix      string    `json:"prefix"`
	Version     string    `json:"version"`
	Revision    string    `json:"revision"`
	Dirty       bool      `json:"dirty"`
	Fallback    bool      `json:"fallback,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	ToolVersion string    `json:"tool_version"`
	Host        Host      `json:"host"`
}

// readHost is swapped out in tests.
var readHost = func() (Host, error) {
	hi, err := host.Info()
	if err != nil {
		return Host{OS: runtime.GOOS}, err
	}
	return Host{
		Hostname:        hi.Hostname,
		OS:              hi.OS,
		Platform:        hi.Platform,
		PlatformVersion: hi.PlatformVersion,
		KernelArch:      hi.KernelArch,
	}, nil
}

// now is swapped out in tests.
var now = time.Now

// New builds the manifest for name. A failed host lookup leaves Host sparse
// and is reported through the returned error, which callers may ignore.
func New(name progname.Name, variable string, fallback bool) (*Manifest, error) {
	h, err := readHost()
	m := &Manifest{
		BuildID:     uuid.NewString(),
		ProgramName: name.String(),
		Variable:    variable,
		Prefix:      name.Prefix,
		Version:     name.Version,
		Revision:    name.Revision,
		Dirty:       name.Dirty,
		Fallback:    fallback,
		GeneratedAt: now().UTC(),
		ToolVersion: version.Short(),
		Host:        h,
	}
	if err != nil {
		return m, fmt.Errorf("read host info: %w", err)
	}
	return m, nil
}

// Name returns the program name the manifest describes.
func (m *Manifest) Name() progname.Name {
	return progname.Name{
		Prefix:   m.Prefix,
		Version:  m.Version,
		Revision: m.Revision,
		Dirty:    m.Dirty,
	}
}

// Write stores the manifest as indented JSON, replacing path atomically.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(path, bytes.NewReader(data), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Read loads a manifest written by Write.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}

func writeFileAtomic(dest string, r io.Reader, mode os.FileMode) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()
	if runtime.GOOS != "windows" {
		_ = tmp.Chmod(mode)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		// Windows refuses to rename over an existing file.
		_ = os.Remove(dest)
		if err2 := os.Rename(tmpName, dest); err2 != nil {
			return err
		}
	}
	return nil
}
