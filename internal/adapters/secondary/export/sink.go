package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/fredcamaral/slidecraft/internal/domain/ports"
)

// DirectorySink writes artifacts as files into a directory.
type DirectorySink struct {
	dir string
}

// NewDirectorySink creates a sink rooted at dir. The directory is created
// on first write.
func NewDirectorySink(dir string) *DirectorySink {
	return &DirectorySink{dir: dir}
}

// Write stores the artifact and returns its path.
func (s *DirectorySink) Write(ctx context.Context, artifact ports.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, sanitizeFilename(artifact.Name))
	if err := os.WriteFile(path, artifact.Data, 0600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// MemorySink keeps artifacts in memory.
type MemorySink struct {
	mu        sync.Mutex
	artifacts []ports.Artifact
}

// NewMemorySink creates an empty memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Write records the artifact and returns its sanitised name.
func (s *MemorySink) Write(ctx context.Context, artifact ports.Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	artifact.Name = sanitizeFilename(artifact.Name)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, artifact)
	return artifact.Name, nil
}

// Artifacts returns what has been written so far, in order.
func (s *MemorySink) Artifacts() []ports.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Artifact(nil), s.artifacts...)
}

// sanitizeFilename keeps letters, digits, dots, dashes and underscores.
// Anything else becomes an underscore.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	clean := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	clean = strings.Trim(clean, "._")
	if clean == "" {
		return "presentation"
	}
	return clean
}

var (
	_ ports.ArtifactSink = (*DirectorySink)(nil)
	_ ports.ArtifactSink = (*MemorySink)(nil)
)
