package geojson

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bahyway/alarminsight/internal/domain"
	"github.com/bahyway/alarminsight/internal/ports"
)

// DirSource is a file drop evidence source. Each fetch decodes every *.json
// batch found in the directory in name order; the files are renamed with a
// .done suffix only when the caller commits the batch, so evidence survives
// an evaluation failure and is re-fetched on the next poll. A malformed file
// fails the fetch and is left in place for the operator.
type DirSource struct {
	dir string

	mu      sync.Mutex
	pending []string // fetched but not yet committed, relative names
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Fetch(ctx context.Context) ([]domain.LeakIndicator, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("evidence dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []domain.LeakIndicator
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(s.dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("evidence file %s: %w", name, err)
		}
		batch, err := DecodeIndicators(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("evidence file %s: %w", name, err)
		}
		out = append(out, batch...)
	}

	s.mu.Lock()
	s.pending = names
	s.mu.Unlock()
	return out, nil
}

// Commit marks the last fetched batch consumed by renaming its files. An
// uncommitted batch is picked up again by the next Fetch, so delivery is
// at-least-once rather than lossy.
func (s *DirSource) Commit(ctx context.Context) error {
	s.mu.Lock()
	names := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(s.dir, name)
		if err := os.Rename(path, path+".done"); err != nil {
			return fmt.Errorf("evidence file %s: %w", name, err)
		}
	}
	return nil
}

var (
	_ ports.EvidenceSource    = (*DirSource)(nil)
	_ ports.EvidenceCommitter = (*DirSource)(nil)
)
