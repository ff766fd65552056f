// Package file provides file-based persistence for schedules. Each schedule
// lives in <root>/Schedules/<name>/schedule.star.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dukex/pipesched/pkg/persistence"
	"github.com/dukex/pipesched/pkg/schedule"
)

// SchedulesDir is the directory under the root that holds one directory per schedule.
const SchedulesDir = "Schedules"

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: trimScheme(root)}
}

func trimScheme(root string) string {
	for _, prefix := range []string{"file://", "file:"} {
		if after, ok := strings.CutPrefix(root, prefix); ok {
			return after
		}
	}

	return root
}

// Path returns the record file of the named schedule.
func (fp *Persistence) Path(name string) string {
	return filepath.Join(fp.root, SchedulesDir, name, schedule.File)
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(fp.root)
	if err != nil {
		return fmt.Errorf("schedule root %s: %w", fp.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("schedule root %s is not a directory", fp.root)
	}

	return nil
}

// Schedules returns the names of all stored schedules in lexical order.
func (fp *Persistence) Schedules(_ context.Context) ([]string, error) {
	root := os.DirFS(filepath.Join(fp.root, SchedulesDir))

	matches, err := fs.Glob(root, "*/"+schedule.File)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule files: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Dir(m))
	}

	sort.Strings(names)

	return names, nil
}

// SaveSchedule writes the schedule, creating its directory when needed.
func (fp *Persistence) SaveSchedule(_ context.Context, s *schedule.Schedule) error {
	if err := persistence.ValidateName(s.Name()); err != nil {
		return err
	}

	if err := s.Save(fp.Path(s.Name())); err != nil {
		return persistence.NewScheduleError("SaveSchedule", s.Name(), err)
	}

	return nil
}

// ScheduleByName loads the named schedule.
func (fp *Persistence) ScheduleByName(_ context.Context, name string, opts ...schedule.Option) (*schedule.Schedule, error) {
	if err := persistence.ValidateName(name); err != nil {
		return nil, err
	}

	s, err := schedule.Load(fp.Path(name), opts...)
	if errors.Is(err, os.ErrNotExist) {
		return nil, persistence.NewScheduleError("ScheduleByName", name, persistence.ErrScheduleNotFound)
	}

	if err != nil {
		return nil, persistence.NewScheduleError("ScheduleByName", name, err)
	}

	return s, nil
}

// DeleteSchedule removes the schedule file. Other files in its directory are kept.
func (fp *Persistence) DeleteSchedule(_ context.Context, name string) error {
	if err := persistence.ValidateName(name); err != nil {
		return err
	}

	err := os.Remove(fp.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return persistence.NewScheduleError("DeleteSchedule", name, persistence.ErrScheduleNotFound)
	}

	if err != nil {
		return persistence.NewScheduleError("DeleteSchedule", name, err)
	}

	return nil
}
