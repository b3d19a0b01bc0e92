package simulation

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-galaxy-simulation/pkg/nbody"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotWriter persists the whole body collection once per step.
type SnapshotWriter interface {
	WriteSnapshot(step int, bodies []nbody.Body) error
}

// NewSnapshotWriter returns the writer for format, creating dir when needed.
func NewSnapshotWriter(format, dir string, runID uuid.UUID) (SnapshotWriter, error) {
	switch format {
	case FormatNone:
		return discardSnapshots{}, nil
	case FormatText, FormatMsgpack:
	default:
		return nil, fmt.Errorf("%w: unknown snapshot format %q", ErrInvalidConfig, format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	if format == FormatMsgpack {
		return &MsgpackSnapshots{Dir: dir, RunID: runID}, nil
	}
	return &TextSnapshots{Dir: dir}, nil
}

type discardSnapshots struct{}

func (discardSnapshots) WriteSnapshot(int, []nbody.Body) error { return nil }

// TextSnapshots writes galaxy_<step>.txt files, one Body.String line per body.
type TextSnapshots struct {
	Dir string
}

func (s *TextSnapshots) Path(step int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("galaxy_%d.txt", step))
}

func (s *TextSnapshots) WriteSnapshot(step int, bodies []nbody.Body) error {
	return writeFile(s.Path(step), func(w *bufio.Writer) error {
		for i := range bodies {
			if _, err := w.WriteString(bodies[i].String()); err != nil {
				return err
			}
			if err := w.WriteByte('\n'); err != nil {
				return err
			}
		}
		return nil
	})
}

// BodyRecord is the binary form of a body.
type BodyRecord struct {
	Index        int        `msgpack:"index"`
	Position     [3]float64 `msgpack:"position"`
	Velocity     [3]float64 `msgpack:"velocity"`
	Acceleration [3]float64 `msgpack:"acceleration"`
	Mass         float64    `msgpack:"mass"`
	Density      float64    `msgpack:"density"`
	Alive        bool       `msgpack:"alive"`
}

// SnapshotRecord is the content of a galaxy_<step>.msgpack file.
type SnapshotRecord struct {
	RunID  string       `msgpack:"run_id"`
	Step   int          `msgpack:"step"`
	Bodies []BodyRecord `msgpack:"bodies"`
}

// MsgpackSnapshots writes galaxy_<step>.msgpack files tagged with the run id.
type MsgpackSnapshots struct {
	Dir   string
	RunID uuid.UUID
}

func (s *MsgpackSnapshots) Path(step int) string {
	return filepath.Join(s.Dir, fmt.Sprintf("galaxy_%d.msgpack", step))
}

func (s *MsgpackSnapshots) WriteSnapshot(step int, bodies []nbody.Body) error {
	rec := SnapshotRecord{
		RunID:  s.RunID.String(),
		Step:   step,
		Bodies: make([]BodyRecord, len(bodies)),
	}
	for i := range bodies {
		b := &bodies[i]
		rec.Bodies[i] = BodyRecord{
			Index:        b.Index,
			Position:     [3]float64(b.Position),
			Velocity:     [3]float64(b.Velocity),
			Acceleration: [3]float64(b.Acceleration),
			Mass:         b.Mass,
			Density:      b.Density,
			Alive:        b.Alive,
		}
	}
	return writeFile(s.Path(step), func(w *bufio.Writer) error {
		return msgpack.NewEncoder(w).Encode(&rec)
	})
}

// ReadMsgpackSnapshot decodes a file written by MsgpackSnapshots.
func ReadMsgpackSnapshot(path string) (*SnapshotRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	var rec SnapshotRecord
	if err := msgpack.NewDecoder(bufio.NewReader(f)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return &rec, nil
}

func writeFile(path string, fill func(*bufio.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close snapshot: %w", cerr)
		}
	}()

	w := bufio.NewWriterSize(f, 1<<16)
	if err := fill(w); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush snapshot %s: %w", path, err)
	}
	return nil
}
