// Package episode stores recorded sessions on disk: one directory per
// episode holding data.csv and a frame directory per camera.
package episode

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gwillem/potarm/pkg/arm"
	"github.com/gwillem/potarm/pkg/collect"
)

const dirFormat = "episode-20060102-150405"

// Flush every N rows so a crash loses little without paying a syscall per
// tick.
const flushEvery = 32

// Recorder is the persistence collaborator: it appends tick records to the
// episode's CSV, ordered by submission. Frame files are written by the
// camera grabbers into the directories FrameDir hands out; the CSV only
// references them by basename.
type Recorder struct {
	dir     string
	cameras []string

	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer

	// Read by UIs while the loop appends.
	rows atomic.Uint64
}

// New creates a timestamped episode directory under baseDir with one frame
// subdirectory per camera, and opens data.csv with a header row.
func New(baseDir string, cameras []string) (*Recorder, error) {
	dir := filepath.Join(baseDir, time.Now().Format(dirFormat))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create episode dir: %w", err)
	}
	for _, cam := range cameras {
		if err := os.MkdirAll(filepath.Join(dir, cam+"_frames"), 0755); err != nil {
			return nil, fmt.Errorf("create frame dir: %w", err)
		}
	}

	f, err := os.Create(filepath.Join(dir, "data.csv"))
	if err != nil {
		return nil, fmt.Errorf("create data.csv: %w", err)
	}

	r := &Recorder{
		dir:     dir,
		cameras: cameras,
		file:    f,
		buf:     bufio.NewWriterSize(f, 64*1024),
	}
	r.csv = csv.NewWriter(r.buf)

	if err := r.csv.Write(r.header()); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	return r, nil
}

// Dir returns the episode directory.
func (r *Recorder) Dir() string { return r.dir }

// FrameDir returns the directory a camera's frames are saved into.
func (r *Recorder) FrameDir(camera string) string {
	return filepath.Join(r.dir, camera+"_frames")
}

// Rows returns the number of records appended so far.
func (r *Recorder) Rows() uint64 { return r.rows.Load() }

func (r *Recorder) header() []string {
	h := []string{"timestamp"}
	for _, name := range arm.ServoJoints() {
		n := string(name)
		h = append(h, n+"_raw", n+"_filtered", n+"_angle")
	}
	h = append(h, "base_raw", "base_filtered", "stepper_target", "stepper_position")
	for _, cam := range r.cameras {
		h = append(h, cam+"_frame")
	}
	return h
}

// Append writes one tick record as a CSV row. Rows are written in
// submission order; missing frames become empty cells.
func (r *Recorder) Append(rec collect.TickRecord) error {
	row := []string{rec.Timestamp.Format(time.RFC3339Nano)}
	for _, name := range arm.ServoJoints() {
		s := rec.Joints[name]
		row = append(row,
			strconv.FormatUint(uint64(s.Raw), 10),
			strconv.FormatFloat(s.Filtered, 'f', 2, 64),
			strconv.FormatFloat(s.Angle, 'f', 2, 64),
		)
	}
	base := rec.Joints[arm.Base]
	row = append(row,
		strconv.FormatUint(uint64(base.Raw), 10),
		strconv.FormatFloat(base.Filtered, 'f', 2, 64),
		strconv.Itoa(rec.StepperTarget),
		strconv.Itoa(rec.StepperPosition),
	)
	for _, cam := range r.cameras {
		row = append(row, rec.Frames[cam])
	}

	if err := r.csv.Write(row); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	if r.rows.Add(1)%flushEvery == 0 {
		r.csv.Flush()
		if err := r.buf.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}
	return nil
}

// Close flushes buffered rows and closes the CSV file.
func (r *Recorder) Close() error {
	r.csv.Flush()
	if err := r.csv.Error(); err != nil {
		r.file.Close()
		return err
	}
	if err := r.buf.Flush(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}
