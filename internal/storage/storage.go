// Package storage journals completed searches to daily JSON lines files.
package storage

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/saviobatista/eco-flight/internal/types"
	"github.com/saviobatista/eco-flight/pkg/logger"
)

const filePrefix = "searches_"

// Entry is one journaled search
type Entry struct {
	Time     time.Time            `json:"time"`
	Response types.SearchResponse `json:"response"`
}

// Journal appends searches to a file per UTC day and gzips past days
type Journal struct {
	outputDir string
	logger    *logger.Logger
	now       func() time.Time

	file     *os.File
	day      string
	mu       sync.Mutex
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a journal writing into outputDir
func New(outputDir string, log *logger.Logger) *Journal {
	if log == nil {
		log = logger.NewNop()
	}
	return &Journal{
		outputDir: outputDir,
		logger:    log.Named("journal"),
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// FileName returns the journal file name of a day
func FileName(day time.Time) string {
	return fmt.Sprintf("%s%s.jsonl", filePrefix, day.UTC().Format("2006-01-02"))
}

// Start opens today's file and starts the midnight rotation timer
func (j *Journal) Start() error {
	if err := os.MkdirAll(j.outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create journal directory: %w", err)
	}

	j.mu.Lock()
	err := j.openFile()
	j.mu.Unlock()
	if err != nil {
		return err
	}

	j.wg.Add(1)
	go j.rotationTimer()
	return nil
}

// Stop halts rotation and closes the current file. Later calls are no-ops.
func (j *Journal) Stop() error {
	j.stopOnce.Do(func() { close(j.stopChan) })
	j.wg.Wait()

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file != nil {
		err := j.file.Close()
		j.file = nil
		return err
	}
	return nil
}

// Record appends a search response to the current day's file
func (j *Journal) Record(resp types.SearchResponse) error {
	line, err := json.Marshal(Entry{Time: j.now().UTC(), Response: resp})
	if err != nil {
		return fmt.Errorf("failed to encode journal entry: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil || j.day != j.today() {
		if err := j.rotate(); err != nil {
			return err
		}
	}

	_, err = j.file.Write(append(line, '\n'))
	return err
}

func (j *Journal) today() string {
	return j.now().UTC().Format("2006-01-02")
}

// rotationTimer rotates at midnight UTC
func (j *Journal) rotationTimer() {
	defer j.wg.Done()

	for {
		now := j.now().UTC()
		nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)

		select {
		case <-time.After(nextMidnight.Sub(now)):
			j.mu.Lock()
			err := j.rotate()
			j.mu.Unlock()
			if err != nil {
				j.logger.Error("Journal rotation failed", logger.Error(err))
			}
		case <-j.stopChan:
			return
		}
	}
}

// rotate closes the current file, compresses it if its day is over and opens today's file.
// The caller holds j.mu.
func (j *Journal) rotate() error {
	if j.file != nil {
		prev := j.file.Name()
		prevDay := j.day
		if err := j.file.Close(); err != nil {
			j.logger.Warn("Failed to close journal file", logger.String("file", prev), logger.Error(err))
		}
		j.file = nil

		if prevDay != j.today() {
			if err := compressFile(prev); err != nil {
				return fmt.Errorf("failed to compress file: %w", err)
			}
			j.logger.Info("Compressed journal file", logger.String("file", prev+".gz"))
		}
	}
	return j.openFile()
}

// openFile opens today's file for appending. The caller holds j.mu.
func (j *Journal) openFile() error {
	day := j.now().UTC()
	filename := filepath.Join(j.outputDir, FileName(day))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create journal file: %w", err)
	}

	j.file = file
	j.day = day.Format("2006-01-02")
	return nil
}

// compressFile gzips path into path.gz and removes path
func compressFile(path string) error {
	source, err := os.Open(path)
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}
	defer target.Close()

	gzipWriter := gzip.NewWriter(target)
	if _, err := io.Copy(gzipWriter, source); err != nil {
		return err
	}
	if err := gzipWriter.Close(); err != nil {
		return err
	}
	if err := target.Close(); err != nil {
		return err
	}

	return os.Remove(path)
}
