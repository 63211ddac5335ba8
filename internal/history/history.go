// Package history archives completed matches as JSON files so results
// survive the room being torn down. Live match state is never persisted;
// a record is written once, at match end.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/irfathmostofa/hand-cricket-backend/internal/fileutil"
	"github.com/irfathmostofa/hand-cricket-backend/internal/game"
)

// Archiver writes one file per completed match. It implements
// game.Recorder.
type Archiver struct {
	directory string
	logger    *log.Logger
}

// NewArchiver creates an archiver writing into the given directory. The
// directory is created on first write.
func NewArchiver(directory string, logger *log.Logger) *Archiver {
	return &Archiver{
		directory: directory,
		logger:    logger.WithPrefix("history"),
	}
}

// RecordMatch writes the match record. Failures are logged, not returned;
// archival must never affect a live match.
func (a *Archiver) RecordMatch(record game.MatchRecord) {
	if err := a.write(record); err != nil {
		a.logger.Error("Failed to archive match", "room", record.RoomID, "error", err)
		return
	}
	a.logger.Debug("Archived match", "room", record.RoomID)
}

func (a *Archiver) write(record game.MatchRecord) error {
	if err := os.MkdirAll(a.directory, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal match record: %w", err)
	}

	filename := filepath.Join(a.directory, fmt.Sprintf("match_%s_%d.json",
		record.RoomID, record.FinishedAt.UnixMilli()))
	if err := fileutil.WriteFileAtomic(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write match record: %w", err)
	}
	return nil
}
