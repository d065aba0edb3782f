package engine

import (
	"errors"
	"fmt"
)

// ErrOffline is returned by SyncNow when the register is offline.
var ErrOffline = errors.New("register is offline")

// ReplayStage identifies where replaying a queued sale failed.
type ReplayStage string

const (
	// StageDecode means the stored payload could not be read.
	StageDecode ReplayStage = "decode"

	// StagePost means the remote service rejected the sale.
	StagePost ReplayStage = "post"

	// StageRemove means the sale was posted but could not be removed from
	// the queue. It will be posted again by a later pass.
	StageRemove ReplayStage = "remove"
)

// ReplayError describes one queued sale that was not synced.
type ReplayError struct {
	LocalID   int64
	ClientRef string
	Stage     ReplayStage
	Err       error
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("replay %d (%s): %s: %v", e.LocalID, e.ClientRef, e.Stage, e.Err)
}

func (e *ReplayError) Unwrap() error {
	return e.Err
}

// IsReplayError returns true if err is or wraps a *ReplayError.
func IsReplayError(err error) bool {
	var re *ReplayError
	return errors.As(err, &re)
}
