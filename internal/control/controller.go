// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package control joins the rolling code store and the frame sender behind a
// single lock so the CLI, the TUI and the HTTP API can share one radio.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Thermoquad/rtsctl/internal/observability"
	"github.com/Thermoquad/rtsctl/pkg/rts"
)

const (
	// MaxRepetitions caps repetitions per request; one frame plus 20 repeats
	// already keeps the radio busy for well over two seconds.
	MaxRepetitions = 20

	// MoveRepetitions is used for position moves
	MoveRepetitions = 2

	// DefaultPosition is assumed for a remote that has not moved yet
	DefaultPosition = 50
)

var (
	ErrTooManyRepetitions = fmt.Errorf("repetitions must be between 0 and %d", MaxRepetitions)
	ErrInvalidPosition    = errors.New("position must be between 0 and 100")
)

// Store is the part of the remote store the controller needs
type Store interface {
	rts.RollingCodeStore
	Remote(name string) (*rts.Remote, error)
	Names() []string
}

// Result describes one command request
type Result struct {
	Remote      string
	Command     rts.Command
	Repetitions int
	Frames      int    // frames that went out
	RollingCode uint16 // code carried by the frame
	Sent        bool
	Duration    time.Duration
}

// MoveResult describes a position move. Moved is false when the remote was
// already at the target and nothing was sent.
type MoveResult struct {
	Result
	From  int
	To    int
	Moved bool
}

// RemoteStatus is the listing view of a remote
type RemoteStatus struct {
	Name        string
	Address     rts.Address
	RollingCode uint16
	Position    int
}

// Controller serialises every send across the process
type Controller struct {
	mu        sync.Mutex
	sender    rts.FrameSender
	store     Store
	key       byte
	logger    zerolog.Logger
	positions map[string]int
}

func New(sender rts.FrameSender, store Store, key byte, logger zerolog.Logger) *Controller {
	return &Controller{
		sender:    sender,
		store:     store,
		key:       key,
		logger:    logger,
		positions: make(map[string]int),
	}
}

// Remotes lists every remote with its current rolling code and position
func (c *Controller) Remotes() []RemoteStatus {
	names := c.store.Names()
	out := make([]RemoteStatus, 0, len(names))
	for _, name := range names {
		if status, err := c.Remote(name); err == nil {
			out = append(out, status)
		}
	}
	return out
}

// Remote returns the status of one remote
func (c *Controller) Remote(name string) (RemoteStatus, error) {
	remote, err := c.store.Remote(name)
	if err != nil {
		return RemoteStatus{}, err
	}

	c.mu.Lock()
	pos := c.positionLocked(name)
	c.mu.Unlock()

	return RemoteStatus{
		Name:        name,
		Address:     remote.Address(),
		RollingCode: remote.RollingCode(),
		Position:    pos,
	}, nil
}

// Send transmits a command with the named remote and persists the advanced
// rolling code. A cancelled context stops the request before the radio is
// taken, never mid-transmission.
func (c *Controller) Send(ctx context.Context, name string, cmd rts.Command, repetitions int) (Result, error) {
	if repetitions < 0 || repetitions > MaxRepetitions {
		observability.RecordCommand(c.remoteLabel(name), cmd.String(), observability.OutcomeRejected, 0, 0)
		return Result{Remote: name, Command: cmd, Repetitions: repetitions}, ErrTooManyRepetitions
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sendLocked(ctx, name, cmd, repetitions)
}

// Move drives a remote towards a position: lower sends Down, higher sends
// Up. The position is updated once the frame has gone out.
func (c *Controller) Move(ctx context.Context, name string, position int) (MoveResult, error) {
	if position < 0 || position > 100 {
		return MoveResult{To: position}, ErrInvalidPosition
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.positionLocked(name)
	res := MoveResult{From: from, To: position}

	var cmd rts.Command
	switch {
	case position < from:
		cmd = rts.CommandDown
	case position > from:
		cmd = rts.CommandUp
	default:
		if _, err := c.store.Remote(name); err != nil {
			return res, err
		}
		res.Result = Result{Remote: name}
		return res, nil
	}

	result, err := c.sendLocked(ctx, name, cmd, MoveRepetitions)
	res.Result = result
	if result.Sent {
		c.positions[name] = position
		res.Moved = true
	}
	return res, err
}

// remoteLabel is the metric label for a remote name: the name itself when it
// is paired, UnknownRemote otherwise.
func (c *Controller) remoteLabel(name string) string {
	if _, err := c.store.Remote(name); err != nil {
		return observability.UnknownRemote
	}
	return name
}

func (c *Controller) positionLocked(name string) int {
	if pos, ok := c.positions[name]; ok {
		return pos
	}
	return DefaultPosition
}

func (c *Controller) sendLocked(ctx context.Context, name string, cmd rts.Command, repetitions int) (Result, error) {
	res := Result{Remote: name, Command: cmd, Repetitions: repetitions}

	if err := ctx.Err(); err != nil {
		observability.RecordCommand(c.remoteLabel(name), cmd.String(), observability.OutcomeRejected, 0, 0)
		return res, err
	}

	remote, err := c.store.Remote(name)
	if err != nil {
		observability.RecordCommand(observability.UnknownRemote, cmd.String(), observability.OutcomeRejected, 0, 0)
		return res, err
	}
	remote.WithKey(c.key)
	res.RollingCode = remote.RollingCode()

	start := time.Now()
	err = remote.SendRepeat(c.sender, c.store, cmd, repetitions)
	res.Duration = time.Since(start)

	var (
		buildErr   *rts.BuildError
		txErr       *rts.TransmitError
		storageErr  *rts.StorageError
		unconfirmed *rts.UnconfirmedError
	)
	switch {
	case err == nil:
		res.Sent = true
		res.Frames = repetitions + 1
		observability.RecordCommand(name, cmd.String(), observability.OutcomeOK, res.Frames, res.Duration)
		c.logger.Info().
			Str("remote", name).
			Stringer("command", cmd).
			Int("repetitions", repetitions).
			Uint16("rolling_code", res.RollingCode).
			Dur("duration", res.Duration).
			Msg("command_sent")

	case errors.As(err, &storageErr):
		res.Sent = true
		res.Frames = repetitions + 1
		observability.RecordCommand(name, cmd.String(), observability.OutcomeStorageError, res.Frames, res.Duration)
		c.logger.Error().
			Err(err).
			Str("remote", name).
			Stringer("command", cmd).
			Uint16("rolling_code", storageErr.RollingCode).
			Msg("rolling_code_not_persisted")

	case errors.As(err, &unconfirmed):
		observability.RecordCommand(name, cmd.String(), observability.OutcomeUnconfirmed, 0, res.Duration)
		c.logger.Warn().
			Err(err).
			Str("remote", name).
			Stringer("command", cmd).
			Uint16("rolling_code", unconfirmed.RollingCode).
			Msg("transmission_unconfirmed")

	case errors.As(err, &txErr):
		if txErr.Repetition > 0 {
			res.Frames = txErr.Repetition
		}
		observability.RecordCommand(name, cmd.String(), observability.OutcomeTransmitError, res.Frames, res.Duration)
		c.logger.Error().
			Err(err).
			Str("remote", name).
			Stringer("command", cmd).
			Int("repetition", txErr.Repetition).
			Msg("transmit_failed")

	case errors.As(err, &buildErr):
		observability.RecordCommand(name, cmd.String(), observability.OutcomeRejected, 0, 0)
		c.logger.Warn().Err(err).Str("remote", name).Msg("frame_rejected")
	}

	return res, err
}
