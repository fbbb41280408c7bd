// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package nv12

import "errors"

// Errors returned by the compositor.
var (
	// ErrNilContext is returned by New without a graphics context.
	ErrNilContext = errors.New("nv12: nil graphics context")

	// ErrNilTarget is returned by New without an output target.
	ErrNilTarget = errors.New("nv12: nil output target")

	// ErrClosed is returned when submitting to a closed compositor.
	ErrClosed = errors.New("nv12: compositor closed")

	// ErrInvalidFrameSize is returned for frame dimensions that are not
	// positive and even.
	ErrInvalidFrameSize = errors.New("nv12: frame dimensions must be positive and even")

	// ErrShortFrame is returned when the pixel data is smaller than one
	// NV12 frame of the given size.
	ErrShortFrame = errors.New("nv12: pixel data shorter than frame")

	// ErrReentrantSubmit is returned when SubmitFrame is called while a
	// submission is in progress.
	ErrReentrantSubmit = errors.New("nv12: frame submission already in progress")

	// ErrBracketActive is returned when the state bracket is opened twice.
	ErrBracketActive = errors.New("nv12: state bracket already active")

	// ErrBracketNotActive is returned when closing a bracket never opened.
	ErrBracketNotActive = errors.New("nv12: state bracket not active")
)
