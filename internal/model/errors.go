package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomInProgress = errors.New("room is already in progress")
	ErrRoomClosed     = errors.New("room is closed")
	ErrNotInRoom      = errors.New("connection is not in room")
	ErrNotHost        = errors.New("connection is not the host")
	ErrAlreadyStarted = errors.New("room has already started")
	ErrPeerNotJoined  = errors.New("peer has not joined yet")
)
