package imap

import (
	"io"
	"time"
)

// AppendMessage is a message to upload with APPEND.
type AppendMessage struct {
	Flags MsgFlags
	Time  time.Time // zero to let the server pick
	Size  int64
	Body  io.Reader
}

// AppendData is the data returned by an APPEND command.
type AppendData struct {
	// requires UIDPLUS
	UIDValidity uint32
	UIDs        []uint32
}
