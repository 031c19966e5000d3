package imap

// CopyData is the data returned by a COPY command.
type CopyData struct {
	// requires UIDPLUS
	UIDValidity uint32
	SourceUIDs  []uint32
	DestUIDs    []uint32
}
