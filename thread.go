package imap

// ThreadAlgorithm is a threading algorithm.
type ThreadAlgorithm string

const (
	ThreadOrderedSubject ThreadAlgorithm = "ORDEREDSUBJECT"
	ThreadReferences     ThreadAlgorithm = "REFERENCES"
)

// Thread is a node of a thread tree. A zero SeqNum is a placeholder for a
// missing parent with several children.
type Thread struct {
	SeqNum   uint32
	Children []Thread
}

// Walk calls fn for each message of the tree in depth-first order, with the
// nesting depth of the message.
func (thread *Thread) Walk(fn func(seqNum uint32, depth int)) {
	thread.walk(fn, 0)
}

func (thread *Thread) walk(fn func(seqNum uint32, depth int), depth int) {
	if thread.SeqNum != 0 {
		fn(thread.SeqNum, depth)
		depth++
	}
	for i := range thread.Children {
		thread.Children[i].walk(fn, depth)
	}
}
