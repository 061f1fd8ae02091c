package domain

// StreamChunkType distinguishes frames on a turn stream.
type StreamChunkType string

const (
	ChunkDelta StreamChunkType = "delta"
	ChunkDone  StreamChunkType = "done"
	ChunkError StreamChunkType = "error"
)

// StreamChunk is one ordered frame of a streamed assistant reply. Delta
// frames carry text; the terminal done frame carries the TurnResult
// metadata. Chunks are applied in generation order and the assistant
// message is not complete until the done frame arrives. An error frame
// followed by further deltas restarts the reply: the client discards any
// text accumulated before it.
type StreamChunk struct {
	Type   StreamChunkType `json:"type"`
	Seq    int             `json:"seq"`
	Text   string          `json:"text,omitempty"`
	Result *TurnResult     `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
