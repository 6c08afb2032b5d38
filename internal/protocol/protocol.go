// Package protocol defines the selection request/response types exchanged
// between the assistant and the picker process. Messages are JSON-encoded
// and sent over a Unix domain socket, one object per line.
package protocol

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Message type discriminators carried in the "type" field.
const (
	TypeSelectionRequest  = "selection_request"
	TypeSelectionResponse = "selection_response"
)

// ItemKind classifies a selectable item. Container kinds (album, playlist,
// artist mix) may carry children; all others must not.
type ItemKind string

const (
	KindSimple    ItemKind = "simple"
	KindAlbum     ItemKind = "album"
	KindPlaylist  ItemKind = "playlist"
	KindArtistMix ItemKind = "artist_mix"
	KindTrack     ItemKind = "track"
	KindPlayer    ItemKind = "player"
)

// CanHaveChildren reports whether the kind is a container kind.
func (k ItemKind) CanHaveChildren() bool {
	switch k {
	case KindAlbum, KindPlaylist, KindArtistMix:
		return true
	}
	return false
}

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool {
	switch k {
	case KindSimple, KindAlbum, KindPlaylist, KindArtistMix, KindTrack, KindPlayer:
		return true
	}
	return false
}

// Child is a second-level entry under a container item. Children never
// carry their own children; the hierarchy is exactly two levels deep.
type Child struct {
	Text string   `json:"text"`
	Kind ItemKind `json:"type"`
	// Key identifies the child to the backend that produced it (a track
	// URI, a playlist entry id). Opaque to the protocol.
	Key string `json:"key,omitempty"`
}

// Item is a single selectable entry in a request.
type Item struct {
	Text     string   `json:"text"`
	Kind     ItemKind `json:"type"`
	Children []Child  `json:"children,omitempty"`
}

// Validate checks the container invariant: only album/playlist/artist_mix
// items may carry children.
func (it Item) Validate() error {
	if !it.Kind.Valid() {
		return fmt.Errorf("unknown item kind %q", it.Kind)
	}
	if len(it.Children) > 0 && !it.Kind.CanHaveChildren() {
		return fmt.Errorf("item kind %q must not carry children", it.Kind)
	}
	return nil
}

// SelectionRequest asks the picker to display a numbered list and return
// the user's choice.
type SelectionRequest struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Items []Item `json:"items"`
	Page  int    `json:"page"`
}

// Validate checks the request shape and every item's invariants.
func (r *SelectionRequest) Validate() error {
	if r.Type != TypeSelectionRequest {
		return fmt.Errorf("unexpected message type %q", r.Type)
	}
	if len(r.Items) == 0 {
		return fmt.Errorf("request carries no items")
	}
	for i, it := range r.Items {
		if err := it.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// SelectionResponse is the picker's answer to a SelectionRequest.
//
// Cancelled=true with ExplicitCancel=false means the request timed out or
// was superseded; ExplicitCancel=true means the user actively dismissed
// the picker. ChildIndex is nil unless the user descended into a
// container item.
type SelectionResponse struct {
	Type           string `json:"type"`
	Index          int    `json:"index"`
	Cancelled      bool   `json:"cancelled"`
	ChildIndex     *int   `json:"child_index"`
	ExplicitCancel bool   `json:"explicit_cancel"`

	// TimedOut is set only on responses the client synthesizes for a
	// local read timeout. It never travels on the wire; it lets callers
	// speak a distinct "timed out" message while a superseded request
	// (cancelled, not explicit, sent by the server) stays silent.
	TimedOut bool `json:"-"`
}

// CancelledResponse builds the synthetic response used for timeouts and
// supersession (cancelled, not explicit).
func CancelledResponse() *SelectionResponse {
	return &SelectionResponse{
		Type:      TypeSelectionResponse,
		Index:     -1,
		Cancelled: true,
	}
}

// WriteMessage encodes v as a single JSON line.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// ReadRequest reads one newline-terminated selection request from r and
// validates it.
func ReadRequest(r *bufio.Reader) (*SelectionRequest, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	var req SelectionRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}

// ReadResponse reads one newline-terminated selection response from r.
func ReadResponse(r *bufio.Reader) (*SelectionResponse, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var resp SelectionResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Type != TypeSelectionResponse {
		return nil, fmt.Errorf("unexpected message type %q", resp.Type)
	}
	return &resp, nil
}
