package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Webhook object type for Instagram comment traffic. Deliveries for other
// products (pages, whatsapp, etc) share the same envelope shape and are
// skipped, not rejected.
const ObjectInstagram = "instagram"

// Only changes with this field discriminator are processed.
const FieldComments = "comments"

// One inbound webhook HTTP call. May carry several independent entries.
type Delivery struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// One top-level item within a delivery.
type Entry struct {
	ID      string   `json:"id"`
	Time    int64    `json:"time"`
	Changes []Change `json:"changes"`
}

// A single change within an entry. Value is decoded lazily so that one
// unrecognized change shape can't abort processing of its siblings.
type Change struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type commentValue struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	From struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"from"`
	Media struct {
		ID    string `json:"id"`
		Owner struct {
			ID string `json:"id"`
		} `json:"owner"`
	} `json:"media"`
}

// A comment on a media item, in canonical form. Immutable once constructed.
//
// Text is folded to lower-case at construction: the only downstream consumer
// is case-insensitive keyword matching, and folding once avoids repeated
// transformation per rule.
type CommentEvent struct {
	CommentID      string
	MediaID        string
	OwnerAccountID string
	CommenterID    string
	Text           string
}

// Indicates an entry or change which was recognized as traffic but carries
// nothing for the automation engine to act on. Not an error.
type Skip struct {
	Reason string
}

func (s *Skip) String() string {
	return s.Reason
}

// Parses the raw body of a webhook delivery.
func ParseDelivery(body []byte) (*Delivery, error) {
	var d Delivery
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("parsing webhook delivery: %w", err)
	}
	return &d, nil
}

// Converts a single webhook change into a canonical CommentEvent, or an
// explicit Skip. Pure transform: no side effects, and malformed values are
// reported as skips with a diagnostic reason, never as errors or panics.
func NormalizeChange(object string, change Change) (*CommentEvent, *Skip) {
	if object != ObjectInstagram {
		return nil, &Skip{Reason: fmt.Sprintf("unsupported webhook object: %s", object)}
	}
	if change.Field != FieldComments {
		return nil, &Skip{Reason: fmt.Sprintf("ignored change field: %s", change.Field)}
	}

	var val commentValue
	if err := json.Unmarshal(change.Value, &val); err != nil {
		return nil, &Skip{Reason: "unparseable comment change value"}
	}

	switch {
	case val.ID == "":
		return nil, &Skip{Reason: "comment change missing comment id"}
	case val.Media.ID == "":
		return nil, &Skip{Reason: "comment change missing media id"}
	case val.Media.Owner.ID == "":
		return nil, &Skip{Reason: "comment change missing media owner id"}
	case val.From.ID == "":
		return nil, &Skip{Reason: "comment change missing commenter id"}
	case val.Text == "":
		return nil, &Skip{Reason: "comment change missing text"}
	}

	return &CommentEvent{
		CommentID:      val.ID,
		MediaID:        val.Media.ID,
		OwnerAccountID: val.Media.Owner.ID,
		CommenterID:    val.From.ID,
		Text:           strings.ToLower(val.Text),
	}, nil
}
