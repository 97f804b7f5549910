package wizard

// Frame message types understood by the embedding page. The widget runs
// in an iframe; the host page listens for these and resizes the frame or
// records conversion events.
const (
	MessageTypeHeight = "FF_CALC_HEIGHT"
	MessageTypeEvent  = "FF_CALC_EVENT"

	EventLeadSubmitted = "lead_submitted"
)

// FrameMessage is one notification for the embedding page. A height
// message carries no measurement; it tells the host to re-measure the
// frame after a step transition. An event message names the event and,
// for lead_submitted, the computed total.
type FrameMessage struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Total int    `json:"total,omitempty"`
}
