// Package live hosts one browser tab's session state machine and view gate on
// the server and streams the resulting view changes to the tab over a websocket.
package live

// FrameKind identifies a server-to-browser frame.
type FrameKind string

const (
	FrameLoading      FrameKind = "loading"
	FrameCountdown    FrameKind = "countdown"
	FrameContent      FrameKind = "content"
	FrameWithhold     FrameKind = "withhold"
	FrameNavigate     FrameKind = "navigate"
	FrameToken        FrameKind = "token"
	FrameClearToken   FrameKind = "clear-token"
	FrameSignInResult FrameKind = "sign-in-result"
)

// Frame is a server-to-browser instruction. Only the fields relevant to Kind are set.
type Frame struct {
	Kind    FrameKind `json:"kind"`
	Seconds int       `json:"seconds,omitempty"`
	Page    string    `json:"page,omitempty"`
	HTML    string    `json:"html,omitempty"`
	To      string    `json:"to,omitempty"`
	Ticket  string    `json:"ticket,omitempty"`
	OK      bool      `json:"ok,omitempty"`
	Message string    `json:"message,omitempty"`
}

// MessageType identifies a browser-to-server message.
type MessageType string

const (
	MessageRoute     MessageType = "route"
	MessageSignIn    MessageType = "sign-in"
	MessageSignOut   MessageType = "sign-out"
	MessageCheckAuth MessageType = "check-auth"
)

// Message is a browser-to-server event.
type Message struct {
	Type     MessageType `json:"type"`
	Path     string      `json:"path,omitempty"`
	Email    string      `json:"email,omitempty"`
	Password string      `json:"password,omitempty"`
}
