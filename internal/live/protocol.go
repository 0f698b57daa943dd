package live

// Message kinds sent by clients.
const (
	KindEvent    = "event"
	KindNavigate = "navigate"
	KindBack     = "back"
	KindForward  = "forward"
)

// Message is a client frame: a DOM event on a listener node or a history
// move.
type Message struct {
	Kind     string `json:"kind" msgpack:"kind"`
	Listener string `json:"listener,omitempty" msgpack:"listener,omitempty"`
	Event    string `json:"event,omitempty" msgpack:"event,omitempty"`
	Path     string `json:"path,omitempty" msgpack:"path,omitempty"`
}

// Update is a server frame carrying the re-rendered body.
type Update struct {
	Session   string `json:"session" msgpack:"session"`
	Path      string `json:"path" msgpack:"path"`
	Body      string `json:"body" msgpack:"body"`
	Prevented bool   `json:"prevented,omitempty" msgpack:"prevented,omitempty"`
	Error     string `json:"error,omitempty" msgpack:"error,omitempty"`
}
