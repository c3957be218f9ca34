package vision

// StubCamera is a black-frame generator, the camera the controller binary
// runs with since no hardware camera backend is bundled (see --camera-stub).
type StubCamera struct {
	Width, Height int
	connected     bool
}

var _ Camera = (*StubCamera)(nil)

// NewStubCamera returns a StubCamera already marked connected.
func NewStubCamera(width, height int) *StubCamera {
	return &StubCamera{Width: width, Height: height, connected: true}
}

func (c *StubCamera) Read() (Frame, bool) {
	if !c.connected {
		return Frame{}, false
	}
	return Frame{
		Width:  c.Width,
		Height: c.Height,
		Gray:   make([]byte, c.Width*c.Height), // all zero: uniformly black
	}, true
}

func (c *StubCamera) Connected() bool { return c.connected }

func (c *StubCamera) Close() error {
	c.connected = false
	return nil
}

// SetConnected lets tests simulate a disconnect.
func (c *StubCamera) SetConnected(v bool) { c.connected = v }
