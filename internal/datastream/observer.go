package datastream

// Observer receives notifications while a stream is built. Implementations
// attached to a shared Encoder must be safe for concurrent use.
type Observer interface {
	// OnRecord is called after each record is appended; size includes the
	// tag, separator and trailing newline.
	OnRecord(tag Tag, size int)
	// OnFallback is called when a payload had to be replaced by its fallback.
	OnFallback(tag Tag, err error)
}

type nopObserver struct{}

func (nopObserver) OnRecord(Tag, int)     {}
func (nopObserver) OnFallback(Tag, error) {}

// Stats counts the records of a single encode call. Not safe for concurrent use.
type Stats struct {
	TextRecords     int
	ToolCallRecords int
	FinishRecords   int
	Fallbacks       int
	Bytes           int
	LastError       error
}

// OnRecord implements Observer.
func (s *Stats) OnRecord(tag Tag, size int) {
	switch tag {
	case TagText:
		s.TextRecords++
	case TagToolCall:
		s.ToolCallRecords++
	case TagFinish:
		s.FinishRecords++
	}
	s.Bytes += size
}

// OnFallback implements Observer.
func (s *Stats) OnFallback(_ Tag, err error) {
	s.Fallbacks++
	s.LastError = err
}

// Records returns the total number of records written.
func (s *Stats) Records() int {
	return s.TextRecords + s.ToolCallRecords + s.FinishRecords
}

type multiObserver []Observer

func (m multiObserver) OnRecord(tag Tag, size int) {
	for _, o := range m {
		o.OnRecord(tag, size)
	}
}

func (m multiObserver) OnFallback(tag Tag, err error) {
	for _, o := range m {
		o.OnFallback(tag, err)
	}
}
