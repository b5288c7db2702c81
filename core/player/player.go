package player

import "sync"

// State is the playback state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// Track is the subset of track data the player needs.
type Track struct {
	ID      int64
	Title   string
	FileURL string
}

// Output abstracts the single shared audio sink. Exactly one source is
// loaded at a time; setting a new source implicitly stops the previous one.
type Output interface {
	SetSource(url string)
	Play()
	Pause()
	SeekTo(seconds float64)
}

// Status is a snapshot of the player.
type Status struct {
	Track    *Track
	State    State
	Position float64
	Duration float64
}

// Player drives the shared audio output. Construct one per application (or
// per test) with New; there is no package-level instance.
//
// State machine: Idle→Loading on PlayTrack, Loading→Playing once the sink
// reports enough buffered data, Playing↔Paused via Pause/Resume, any playing
// state→Loading on buffer starvation, Playing→Idle on natural end.
type Player struct {
	mu  sync.Mutex
	out Output

	state    State
	current  *Track
	position float64
	duration float64
	buffered bool // sink has reported enough data for the current source
}

// New creates a Player bound to an output sink.
func New(out Output) *Player {
	return &Player{out: out, state: StateIdle}
}

// PlayTrack starts playback of a track. A different track swaps the source
// and rewinds to zero. The same track resumes in place unless forceRestart
// is set, which rewinds to zero first.
func (p *Player) PlayTrack(t Track, forceRestart bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil || p.current.ID != t.ID {
		tc := t
		p.current = &tc
		p.position = 0
		p.duration = 0
		p.buffered = false
		p.out.SetSource(t.FileURL)
		p.out.Play()
		p.state = StateLoading
		return
	}

	if forceRestart {
		p.position = 0
		p.out.SeekTo(0)
	}
	p.out.Play()
	if p.buffered {
		p.state = StatePlaying
	} else {
		p.state = StateLoading
	}
}

// Pause suspends playback without altering source or position.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}
	p.out.Pause()
	p.state = StatePaused
}

// Resume continues playback of the current track.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}
	p.out.Play()
	if p.buffered {
		p.state = StatePlaying
	} else {
		p.state = StateLoading
	}
}

// SeekTo moves the playhead. The position updates immediately rather than
// waiting for the sink's position event. Negative targets clamp to zero;
// targets past the duration are passed through to the sink unchanged.
func (p *Player) SeekTo(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	p.position = seconds
	p.out.SeekTo(seconds)
}

// OnCanPlay handles the sink's buffered-enough signal.
func (p *Player) OnCanPlay() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buffered = true
	if p.state == StateLoading {
		p.state = StatePlaying
	}
}

// OnWaiting handles buffer starvation during playback.
func (p *Player) OnWaiting() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buffered = false
	if p.state == StatePlaying {
		p.state = StateLoading
	}
}

// OnLoadedMetadata records the track duration reported by the sink.
func (p *Player) OnLoadedMetadata(duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.duration = duration
}

// OnTimeUpdate records the playhead position reported by the sink.
func (p *Player) OnTimeUpdate(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.position = seconds
}

// OnEnded handles the natural end of the current track.
func (p *Player) OnEnded() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = StateIdle
}

// Status returns a snapshot of the player.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	var t *Track
	if p.current != nil {
		tc := *p.current
		t = &tc
	}
	return Status{
		Track:    t,
		State:    p.state,
		Position: p.position,
		Duration: p.duration,
	}
}
