package capture

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// callLog records platform calls in the order they happen.
type callLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	l.entries = append(l.entries, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// withPrefix returns entries starting with prefix.
func (l *callLog) withPrefix(prefix string) []string {
	var out []string
	for _, e := range l.all() {
		if strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

func (l *callLog) reset() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}

var (
	backCamera = Device{
		ID:       "back",
		Name:     "Back Camera",
		Kind:     MediaVideo,
		Position: PositionBack,
		Capabilities: Capabilities{
			FocusModes:              []FocusMode{FocusLocked, FocusAuto, FocusContinuousAutoFocus},
			ExposureModes:           []ExposureMode{ExposureLocked, ExposureAuto, ExposureContinuousAutoExposure},
			FlashModes:              []FlashMode{FlashOff, FlashOn, FlashAuto},
			TorchModes:              []TorchMode{TorchOff, TorchOn, TorchAuto},
			FocusPointOfInterest:    true,
			ExposurePointOfInterest: true,
			SmoothAutoFocus:         true,
		},
	}
	frontCamera = Device{
		ID:       "front",
		Name:     "Front Camera",
		Kind:     MediaVideo,
		Position: PositionFront,
		Capabilities: Capabilities{
			FocusModes:    []FocusMode{FocusContinuousAutoFocus},
			ExposureModes: []ExposureMode{ExposureContinuousAutoExposure},
			FlashModes:    []FlashMode{FlashOff},
			TorchModes:    []TorchMode{TorchOff},
		},
	}
	microphone = Device{
		ID:   "mic",
		Name: "Microphone",
		Kind: MediaAudio,
	}
)

type fakeInput struct {
	device Device
}

func (i *fakeInput) Device() Device { return i.device }

type fakeControl struct {
	id  string
	log *callLog

	mu        sync.Mutex
	lockErr   error
	failSet   map[string]error
	panicOn   string
	locked    bool
	locks     int
	unlocks   int
	modes     Modes
	observers map[int]func(bool)
	nextObs   int
	settled   bool // reported by IsAdjustingExposure
}

func newFakeControl(id string, log *callLog) *fakeControl {
	return &fakeControl{
		id:  id,
		log: log,
		modes: Modes{
			Focus:    FocusContinuousAutoFocus,
			Exposure: ExposureContinuousAutoExposure,
			Flash:    FlashOff,
			Torch:    TorchOff,
		},
		failSet:   map[string]error{},
		observers: map[int]func(bool){},
	}
}

func (f *fakeControl) LockForConfiguration() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lockErr != nil {
		f.log.add("lock_failed:%s", f.id)
		return f.lockErr
	}
	f.locked = true
	f.locks++
	f.log.add("lock:%s", f.id)
	return nil
}

func (f *fakeControl) UnlockForConfiguration() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked = false
	f.unlocks++
	f.log.add("unlock:%s", f.id)
}

// set records a setter call and applies it unless configured to fail.
func (f *fakeControl) set(name, value string, apply func()) error {
	f.mu.Lock()
	if !f.locked {
		f.mu.Unlock()
		panic("setter called without configuration lock: " + name)
	}
	f.log.add("%s:%s:%s", name, f.id, value)
	if f.panicOn == name {
		f.mu.Unlock()
		panic("device exploded in " + name)
	}
	defer f.mu.Unlock()
	if err := f.failSet[name]; err != nil {
		return err
	}
	if apply != nil {
		apply()
	}
	return nil
}

func (f *fakeControl) SetFocusMode(m FocusMode) error {
	return f.set("focus_mode", string(m), func() { f.modes.Focus = m })
}

func (f *fakeControl) SetFocusPoint(p Point) error {
	return f.set("focus_point", p.String(), nil)
}

func (f *fakeControl) SetExposureMode(m ExposureMode) error {
	return f.set("exposure_mode", string(m), func() { f.modes.Exposure = m })
}

func (f *fakeControl) SetExposurePoint(p Point) error {
	return f.set("exposure_point", p.String(), nil)
}

func (f *fakeControl) SetFlashMode(m FlashMode) error {
	return f.set("flash_mode", string(m), func() { f.modes.Flash = m })
}

func (f *fakeControl) SetTorchMode(m TorchMode) error {
	return f.set("torch_mode", string(m), func() { f.modes.Torch = m })
}

func (f *fakeControl) SetSmoothAutoFocus(enabled bool) error {
	return f.set("smooth_af", fmt.Sprint(enabled), nil)
}

func (f *fakeControl) Modes() Modes {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modes
}

func (f *fakeControl) IsAdjustingExposure() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.settled
}

func (f *fakeControl) ObserveAdjustingExposure(fn func(bool)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextObs
	f.nextObs++
	f.observers[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.observers, id)
		f.mu.Unlock()
	}
}

func (f *fakeControl) observerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.observers)
}

// emitAdjusting notifies every observer, as the device would from its own
// goroutine.
func (f *fakeControl) emitAdjusting(adjusting bool) {
	f.mu.Lock()
	fns := make([]func(bool), 0, len(f.observers))
	for _, fn := range f.observers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(adjusting)
	}
}

func (f *fakeControl) lockBalance() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locks, f.unlocks
}

type fakeSession struct {
	log *callLog

	mu       sync.Mutex
	reject   map[string]bool
	addErr   map[string]error
	startErr error
	inputs   []string
	starts   int
	stops    int
}

func (s *fakeSession) BeginConfiguration()  { s.log.add("begin") }
func (s *fakeSession) CommitConfiguration() { s.log.add("commit") }

func (s *fakeSession) CanAddInput(in Input) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.reject[in.Device().ID]
}

func (s *fakeSession) AddInput(in Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := in.Device().ID
	if err := s.addErr[id]; err != nil {
		return err
	}
	s.inputs = append(s.inputs, id)
	s.log.add("add:%s", id)
	return nil
}

func (s *fakeSession) RemoveInput(in Input) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := in.Device().ID
	for i, v := range s.inputs {
		if v == id {
			s.inputs = append(s.inputs[:i], s.inputs[i+1:]...)
			break
		}
	}
	s.log.add("remove:%s", id)
}

func (s *fakeSession) SetPreset(p Preset) error {
	s.log.add("preset:%s", p)
	return nil
}

func (s *fakeSession) StartRunning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startErr != nil {
		return s.startErr
	}
	s.starts++
	s.log.add("start")
	return nil
}

func (s *fakeSession) StopRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
	s.log.add("stop")
}

func (s *fakeSession) attached() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.inputs...)
}

type fakePhoto struct {
	mu         sync.Mutex
	requestErr error
	deliverErr error
	requests   []Orientation
}

func (p *fakePhoto) CaptureStillImage(o Orientation, done func(Image, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.requestErr != nil {
		return p.requestErr
	}
	p.requests = append(p.requests, o)
	if p.deliverErr != nil {
		go done(Image{}, p.deliverErr)
		return nil
	}
	img := Image{Data: []byte{0xff, 0xd8}, Format: "jpeg", Width: 4, Height: 3, Orientation: o, CapturedAt: time.Now()}
	go done(img, nil)
	return nil
}

type fakeMovie struct {
	mu       sync.Mutex
	startErr error
	stopErr  error
	path     string
	delegate RecordingDelegate
	starts   int
	stops    int
}

func (m *fakeMovie) StartRecording(path string, _ Orientation, d RecordingDelegate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.starts++
	m.path = path
	m.delegate = d
	return nil
}

func (m *fakeMovie) StopRecording() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopErr != nil {
		return m.stopErr
	}
	m.stops++
	return nil
}

func (m *fakeMovie) confirmStart() {
	m.mu.Lock()
	d, path := m.delegate, m.path
	m.mu.Unlock()
	d.DidStartRecording(path)
}

func (m *fakeMovie) finish(err error) {
	m.mu.Lock()
	d, path := m.delegate, m.path
	m.mu.Unlock()
	d.DidFinishRecording(path, 2*time.Second, err)
}

type fakePlatform struct {
	log      *callLog
	devices  []Device
	controls map[string]*fakeControl
	inputErr map[string]error
	session  *fakeSession
	photo    *fakePhoto
	movie    *fakeMovie
}

func newFakePlatform(devices ...Device) *fakePlatform {
	if len(devices) == 0 {
		devices = []Device{backCamera, frontCamera, microphone}
	}
	log := &callLog{}
	p := &fakePlatform{
		log:      log,
		devices:  devices,
		controls: map[string]*fakeControl{},
		inputErr: map[string]error{},
		session:  &fakeSession{log: log, reject: map[string]bool{}, addErr: map[string]error{}},
		photo:    &fakePhoto{},
		movie:    &fakeMovie{},
	}
	for _, d := range devices {
		if d.Kind == MediaVideo {
			p.controls[d.ID] = newFakeControl(d.ID, log)
		}
	}
	return p
}

func (p *fakePlatform) Devices(kind MediaKind) []Device {
	var out []Device
	for _, d := range p.devices {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func (p *fakePlatform) Control(id string) (DeviceControl, error) {
	c, ok := p.controls[id]
	if !ok {
		return nil, errors.New("no such device")
	}
	return c, nil
}

func (p *fakePlatform) NewInput(d Device) (Input, error) {
	if err := p.inputErr[d.ID]; err != nil {
		return nil, err
	}
	return &fakeInput{device: d}, nil
}

func (p *fakePlatform) Session() Session         { return p.session }
func (p *fakePlatform) PhotoOutput() PhotoOutput { return p.photo }
func (p *fakePlatform) MovieOutput() MovieOutput { return p.movie }

// recordingSink captures every event in arrival order.
type recordingSink struct {
	mu       sync.Mutex
	events   []string
	errs     []*Error
	images   []Image
	states   []State
	finished []error
}

func (s *recordingSink) record(format string, args ...any) {
	s.mu.Lock()
	s.events = append(s.events, fmt.Sprintf(format, args...))
	s.mu.Unlock()
}

func (s *recordingSink) OnError(err *Error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	s.record("error:%s", err.Kind)
}

func (s *recordingSink) OnCameraWillSwitch(from Position) { s.record("will_switch:%s", from) }
func (s *recordingSink) OnCameraDidSwitch(to Position)    { s.record("did_switch:%s", to) }

func (s *recordingSink) OnStillImage(img Image) {
	s.mu.Lock()
	s.images = append(s.images, img)
	s.mu.Unlock()
	s.record("still_image")
}

func (s *recordingSink) OnRecordingStarted(path string) { s.record("recording_started") }

func (s *recordingSink) OnRecordingProgress(path string, d time.Duration) {
	s.record("recording_progress")
}

func (s *recordingSink) OnRecordingFinished(path string, d time.Duration, err error) {
	s.mu.Lock()
	s.finished = append(s.finished, err)
	s.mu.Unlock()
	s.record("recording_finished")
}

func (s *recordingSink) OnOrientationChanged(prev, cur Orientation) {
	s.record("orientation:%s->%s", prev, cur)
}

func (s *recordingSink) OnStateChanged(st State) {
	s.mu.Lock()
	s.states = append(s.states, st)
	s.mu.Unlock()
}

func (s *recordingSink) errors() []*Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Error(nil), s.errs...)
}

// eventList returns events, excluding progress ticks.
func (s *recordingSink) eventList() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events {
		if e != "recording_progress" {
			out = append(out, e)
		}
	}
	return out
}

func (s *recordingSink) count(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e == event {
			n++
		}
	}
	return n
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	s.events = nil
	s.errs = nil
	s.mu.Unlock()
}
