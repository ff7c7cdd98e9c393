package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"sort"
	"strings"
	"sync"
	"time"
)

// simFolder is where the simulated device stores its images.
const simFolder = "/store_00020001/DCIM/100CANON"

// SimOptions script a simulated device link.
type SimOptions struct {
	// TriggerLatency is the delay between a trigger and the first
	// file-added event it produces.
	TriggerLatency time.Duration
	// CompleteAfter is the gap between the last file event of a cycle
	// and its capture-complete event.
	CompleteAfter time.Duration
	// FilesPerTrigger is how many files one trigger produces, as a
	// raw+jpeg pair would. Defaults to 1.
	FilesPerTrigger int
	// BurstInterval is the cadence of file events while the shutter is
	// held. Zero means one file per press/release cycle, produced at
	// release time.
	BurstInterval time.Duration
	// ShotSizes cycles through the produced image sizes. A zero entry
	// produces an empty file; any other value a small valid JPEG. Nil
	// means every shot is a valid JPEG.
	ShotSizes []int
	// FailTriggers makes the first N triggers start nothing, exercising
	// the retry policy.
	FailTriggers int
	// FailPuts makes the next N config pushes fail at the transport.
	FailPuts int
	// CompleteWithoutFile reports capture-complete without any file
	// event. Coordinators must treat that as a protocol violation.
	CompleteWithoutFile bool
	// PreviewNotReadyEvery makes every Nth preview read report not-ready.
	PreviewNotReadyEvery int
	// Tree overrides the default simulated config tree.
	Tree *Widget
}

// SimStats is a snapshot of the interaction counters a SimLink keeps.
type SimStats struct {
	TreeReads    int
	TreePuts     int
	Triggers     int
	Presses      int
	Releases     int
	FilesDeleted int
	// FocusMoves lists every manual focus drive value written.
	FocusMoves []string
	// DeliveredBeforeRelease counts the file events handed out while the
	// shutter was held in the last press cycle.
	DeliveredBeforeRelease int
	// Hold is the press-to-release wall time of the last cycle.
	Hold time.Duration
}

type timedEvent struct {
	at time.Time
	ev Event
}

// SimLink is an in-memory Link scripted for tests and the simulated
// runtime. Files live in a map, events follow a wall-clock schedule and
// every hardware interaction is counted.
type SimLink struct {
	opts SimOptions

	mu        sync.Mutex
	inited    bool
	tree      *Widget
	files     map[string][]byte
	queue     []timedEvent
	pressed   bool
	pressedAt time.Time
	burstSeq  int
	shotSeq   int
	sizeIdx   int

	shotBytes    []byte
	previewBytes []byte
	previewReads int

	stats SimStats
}

// NewSimLink builds a simulated device. Zero options get defaults that
// behave like a quick real camera.
func NewSimLink(opts SimOptions) *SimLink {
	if opts.TriggerLatency <= 0 {
		opts.TriggerLatency = 50 * time.Millisecond
	}
	if opts.CompleteAfter <= 0 {
		opts.CompleteAfter = 20 * time.Millisecond
	}
	if opts.FilesPerTrigger <= 0 {
		opts.FilesPerTrigger = 1
	}
	tree := opts.Tree
	if tree == nil {
		tree = DefaultSimTree()
	}
	return &SimLink{
		opts:         opts,
		tree:         tree,
		files:        make(map[string][]byte),
		shotBytes:    makeJPEG(640, 480, color.RGBA{R: 0x2e, G: 0x34, B: 0x40, A: 0xff}),
		previewBytes: makeJPEG(320, 240, color.RGBA{R: 0x4c, G: 0x56, B: 0x6a, A: 0xff}),
	}
}

func (s *SimLink) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inited {
		return fmt.Errorf("device link already initialized")
	}
	s.inited = true
	return nil
}

func (s *SimLink) Exit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inited = false
	s.pressed = false
	s.queue = nil
	return nil
}

func (s *SimLink) GetConfigTree() (*Widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return nil, fmt.Errorf("device link not initialized")
	}
	s.stats.TreeReads++
	return s.tree.Clone(), nil
}

func (s *SimLink) PutConfigTree(tree *Widget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return fmt.Errorf("device link not initialized")
	}
	if s.opts.FailPuts > 0 {
		s.opts.FailPuts--
		return fmt.Errorf("I/O problem while writing device config")
	}
	s.stats.TreePuts++
	now := time.Now()
	if w := tree.Find("eosremoterelease"); w != nil {
		switch v, _ := w.Value.(string); {
		case v == "Press Full" && !s.pressed:
			s.pressLocked(now)
		case v == "Release Full" && s.pressed:
			s.releaseLocked(now)
		}
	}
	if w := tree.Find("manualfocusdrive"); w != nil {
		if v, ok := w.Value.(string); ok && v != "None" {
			s.stats.FocusMoves = append(s.stats.FocusMoves, v)
		}
	}
	s.tree = tree.Clone()
	// Action fields snap back on the device; they never read back as the
	// committed value.
	for _, action := range []string{"eosremoterelease", "manualfocusdrive"} {
		if w := s.tree.Find(action); w != nil {
			w.Value = "None"
		}
	}
	return nil
}

func (s *SimLink) TriggerCapture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return fmt.Errorf("device link not initialized")
	}
	s.stats.Triggers++
	if s.opts.FailTriggers > 0 {
		// The command is accepted but the capture silently never starts.
		s.opts.FailTriggers--
		return nil
	}
	now := time.Now()
	if s.opts.CompleteWithoutFile {
		s.queue = append(s.queue, timedEvent{
			at: now.Add(s.opts.TriggerLatency),
			ev: Event{Kind: EventCaptureComplete},
		})
		return nil
	}
	at := now.Add(s.opts.TriggerLatency)
	for i := 0; i < s.opts.FilesPerTrigger; i++ {
		s.queue = append(s.queue, timedEvent{at: at, ev: s.materializeShotLocked()})
		at = at.Add(2 * time.Millisecond)
	}
	s.queue = append(s.queue, timedEvent{
		at: at.Add(s.opts.CompleteAfter),
		ev: Event{Kind: EventCaptureComplete},
	})
	return nil
}

func (s *SimLink) WaitForEvent(timeout time.Duration) (Event, error) {
	s.mu.Lock()
	if !s.inited {
		s.mu.Unlock()
		return Event{}, fmt.Errorf("device link not initialized")
	}
	deadline := time.Now().Add(timeout)
	ev, at, ok := s.popNextLocked(deadline)
	if ok && ev.Kind == EventFileAdded && s.pressed {
		s.stats.DeliveredBeforeRelease++
	}
	s.mu.Unlock()
	if !ok {
		time.Sleep(timeout)
		return Event{Kind: EventTimeout}, nil
	}
	if d := time.Until(at); d > 0 {
		time.Sleep(d)
	}
	return ev, nil
}

func (s *SimLink) GetFile(folder, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return nil, fmt.Errorf("device link not initialized")
	}
	data, ok := s.files[folder+"/"+name]
	if !ok {
		return nil, fmt.Errorf("no such file on device: %s/%s", folder, name)
	}
	return data, nil
}

func (s *SimLink) DeleteFile(folder, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return fmt.Errorf("device link not initialized")
	}
	key := folder + "/" + name
	if _, ok := s.files[key]; !ok {
		return fmt.Errorf("no such file on device: %s/%s", folder, name)
	}
	delete(s.files, key)
	s.stats.FilesDeleted++
	return nil
}

func (s *SimLink) CapturePreview() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inited {
		return nil, fmt.Errorf("device link not initialized")
	}
	s.previewReads++
	if n := s.opts.PreviewNotReadyEvery; n > 0 && s.previewReads%n == 0 {
		return nil, ErrNotReady
	}
	return s.previewBytes, nil
}

// Stats returns a copy of the interaction counters.
func (s *SimLink) Stats() SimStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.stats
	out.FocusMoves = append([]string(nil), s.stats.FocusMoves...)
	return out
}

// DeviceFiles lists the files currently in device storage, sorted.
func (s *SimLink) DeviceFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.files))
	for k := range s.files {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DeviceValue reads a field straight from the simulated device state,
// bypassing the read counters.
func (s *SimLink) DeviceValue(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.tree.Find(name)
	if w == nil {
		return nil, false
	}
	return w.Value, true
}

func (s *SimLink) pressLocked(now time.Time) {
	s.pressed = true
	s.pressedAt = now
	s.burstSeq = 0
	s.stats.Presses++
	s.stats.DeliveredBeforeRelease = 0
}

func (s *SimLink) releaseLocked(now time.Time) {
	if s.opts.BurstInterval > 0 {
		// Shots whose time already passed but were never waited on still
		// happened; queue them for the drain loop.
		for {
			shotAt := s.pressedAt.Add(time.Duration(s.burstSeq+1) * s.opts.BurstInterval)
			if shotAt.After(now) {
				break
			}
			s.burstSeq++
			s.queue = append(s.queue, timedEvent{at: shotAt, ev: s.materializeShotLocked()})
		}
	} else {
		// A plain press/release cycle exposes one frame, written on
		// release.
		s.queue = append(s.queue, timedEvent{at: now, ev: s.materializeShotLocked()})
	}
	s.pressed = false
	s.stats.Releases++
	s.stats.Hold = now.Sub(s.pressedAt)
	s.queue = append(s.queue, timedEvent{
		at: now.Add(s.opts.CompleteAfter),
		ev: Event{Kind: EventCaptureComplete},
	})
}

// popNextLocked picks the earliest deliverable event at or before
// deadline, materializing burst shots lazily from their schedule.
func (s *SimLink) popNextLocked(deadline time.Time) (Event, time.Time, bool) {
	bestIdx := -1
	var bestAt time.Time
	for i, te := range s.queue {
		if bestIdx == -1 || te.at.Before(bestAt) {
			bestIdx = i
			bestAt = te.at
		}
	}
	if s.pressed && s.opts.BurstInterval > 0 {
		shotAt := s.pressedAt.Add(time.Duration(s.burstSeq+1) * s.opts.BurstInterval)
		if bestIdx == -1 || shotAt.Before(bestAt) {
			if shotAt.After(deadline) {
				return Event{}, time.Time{}, false
			}
			s.burstSeq++
			return s.materializeShotLocked(), shotAt, true
		}
	}
	if bestIdx >= 0 && !bestAt.After(deadline) {
		te := s.queue[bestIdx]
		s.queue = append(s.queue[:bestIdx], s.queue[bestIdx+1:]...)
		return te.ev, te.at, true
	}
	return Event{}, time.Time{}, false
}

// materializeShotLocked creates the next image file in device storage
// and returns its file-added event. Queueing is up to the caller.
func (s *SimLink) materializeShotLocked() Event {
	s.shotSeq++
	ext := ".JPG"
	if w := s.tree.Find("imageformat"); w != nil {
		if v, ok := w.Value.(string); ok && strings.Contains(v, "RAW") {
			ext = ".CR3"
		}
	}
	name := fmt.Sprintf("IMG_%04d%s", s.shotSeq, ext)
	data := s.shotBytes
	if len(s.opts.ShotSizes) > 0 {
		if s.opts.ShotSizes[s.sizeIdx%len(s.opts.ShotSizes)] == 0 {
			data = nil
		}
		s.sizeIdx++
	}
	s.files[simFolder+"/"+name] = data
	return Event{Kind: EventFileAdded, Folder: simFolder, Name: name}
}

// DefaultSimTree models a small but realistic slice of a Canon R6-class
// configuration tree.
func DefaultSimTree() *Widget {
	radio := func(name, label, value string, choices ...string) *Widget {
		return &Widget{Name: name, Label: label, Kind: KindRadio, Value: value, Choices: choices}
	}
	text := func(name, label, value string) *Widget {
		return &Widget{Name: name, Label: label, Kind: KindText, Value: value}
	}
	return &Widget{
		Name: "main", Label: "Camera and Driver Configuration", Kind: KindWindow,
		Children: []*Widget{
			{
				Name: "actions", Label: "Camera Actions", Kind: KindSection,
				Children: []*Widget{
					radio("eosremoterelease", "Canon EOS Remote Release", "None",
						"None", "Press Half", "Press Full", "Release Half", "Release Full", "Immediate"),
					radio("manualfocusdrive", "Drive Canon DSLR Manual focus", "None",
						"Near 1", "Near 2", "Near 3", "None", "Far 1", "Far 2", "Far 3"),
					{Name: "autofocusdrive", Label: "Drive Canon DSLR Autofocus", Kind: KindToggle, Value: 0},
					{Name: "viewfinder", Label: "Canon EOS Viewfinder", Kind: KindToggle, Value: 0},
				},
			},
			{
				Name: "settings", Label: "Camera Settings", Kind: KindSection,
				Children: []*Widget{
					radio("capturetarget", "Capture Target", "Internal RAM",
						"Internal RAM", "Memory card"),
					{Name: "datetimeutc", Label: "Camera Date and Time", Kind: KindDate, Value: 1724572800},
					text("autopoweroff", "Auto Power Off", "0"),
				},
			},
			{
				Name: "status", Label: "Camera Status Information", Kind: KindSection,
				Children: []*Widget{
					text("serialnumber", "Serial Number", "123456789012"),
					text("batterylevel", "Battery Level", "100%"),
					text("lensname", "Lens Name", "RF24-105mm F4 L IS USM"),
				},
			},
			{
				Name: "imgsettings", Label: "Image Settings", Kind: KindSection,
				Children: []*Widget{
					radio("iso", "ISO Speed", "400",
						"Auto", "100", "200", "400", "800", "1600", "3200", "6400", "12800"),
					radio("imageformat", "Image Format", "Large Fine JPEG",
						"Large Fine JPEG", "RAW + Large Fine JPEG", "RAW", "cRAW"),
					radio("whitebalance", "WhiteBalance", "Auto",
						"Auto", "Daylight", "Shadow", "Cloudy", "Tungsten", "Fluorescent", "Flash"),
				},
			},
			{
				Name: "capturesettings", Label: "Capture Settings", Kind: KindSection,
				Children: []*Widget{
					radio("aperture", "Aperture", "5.6",
						"4", "4.5", "5", "5.6", "6.3", "7.1", "8", "11", "16", "22"),
					radio("shutterspeed", "Shutter Speed", "1/125",
						"bulb", "30", "15", "8", "4", "2", "1", "1/2", "1/4", "1/15", "1/60", "1/125", "1/250", "1/1000", "1/4000", "1/8000"),
					radio("drivemode", "Drive Mode", "Single",
						"Single", "Continuous high speed", "Continuous low speed", "Timer 10 sec", "Timer 2 sec"),
					radio("exposurecompensation", "Exposure Compensation", "0",
						"-3", "-2", "-1", "0", "1", "2", "3"),
					radio("focusmode", "Focus Mode", "One Shot",
						"One Shot", "AI Focus", "AI Servo"),
				},
			},
		},
	}
}

func makeJPEG(w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
