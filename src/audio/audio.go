package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/hajimehoshi/oto"
)

const (
	sampleRate      = 48000
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024 // multiple of BlockSamples
	poolSize        = 4
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096

// ----- Utility ----- //

func now() float64 {
	return float64(time.Now().UnixNano()) / 1000 / 1000 / 1000
}
func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- State ----- //

type state struct {
	sync.Mutex
	params   *params
	dc       *DC
	pending  []int16 // rendered but not yet read, cap: samplesPerCycle + BlockSamples
	dropped  int64   // blocks the pool could not provide
	lastRead float64
	lastNote int
}

func newState() *state {
	s := &state{
		params:   newParams(),
		pending:  make([]int16, 0, samplesPerCycle+BlockSamples),
		lastNote: -1,
	}
	pool := NewPool(poolSize, func(b *Block) {
		n := len(s.pending)
		if cap(s.pending) < n+BlockSamples {
			grown := make([]int16, n, 2*(n+BlockSamples))
			copy(grown, s.pending)
			s.pending = grown
		}
		s.pending = s.pending[:n+BlockSamples]
		b.Samples(s.pending[n:])
	})
	s.dc = NewDC(pool, WithSampleRate(sampleRate))
	return s
}

// render fills out from the generator, rendering blocks as needed.
func (s *state) render(out []int16) {
	for len(s.pending) < len(out) {
		if !s.dc.Update() {
			s.dropped++
			break
		}
	}
	n := copy(out, s.pending)
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	s.pending = s.pending[:copy(s.pending, s.pending[n:])]
}

// ----- Audio ----- //

// Audio ...
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	state      *state
	presets    *presetManager
	out        []int16 // length: samplesPerCycle
}

var _ io.Reader = (*Audio)(nil)

type audioJSON struct {
	Params json.RawMessage `json:"params"`
}

// ApplyJSON ...
func (a *Audio) ApplyJSON(data []byte) {
	a.state.Lock()
	defer a.state.Unlock()
	var audioJSON audioJSON
	err := json.Unmarshal(data, &audioJSON)
	if err != nil {
		log.Println("failed to apply JSON to Audio", err)
		return
	}
	a.state.params.applyJSON(audioJSON.Params)
	a.applyParams()
}

// ToJSON ...
func (a *Audio) ToJSON() []byte {
	a.state.Lock()
	defer a.state.Unlock()
	bytes, err := json.Marshal(&audioJSON{Params: a.state.params.toJSON()})
	if err != nil {
		panic(err)
	}
	return bytes
}

func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		a.state.Lock()
		defer a.state.Unlock()
		bufSamples := len(buf) / bytesPerSample
		if cap(a.out) < bufSamples {
			a.out = make([]int16, bufSamples)
		}
		out := a.out[:bufSamples]
		a.state.render(out)
		writeBuffer(out, buf, 0)
		writeBuffer(out, buf, 1)
		a.state.lastRead = now()
		return bufSamples * bytesPerSample, nil
	}
}

func writeBuffer(out []int16, buf []byte, ch int) {
	for i, b := range out {
		buf[bytesPerSample*i+2*ch] = byte(b)
		buf[bytesPerSample*i+2*ch+1] = byte(b >> 8)
	}
}

// NewAudio ...
func NewAudio(presetDir string) (*Audio, error) {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	audio := newAudio(presetDir)
	audio.otoContext = otoContext
	go processCommands(audio, audio.CommandCh)
	return audio, nil
}

func newAudio(presetDir string) *Audio {
	audio := &Audio{
		ctx:       context.Background(),
		CommandCh: make(chan []string, 256),
		state:     newState(),
		out:       make([]int16, samplesPerCycle),
	}
	if presetDir != "" {
		audio.presets = newPresetManager(presetDir)
	}
	return audio
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.update(command); err != nil {
			log.Printf("failed to process command %v: %v\n", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

func (a *Audio) update(command []string) error {
	if len(command) == 0 {
		return fmt.Errorf("empty command")
	}
	a.state.Lock()
	defer a.state.Unlock()

	switch command[0] {
	case "set":
		command = command[1:]
		if len(command) != 2 {
			return fmt.Errorf("invalid key-value pair %v", command)
		}
		if err := a.state.params.set(command[0], command[1]); err != nil {
			return err
		}
		switch command[0] {
		case "mode":
			return a.state.dc.SetMode(a.state.params.mode)
		case "level":
			a.state.dc.Glide(a.state.params.level, a.state.params.glideTime)
		}
	case "level":
		value, err := parseArg(command, 1)
		if err != nil {
			return err
		}
		a.state.params.level = value
		a.state.dc.Amplitude(value)
	case "glide":
		value, err := parseArg(command, 1)
		if err != nil {
			return err
		}
		millis, err := parseArg(command, 2)
		if err != nil {
			return err
		}
		a.state.params.level = value
		a.state.dc.Glide(value, millis)
	case "preset":
		if len(command) != 2 {
			return fmt.Errorf("preset name is missing")
		}
		if a.presets == nil {
			return fmt.Errorf("preset directory is not configured")
		}
		if err := a.presets.applyToParams(command[1], a.state.params); err != nil {
			return err
		}
		a.applyParams()
	case "note_on":
		note, err := parseArg(command, 1)
		if err != nil {
			return err
		}
		velocity, err := parseArg(command, 2)
		if err != nil {
			return err
		}
		a.noteOn(int(note), int(velocity))
	case "note_off":
		note, err := parseArg(command, 1)
		if err != nil {
			return err
		}
		a.noteOff(int(note))
	default:
		return fmt.Errorf("unknown command %v", command[0])
	}
	return nil
}

func parseArg(command []string, i int) (float64, error) {
	if len(command) <= i {
		return 0, fmt.Errorf("%s: missing argument %d", command[0], i)
	}
	value, err := strconv.ParseFloat(command[i], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", command[0], err)
	}
	return value, nil
}

// applyParams pushes the whole parameter set to the generator.
func (a *Audio) applyParams() {
	p := a.state.params
	if err := a.state.dc.SetMode(p.mode); err != nil {
		log.Println(err)
	}
	a.state.dc.Glide(p.level, p.glideTime)
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	if a.otoContext == nil {
		return nil
	}
	return a.otoContext.Close()
}

// Start ...
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// Report returns a one-line status of the generator.
func (a *Audio) Report() string {
	level, mode, transitioning := a.state.dc.Status()
	phase := "steady"
	if transitioning {
		phase = "gliding"
	}
	return fmt.Sprintf("level %s %s %s", strconv.FormatFloat(level, 'f', 6, 64), phase, mode)
}

// Presets returns the names listed in the preset directory.
func (a *Audio) Presets() ([]string, error) {
	if a.presets == nil {
		return nil, nil
	}
	list, err := a.presets.getList()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, meta := range list {
		names[i] = meta.name
	}
	return names, nil
}
