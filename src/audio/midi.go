package audio

import (
	"context"
	"log"

	"gitlab.com/gomidi/rtmididrv"
)

const (
	ccModWheel       = 1
	ccPortamentoTime = 5
	ccPortamento     = 65
	ccExpGlide       = 66
	maxGlideTime     = 2000 // ms at CC value 127
)

// ListenToMidiIn ...
func ListenToMidiIn(ctx context.Context) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		if len(ins) == 0 {
			log.Println("WARN: MIDI IN not found")
			return
		}
		in := ins[0]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			msg := make([]byte, len(data))
			copy(msg, data)
			select {
			case ch <- msg:
			default:
				log.Println("[WARN] MIDI IN queue is full")
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}

// AddMidiEvent maps a raw MIDI message onto the generator.
//
//	note on          glide to velocity / 127
//	note off         glide back to 0 when it releases the last note
//	CC 1             jump to value / 127
//	CC 5             glide time
//	CC 65            linear (>= 64) or flat glides
//	CC 66            exponential (>= 64) or linear glides
func (a *Audio) AddMidiEvent(data []byte) {
	if len(data) < 3 {
		return
	}
	a.state.Lock()
	defer a.state.Unlock()
	status := data[0] >> 4
	switch {
	case status == 8 || status == 9 && data[2] == 0:
		log.Printf("got note-off: %v\n", data)
		a.noteOff(int(data[1]))
	case status == 9:
		log.Printf("got note-on: %v\n", data)
		a.noteOn(int(data[1]), int(data[2]))
	case status == 0xB:
		a.controlChange(int(data[1]), int(data[2]))
	}
}

func (a *Audio) noteOn(note int, velocity int) {
	p := a.state.params
	level := 1 - p.velSense + p.velSense*float64(velocity)/127
	a.state.lastNote = note
	p.level = clampLevel(level)
	a.state.dc.Glide(p.level, p.glideTime)
}

func (a *Audio) noteOff(note int) {
	if note != a.state.lastNote {
		return
	}
	p := a.state.params
	a.state.lastNote = -1
	p.level = 0
	a.state.dc.Glide(0, p.glideTime)
}

func (a *Audio) controlChange(controller int, value int) {
	p := a.state.params
	switch controller {
	case ccModWheel:
		p.level = float64(value) / 127
		a.state.dc.Amplitude(p.level)
	case ccPortamentoTime:
		p.glideTime = float64(value) / 127 * maxGlideTime
	case ccPortamento:
		p.mode = GlideFlat
		if value >= 64 {
			p.mode = GlideLinear
		}
		if err := a.state.dc.SetMode(p.mode); err != nil {
			log.Println(err)
		}
	case ccExpGlide:
		p.mode = GlideLinear
		if value >= 64 {
			p.mode = GlideExponential
		}
		if err := a.state.dc.SetMode(p.mode); err != nil {
			log.Println(err)
		}
	}
}
