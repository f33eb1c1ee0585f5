// Command rppg-sim drives a Session through a synthetic pulsing-frame
// source and prints the resulting calibration/display sequence, with an
// optional stereo WAV export of the raw and display traces for offline
// inspection.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"

	"github.com/vitalwave/rppg-core/calib"
	"github.com/vitalwave/rppg-core/config"
	"github.com/vitalwave/rppg-core/roi"
	"github.com/vitalwave/rppg-core/session"
)

func main() {
	freqHz := flag.Float64("freq", 1.2, "Simulated pulse frequency in Hz (1.2Hz = 72 BPM)")
	stepFreqHz := flag.Float64("step-freq", 0, "Optional pulse frequency to switch to halfway through, simulating a heart-rate step change (0 disables)")
	duration := flag.Float64("duration", 40.0, "Simulated duration in seconds")
	noiseAmp := flag.Float64("noise", 0.0, "Additive green-channel noise amplitude, 0-1")
	configPath := flag.String("config", "", "Optional JSON config override path")
	output := flag.String("output", "", "Optional stereo WAV path: left=raw green signal, right=display value/200 (BPM, or calibration progress %)")
	quiet := flag.Bool("quiet", false, "Suppress per-second status lines")
	flag.Parse()

	opts := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			die("loading config %q: %v", *configPath, err)
		}
		opts = loaded
	}

	sess, err := session.New(opts)
	if err != nil {
		die("building session: %v", err)
	}

	sampleRate := opts.SampleRate
	totalFrames := int(*duration * float64(sampleRate))
	if totalFrames < 1 {
		totalFrames = 1
	}

	var rawTrace, displayTrace []float32
	if *output != "" {
		rawTrace = make([]float32, 0, totalFrames)
		displayTrace = make([]float32, 0, totalFrames)
	}

	lastPrintedSecond := -1
	for i := 0; i < totalFrames; i++ {
		tSec := float64(i) / float64(sampleRate)
		nowMs := int64(tSec * 1000)

		f := *freqHz
		if *stepFreqHz > 0 && tSec >= (*duration)/2 {
			f = *stepFreqHz
		}

		frame, green := pulseFrame(sampleRate, f, tSec, *noiseAmp)
		out := sess.Advance(frame, nil, nowMs)

		if rawTrace != nil {
			rawTrace = append(rawTrace, float32(green/255.0))
			displayTrace = append(displayTrace, float32(displayValue(out.Display))/200.0)
		}

		if !*quiet {
			second := int(tSec)
			if second != lastPrintedSecond {
				lastPrintedSecond = second
				fmt.Printf("t=%3ds  %-24s quality=%-10s fallbackROI=%v\n", second, describeDisplay(out.Display), out.Quality.Label, out.UsedFallbackROI)
			}
		}
	}

	if *output == "" {
		return
	}

	file, err := os.Create(*output)
	if err != nil {
		die("creating output file: %v", err)
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, sampleRate, 16, 2, 1)
	defer encoder.Close()

	interleaved := make([]float32, 0, len(rawTrace)*2)
	for i := range rawTrace {
		interleaved = append(interleaved, rawTrace[i], displayTrace[i])
	}
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 2,
		},
		Data:           interleaved,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		die("writing WAV file: %v", err)
	}
	fmt.Printf("wrote %s (%d frames)\n", *output, len(rawTrace))
}

// pulseFrame builds a uniform RGBA frame whose green channel follows a
// noisy sinusoid at freqHz, returning the frame and the raw green value
// used so callers can trace it independent of ROI sampling.
func pulseFrame(sampleRate int, freqHz, tSec, noiseAmp float64) (*roi.Frame, float64) {
	const w, h = 120, 120
	n := noise(tSec, noiseAmp)
	green := 128 + 60*math.Sin(2*math.Pi*freqHz*tSec) + n
	if green < 0 {
		green = 0
	}
	if green > 255 {
		green = 255
	}
	pixels := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		off := i * 4
		pixels[off] = 90
		pixels[off+1] = byte(green)
		pixels[off+2] = 90
		pixels[off+3] = 255
	}
	return &roi.Frame{Width: w, Height: h, Pixels: pixels}, green
}

// noise is a small deterministic pseudo-noise generator so repeated runs
// with the same flags reproduce the same trace.
func noise(tSec, amp float64) float64 {
	if amp <= 0 {
		return 0
	}
	return amp * 40 * math.Sin(2*math.Pi*17.3*tSec) * math.Sin(2*math.Pi*0.31*tSec)
}

func displayValue(d calib.Display) int {
	switch d.State {
	case calib.StateBPM:
		return d.BPM
	case calib.StateCalibrating:
		return d.Progress
	default:
		return 0
	}
}

func describeDisplay(d calib.Display) string {
	switch d.State {
	case calib.StateCalibrating:
		return fmt.Sprintf("calibrating (%d%%)", d.Progress)
	case calib.StateBPM:
		return fmt.Sprintf("bpm=%d", d.BPM)
	default:
		return "unavailable"
	}
}

func die(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "rppg-sim: "+format+"\n", args...)
	os.Exit(1)
}
