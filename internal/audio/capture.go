package audio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/khalid307-hue/speakcoach/pkg/core"
)

// CaptureConfig configures the microphone pipeline.
type CaptureConfig struct {
	// SampleRate is the capture rate in Hz. Default: 16000 (the wire rate).
	SampleRate int

	// Channels is the capture channel count. Default: 1.
	Channels int

	// FrameMs is the device period size in milliseconds. Default: 20.
	FrameMs int
}

func (c CaptureConfig) withDefaults() CaptureConfig {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.FrameMs <= 0 {
		c.FrameMs = 20
	}
	return c
}

// Capture reads fixed-size frames from the default microphone and forwards
// each one as a wire-format Chunk, in capture order. Forwarding is
// fire-and-forget: the pipeline never drops or reorders frames, and applies
// no back-pressure to the device callback.
type Capture struct {
	cfg CaptureConfig

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	running bool
}

// NewCapture creates a capture pipeline. No device is touched until Start.
func NewCapture(cfg CaptureConfig) *Capture {
	return &Capture{cfg: cfg.withDefaults()}
}

// Start acquires the microphone and begins forwarding frames to sink.
// Returns a DeviceAccessError when the device cannot be acquired; no
// partial capture state is left behind.
func (c *Capture) Start(sink func(Chunk)) error {
	if sink == nil {
		return fmt.Errorf("sink must not be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("capture already running")
	}

	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime
	malgoCtx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return core.NewDeviceAccessError(fmt.Sprintf("init audio context: %v", err))
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(c.cfg.Channels)
	deviceConfig.SampleRate = uint32(c.cfg.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = uint32(c.cfg.FrameMs)

	sampleRate := c.cfg.SampleRate
	channels := c.cfg.Channels
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			// Device callbacks arrive serially; conversion keeps order.
			pcm := EncodePCM16(Float32LESamples(input))
			sink(Chunk{Data: pcm, SampleRate: sampleRate, Channels: channels})
		},
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return core.NewDeviceAccessError(fmt.Sprintf("open microphone: %v", err))
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = malgoCtx.Uninit()
		malgoCtx.Free()
		return core.NewDeviceAccessError(fmt.Sprintf("start microphone: %v", err))
	}

	c.ctx = malgoCtx
	c.device = device
	c.running = true
	return nil
}

// Stop releases the microphone. Safe to call multiple times and when never
// started.
func (c *Capture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	_ = c.device.Stop()
	c.device.Uninit()
	_ = c.ctx.Uninit()
	c.ctx.Free()
	c.device = nil
	c.ctx = nil
	c.running = false
}
