package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/liuscraft/orion-dictate/internal/asr"
	"github.com/liuscraft/orion-dictate/internal/logging"
)

// Config 麦克风参数
type Config struct {
	SampleRate  int
	Channels    int
	BufferSize  int
	Device      string
	HighLatency bool
}

type audioStream interface {
	Start() error
	Read() error
	Abort() error
	Stop() error
	Close() error
}

// Microphone 麦克风音频源，输出 16bit 小端 PCM
type Microphone struct {
	stream audioStream
	buffer []int16

	startOnce sync.Once
	startErr  error
	closeCh   chan struct{}
	closeOnce sync.Once
}

// Opener 每次调用打开一个新的麦克风流。PortAudio 需要由调用方初始化。
func Opener(cfg Config) asr.SourceOpener {
	return func() (asr.AudioSource, error) {
		return OpenMicrophone(cfg)
	}
}

// OpenMicrophone 打开麦克风，流在第一次 Read 时启动
func OpenMicrophone(cfg Config) (*Microphone, error) {
	buffer := make([]int16, cfg.BufferSize)

	device, err := inputDevice(cfg.Device)
	if err != nil {
		logging.Warnf("Microphone: %v, falling back to default stream", err)
		stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), len(buffer), &buffer)
		if err != nil {
			return nil, fmt.Errorf("open default stream: %w", err)
		}
		return newMicrophone(stream, buffer), nil
	}

	latency := device.DefaultLowInputLatency
	if cfg.HighLatency {
		latency = device.DefaultHighInputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  latency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.BufferSize,
	}
	stream, err := portaudio.OpenStream(params, &buffer)
	if err != nil {
		return nil, fmt.Errorf("open stream on %s: %w", device.Name, err)
	}

	logging.Infof("Microphone: opened %s (sampleRate=%d, channels=%d, latency=%s)",
		device.Name, cfg.SampleRate, cfg.Channels, latency)
	return newMicrophone(stream, buffer), nil
}

func inputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		return portaudio.DefaultInputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(name)
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 && strings.Contains(strings.ToLower(dev.Name), needle) {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("no input device matching %q", name)
}

func newMicrophone(stream audioStream, buffer []int16) *Microphone {
	return &Microphone{
		stream:  stream,
		buffer:  buffer,
		closeCh: make(chan struct{}),
	}
}

// Read 读取一帧音频。ctx 取消或 Close 时中止阻塞中的读取。
func (m *Microphone) Read(ctx context.Context) ([]byte, error) {
	m.startOnce.Do(func() {
		m.startErr = m.stream.Start()
	})
	if m.startErr != nil {
		return nil, fmt.Errorf("start stream: %w", m.startErr)
	}

	readErr := make(chan error, 1)
	go func() {
		readErr <- m.stream.Read()
	}()

	select {
	case <-ctx.Done():
		m.abort()
		return nil, ctx.Err()
	case <-m.closeCh:
		m.abort()
		return nil, io.EOF
	case err := <-readErr:
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
	}

	out := make([]byte, len(m.buffer)*2)
	for i, v := range m.buffer {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out, nil
}

func (m *Microphone) Close() error {
	m.closeOnce.Do(func() {
		close(m.closeCh)
	})

	if err := m.stream.Stop(); err != nil {
		logging.Warnf("Microphone: stop stream: %v", err)
	}
	return m.stream.Close()
}

func (m *Microphone) abort() {
	if err := m.stream.Abort(); err != nil {
		logging.Warnf("Microphone: abort stream: %v", err)
	}
}
