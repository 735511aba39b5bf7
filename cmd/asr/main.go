package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/gordonklaus/portaudio"

	"github.com/liuscraft/orion-dictate/internal/asr"
	"github.com/liuscraft/orion-dictate/internal/audio"
)

const (
	defaultSampleRate     = 16000
	defaultFramesPerBlock = 3200
)

func main() {
	model := flag.String("model", "fun-asr-realtime", "ASR model name")
	endpoint := flag.String("endpoint", "", "WebSocket endpoint (optional)")
	sampleRate := flag.Int("sample-rate", defaultSampleRate, "Sample rate in Hz")
	framesPerBuffer := flag.Int("frames", defaultFramesPerBlock, "Frames per buffer (samples)")
	device := flag.String("device", "", "Input device name (optional)")
	semanticPunc := flag.Bool("semantic-punctuation", false, "Enable semantic punctuation")
	lang := flag.String("lang", "", "Session language, e.g. en-US or zh-CN")
	flag.Parse()

	apiKey := os.Getenv("DASHSCOPE_API_KEY")
	if apiKey == "" {
		log.Fatal("DASHSCOPE_API_KEY is not set")
	}

	cfg := asr.Config{
		APIKey:     apiKey,
		Endpoint:   strings.TrimSpace(*endpoint),
		Model:      strings.TrimSpace(*model),
		Format:     "pcm",
		SampleRate: *sampleRate,
	}
	if *semanticPunc {
		enabled := true
		cfg.SemanticPunctuationEnabled = &enabled
	}

	if err := portaudio.Initialize(); err != nil {
		log.Fatalf("portaudio init failed: %v", err)
	}
	defer portaudio.Terminate()

	provider := asr.NewDashScopeProvider(cfg, audio.Opener(audio.Config{
		SampleRate: *sampleRate,
		Channels:   1,
		BufferSize: *framesPerBuffer,
		Device:     strings.TrimSpace(*device),
	}))
	engine, err := provider.Acquire()
	if err != nil {
		log.Fatalf("acquire engine failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ended := make(chan struct{})
	engine.OnStart(func() { log.Println("listening... press Ctrl+C to stop") })
	engine.OnResult(func(ev asr.ResultEvent) {
		for i := ev.ResultIndex; i < len(ev.Results); i++ {
			slot := ev.Results[i]
			label := "partial"
			if slot.IsFinal {
				label = "final"
			}
			fmt.Printf("[%d] %s: %s\n", i, label, slot.Transcript)
		}
	})
	engine.OnError(func(err error) { log.Printf("session error: %v", err) })
	engine.OnEnd(func() { close(ended) })

	if err := engine.Start(ctx, asr.SessionConfig{
		Language:       strings.TrimSpace(*lang),
		Continuous:     true,
		InterimResults: true,
	}); err != nil {
		log.Fatalf("start engine failed: %v", err)
	}

	select {
	case <-ctx.Done():
		if err := engine.Stop(); err != nil {
			log.Printf("stop engine failed: %v", err)
		}
		<-ended
	case <-ended:
	}
}
