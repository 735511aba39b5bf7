package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gordonklaus/portaudio"

	"github.com/liuscraft/orion-dictate/internal/asr"
	"github.com/liuscraft/orion-dictate/internal/audio"
	"github.com/liuscraft/orion-dictate/internal/chat"
	"github.com/liuscraft/orion-dictate/internal/config"
	"github.com/liuscraft/orion-dictate/internal/console"
	"github.com/liuscraft/orion-dictate/internal/dictation"
	"github.com/liuscraft/orion-dictate/internal/logging"
	"github.com/liuscraft/orion-dictate/internal/settings"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "config file path")
	flag.Parse()

	appConfig, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	chatMode := strings.ToLower(strings.TrimSpace(appConfig.Chat.Mode))
	if err := appConfig.ValidateKeys(false, chatMode == "llm"); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := logging.Init(logging.Config{
		Level:  appConfig.Logging.Level,
		Format: appConfig.Logging.Format,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	logging.SetSessionID(logging.NewSessionID())
	logging.Infof("Dictate starting, chat mode %s", chatMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := portaudio.Initialize(); err != nil {
		logging.Fatalf("Failed to initialize PortAudio: %v", err)
	}
	defer portaudio.Terminate()

	dispatcher, closeChat, err := newDispatcher(ctx, appConfig)
	if err != nil {
		logging.Fatalf("Failed to create chat dispatcher: %v", err)
	}
	defer closeChat()

	store := settings.NewStore(appConfig.Dictation.Settings())
	toggle := console.NewToggle(os.Stdout)
	surface := console.NewSurface(os.Stdout)

	provider := asr.NewDashScopeProvider(asr.Config{
		APIKey:             appConfig.ASR.APIKey,
		Endpoint:           appConfig.ASR.Endpoint,
		Model:              appConfig.ASR.Model,
		SampleRate:         appConfig.Audio.SampleRate,
		MaxSentenceSilence: appConfig.ASR.MaxSentenceSilence,
	}, audio.Opener(audio.Config{
		SampleRate:  appConfig.Audio.SampleRate,
		Channels:    appConfig.Audio.Channels,
		BufferSize:  appConfig.Audio.BufferSize,
		Device:      appConfig.Audio.Device,
		HighLatency: appConfig.Audio.HighLatency,
	}))

	controller := dictation.New(store.Get, toggle, dictation.Deps{
		Engines:  provider,
		Surface:  surface,
		Chat:     dispatcher,
		Notifier: console.NewNotifier(os.Stderr),
	})

	go watchReload(ctx, *configPath, store)
	go readInput(ctx, os.Stdin, toggle, surface)

	if controller.Available() {
		fmt.Println("Press Enter to toggle dictation, type a line to edit the text, Ctrl+C to quit.")
	}

	if err := controller.Run(ctx); err != nil {
		logging.Errorf("Controller stopped: %v", err)
	}
	logging.Infof("Dictate stopped")
}

func newDispatcher(ctx context.Context, appConfig *config.AppConfig) (chat.Dispatcher, func(), error) {
	if strings.EqualFold(strings.TrimSpace(appConfig.Chat.Mode), "nats") {
		d, err := chat.ConnectNATS(appConfig.Chat.NATS.URL, appConfig.Chat.NATS.SubjectPrefix)
		if err != nil {
			return nil, nil, err
		}
		logging.Infof("Publishing chat messages to %s", appConfig.Chat.NATS.URL)
		return d, d.Close, nil
	}

	d, err := chat.NewLLMDispatcher(ctx, chat.Config{
		APIKey:       appConfig.Chat.APIKey,
		BaseURL:      appConfig.Chat.BaseURL,
		Model:        appConfig.Chat.Model,
		SystemPrompt: appConfig.Chat.SystemPrompt,
	})
	if err != nil {
		return nil, nil, err
	}
	d.OnReply(func(chunk string, done bool, err error) {
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "\n!! reply failed: %v\n", err)
		case done:
			fmt.Println()
		default:
			fmt.Print(chunk)
		}
	})
	return d, d.Wait, nil
}

// readInput 空行点击开关，其余行视为对输入框的外部编辑
func readInput(ctx context.Context, in io.Reader, toggle *console.Toggle, surface *console.Surface) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			toggle.Click()
			continue
		}
		surface.Type(line)
	}
	if err := scanner.Err(); err != nil {
		logging.Warnf("Read stdin failed: %v", err)
	}
}

// watchReload 收到 SIGHUP 时重新加载听写配置，下一次读取生效
func watchReload(ctx context.Context, path string, store *settings.Store) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			next, err := config.Load(path)
			if err != nil {
				logging.Errorf("Reload config failed: %v", err)
				continue
			}
			store.Set(next.Dictation.Settings())
			logging.Infof("Dictation settings reloaded")
		}
	}
}
