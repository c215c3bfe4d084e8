// Package main is the speakcoach CLI: an interactive spoken-English tutor
// backed by the Gemini API, with one-shot text helpers and a realtime
// voice session.
//
// Usage:
//
//	go run ./cmd/speakcoach
//
// Environment variables:
//
//	GEMINI_API_KEY - Required (GOOGLE_API_KEY also accepted)
//
// Commands:
//
//	/mode [name]            - Show or switch the tutoring mode
//	/persona [name]         - Show or switch the tutor persona
//	/say <text>             - One tutoring turn in the current mode
//	/fix <text>             - Grammar correction with explanation
//	/score <target>|<said>  - Pronunciation scoring
//	/voice                  - Start/stop the realtime voice session
//	/progress               - Show learning progress
//	q                       - Quit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/khalid307-hue/speakcoach/internal/audio"
	"github.com/khalid307-hue/speakcoach/internal/config"
	"github.com/khalid307-hue/speakcoach/internal/progress"
	"github.com/khalid307-hue/speakcoach/internal/session"
	"github.com/khalid307-hue/speakcoach/internal/transcript"
	"github.com/khalid307-hue/speakcoach/internal/tutor"
	"github.com/khalid307-hue/speakcoach/pkg/gemini"
	"github.com/khalid307-hue/speakcoach/pkg/live"
)

func main() {
	configPath := flag.String("config", "", "path to an optional YAML config file")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "speakcoach:", err)
		os.Exit(1)
	}

	store, err := progress.Open(cfg.ProgressPath)
	if err != nil {
		logger.Warn("progress state unavailable, starting fresh", "error", err)
	}

	a := &app{
		cfg:   cfg,
		log:   logger,
		tutor: tutor.NewService(gemini.New(cfg.APIKey), cfg.ChatModel, logger),
		live:  live.NewClient(cfg.APIKey),
		store: store,
		mode:  tutor.ModeFreeTalk,
	}
	if m, err := tutor.ModeByName(cfg.Mode); err == nil {
		a.mode = m
	}
	a.persona = tutor.Personas[0]
	if p, err := tutor.PersonaByName(cfg.Persona); err == nil {
		a.persona = p
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		a.stopVoice()
		cancel()
		os.Exit(0)
	}()

	a.banner()
	a.loop(ctx)
	a.stopVoice()
	if a.speaker != nil {
		a.speaker.Close()
	}
}

type app struct {
	cfg   config.Config
	log   *slog.Logger
	tutor *tutor.Service
	live  *live.Client
	store *progress.Store

	mode    tutor.Mode
	persona session.Persona

	mu    sync.Mutex
	convo []transcript.Message

	// Voice plumbing, created on first use. The speaker stays open for the
	// process lifetime; the output device can only be opened once.
	speaker *audio.Speaker
	sched   *audio.Scheduler
	ctl     *session.Controller
}

func (a *app) banner() {
	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║                 speakcoach - English tutor                 ║")
	fmt.Println("╠════════════════════════════════════════════════════════════╣")
	fmt.Println("║  Commands:                                                 ║")
	fmt.Println("║    /mode [name]            Show or switch tutoring mode    ║")
	fmt.Println("║    /persona [name]         Show or switch tutor persona    ║")
	fmt.Println("║    /say <text>             One tutoring turn               ║")
	fmt.Println("║    /fix <text>             Grammar correction              ║")
	fmt.Println("║    /score <target>|<said>  Pronunciation scoring           ║")
	fmt.Println("║    /voice                  Start/stop voice session        ║")
	fmt.Println("║    /progress               Show learning progress          ║")
	fmt.Println("║    q                       Quit                            ║")
	fmt.Println("╚════════════════════════════════════════════════════════════╝")
	fmt.Printf("Mode: %s | Persona: %s (%s)\n\n", a.mode, a.persona.Name, a.persona.Voice)
}

func (a *app) loop(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.ToLower(input) == "q" {
			return
		}

		cmd, rest, _ := strings.Cut(input, " ")
		rest = strings.TrimSpace(rest)

		switch cmd {
		case "/mode":
			a.cmdMode(rest)
		case "/persona":
			a.cmdPersona(rest)
		case "/say":
			a.cmdSay(ctx, rest)
		case "/fix":
			a.cmdFix(ctx, rest)
		case "/score":
			a.cmdScore(ctx, rest)
		case "/voice":
			a.cmdVoice(ctx)
		case "/progress":
			a.cmdProgress()
		default:
			fmt.Println("[INFO] Commands: /mode, /persona, /say, /fix, /score, /voice, /progress, q")
		}
	}
}

func (a *app) cmdMode(name string) {
	if name == "" {
		fmt.Printf("Current mode: %s\n", a.mode)
		fmt.Print("Available: ")
		names := make([]string, len(tutor.AllModes))
		for i, m := range tutor.AllModes {
			names[i] = string(m)
		}
		fmt.Println(strings.Join(names, ", "))
		return
	}
	m, err := tutor.ModeByName(name)
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		return
	}
	a.mode = m
	fmt.Printf("Mode: %s\n", m)
}

func (a *app) cmdPersona(name string) {
	if name == "" {
		fmt.Printf("Current persona: %s (%s)\n", a.persona.Name, a.persona.Voice)
		fmt.Print("Available: ")
		names := make([]string, len(tutor.Personas))
		for i, p := range tutor.Personas {
			names[i] = p.Name
		}
		fmt.Println(strings.Join(names, ", "))
		return
	}
	p, err := tutor.PersonaByName(name)
	if err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		return
	}
	a.persona = p
	fmt.Printf("Persona: %s (%s)\n", p.Name, p.Voice)
}

func (a *app) cmdSay(ctx context.Context, text string) {
	if text == "" {
		fmt.Println("[INFO] Usage: /say <text>")
		return
	}
	fmt.Printf("%s: %s\n", a.persona.Name, a.tutor.Respond(ctx, a.mode, text))
	a.recordAttempt(string(a.mode))
	if a.mode == tutor.ModeDailySentence && a.store != nil {
		if day, err := a.store.AdvanceDay(); err == nil {
			fmt.Printf("[INFO] Day %d complete\n", day-1)
		}
	}
}

func (a *app) cmdFix(ctx context.Context, text string) {
	if text == "" {
		fmt.Println("[INFO] Usage: /fix <text>")
		return
	}
	c := a.tutor.FixGrammar(ctx, text)
	if c.CorrectedText == "" {
		fmt.Println(tutor.FallbackReply)
		return
	}
	fmt.Printf("Corrected: %s\n", c.CorrectedText)
	if c.Explanation != "" {
		fmt.Printf("Why:       %s\n", c.Explanation)
	}
	a.recordAttempt(string(tutor.ModeGrammarFix))
}

func (a *app) cmdScore(ctx context.Context, rest string) {
	target, spoken, ok := strings.Cut(rest, "|")
	target = strings.TrimSpace(target)
	spoken = strings.TrimSpace(spoken)
	if !ok || target == "" || spoken == "" {
		fmt.Println("[INFO] Usage: /score <target sentence> | <what you said>")
		return
	}
	result := a.tutor.ScorePronunciation(ctx, target, spoken)
	fmt.Printf("Score: %d/100\n", result.Score)
	for _, f := range result.Feedback {
		fmt.Printf("  - %s\n", f)
	}
	if a.store != nil {
		if _, err := a.store.RecordScore(string(tutor.ModePronunciation), result.Score); err != nil {
			a.log.Warn("failed to save progress", "error", err)
		}
	}
}

func (a *app) cmdVoice(ctx context.Context) {
	if a.ctl != nil && a.ctl.State() != session.StateIdle {
		a.stopVoice()
		fmt.Println("[VOICE] Session stopped")
		return
	}
	if err := a.ensureVoice(); err != nil {
		fmt.Printf("[ERROR] %v\n", err)
		return
	}
	p := tutor.LivePersona(a.persona, a.mode)
	if err := a.ctl.Start(ctx, p); err != nil {
		fmt.Printf("[ERROR] Failed to start voice session: %v\n", err)
		return
	}
	a.recordAttempt(string(a.mode))
	fmt.Printf("[VOICE] Live with %s - speak naturally. /voice to stop.\n", a.persona.Name)
}

func (a *app) cmdProgress() {
	if a.store == nil {
		fmt.Println("[INFO] Progress tracking is unavailable")
		return
	}
	st := a.store.State()
	fmt.Printf("Day %d | %d attempts | median score %d\n", st.CurrentDay, st.TotalAttempts, a.store.MedianScore())
	n := len(st.History)
	start := n - 5
	if start < 0 {
		start = 0
	}
	for _, e := range st.History[start:] {
		line := fmt.Sprintf("  %s  %s", e.Timestamp.Format("Jan 02 15:04"), e.Mode)
		if e.Score != nil {
			line += fmt.Sprintf("  %d/100", *e.Score)
		}
		fmt.Println(line)
	}

	a.mu.Lock()
	convo := append([]transcript.Message(nil), a.convo...)
	a.mu.Unlock()
	if len(convo) > 0 {
		fmt.Println("Recent conversation:")
		first := len(convo) - 4
		if first < 0 {
			first = 0
		}
		for _, m := range convo[first:] {
			name := "you"
			if m.Role == transcript.RoleModel {
				name = a.persona.Name
			}
			fmt.Printf("  %s: %s\n", name, m.Text)
		}
	}
}

// ensureVoice builds the audio pipeline and session controller on first
// use.
func (a *app) ensureVoice() error {
	if a.ctl != nil {
		return nil
	}
	speaker, err := audio.NewSpeaker(live.OutputSampleRate, 1)
	if err != nil {
		return err
	}
	a.speaker = speaker
	a.sched = audio.NewScheduler(speaker)

	ctl, err := session.NewController(session.Config{
		Model: a.cfg.LiveModel,
		Dial: func(ctx context.Context, cfg live.Config) (session.RemoteSession, error) {
			return a.live.Connect(ctx, cfg)
		},
		Capture:  audio.NewCapture(audio.CaptureConfig{}),
		Playback: a.sched,
		OnPartial: func(role transcript.Role, delta string) {
			// Stream the tutor's speech as it transcribes. The user hears
			// themselves; their side is printed once finalized.
			if role == transcript.RoleModel {
				fmt.Print(delta)
			}
		},
		OnMessages: func(msgs []transcript.Message) {
			fmt.Println()
			for _, m := range msgs {
				a.mu.Lock()
				a.convo = append(a.convo, m)
				a.mu.Unlock()
				if m.Role == transcript.RoleUser {
					fmt.Printf("you: %s\n", m.Text)
				}
			}
			a.recordAttempt(string(a.mode))
		},
		OnStateChange: func(s session.State) {
			a.log.Debug("voice session state", "state", s)
		},
		Logger: a.log,
	})
	if err != nil {
		return err
	}
	a.ctl = ctl
	return nil
}

func (a *app) stopVoice() {
	if a.ctl != nil {
		a.ctl.Stop()
	}
}

func (a *app) recordAttempt(mode string) {
	if a.store == nil {
		return
	}
	if _, err := a.store.RecordAttempt(mode); err != nil {
		a.log.Warn("failed to save progress", "error", err)
	}
}
