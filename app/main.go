package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	tbapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jessevdk/go-flags"
	"github.com/sashabaranov/go-openai"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umnov/tg-neuromod/app/bot"
	"github.com/umnov/tg-neuromod/app/events"
	"github.com/umnov/tg-neuromod/app/storage"
	"github.com/umnov/tg-neuromod/app/storage/engine"
	"github.com/umnov/tg-neuromod/app/webapi"
)

type options struct {
	Telegram struct {
		Token   string        `long:"token" env:"TOKEN" description:"telegram bot token" required:"true"`
		Timeout time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"http client timeout for telegram"`
	} `group:"telegram" namespace:"telegram" env-namespace:"TELEGRAM"`

	DB struct {
		Type string `long:"type" env:"TYPE" default:"sqlite" choice:"sqlite" choice:"postgres" description:"database type"`
		File string `long:"file" env:"FILE" default:"data/neuromod.db" description:"sqlite database file"`
		Conn string `long:"conn" env:"CONN" description:"postgres connection url"`
	} `group:"db" namespace:"db" env-namespace:"DB"`

	OpenAI struct {
		Token             string        `long:"token" env:"TOKEN" description:"openai token" required:"true"`
		Model             string        `long:"model" env:"MODEL" default:"gpt-4o" description:"openai model"`
		MaxTokensResponse int           `long:"max-tokens-response" env:"MAX_TOKENS_RESPONSE" default:"64" description:"openai max tokens in response"`
		MaxTokensRequest  int           `long:"max-tokens-request" env:"MAX_TOKENS_REQUEST" default:"3000" description:"openai max tokens in request"`
		MaxSymbolsRequest int           `long:"max-symbols-request" env:"MAX_SYMBOLS_REQUEST" default:"12000" description:"openai max symbols in request, failback if tokenizer failed"`
		Attempts          int           `long:"attempts" env:"ATTEMPTS" default:"3" description:"how many times to retry the classification"`
		RetryDelay        time.Duration `long:"retry-delay" env:"RETRY_DELAY" default:"500ms" description:"delay between classification retries"`
	} `group:"openai" namespace:"openai" env-namespace:"OPENAI"`

	Pricing struct {
		InitialCredits int     `long:"initial-credits" env:"INITIAL_CREDITS" default:"100" description:"credits granted to a new admin"`
		CheckPrice     int     `long:"check-price" env:"CHECK_PRICE" default:"1" description:"credits charged per checked message"`
		SpamThreshold  int     `long:"spam-threshold" env:"SPAM_THRESHOLD" default:"50" description:"scores above it mean spam"`
		Commission     float64 `long:"commission" env:"COMMISSION" default:"0.1" description:"referrer share of a payment"`
	} `group:"pricing" namespace:"pricing" env-namespace:"PRICING"`

	Files struct {
		ExamplesFile  string `long:"examples" env:"EXAMPLES" default:"data/examples.jsonl" description:"bootstrap examples file, json lines"`
		WatchExamples bool   `long:"watch-examples" env:"WATCH_EXAMPLES" description:"reload the examples file on change"`
	} `group:"files" namespace:"files" env-namespace:"FILES"`

	Server struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable web api server"`
		ListenAddr string `long:"listen" env:"LISTEN" default:":8080" description:"listen address"`
		AuthPasswd string `long:"auth" env:"AUTH" description:"basic auth password for the api user"`
	} `group:"server" namespace:"server" env-namespace:"SERVER"`

	Logger struct {
		Enabled    bool   `long:"enabled" env:"ENABLED" description:"enable rotated audit log of moderated messages"`
		FileName   string `long:"file" env:"FILE" default:"neuromod.log" description:"location of the audit log"`
		MaxSize    string `long:"max-size" env:"MAX_SIZE" default:"100M" description:"maximum size before it gets rotated"`
		MaxBackups int    `long:"max-backups" env:"MAX_BACKUPS" default:"10" description:"maximum number of old log files to retain"`
	} `group:"logger" namespace:"logger" env-namespace:"LOGGER"`

	AutoLabel bool `long:"auto-label" env:"AUTO_LABEL" description:"save confirmed spam as labeled examples"`
	Dry       bool `long:"dry" env:"DRY" description:"dry mode, no deletes or bans"`
	Dbg       bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	TGDbg     bool `long:"tg-dbg" env:"TG_DEBUG" description:"telegram debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("tg-neuromod %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	p.SubcommandsOptional = true
	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	setupLog(opts.Dbg, opts.Telegram.Token, opts.OpenAI.Token, opts.Server.AuthPasswd)
	log.Printf("[DEBUG] options: %+v", opts)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options) error {
	if opts.Dry {
		log.Print("[WARN] dry mode, no actual deletes or bans")
	}

	// make telegram bot
	tbAPI, err := tbapi.NewBotAPI(opts.Telegram.Token)
	if err != nil {
		return fmt.Errorf("can't make telegram bot, %w", err)
	}
	tbAPI.Debug = opts.TGDbg

	// make db engine and stores
	db, err := makeDB(ctx, opts)
	if err != nil {
		return fmt.Errorf("can't make db, %w", err)
	}
	defer db.Close()

	examples, err := storage.NewExamples(ctx, db)
	if err != nil {
		return fmt.Errorf("can't make examples store, %w", err)
	}
	ledger, err := storage.NewLedger(ctx, db, opts.Pricing.InitialCredits)
	if err != nil {
		return fmt.Errorf("can't make ledger store, %w", err)
	}
	groups, err := storage.NewGroups(ctx, db)
	if err != nil {
		return fmt.Errorf("can't make groups store, %w", err)
	}
	referrals, err := storage.NewReferrals(ctx, db)
	if err != nil {
		return fmt.Errorf("can't make referrals store, %w", err)
	}

	// bootstrap examples from the file and keep it watched
	loader := bot.NewExamplesLoader(examples, opts.Files.ExamplesFile)
	if err := loader.Load(ctx); err != nil {
		return fmt.Errorf("can't load examples, %w", err)
	}
	if opts.Files.WatchExamples {
		go func() {
			if werr := loader.Watch(ctx); werr != nil {
				log.Printf("[WARN] examples watcher stopped: %v", werr)
			}
		}()
	}

	// make classifier and moderator
	classifier := bot.NewClassifier(openai.NewClient(opts.OpenAI.Token), examples, bot.ClassifierConfig{
		Model:             opts.OpenAI.Model,
		MaxTokensResponse: opts.OpenAI.MaxTokensResponse,
		MaxTokensRequest:  opts.OpenAI.MaxTokensRequest,
		MaxSymbolsRequest: opts.OpenAI.MaxSymbolsRequest,
		Attempts:          opts.OpenAI.Attempts,
		RetryDelay:        opts.OpenAI.RetryDelay,
	})
	moderator := bot.NewModerator(classifier, groups, ledger, examples, bot.ModeratorConfig{
		SpamThreshold:  opts.Pricing.SpamThreshold,
		CheckPrice:     opts.Pricing.CheckPrice,
		CommissionRate: opts.Pricing.Commission,
		AutoLabel:      opts.AutoLabel,
	})

	// make audit log writer
	auditWr, err := makeAuditLogWriter(opts)
	if err != nil {
		return fmt.Errorf("can't make audit log writer, %w", err)
	}
	defer auditWr.Close()

	// run web api server if enabled
	if opts.Server.Enabled {
		srv := webapi.NewServer(webapi.Config{
			Version:       revision,
			ListenAddr:    opts.Server.ListenAddr,
			Classifier:    classifier,
			Examples:      examples,
			Ledger:        ledger,
			Payments:      moderator,
			SpamThreshold: opts.Pricing.SpamThreshold,
			AuthPasswd:    opts.Server.AuthPasswd,
			Dbg:           opts.Dbg,
		})
		go func() {
			if serr := srv.Run(ctx); serr != nil {
				log.Printf("[ERROR] webapi server failed: %v", serr)
			}
		}()
	}

	// make telegram listener
	tgListener := events.TelegramListener{
		TbAPI:          tbAPI,
		Moderator:      moderator,
		Groups:         groups,
		Referrals:      referrals,
		Ledger:         ledger,
		InitialCredits: opts.Pricing.InitialCredits,
		CommissionPct:  int(opts.Pricing.Commission * 100),
		BotUserName:    tbAPI.Self.UserName,
		Audit:          makeAuditLogger(auditWr),
		Dry:            opts.Dry,
	}

	// run telegram listener and event processor loop
	if err := tgListener.Do(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("telegram listener failed, %w", err)
	}
	return nil
}

func makeDB(ctx context.Context, opts options) (*engine.SQL, error) {
	switch opts.DB.Type {
	case "postgres":
		return engine.NewPostgres(ctx, opts.DB.Conn)
	default:
		return engine.NewSqlite(opts.DB.File)
	}
}

// makeAuditLogger creates the audit trail of moderated messages,
// it writes json lines to the provided writer
func makeAuditLogger(wr io.Writer) events.AuditLogger {
	return func(msg bot.Message, verdict bot.Verdict) {
		m := struct {
			TimeStamp   string `json:"ts"`
			ChatID      int64  `json:"chat_id"`
			UserID      int64  `json:"user_id"`
			DisplayName string `json:"display_name"`
			Text        string `json:"text"`
			Checked     bool   `json:"checked"`
			Spam        bool   `json:"spam"`
			Score       int    `json:"score"`
			Deleted     bool   `json:"deleted,omitempty"`
			Lapsed      bool   `json:"lapsed,omitempty"`
		}{
			TimeStamp:   time.Now().In(time.Local).Format(time.RFC3339),
			ChatID:      msg.ChatID,
			UserID:      msg.From.ID,
			DisplayName: bot.DisplayName(msg.From),
			Text:        strings.TrimSpace(strings.ReplaceAll(msg.Text, "\n", " ")),
			Checked:     verdict.Checked,
			Spam:        verdict.Spam,
			Score:       verdict.Score,
			Deleted:     verdict.Delete,
			Lapsed:      verdict.Lapsed,
		}
		line, err := json.Marshal(&m)
		if err != nil {
			log.Printf("[WARN] can't marshal json, %v", err)
			return
		}
		if _, err := wr.Write(append(line, '\n')); err != nil {
			log.Printf("[WARN] can't write to audit log, %v", err)
		}
	}
}

// makeAuditLogWriter parses options and makes lumberjack writer with rotation
func makeAuditLogWriter(opts options) (io.WriteCloser, error) {
	if !opts.Logger.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	sizeParse := func(inp string) (uint64, error) {
		if inp == "" {
			return 0, errors.New("empty value")
		}
		for i, sfx := range []string{"k", "m", "g", "t"} {
			if strings.HasSuffix(inp, strings.ToUpper(sfx)) || strings.HasSuffix(inp, strings.ToLower(sfx)) {
				val, err := strconv.Atoi(inp[:len(inp)-1])
				if err != nil {
					return 0, fmt.Errorf("can't parse %s: %w", inp, err)
				}
				return uint64(float64(val) * math.Pow(float64(1024), float64(i+1))), nil
			}
		}
		return strconv.ParseUint(inp, 10, 64)
	}

	maxSize, perr := sizeParse(opts.Logger.MaxSize)
	if perr != nil {
		return nil, fmt.Errorf("can't parse logger MaxSize: %w", perr)
	}

	maxSize /= 1048576

	log.Printf("[INFO] audit log enabled for %s, max size %dM", opts.Logger.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   opts.Logger.FileName,
		MaxSize:    int(maxSize), // in MB
		MaxBackups: opts.Logger.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

func setupLog(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	sec := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s != "" {
			sec = append(sec, s)
		}
	}
	if len(sec) > 0 {
		logOpts = append(logOpts, lgr.Secret(sec...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
