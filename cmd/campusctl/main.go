package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"campusevents/internal/config"
	"campusevents/internal/session"
)

const usage = `usage: campusctl [flags] <command> [args]

commands:
  login <email> [password]           sign in (password read from stdin when omitted)
  register [-name -email -password -confirm -role -college]
  logout                             forget the stored session
  whoami                             show the signed-in user
  colleges                           list colleges
  events [-skip -limit -search -type] browse events
  event <id>                         show an event and your status for it
  register-event <id>                register for an event
  feedback <id> <rating> <comment>   rate an attended event
  pass <id> <out.png> [-size n]      write your check-in QR code
  roster <event-id> [-search s] [-filter all|attended|not-attended]
  mark <event-id> <registration-id>  mark attendance (admin)
  enqueue-checkin <event-id> <registration-id>
                                     queue a check-in for the worker

flags:
`

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	log.SetFlags(0)
	cfg := config.Load()

	fs := flag.NewFlagSet("campusctl", flag.ExitOnError)
	fs.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.SessionBackend, "session", cfg.SessionBackend, "session store: sqlite, postgres, redis or memory")
	fs.StringVar(&cfg.SessionDSN, "session-dsn", cfg.SessionDSN, "session database path or DSN")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeSessions, err := session.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}

	a := newApp(cfg, sessions, os.Stdin, os.Stdout)
	err = a.run(ctx, fs.Args())
	_ = closeSessions()
	if err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
			os.Exit(2)
		}
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}
