package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"

	"github.com/spinops/spinwatch/pkg/agent"
	"github.com/spinops/spinwatch/pkg/logging"
	"github.com/spinops/spinwatch/pkg/operation"
	"github.com/spinops/spinwatch/pkg/poller"
	"github.com/spinops/spinwatch/pkg/sigcontext"
	"github.com/spinops/spinwatch/pkg/springconfig"
)

var (
	flagSubmit    = flag.Bool("submit", false, "Submit an operation and print its tracking reference")
	flagWait      = flag.Bool("wait", false, "Submit an operation and poll it to a terminal state")
	flagScrapeEnv = flag.Bool("scrape-env", false, "Scrape a service's /env endpoint and print the inferred bindings")

	flagBaseURL     = flag.String("base-url", "", "Base URL of the service to target")
	flagDialect     = flag.String("dialect", "task", "Status dialect spoken by the service: task or pipeline")
	flagPath        = flag.String("path", "", "Submission path relative to the base URL")
	flagTitle       = flag.String("title", "operation", "Operation title, for logging")
	flagPayloadFile = flag.String("payload-file", "", "File holding the JSON payload to submit, - for stdin")
	flagInterval    = flag.Duration("interval", poller.DefaultInterval, "Delay between polls")
	flagBudget      = flag.Duration("budget", poller.DefaultBudget, "Overall wait budget")
	flagEnvURL      = flag.String("env-url", "", "URL of the /env endpoint to scrape")
	flagLogDebug    = flag.Bool("debug", false, "")
	flagJournal     = flag.Bool("journal", false, "Mirror log entries to the systemd journal")
)

func main() {
	flag.Parse()

	if *flagLogDebug {
		logging.Set(logging.Level("debug"))
	}
	if *flagJournal {
		if err := logging.Set(logging.Journal()); err != nil {
			logging.New("main").WithError(err).Warn("journal output unavailable")
		}
	}

	log := logging.New("main")

	ctx, cancel := sigcontext.WithSignalCancel(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch {
	case moreThanOne(*flagSubmit, *flagWait, *flagScrapeEnv):
		log.Error("provide only one of -submit, -wait or -scrape-env")
		os.Exit(1)
	case *flagSubmit:
		err = runSubmit(ctx)
	case *flagWait:
		err = runWait(ctx)
	case *flagScrapeEnv:
		err = runScrapeEnv(ctx)
	default:
		log.Error("no mode specified, provide -submit, -wait or -scrape-env")
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.WithError(err).Error("failed")
		os.Exit(1)
	}
}

func moreThanOne(flags ...bool) bool {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n > 1
}

func newAgent() (*agent.Agent, error) {
	if *flagBaseURL == "" {
		return nil, errors.New("a -base-url must be provided")
	}
	switch *flagDialect {
	case "task":
		return agent.NewTask(*flagBaseURL)
	case "pipeline":
		return agent.NewPipeline(*flagBaseURL)
	}
	return nil, errors.Errorf("unknown -dialect %q", *flagDialect)
}

func readPayload() ([]byte, error) {
	switch *flagPayloadFile {
	case "":
		return nil, errors.New("a -payload-file must be provided")
	case "-":
		var raw json.RawMessage
		if err := json.NewDecoder(os.Stdin).Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "unparseable payload on stdin")
		}
		return raw, nil
	}
	payload, err := os.ReadFile(*flagPayloadFile)
	if err != nil {
		return nil, errors.Wrap(err, "could not read payload")
	}
	return payload, nil
}

func runSubmit(ctx context.Context) error {
	a, err := newAgent()
	if err != nil {
		return err
	}
	payload, err := readPayload()
	if err != nil {
		return err
	}
	op := operation.NewPost(*flagTitle, *flagPath, payload)
	st, err := a.Submit(ctx, op)
	if err != nil {
		return errors.WithMessage(err, "submission error")
	}
	fmt.Println(st)
	if st.Finished() && !st.FinishedOK() {
		return errors.Errorf("operation rejected: %s", st.ExceptionDetails())
	}
	return nil
}

func runWait(ctx context.Context) error {
	a, err := newAgent()
	if err != nil {
		return err
	}
	payload, err := readPayload()
	if err != nil {
		return err
	}
	op := operation.NewPost(*flagTitle, *flagPath, payload)
	st, err := a.Submit(ctx, op)
	if err != nil {
		return errors.WithMessage(err, "submission error")
	}

	p := poller.Poller{Interval: *flagInterval, Budget: *flagBudget}
	if err := p.Wait(ctx, a, st); err != nil {
		return errors.WithMessage(err, "wait error")
	}
	fmt.Println(st)
	if !st.FinishedOK() {
		return errors.Errorf("operation did not succeed: %s", st.ExceptionDetails())
	}
	return nil
}

func runScrapeEnv(ctx context.Context) error {
	url := *flagEnvURL
	if url == "" {
		return errors.New("an -env-url must be provided")
	}
	bindings, err := springconfig.Scrape(ctx, nil, url)
	if err != nil {
		return errors.WithMessage(err, "scrape error")
	}
	out, err := json.MarshalIndent(bindings.Map(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not render bindings")
	}
	fmt.Printf("%s\n", out)
	return nil
}
