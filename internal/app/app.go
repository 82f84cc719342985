// Package app wires the session, API client and workflows behind the
// cvassist command line. Each command acts as one view.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"go-cvassist-client/internal/api"
	"go-cvassist-client/internal/browser"
	"go-cvassist-client/internal/config"
	"go-cvassist-client/internal/cv"
	"go-cvassist-client/internal/models"
	"go-cvassist-client/internal/navigation"
	"go-cvassist-client/internal/pdf"
	"go-cvassist-client/internal/reporter"
	"go-cvassist-client/internal/session"
	"go-cvassist-client/internal/storage"
	"go-cvassist-client/internal/telemetry"
	"go-cvassist-client/internal/validate"
)

var ErrUsage = errors.New("usage")

// Exporter turns an application into PDF bytes.
type Exporter interface {
	Generate(ctx context.Context, app models.Application) ([]byte, error)
}

// JobFetcher returns the description text of a job posting URL.
type JobFetcher func(ctx context.Context, url string) (string, error)

type App struct {
	cfg *config.Config
	out io.Writer
	in  *bufio.Reader

	storage  storage.Storage
	router   *navigation.Router
	store    *session.Store
	client   *api.Client
	session  *session.Service
	cvs      *cv.Service
	reporter reporter.Reporter
	exporter Exporter
	fetchJob JobFetcher

	httpClient *http.Client
}

type Option func(*App)

func WithInput(r io.Reader) Option {
	return func(a *App) { a.in = bufio.NewReader(r) }
}

func WithReporter(r reporter.Reporter) Option {
	return func(a *App) { a.reporter = r }
}

func WithExporter(e Exporter) Option {
	return func(a *App) { a.exporter = e }
}

func WithJobFetcher(f JobFetcher) Option {
	return func(a *App) { a.fetchJob = f }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) { a.httpClient = hc }
}

// New opens session storage and builds the client stack. Close releases it.
func New(cfg *config.Config, out io.Writer, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, out: out}
	for _, opt := range opts {
		opt(a)
	}
	if a.in == nil {
		a.in = bufio.NewReader(strings.NewReader(""))
	}

	st, err := storage.Open(cfg.Session.Backend, cfg.Session.Path)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}
	a.storage = st

	a.router = navigation.NewRouter(func(from navigation.View) {
		fmt.Fprintf(a.out, "🔒 Session expired on %s, please log in again.\n", from)
	})
	a.store, err = session.NewStore(st, a.router)
	if err != nil {
		st.Close()
		return nil, err
	}

	clientOpts := []api.Option{
		api.WithTokenSource(a.store),
		api.WithUnauthorizedHandler(a.store),
	}
	if a.httpClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(a.httpClient))
	}
	clientOpts = append(clientOpts, api.WithTimeout(cfg.RequestTimeout))
	a.client = api.NewClient(cfg.APIBaseURL, clientOpts...)

	a.session = session.NewService(a.store, a.client)
	a.cvs = cv.NewService(a.client, a.store,
		cv.WithPollInterval(cfg.PollInterval),
		cv.WithPollTimeout(cfg.PollTimeout),
	)

	if a.reporter == nil {
		a.reporter, err = reporter.New(cfg)
		if err != nil {
			log.Printf("⚠️ Telegram disabled: %v", err)
			a.reporter = reporter.Nop{}
		}
	}
	if a.fetchJob == nil {
		a.fetchJob = a.fetchWithBrowser
	}
	return a, nil
}

func (a *App) Close() error {
	return a.storage.Close()
}

type command struct {
	view    navigation.View
	public  bool
	summary string
	run     func(ctx context.Context, args []string) error
}

func (a *App) commands() map[string]command {
	return map[string]command{
		"signup":   {navigation.ViewSignup, true, "create an account", a.cmdSignup},
		"login":    {navigation.ViewLogin, true, "log in", a.cmdLogin},
		"logout":   {navigation.ViewProfile, true, "forget the stored session", a.cmdLogout},
		"whoami":   {navigation.ViewProfile, false, "show the logged in user", a.cmdWhoami},
		"cv":       {navigation.ViewUpload, false, "status | upload <file.pdf> | wait | delete", a.cmdCV},
		"ask":      {navigation.ViewChat, false, "ask a question about your CV", a.cmdAsk},
		"chat":     {navigation.ViewChat, false, "history | delete <id> | clear", a.cmdChat},
		"generate": {navigation.ViewApplication, false, "write a cover letter or email", a.cmdGenerate},
		"apps":     {navigation.ViewHistory, false, "list | show <id> | delete <id> | clear", a.cmdApps},
	}
}

// Run executes one command. Every command except signup, login and logout
// validates the stored session first.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.usage()
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}

	name := args[0]
	cmd, ok := a.commands()[name]
	if !ok {
		a.usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "cvassist."+name)
	defer span.End()
	span.SetAttributes(attribute.String("cvassist.view", string(cmd.view)))

	a.router.Show(cmd.view)
	if !cmd.public {
		user, err := a.session.ValidateOnLaunch(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "session invalid")
			if errors.Is(err, session.ErrExpired) {
				fmt.Fprintln(a.out, "🔒 Session expired, please log in again.")
			}
			return err
		}
		if user == nil {
			return api.ErrNoSession
		}
	}

	if err := cmd.run(ctx, args[1:]); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if reportable(err) {
			a.notify(func(r reporter.Reporter) error {
				return r.SendError(fmt.Errorf("%s: %w", name, err))
			})
		}
		return err
	}
	return nil
}

// reportable is false for failures the user caused and already sees.
func reportable(err error) bool {
	return !errors.Is(err, ErrUsage) &&
		!errors.Is(err, validate.ErrInvalid) &&
		!errors.Is(err, api.ErrNoSession) &&
		!errors.Is(err, context.Canceled)
}

// landingView is where a fresh session starts: upload until a CV exists.
func (a *App) landingView(user *models.User) navigation.View {
	if user == nil || !user.HasCV {
		return navigation.ViewUpload
	}
	return navigation.ViewDashboard
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Usage: cvassist [-config path] <command> [flags]")
	fmt.Fprintln(a.out, "\nCommands:")
	cmds := a.commands()
	names := make([]string, 0, len(cmds))
	for n := range cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(a.out, "  %-9s %s\n", n, cmds[n].summary)
	}
}

// ErrorMessage is the line shown to the user for err.
func ErrorMessage(err error) string {
	var fieldErr *validate.FieldError
	switch {
	case errors.As(err, &fieldErr):
		return fieldErr.Error()
	case errors.Is(err, api.ErrNoSession):
		return "You are not logged in. Run `cvassist login` first."
	case errors.Is(err, session.ErrExpired):
		return "Your session has expired. Run `cvassist login` again."
	case errors.Is(err, session.ErrBusy):
		return "Please wait, another login is in progress."
	case errors.Is(err, context.Canceled):
		return "Cancelled."
	case errors.Is(err, api.ErrMalformedResponse):
		return "The server sent an unexpected response."
	case api.IsNetwork(err):
		return "Could not reach the server. Check your connection and api_base_url."
	case errors.Is(err, ErrUsage):
		return err.Error()
	}
	return api.Message(err, err.Error())
}

func (a *App) fetchWithBrowser(ctx context.Context, url string) (string, error) {
	pm, err := browser.NewPlaywright(ctx)
	if err != nil {
		return "", err
	}
	defer pm.Close()

	bctx, err := pm.NewContext(browser.LoadCookieDir(a.cfg.CookiesPath))
	if err != nil {
		return "", err
	}
	defer bctx.Close()

	return browser.FetchJobDescription(ctx, bctx, url)
}

func (a *App) pdfExporter() (Exporter, error) {
	if a.exporter != nil {
		return a.exporter, nil
	}
	g, err := pdf.NewGenerator(a.cfg.PDFTemplatePath)
	if err != nil {
		return nil, err
	}
	a.exporter = g
	return g, nil
}

// notify sends through the reporter and only logs failures; delivery never
// fails a command.
func (a *App) notify(send func(reporter.Reporter) error) {
	if err := send(a.reporter); err != nil {
		log.Printf("⚠️ Telegram delivery failed: %v", err)
	}
}
