package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"go-cvassist-client/internal/cv"
	"go-cvassist-client/internal/models"
	"go-cvassist-client/internal/pdf"
	"go-cvassist-client/internal/reporter"
	"go-cvassist-client/internal/validate"
)

func (a *App) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *App) prompt(label string) string {
	fmt.Fprint(a.out, label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func (a *App) cmdSignup(ctx context.Context, args []string) error {
	fs := a.flagSet("signup")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	confirm := fs.String("confirm", "", "password confirmation (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *email == "" {
		*email = a.prompt("Email: ")
	}
	if *password == "" {
		*password = a.prompt("Password: ")
	}
	if *confirm == "" {
		*confirm = a.prompt("Confirm password: ")
	}

	user, err := a.session.Signup(ctx, *email, *password, *confirm)
	if err != nil {
		return err
	}
	a.router.Show(a.landingView(user))
	fmt.Fprintf(a.out, "✅ Account created for %s\n", user.Email)
	a.printCVHint(user)
	return nil
}

func (a *App) cmdLogin(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *email == "" {
		*email = a.prompt("Email: ")
	}
	if *password == "" {
		*password = a.prompt("Password: ")
	}

	user, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	a.router.Show(a.landingView(user))
	fmt.Fprintf(a.out, "✅ Logged in as %s\n", user.Email)
	a.printCVHint(user)
	return nil
}

func (a *App) cmdLogout(_ context.Context, _ []string) error {
	if err := a.session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "👋 Logged out.")
	return nil
}

func (a *App) cmdWhoami(_ context.Context, _ []string) error {
	user := a.session.CurrentUser()
	fmt.Fprintf(a.out, "👤 %s (id %d)\n", user.Email, user.ID)
	if user.HasCV {
		fmt.Fprintln(a.out, "📄 CV: uploaded")
	} else {
		fmt.Fprintln(a.out, "📄 CV: not uploaded")
	}
	return nil
}

func (a *App) printCVHint(user *models.User) {
	if !user.HasCV {
		fmt.Fprintln(a.out, "📄 No CV yet. Upload one with `cvassist cv upload <file.pdf>`.")
	}
}

func (a *App) cmdCV(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: cv status | upload <file.pdf> | wait | delete", ErrUsage)
	}

	switch args[0] {
	case "status":
		status, err := a.cvs.Status(ctx)
		if err != nil {
			return err
		}
		a.printCVStatus(status)
		return nil

	case "upload":
		if len(args) < 2 {
			return fmt.Errorf("%w: cv upload <file.pdf>", ErrUsage)
		}
		fmt.Fprintf(a.out, "📤 Uploading %s...\n", filepath.Base(args[1]))
		res, err := a.cvs.Upload(ctx, args[1])
		if err != nil {
			return err
		}
		a.printProcessing(res)
		return nil

	case "wait":
		fmt.Fprintln(a.out, "⏳ Waiting for CV processing...")
		res, err := a.cvs.Wait(ctx)
		if err != nil {
			return err
		}
		a.printProcessing(res)
		return nil

	case "delete":
		ack, err := a.cvs.Delete(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "🗑️ %s\n", orDefault(ack.Message, "CV deleted."))
		return nil
	}
	return fmt.Errorf("%w: unknown cv command %q", ErrUsage, args[0])
}

func (a *App) printCVStatus(status *models.CVStatus) {
	if !status.HasCV || status.CV == nil {
		fmt.Fprintln(a.out, "📄 No CV uploaded.")
		return
	}
	state := "⏳ still processing"
	if status.CV.Processed {
		state = "✅ processed"
	}
	fmt.Fprintf(a.out, "📄 %s (uploaded %s): %s\n", status.CV.Filename, formatTime(status.CV.UploadedAt), state)
}

func (a *App) printProcessing(res *cv.UploadResult) {
	name := "CV"
	if res.CV != nil {
		name = res.CV.Filename
	}
	switch {
	case res.Processed:
		fmt.Fprintln(a.out, "✅ CV processed. You can now chat and generate applications.")
		a.notify(func(r reporter.Reporter) error { return r.SendStatus(name + " processed") })
	case res.TimedOut:
		fmt.Fprintln(a.out, "⏳ CV is still processing. Check again with `cvassist cv wait`.")
		a.notify(func(r reporter.Reporter) error { return r.SendStatus(name + " is still processing") })
	}
}

func (a *App) cmdAsk(ctx context.Context, args []string) error {
	question := strings.Join(args, " ")
	if strings.TrimSpace(question) == "" {
		question = a.prompt("Question: ")
	}
	question, err := validate.Question(question)
	if err != nil {
		return err
	}

	answer, err := a.client.Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "💬 %s\n", answer.Answer)
	return nil
}

func (a *App) cmdChat(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: chat history | delete <id> | clear", ErrUsage)
	}

	switch args[0] {
	case "history":
		history, err := a.client.ChatHistory(ctx)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Fprintln(a.out, "No chat history yet.")
			return nil
		}
		for _, e := range history {
			fmt.Fprintf(a.out, "#%d  %s\nQ: %s\nA: %s\n\n", e.ID, formatTime(e.CreatedAt), e.Question, e.Answer)
		}
		return nil

	case "delete":
		id, err := parseID(args[1:])
		if err != nil {
			return err
		}
		ack, err := a.client.DeleteChatMessage(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "🗑️ %s\n", orDefault(ack.Message, "Message deleted."))
		return nil

	case "clear":
		ack, err := a.client.ClearChatHistory(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "🗑️ %s\n", orDefault(ack.Message, "Chat history cleared."))
		return nil
	}
	return fmt.Errorf("%w: unknown chat command %q", ErrUsage, args[0])
}

func (a *App) cmdGenerate(ctx context.Context, args []string) error {
	fs := a.flagSet("generate")
	kind := fs.String("type", string(models.CoverLetter), "cover_letter or email")
	jd := fs.String("jd", "", "job description text")
	jdFile := fs.String("jd-file", "", "read the job description from a file")
	jobURL := fs.String("job-url", "", "fetch the job description from a posting URL")
	exportPDF := fs.Bool("pdf", false, "also export a PDF to output_dir")
	notify := fs.Bool("notify", false, "send the result to Telegram")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	appType, err := validate.ApplicationType(*kind)
	if err != nil {
		return err
	}
	text, err := a.jobDescription(ctx, *jd, *jdFile, *jobURL)
	if err != nil {
		return err
	}
	text, err = validate.JobDescription(text)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✍️ Generating %s...\n", strings.ToLower(appType.Label()))
	gen, err := a.client.Generate(ctx, text, appType)
	if err != nil {
		return err
	}
	if gen.Subject != nil && *gen.Subject != "" {
		fmt.Fprintf(a.out, "\nSubject: %s\n", *gen.Subject)
	}
	fmt.Fprintf(a.out, "\n%s\n", gen.Content)

	if !*exportPDF && !*notify {
		return nil
	}
	record := a.savedApplication(ctx, text, appType, gen)
	return a.deliver(ctx, record, *jobURL, *exportPDF, *notify)
}

// jobDescription picks the single source given; stdin when none is.
func (a *App) jobDescription(ctx context.Context, text, file, url string) (string, error) {
	sources := 0
	for _, s := range []string{text, file, url} {
		if s != "" {
			sources++
		}
	}
	if sources > 1 {
		return "", fmt.Errorf("%w: use only one of -jd, -jd-file, -job-url", ErrUsage)
	}

	switch {
	case text != "":
		return text, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read job description: %w", err)
		}
		return string(data), nil
	case url != "":
		fmt.Fprintf(a.out, "🌐 Fetching job posting %s\n", url)
		desc, err := a.fetchJob(ctx, url)
		if err != nil {
			return "", fmt.Errorf("fetch job posting: %w", err)
		}
		return truncateRunes(desc, validate.MaxJobDescriptionLen), nil
	}

	fmt.Fprintln(a.out, "Paste the job description, then press Ctrl-D:")
	data, err := io.ReadAll(a.in)
	if err != nil {
		return "", fmt.Errorf("read job description: %w", err)
	}
	return string(data), nil
}

// savedApplication finds the history record the backend stored for gen. When
// history cannot be read it falls back to a record built from the request.
func (a *App) savedApplication(ctx context.Context, jd string, kind models.ApplicationType, gen *models.Generated) models.Application {
	history, err := a.client.ApplicationHistory(ctx)
	if err == nil {
		for _, app := range history {
			if app.Content == gen.Content && app.ApplicationType == kind {
				return app
			}
		}
	}
	return models.Application{
		JobDescription:  jd,
		ApplicationType: kind,
		Subject:         gen.Subject,
		Content:         gen.Content,
		CreatedAt:       models.Timestamp{Time: time.Now().UTC()},
	}
}

func (a *App) deliver(ctx context.Context, app models.Application, jobURL string, exportPDF, notify bool) error {
	var pdfPath string
	if exportPDF {
		exporter, err := a.pdfExporter()
		if err != nil {
			return err
		}
		data, err := exporter.Generate(ctx, app)
		if err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
		pdfPath = filepath.Join(a.cfg.OutputDir, pdf.FileName(app))
		if err := pdf.SaveToFile(data, pdfPath); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "📎 Saved PDF to %s\n", pdfPath)
	}

	if notify {
		a.notify(func(r reporter.Reporter) error { return r.SendApplication(app, jobURL) })
		if pdfPath != "" {
			a.notify(func(r reporter.Reporter) error { return r.SendDocument(pdfPath, app.ApplicationType.Label()) })
		}
		fmt.Fprintln(a.out, "📨 Sent to Telegram.")
	}
	return nil
}

func (a *App) cmdApps(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: apps list | show [-pdf] [-notify] <id> | delete <id> | clear", ErrUsage)
	}

	switch args[0] {
	case "list":
		history, err := a.client.ApplicationHistory(ctx)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Fprintln(a.out, "No applications yet.")
			return nil
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tCREATED\tROLE")
		for _, app := range history {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", app.ID, app.ApplicationType.Label(), formatTime(app.CreatedAt), truncateRunes(firstLine(app.JobDescription), 60))
		}
		return tw.Flush()

	case "show":
		fs := a.flagSet("apps show")
		exportPDF := fs.Bool("pdf", false, "also export a PDF to output_dir")
		notify := fs.Bool("notify", false, "send the application to Telegram")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
		id, err := parseID(fs.Args())
		if err != nil {
			return err
		}
		app, err := a.client.ApplicationDetail(ctx, id)
		if err != nil {
			return err
		}
		a.printApplication(app)
		if !*exportPDF && !*notify {
			return nil
		}
		return a.deliver(ctx, *app, "", *exportPDF, *notify)

	case "delete":
		id, err := parseID(args[1:])
		if err != nil {
			return err
		}
		ack, err := a.client.DeleteApplication(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "🗑️ %s\n", orDefault(ack.Message, "Application deleted."))
		return nil

	case "clear":
		ack, err := a.client.ClearApplicationHistory(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "🗑️ %s\n", orDefault(ack.Message, "Application history cleared."))
		return nil
	}
	return fmt.Errorf("%w: unknown apps command %q", ErrUsage, args[0])
}

func (a *App) printApplication(app *models.Application) {
	fmt.Fprintf(a.out, "#%d  %s  %s\n", app.ID, app.ApplicationType.Label(), formatTime(app.CreatedAt))
	fmt.Fprintf(a.out, "Job: %s\n", firstLine(app.JobDescription))
	if s := app.SubjectText(); s != "" {
		fmt.Fprintf(a.out, "Subject: %s\n", s)
	}
	fmt.Fprintf(a.out, "\n%s\n", app.Content)
}

func parseID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: missing id", ErrUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrUsage, args[0])
	}
	return id, nil
}

func formatTime(ts models.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
