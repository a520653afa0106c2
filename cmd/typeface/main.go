// Typeface command-line client
//
// Signs in against a Typeface server and manages the signed-in user's files.
//
// Sub-commands:
//
//	typeface login [-email addr]       Sign in and save the token
//	typeface register [-email addr]    Create an account
//	typeface logout                    Forget the saved token
//	typeface whoami                    Show the signed-in user
//	typeface ls                        List files
//	typeface upload <file>             Upload a file
//	typeface show <id>                 Show a file and its preview
//	typeface download [-o dest] <id>   Save a file to a directory or s3://bucket/prefix
//	typeface rm [-y] <id>              Delete a file
//	typeface shell                     Interactive session
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/typeface/typeface/internal/app"
	"github.com/typeface/typeface/internal/config"
	"github.com/typeface/typeface/internal/logging"
	"github.com/typeface/typeface/internal/route"
	"github.com/typeface/typeface/internal/session"
	"github.com/typeface/typeface/internal/sink"
	"github.com/typeface/typeface/internal/views"
	"github.com/typeface/typeface/pkg/client"
	"github.com/typeface/typeface/pkg/credstore"
)

const usage = `Usage: typeface <command> [flags]

Commands:
  login [-email addr]       Sign in and save the token
  register [-email addr]    Create an account
  logout                    Forget the saved token
  whoami                    Show the signed-in user
  ls                        List files
  upload <file>             Upload a file
  show <id>                 Show a file and its preview
  download [-o dest] <id>   Save a file to a directory or s3://bucket/prefix
  rm [-y] <id>              Delete a file
  shell                     Interactive session

Every command accepts -server URL (default $TYPEFACE_SERVER).
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "login":
		cmdLogin(args)
	case "register":
		cmdRegister(args)
	case "logout":
		cmdLogout(args)
	case "whoami":
		cmdWhoami(args)
	case "ls":
		cmdList(args)
	case "upload":
		cmdUpload(args)
	case "show":
		cmdShow(args)
	case "download":
		cmdDownload(args)
	case "rm":
		cmdRemove(args)
	case "shell":
		cmdShell(args)
	case "help", "-h", "-help", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	logging.Sync()
}

// env is everything a command needs, wired from configuration.
type env struct {
	cfg    *config.Config
	store  *credstore.Store
	client *client.Client
	app    *app.App
}

// setup registers the common flags on fs, parses args and wires the client.
func setup(fs *flag.FlagSet, args []string) *env {
	server := fs.String("server", "", "Server URL (default $TYPEFACE_SERVER)")
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	if *server != "" {
		if err := cfg.SetServer(*server); err != nil {
			fatal(err)
		}
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fatal(err)
	}
	return wire(cfg, os.Stderr)
}

// wire builds the client stack for cfg. Alerts are written to alerts.
func wire(cfg *config.Config, alerts io.Writer) *env {
	e := &env{cfg: cfg, store: credstore.New(cfg.ConfigDir, cfg.ServerURL)}

	var store session.CredentialStore = e.store
	if cfg.Token != "" {
		store = &envTokenStore{Store: e.store, token: cfg.Token}
	}

	var sess *session.Controller
	e.client = client.New(client.Config{
		BaseURL: cfg.ServerURL,
		Timeout: cfg.Timeout,
		Tokens:  client.TokenFunc(func() string { return sess.Token() }),
	})
	sess = session.New(store, e.client)
	if err := sess.Init(); err != nil {
		logging.Warn("could not restore session", zap.Error(err))
	}

	e.app = app.New(sess, e.client, views.AlertFunc(func(msg string) {
		fmt.Fprintf(alerts, "Error: %s\n", msg)
	}))
	logging.Debug("client ready",
		zap.String("server", cfg.ServerURL),
		zap.String("state", sess.State().String()))
	return e
}

// envTokenStore serves TYPEFACE_TOKEN in place of the saved token.
type envTokenStore struct {
	*credstore.Store
	token string
}

func (s *envTokenStore) Get() (*credstore.Credentials, error) {
	creds, err := s.Store.Get()
	if err != nil && !errors.Is(err, credstore.ErrAbsent) {
		return nil, err
	}
	if creds == nil {
		creds = &credstore.Credentials{}
	}
	creds.Token = s.token
	return creds, nil
}

// open navigates to path and fails unless the route that got mounted is want.
func (e *env) open(ctx context.Context, path string, want route.Name) {
	if err := e.app.Navigate(ctx, path); err != nil {
		fatal(err)
	}
	if got := e.app.Current().Name; got != want {
		if got == route.LoginPage {
			fatal(errors.New("not signed in. Run 'typeface login' first"))
		}
		fatal(fmt.Errorf("cannot open %s", path))
	}
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	e := setup(fs, args)
	ctx := context.Background()

	p := newPrompter(os.Stdin)
	if *email == "" {
		*email = p.line("Email: ")
	}
	password := p.password("Password: ")

	if err := e.app.Session().SignIn(ctx, *email, password); err != nil {
		fatal(err)
	}
	fmt.Printf("Signed in as %s. Token saved to %s\n", e.app.Session().Identity().Email, e.store.Dir())
}

func cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	e := setup(fs, args)
	ctx := context.Background()

	p := newPrompter(os.Stdin)
	if *email == "" {
		*email = p.line("Email: ")
	}
	password := p.password("Password: ")
	if confirm := p.password("Confirm password: "); confirm != password {
		fatal(errors.New("passwords do not match"))
	}

	msg, err := e.app.Session().SignUp(ctx, *email, password)
	if err != nil {
		fatal(err)
	}
	fmt.Println(msg)
	fmt.Println("Run 'typeface login' to sign in.")
}

func cmdLogout(args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	e := setup(fs, args)

	if err := e.app.Session().Logout(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	fmt.Println("Signed out.")
}

func cmdWhoami(args []string) {
	fs := flag.NewFlagSet("whoami", flag.ExitOnError)
	e := setup(fs, args)

	sess := e.app.Session()
	if !sess.Authenticated() {
		fmt.Fprintln(os.Stderr, "Not signed in.")
		os.Exit(1)
	}
	printIdentity(os.Stdout, sess.Session(), e.cfg.ServerURL)
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	e := setup(fs, args)

	e.open(context.Background(), route.Home, route.HomePage)
	coll := e.app.Collection()
	if err := coll.Err(); err != nil {
		fatal(err)
	}
	printFiles(os.Stdout, coll.Files())
}

func cmdUpload(args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	e := setup(fs, args)
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: typeface upload <file>\n")
		os.Exit(1)
	}
	ctx := context.Background()

	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	e.open(ctx, route.Home, route.HomePage)
	if err := e.app.Upload(ctx, f, filepath.Base(path)); err != nil {
		if client.IsUnauthorized(err) {
			fatal(errors.New("session expired. Run 'typeface login' again"))
		}
		logging.Sync()
		os.Exit(1)
	}
	fmt.Printf("Uploaded %s\n", filepath.Base(path))
}

func cmdShow(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	e := setup(fs, args)
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: typeface show <id>\n")
		os.Exit(1)
	}

	e.open(context.Background(), route.View(fs.Arg(0)), route.ViewPage)
	d := e.app.Detail()
	if err := d.Err(); err != nil {
		fatal(err)
	}
	printDetail(os.Stdout, d)
}

func cmdDownload(args []string) {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	dest := fs.String("o", ".", "Destination directory or s3://bucket/prefix")
	e := setup(fs, args)
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: typeface download [-o dest] <id>\n")
		os.Exit(1)
	}
	ctx := context.Background()

	s, err := sink.Open(ctx, *dest, e.s3Config())
	if err != nil {
		fatal(err)
	}

	e.open(ctx, route.View(fs.Arg(0)), route.ViewPage)
	d := e.app.Detail()
	if err := d.Err(); err != nil {
		fatal(err)
	}
	loc, err := d.Download(ctx, s)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Saved %s\n", loc)
}

func cmdRemove(args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	yes := fs.Bool("y", false, "Do not ask for confirmation")
	e := setup(fs, args)
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: typeface rm [-y] <id>\n")
		os.Exit(1)
	}
	ctx := context.Background()
	id := fs.Arg(0)

	e.open(ctx, route.Home, route.HomePage)
	coll := e.app.Collection()
	coll.RequestDelete(id)
	if !*yes && !newPrompter(os.Stdin).confirm(views.MsgConfirm+" [y/N] ") {
		coll.CancelDelete()
		fmt.Println("Cancelled.")
		return
	}
	if err := coll.ConfirmDelete(ctx); err != nil {
		logging.Sync()
		os.Exit(1)
	}
	fmt.Printf("Deleted %s\n", id)
}

func cmdShell(args []string) {
	fs := flag.NewFlagSet("shell", flag.ExitOnError)
	e := setup(fs, args)

	if e.cfg.MetricsAddr != "" {
		srv := startMetrics(e.cfg.MetricsAddr)
		defer srv.Close()
	}

	sh := newShell(e, os.Stdin, os.Stdout)
	sh.tty = term.IsTerminal(int(os.Stdin.Fd()))
	if err := sh.run(context.Background()); err != nil {
		fatal(err)
	}
}

func (e *env) s3Config() sink.S3Config {
	return sink.S3Config{
		Endpoint:  e.cfg.S3Endpoint,
		Region:    e.cfg.S3Region,
		AccessKey: e.cfg.S3AccessKey,
		SecretKey: e.cfg.S3SecretKey,
	}
}

// prompter reads answers from the terminal, or from plain lines when
// stdin is not a terminal.
type prompter struct {
	in  *bufio.Reader
	fd  int
	tty bool
}

func newPrompter(f *os.File) *prompter {
	fd := int(f.Fd())
	return &prompter{in: bufio.NewReader(f), fd: fd, tty: term.IsTerminal(fd)}
}

func (p *prompter) line(prompt string) string {
	fmt.Print(prompt)
	s, _ := p.in.ReadString('\n')
	return strings.TrimSpace(s)
}

func (p *prompter) password(prompt string) string {
	if !p.tty {
		return p.line(prompt)
	}
	fmt.Print(prompt)
	b, err := term.ReadPassword(p.fd)
	fmt.Println()
	if err != nil {
		fatal(fmt.Errorf("reading password: %w", err))
	}
	return string(b)
}

func (p *prompter) confirm(prompt string) bool {
	switch strings.ToLower(p.line(prompt)) {
	case "y", "yes":
		return true
	}
	return false
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	logging.Sync()
	os.Exit(1)
}
