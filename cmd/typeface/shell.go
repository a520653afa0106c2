package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/typeface/typeface/internal/route"
	"github.com/typeface/typeface/internal/sink"
	"github.com/typeface/typeface/internal/views"
	"github.com/typeface/typeface/pkg/client"
)

const shellHelp = `Commands:
  go <path>          navigate (/, /login, /signup, /home, /view/<id>)
  ls                 go to /home
  open <id>          go to /view/<id>
  reload             load the current page again
  login [email]      sign in
  signup [email]     create an account
  logout             sign out
  whoami             show the signed-in user
  upload <file>      upload a file (from /home)
  rm <id>            delete a file (from /home)
  download [dest]    save the open file (from /view/<id>)
  delete             delete the open file (from /view/<id>)
  help               show this help
  quit               leave the shell
`

// shell is an interactive loop over the application's routes.
type shell struct {
	e   *env
	in  *bufio.Reader
	out io.Writer
	// tty makes password prompts read from the terminal without echo.
	tty bool
}

func newShell(e *env, in io.Reader, out io.Writer) *shell {
	return &shell{e: e, in: bufio.NewReader(in), out: out}
}

func (s *shell) run(ctx context.Context) error {
	s.navigate(ctx, route.Root)
	for {
		fmt.Fprintf(s.out, "%s> ", s.e.app.Current().Path)
		line, err := s.in.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			if s.exec(ctx, line) {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	app := s.e.app

	switch cmd {
	case "help", "?":
		fmt.Fprint(s.out, shellHelp)
	case "quit", "exit":
		return true
	case "go", "cd":
		if len(args) < 1 {
			s.errorf("usage: go <path>")
			return false
		}
		s.navigate(ctx, args[0])
	case "ls":
		s.navigate(ctx, route.Home)
	case "open":
		if len(args) < 1 {
			s.errorf("usage: open <id>")
			return false
		}
		s.navigate(ctx, route.View(args[0]))
	case "reload":
		if err := app.Reload(ctx); err != nil {
			s.errorf("%v", err)
		}
		s.render()
	case "login":
		email := s.arg(args, "Email: ")
		password := s.password("Password: ")
		if err := app.Session().SignIn(ctx, email, password); err != nil {
			s.errorf("%v", err)
			return false
		}
		s.render()
	case "signup":
		email := s.arg(args, "Email: ")
		password := s.password("Password: ")
		msg, err := app.Session().SignUp(ctx, email, password)
		if err != nil {
			s.errorf("%v", err)
			return false
		}
		fmt.Fprintln(s.out, msg)
		s.render()
	case "logout":
		if err := app.Session().Logout(ctx); err != nil {
			s.errorf("%v", err)
		}
		s.render()
	case "whoami":
		if !app.Session().Authenticated() {
			fmt.Fprintln(s.out, "Not signed in.")
			return false
		}
		printIdentity(s.out, app.Session().Session(), s.e.cfg.ServerURL)
	case "upload":
		if len(args) < 1 {
			s.errorf("usage: upload <file>")
			return false
		}
		if !s.require(route.HomePage) {
			return false
		}
		s.upload(ctx, args[0])
	case "rm":
		if len(args) < 1 {
			s.errorf("usage: rm <id>")
			return false
		}
		if !s.require(route.HomePage) {
			return false
		}
		coll := app.Collection()
		coll.RequestDelete(args[0])
		if !s.confirm() {
			coll.CancelDelete()
			return false
		}
		if coll.ConfirmDelete(ctx) == nil {
			s.render()
		}
	case "download":
		if !s.require(route.ViewPage) {
			return false
		}
		dest := "."
		if len(args) > 0 {
			dest = args[0]
		}
		s.download(ctx, dest)
	case "delete":
		if !s.require(route.ViewPage) {
			return false
		}
		d := app.Detail()
		d.RequestDelete()
		if !s.confirm() {
			d.CancelDelete()
			return false
		}
		if d.ConfirmDelete(ctx) == nil {
			s.render()
		}
	default:
		s.errorf("unknown command %q (try 'help')", cmd)
	}
	return false
}

func (s *shell) navigate(ctx context.Context, path string) {
	if err := s.e.app.Navigate(ctx, path); err != nil {
		s.errorf("%v", err)
	}
	s.render()
}

func (s *shell) render() {
	app := s.e.app
	switch app.Current().Name {
	case route.LoginPage:
		fmt.Fprintln(s.out, "Not signed in. Use 'login <email>' or 'signup <email>'.")
	case route.SignupPage:
		fmt.Fprintln(s.out, "Create an account with 'signup <email>'.")
	case route.HomePage:
		if err := app.Collection().Err(); err != nil {
			s.errorf("could not load files: %v", err)
			return
		}
		printFiles(s.out, app.Collection().Files())
	case route.ViewPage:
		if err := app.Detail().Err(); err != nil {
			s.errorf("could not load file: %v", err)
			return
		}
		printDetail(s.out, app.Detail())
	default:
		fmt.Fprintln(s.out, "404 page not found")
	}
}

func (s *shell) upload(ctx context.Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		s.errorf("%v", err)
		return
	}
	defer f.Close()

	if err := s.e.app.Upload(ctx, f, filepath.Base(path)); err != nil {
		if client.IsUnauthorized(err) {
			s.errorf("session expired")
			s.render()
		}
		return
	}
	fmt.Fprintf(s.out, "Uploaded %s\n", filepath.Base(path))
	s.render()
}

func (s *shell) download(ctx context.Context, dest string) {
	out, err := sink.Open(ctx, dest, s.e.s3Config())
	if err != nil {
		s.errorf("%v", err)
		return
	}
	loc, err := s.e.app.Detail().Download(ctx, out)
	if err != nil {
		s.errorf("%v", err)
		return
	}
	fmt.Fprintf(s.out, "Saved %s\n", loc)
}

// require reports whether name is mounted, printing a hint when it is not.
func (s *shell) require(name route.Name) bool {
	if s.e.app.Current().Name == name {
		return true
	}
	s.errorf("not available on %s", s.e.app.Current().Path)
	return false
}

func (s *shell) arg(args []string, prompt string) string {
	if len(args) > 0 {
		return args[0]
	}
	return s.line(prompt)
}

func (s *shell) line(prompt string) string {
	fmt.Fprint(s.out, prompt)
	l, _ := s.in.ReadString('\n')
	return strings.TrimSpace(l)
}

func (s *shell) password(prompt string) string {
	if !s.tty {
		return s.line(prompt)
	}
	fmt.Fprint(s.out, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(s.out)
	if err != nil {
		s.errorf("reading password: %v", err)
		return ""
	}
	return string(b)
}

func (s *shell) confirm() bool {
	switch strings.ToLower(s.line(views.MsgConfirm + " [y/N] ")) {
	case "y", "yes":
		return true
	}
	return false
}

func (s *shell) errorf(format string, args ...any) {
	fmt.Fprintf(s.out, "Error: "+format+"\n", args...)
}
