package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/99minutos/todo-system/internal/client/api"
	"github.com/99minutos/todo-system/internal/client/config"
	"github.com/99minutos/todo-system/internal/client/state"
	"github.com/99minutos/todo-system/internal/client/tui"
)

const usage = `usage: todo [command]

commands:
  register   create an account
  login      log in and store the session
  logout     forget the stored session
  list       print your todos
  tui        interactive view (default)
`

// readPassword is a test seam for term.ReadPassword.
var readPassword = func(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		return string(pw), err
	}
	return "", errors.New("password input requires a terminal")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "todo:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	client *api.Client
	in     io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	a := &app{
		cfg:    cfg,
		client: api.New(cfg.APIURL),
		in:     in,
		reader: bufio.NewReader(in),
		out:    out,
	}

	cmd := "tui"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "register":
		return a.register(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout()
	case "list":
		return a.list(ctx)
	case "tui":
		return a.tui(ctx)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) register(ctx context.Context) error {
	name, err := a.prompt("Name")
	if err != nil {
		return err
	}
	email, password, err := a.credentials()
	if err != nil {
		return err
	}

	if _, err := a.client.Register(ctx, name, email, password); err != nil {
		return describe(err)
	}
	fmt.Fprintln(a.out, state.RegisteredMessage)
	return nil
}

func (a *app) login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}

	token, user, err := a.client.Login(ctx, email, password)
	if err != nil {
		return describe(err)
	}

	if err := config.SaveSession(a.cfg.SessionPath(), &config.Session{
		Token:  token,
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
	}); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", user.Name)
	return nil
}

func (a *app) logout() error {
	if err := config.ClearSession(a.cfg.SessionPath()); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) list(ctx context.Context) error {
	ctrl, err := a.controller()
	if err != nil {
		return err
	}

	s := ctrl.Load(ctx, state.State{})
	if s.NeedsLogin {
		return errors.New("not logged in, run `todo login`")
	}
	if s.Error != "" {
		return errors.New(s.Error)
	}

	if len(s.Items) == 0 {
		fmt.Fprintln(a.out, "No todos yet")
		return nil
	}
	for _, it := range s.Items {
		if it.Description == "" {
			fmt.Fprintf(a.out, "- %s\n", it.Title)
			continue
		}
		fmt.Fprintf(a.out, "- %s: %s\n", it.Title, it.Description)
	}
	return nil
}

func (a *app) tui(ctx context.Context) error {
	ctrl, err := a.controller()
	if err != nil {
		return err
	}
	return tui.Run(ctx, ctrl)
}

func (a *app) controller() (*state.Controller, error) {
	sess, err := config.LoadSession(a.cfg.SessionPath())
	if err != nil {
		return nil, err
	}
	return state.NewController(a.client, func() string { return sess.Token }), nil
}

func (a *app) credentials() (email, password string, err error) {
	if email, err = a.prompt("Email"); err != nil {
		return "", "", err
	}
	fmt.Fprint(a.out, "Password: ")
	password, err = readPassword(a.in)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", "", err
	}
	if err := state.ValidateCredentials(email, password); err != nil {
		return "", "", err
	}
	return email, password, nil
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprintf(a.out, "%s: ", label)
	line, err := a.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// describe prefers the server's error text.
func describe(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return err
}
