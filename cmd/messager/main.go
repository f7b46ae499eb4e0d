package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/kolt2050/messager/internal/config"
	"github.com/kolt2050/messager/internal/gateway"
	"github.com/kolt2050/messager/internal/media"
	"github.com/kolt2050/messager/internal/models"
	"github.com/kolt2050/messager/internal/rest"
	"github.com/kolt2050/messager/internal/session"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "connect":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: messager connect <server-url>")
			os.Exit(1)
		}
		os.Exit(runConnect(os.Args[2]))
	case "login":
		os.Exit(runLogin())
	case "chat":
		os.Exit(runChat())
	case "logout":
		os.Exit(runLogout())
	case "disconnect":
		os.Exit(runDisconnect())
	case "version":
		fmt.Printf("messager %s\n", version)
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: messager <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  connect <url>  Validate and save a server address")
	fmt.Println("  login          Authenticate and save the session token")
	fmt.Println("  chat           Log in if needed and open the chat session")
	fmt.Println("  logout         Discard the saved login token")
	fmt.Println("  disconnect     Forget the server address and token")
	fmt.Println("  version        Print version info")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  MESSAGER_SERVER_URL  Override the saved server address")
	fmt.Println("  MESSAGER_CONFIG      Alternate session file location")
	fmt.Println("  LOG_LEVEL            debug, info, warn, or error")
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	return cfg
}

// --- connect ---

func runConnect(serverURL string) int {
	cfg := loadConfig()
	ctrl := session.NewController(cfg)

	fmt.Printf("checking %s ...\n", serverURL)
	if err := ctrl.Connect(context.Background(), serverURL); err != nil {
		if errors.Is(err, session.ErrServerUnreachable) {
			fmt.Fprintln(os.Stderr, "error: server unreachable or address invalid")
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		return 1
	}
	fmt.Println("server saved; run 'messager chat' to log in")
	return 0
}

// --- login ---

func runLogin() int {
	cfg := loadConfig()
	ctrl := session.NewController(cfg)
	if !ctrl.Connected() {
		fmt.Fprintln(os.Stderr, "error: no server configured; run 'messager connect <url>' first")
		return 1
	}
	if err := interactiveLogin(context.Background(), ctrl); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Printf("logged in as %s; run 'messager chat'\n", ctrl.CurrentUser().Username)
	return 0
}

// --- logout / disconnect ---

func runLogout() int {
	cfg := loadConfig()
	if err := session.NewController(cfg).Logout(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Println("logged out")
	return 0
}

func runDisconnect() int {
	cfg := loadConfig()
	if err := session.NewController(cfg).Disconnect(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Println("server address and token cleared")
	return 0
}

// --- chat ---

func runChat() int {
	cfg := loadConfig()
	ctrl := session.NewController(cfg)
	if !ctrl.Connected() {
		fmt.Fprintln(os.Stderr, "error: no server configured; run 'messager connect <url>' first")
		return 1
	}

	ui := &chatUI{ctrl: ctrl, out: os.Stdout}
	ctrl.EventHook = ui.onEvent

	ctx := context.Background()
	if err := ctrl.Resume(ctx); err != nil {
		if !errors.Is(err, session.ErrNotAuthenticated) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		if err := interactiveLogin(ctx, ctrl); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
	}

	fmt.Printf("logged in as %s\n", ctrl.CurrentUser().Username)
	ui.printChannels()
	ui.loop()
	return 0
}

func interactiveLogin(ctx context.Context, ctrl *session.Controller) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	fmt.Print("password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return err
	}

	err = ctrl.Login(ctx, strings.ToLower(strings.TrimSpace(username)), string(password))
	if errors.Is(err, rest.ErrUnauthorized) {
		return errors.New("invalid credentials")
	}
	return err
}

// chatUI is the line-oriented terminal frontend. Rendering and styling stay
// out of the core packages; everything here is glue over the controller.
type chatUI struct {
	ctrl *session.Controller
	out  *os.File
}

// onEvent repaints after the store has applied a push event.
func (ui *chatUI) onEvent(ev gateway.Event) {
	switch ev.Type {
	case gateway.EventNewMessage:
		if ev.Message != nil && ev.Message.ChannelID == ui.ctrl.Conversations().ActiveChannelID() {
			ui.printMessage(*ev.Message)
		}
	case gateway.EventChannelDeleted:
		fmt.Fprintf(ui.out, "* a channel was deleted\n")
	}
}

func (ui *chatUI) loop() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("type /help for commands; anything else is sent to the active channel")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}
		ui.dispatch(line)
	}
}

// dispatch runs one command. A panic anywhere below is isolated here so a
// render fault degrades to a notice instead of killing the session.
func (ui *chatUI) dispatch(line string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("command failed", "panic", r)
			fmt.Fprintln(ui.out, "something went wrong; type /channels to reload the view")
		}
	}()

	ctx := context.Background()
	convs := ui.ctrl.Conversations()

	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "/help":
		ui.printHelp()
	case "/channels":
		if err := convs.RefreshChannels(ctx); err != nil {
			ui.notice(err)
			return
		}
		ui.printChannels()
	case "/join":
		ui.join(ctx, arg)
	case "/create":
		channel, err := convs.CreateChannel(ctx, arg)
		if err != nil {
			ui.notice(err)
			return
		}
		ui.join(ctx, strconv.FormatInt(channel.ID, 10))
	case "/delete-channel":
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			fmt.Fprintln(ui.out, "usage: /delete-channel <id>")
			return
		}
		if err := convs.DeleteChannel(ctx, id); err != nil {
			ui.notice(err)
		}
	case "/delete":
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			fmt.Fprintln(ui.out, "usage: /delete <message-id>")
			return
		}
		if err := convs.DeleteMessage(ctx, id); err != nil {
			ui.notice(err)
		}
	case "/upload":
		ui.upload(ctx, arg)
	case "/invite":
		ui.invite(ctx, arg)
	case "/kick":
		ui.kick(ctx, arg)
	case "/members":
		ui.printMembers()
	case "/users":
		ui.printUsers(ctx)
	default:
		if strings.HasPrefix(cmd, "/") {
			fmt.Fprintf(ui.out, "unknown command %s; type /help\n", cmd)
			return
		}
		if err := convs.SendMessage(ctx, convs.ActiveChannelID(), line, nil, nil); err != nil {
			ui.notice(err)
		}
	}
}

func (ui *chatUI) printHelp() {
	fmt.Fprintln(ui.out, "/channels              list channels")
	fmt.Fprintln(ui.out, "/join <id>             switch to a channel")
	fmt.Fprintln(ui.out, "/create <name>         create a channel and join it")
	fmt.Fprintln(ui.out, "/delete-channel <id>   delete a channel")
	fmt.Fprintln(ui.out, "/delete <message-id>   delete a message")
	fmt.Fprintln(ui.out, "/upload <path>         send a file to the active channel")
	fmt.Fprintln(ui.out, "/invite <username>     add a user to the active channel")
	fmt.Fprintln(ui.out, "/kick <user-id>        remove a user from the active channel")
	fmt.Fprintln(ui.out, "/members               list members of the active channel")
	fmt.Fprintln(ui.out, "/users                 list users (admin)")
	fmt.Fprintln(ui.out, "/quit                  exit")
}

func (ui *chatUI) join(ctx context.Context, arg string) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		fmt.Fprintln(ui.out, "usage: /join <id>")
		return
	}
	convs := ui.ctrl.Conversations()
	if err := convs.SetActiveChannel(ctx, id); err != nil {
		ui.notice(err)
		return
	}
	for _, msg := range convs.Messages() {
		ui.printMessage(msg)
	}
}

func (ui *chatUI) upload(ctx context.Context, path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		fmt.Fprintln(ui.out, "usage: /upload <path>")
		return
	}
	convs := ui.ctrl.Conversations()
	if convs.ActiveChannelID() == 0 {
		fmt.Fprintln(ui.out, "join a channel first")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		ui.notice(err)
		return
	}
	defer f.Close()

	result, err := ui.ctrl.Client().Upload(ctx, filepath.Base(path), f)
	if err != nil {
		ui.notice(err)
		return
	}
	if err := convs.SendMessage(ctx, convs.ActiveChannelID(), "", &result.URL, result.ThumbnailURL); err != nil {
		ui.notice(err)
	}
}

func (ui *chatUI) invite(ctx context.Context, arg string) {
	username := strings.TrimSpace(arg)
	if username == "" {
		fmt.Fprintln(ui.out, "usage: /invite <username>")
		return
	}
	convs := ui.ctrl.Conversations()
	if convs.ActiveChannelID() == 0 {
		fmt.Fprintln(ui.out, "join a channel first")
		return
	}
	if err := ui.ctrl.Client().AddChannelMember(ctx, convs.ActiveChannelID(), username); err != nil {
		ui.notice(err)
		return
	}
	if err := convs.RefreshChannels(ctx); err != nil {
		ui.notice(err)
	}
}

func (ui *chatUI) kick(ctx context.Context, arg string) {
	userID, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		fmt.Fprintln(ui.out, "usage: /kick <user-id>")
		return
	}
	convs := ui.ctrl.Conversations()
	if convs.ActiveChannelID() == 0 {
		fmt.Fprintln(ui.out, "join a channel first")
		return
	}
	if err := ui.ctrl.Client().RemoveChannelMember(ctx, convs.ActiveChannelID(), userID); err != nil {
		ui.notice(err)
		return
	}
	if err := convs.RefreshChannels(ctx); err != nil {
		ui.notice(err)
	}
}

func (ui *chatUI) printChannels() {
	channels := ui.ctrl.Conversations().Channels()
	if len(channels) == 0 {
		fmt.Fprintln(ui.out, "no channels yet; /create <name>")
		return
	}
	active := ui.ctrl.Conversations().ActiveChannelID()
	for _, ch := range channels {
		marker := " "
		if ch.ID == active {
			marker = "*"
		}
		fmt.Fprintf(ui.out, "%s %4d  #%s (%d members)\n", marker, ch.ID, ch.Name, len(ch.Members))
	}
}

func (ui *chatUI) printMembers() {
	channel := ui.ctrl.Conversations().ActiveChannel()
	if channel == nil {
		fmt.Fprintln(ui.out, "join a channel first")
		return
	}
	for _, m := range channel.Members {
		owner := ""
		if channel.IsOwner(m.ID) {
			owner = " (owner)"
		}
		fmt.Fprintf(ui.out, "  %s%s\n", m.Username, owner)
	}
}

func (ui *chatUI) printUsers(ctx context.Context) {
	convs := ui.ctrl.Conversations()
	if err := convs.RefreshUsers(ctx); err != nil {
		ui.notice(err)
		return
	}
	for _, u := range convs.Users() {
		role := ""
		if u.IsAdmin {
			role = " [admin]"
		}
		fmt.Fprintf(ui.out, "  %4d  %s%s\n", u.ID, u.Username, role)
	}
}

// printMessage renders one message: classified text plus the embed line for
// a recognized media reference.
func (ui *chatUI) printMessage(msg models.Message) {
	content := media.Classify(msg.Content)
	name := msg.Username
	if name == "" {
		name = strconv.FormatInt(msg.UserID, 10)
	}

	if content.Text != "" {
		fmt.Fprintf(ui.out, "[%d] %s: %s\n", msg.ID, name, content.Text)
	} else {
		fmt.Fprintf(ui.out, "[%d] %s:\n", msg.ID, name)
	}
	if content.Media != nil {
		embed := ui.ctrl.Renderer().Resolve(context.Background(), *content.Media)
		if embed.Native() {
			fmt.Fprintf(ui.out, "      video: %s\n", embed.PlayerURL)
		} else {
			fmt.Fprintf(ui.out, "      embed: %s\n", embed.FrameURL)
		}
	}
	if msg.ImageURL != nil {
		fmt.Fprintf(ui.out, "      image: %s\n", *msg.ImageURL)
	}
}

// notice prints a server-rejected mutation or transport failure as a
// transient user-facing message; local state is already untouched.
func (ui *chatUI) notice(err error) {
	var apiErr *rest.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(ui.out, "server: %s\n", apiErr.Error())
		return
	}
	fmt.Fprintf(ui.out, "error: %v\n", err)
}
