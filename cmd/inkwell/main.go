package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/inkwellhq/inkwell/internal/aicontent"
	"github.com/inkwellhq/inkwell/internal/blog"
	"github.com/inkwellhq/inkwell/internal/client"
	"github.com/inkwellhq/inkwell/internal/config"
	httpapp "github.com/inkwellhq/inkwell/internal/http"
	"github.com/inkwellhq/inkwell/internal/identity"
	"github.com/inkwellhq/inkwell/internal/rate"
	"github.com/inkwellhq/inkwell/internal/speech"
	"github.com/inkwellhq/inkwell/internal/store/sqlite"
	"github.com/inkwellhq/inkwell/internal/token"
)

// CLIConfig holds the CLI client configuration persisted to disk.
type CLIConfig struct {
	BaseURL string `json:"base_url"`
	Email   string `json:"email"`
	Token   string `json:"token"`
}

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	cmd := os.Args[1]

	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Println("inkwell v0.1.0")
		return
	}

	if strings.HasPrefix(cmd, "-") {
		runServer()
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "server", "serve":
		runServer()
	case "register":
		cmdRegister(args)
	case "login", "auth":
		cmdLogin(args)
	case "post", "publish":
		cmdPost(args)
	case "read", "list":
		cmdRead(args)
	case "like":
		cmdLike(args)
	case "unlike":
		cmdUnlike(args)
	case "comment":
		cmdComment(args)
	case "delete", "rm":
		cmdDelete(args)
	case "generate", "draft":
		cmdGenerate(args)
	case "speak":
		cmdSpeak(args)
	case "status", "whoami":
		cmdStatus(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`inkwell - blog platform backend

Usage: inkwell <command> [options]

Quick Start:
  inkwell register --email you@example.com --password secret --name You
  inkwell login --email you@example.com --password secret
  inkwell post --title "Hello" --content "<p>First post</p>"

Client Commands:
  register            Create an account at the identity provider
  login               Authenticate and store the session token
  post                Publish a new post
  read                Read posts (all, one, or by user)
  like / unlike       Like or unlike a post
  comment             Comment on a post
  delete              Delete your own post
  generate            Draft post content from a title with the AI proxy
  speak               Fetch the WAV rendering of a post
  status              Show current config and token status

Server:
  server              Start the inkwell server (default if no command)

Environment Variables (server):
  INKWELL_ADDR            Listen address (default: :8080)
  INKWELL_DB              Database path (default: inkwell.db)
  INKWELL_JWT_SECRET      Session token signing secret
  INKWELL_TOKEN_TTL       Session token lifetime (default: 3h)
  INKWELL_IDENTITY_URL    Identity provider base URL
  INKWELL_IDENTITY_KEY    Identity provider API key
  INKWELL_AI_URL          Generative-text API base URL
  INKWELL_AI_KEY          Generative-text API key
  INKWELL_SPEECH_BIN      Speech synthesis binary (default: espeak-ng)`)
}

// ============================================================================
// SERVER
// ============================================================================

func runServer() {
	cfg := config.Load()

	st, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer st.Close()

	blogSvc := blog.NewService(st)
	tokens := token.NewService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TokenTTL)
	idp := identity.New(cfg.Identity.BaseURL, cfg.Identity.APIKey)
	ai := aicontent.New(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)
	synth := speech.NewEspeak(cfg.Speech.Binary, cfg.Speech.Voice, cfg.Speech.Volume, cfg.Speech.Rate)
	reader := speech.NewReader(blogSvc, synth)
	limiter := rate.NewMemory()

	server := httpapp.NewServer(blogSvc, tokens, idp, ai, reader, limiter, cfg)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("inkwell listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func cmdRegister(args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "Email (required)")
	password := fs.String("password", "", "Password (required)")
	name := fs.String("name", "", "Display name")
	url := fs.String("url", "http://localhost:8080", "Inkwell server URL")
	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --email and --password are required")
		os.Exit(1)
	}

	c := client.New(strings.TrimSuffix(*url, "/"))
	if err := c.Register(*email, *password, *name); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := CLIConfig{BaseURL: c.BaseURL, Email: *email}
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Registered %s\n", *email)
	fmt.Println("\nNext: inkwell login --email", *email, "--password ...")
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Email")
	password := fs.String("password", "", "Password (required)")
	url := fs.String("url", "", "Inkwell server URL")
	fs.Parse(args)

	cfg, _ := loadCLIConfig()
	if *email != "" {
		cfg.Email = *email
	}
	if *url != "" {
		cfg.BaseURL = strings.TrimSuffix(*url, "/")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Error: --email and --password are required")
		os.Exit(1)
	}

	c := client.New(cfg.BaseURL)
	if err := c.Login(cfg.Email, *password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg.Token = c.Token
	if err := saveCLIConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Logged in as %s\n", cfg.Email)
}

func cmdPost(args []string) {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	title := fs.String("title", "", "Post title (required)")
	content := fs.String("content", "", "HTML content (required)")
	image := fs.String("image", "", "Path to a cover image")
	tags := fs.String("tags", "", "Comma-separated tags")
	fs.Parse(args)

	if *title == "" || *content == "" {
		fmt.Fprintln(os.Stderr, "Error: --title and --content are required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var imageBytes []byte
	if *image != "" {
		imageBytes, err = os.ReadFile(*image)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading image: %v\n", err)
			os.Exit(1)
		}
	}

	post, err := c.CreatePost(*title, *content, imageBytes, splitTags(*tags))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Posted: %s\n", post.Title)
	fmt.Printf("  ID: %s\n", post.ID)
}

func cmdRead(args []string) {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	postID := fs.String("post", "", "Read one post with its comments")
	fs.Parse(args)

	c := loadClient()

	if *postID != "" {
		post, err := c.GetPost(*postID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n%s\n", post.Title)
		fmt.Printf("  by %s | %d likes | %s\n", post.UserName, post.Likes, post.CreatedAt.Format("2006-01-02"))
		if len(post.Tags) > 0 {
			fmt.Printf("  tags: %s\n", strings.Join(post.Tags, ", "))
		}
		fmt.Printf("\n  %s\n", post.Content)
		if len(post.Comments) > 0 {
			fmt.Printf("\n  --- Comments (%d) ---\n", len(post.Comments))
			for _, comment := range post.Comments {
				fmt.Printf("  [%s] %s: %s\n", comment.ID[:8], comment.UserName, comment.Text)
			}
		}
		return
	}

	posts, err := c.ListPosts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✒ Inkwell (%d posts)\n\n", len(posts))
	for i, p := range posts {
		fmt.Printf("%d. %s\n", i+1, p.Title)
		fmt.Printf("   %d likes | %d comments | by %s | %s\n\n",
			p.Likes, len(p.Comments), p.UserName, p.ID)
	}
}

func cmdLike(args []string) {
	likes, postID := runLikeCommand("like", args, func(c *client.Client, id string) (int, error) {
		return c.LikePost(id)
	})
	fmt.Printf("✓ Liked post %s (%d likes)\n", postID, likes)
}

func cmdUnlike(args []string) {
	likes, postID := runLikeCommand("unlike", args, func(c *client.Client, id string) (int, error) {
		return c.UnlikePost(id)
	})
	fmt.Printf("✓ Unliked post %s (%d likes)\n", postID, likes)
}

func runLikeCommand(name string, args []string, op func(*client.Client, string) (int, error)) (int, string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	fs.Parse(args)

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "Error: --post is required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	likes, err := op(c, *postID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return likes, *postID
}

func cmdComment(args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	text := fs.String("text", "", "Comment text (required)")
	fs.Parse(args)

	if *postID == "" || *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --post and --text are required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := c.CommentPost(*postID, *text); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Commented on post %s\n", *postID)
}

func cmdDelete(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID to delete (required)")
	fs.Parse(args)

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "Error: --post is required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := c.DeletePost(*postID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Deleted post %s\n", *postID)
}

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	title := fs.String("title", "", "Title to write about (required)")
	fs.Parse(args)

	if *title == "" {
		fmt.Fprintln(os.Stderr, "Error: --title is required")
		os.Exit(1)
	}

	c, err := loadAuthenticatedClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	content, err := c.Generate(*title)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(content)
}

func cmdSpeak(args []string) {
	fs := flag.NewFlagSet("speak", flag.ExitOnError)
	postID := fs.String("post", "", "Post ID (required)")
	out := fs.String("out", "", "Output WAV path (default: post-<id>.wav)")
	fs.Parse(args)

	if *postID == "" {
		fmt.Fprintln(os.Stderr, "Error: --post is required")
		os.Exit(1)
	}

	c := loadClient()
	audio, err := c.ReadPost(*postID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("post-%s.wav", *postID)
	}
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("✓ Wrote %s (%d bytes)\n", path, len(audio))
}

func cmdStatus(args []string) {
	cfg, err := loadCLIConfig()
	if err != nil {
		fmt.Println("Not configured. Run 'inkwell register' or 'inkwell login'.")
		return
	}
	fmt.Printf("Server: %s\n", cfg.BaseURL)
	fmt.Printf("Email:  %s\n", cfg.Email)
	if cfg.Token == "" {
		fmt.Println("Token:  none (run 'inkwell login')")
	} else {
		fmt.Println("Token:  present")
	}
}

// ============================================================================
// CLI CONFIG
// ============================================================================

func cliConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".inkwell.json"
	}
	return filepath.Join(home, ".config", "inkwell", "config.json")
}

func loadCLIConfig() (CLIConfig, error) {
	var cfg CLIConfig
	data, err := os.ReadFile(cliConfigPath())
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func saveCLIConfig(cfg CLIConfig) error {
	path := cliConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func loadClient() *client.Client {
	cfg, _ := loadCLIConfig()
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	c := client.New(baseURL)
	c.Token = cfg.Token
	return c
}

func loadAuthenticatedClient() (*client.Client, error) {
	cfg, err := loadCLIConfig()
	if err != nil {
		return nil, fmt.Errorf("no CLI config; run 'inkwell login' first")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("no session token; run 'inkwell login' first")
	}
	c := client.New(cfg.BaseURL)
	c.Token = cfg.Token
	return c, nil
}

func splitTags(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(input, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
