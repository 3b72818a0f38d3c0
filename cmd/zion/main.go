package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/zioncity/zion-sync/internal/config"
	"github.com/zioncity/zion-sync/internal/session"
	"github.com/zioncity/zion-sync/internal/storage"
	"github.com/zioncity/zion-sync/internal/zion"
)

var cfg config.Config

func main() {
	// Parse global flags
	globalFlags := flag.NewFlagSet("global", flag.ExitOnError)
	configFlag := globalFlags.String("config", "", "Path to a YAML config file")
	dataDirFlag := globalFlags.String("data-dir", "", "Directory for database and index files")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Find where the command starts (skip global flags)
	commandIdx := len(os.Args)
	for i := 1; i < len(os.Args); i++ {
		if !strings.HasPrefix(os.Args[i], "-") {
			commandIdx = i
			break
		}
	}
	if commandIdx > 1 {
		globalFlags.Parse(os.Args[1:commandIdx])
	}
	if commandIdx >= len(os.Args) {
		printUsage()
		os.Exit(1)
	}

	var err error
	cfg, err = config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *dataDirFlag != "" {
		cfg.DataDir = *dataDirFlag
	}

	command := os.Args[commandIdx]
	args := os.Args[commandIdx+1:]

	switch command {
	case "login":
		runLogin(args)
	case "register":
		runRegister(args)
	case "logout":
		runLogout()
	case "whoami":
		runWhoami()
	case "onboarding":
		runOnboarding(args)
	case "feed":
		runFeed(args)
	case "post":
		runPost(args)
	case "like":
		runLike(args)
	case "comments":
		runComments(args)
	case "comment":
		runComment(args)
	case "comment-like":
		runCommentLike(args)
	case "search":
		runSearch(args)
	case "reindex":
		runReindex()
	case "stats":
		runStats()
	case "serve":
		runServe(args)
	case "eric":
		runEric(args)
	case "templates":
		runTemplates(args)
	case "admin":
		runAdmin(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("zion - ZION.CITY journal and workspace client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  zion [global-flags] <command> [flags]")
	fmt.Println()
	fmt.Println("Global Flags:")
	fmt.Println("  --config=<file>    YAML config file (env ZION_API_URL, ZION_DATA_DIR, ZION_TIMEOUT override it)")
	fmt.Println("  --data-dir=<dir>   Directory for database and index files (default: ./data)")
	fmt.Println()
	fmt.Println("Account:")
	fmt.Println("  login -email=<e> -password=<p>       Sign in and store the session token")
	fmt.Println("  register [flags]                     Create an account and sign in")
	fmt.Println("  logout                               Forget the stored session")
	fmt.Println("  whoami                               Show the signed-in profile")
	fmt.Println("  onboarding key=value...              Complete onboarding and reload the profile")
	fmt.Println()
	fmt.Println("Journal:")
	fmt.Println("  feed [-school=<org>] [-audience=<a>] Show the merged feed and archive it")
	fmt.Println("  post -org=<org> [-audience=<a>] [-file=<path>]... <text>")
	fmt.Println("  like <post-id>                       Toggle your like on a post")
	fmt.Println("  comments <post-id>                   Show the comment thread of a post")
	fmt.Println("  comment [-reply-to=<id>] <post-id> <text>")
	fmt.Println("  comment-like <comment-id> <post-id>  Toggle your like on a comment")
	fmt.Println()
	fmt.Println("Archive:")
	fmt.Println("  search [-org] [-audience] [-limit] <query>  Search archived posts")
	fmt.Println("  reindex                              Rebuild the search index from the archive")
	fmt.Println("  stats                                Show archive statistics")
	fmt.Println("  serve [-host] [-port]                Browse the archive over HTTP")
	fmt.Println()
	fmt.Println("Workspace:")
	fmt.Println("  eric get -org=<org>                  Show assistant settings")
	fmt.Println("  eric set -org=<org> [flags]          Update assistant settings")
	fmt.Println("  templates list|create|update|delete -org=<org> [flags]")
	fmt.Println()
	fmt.Println("Admin:")
	fmt.Println("  admin login|verify|logout")
	fmt.Println()
	fmt.Println("Audiences: PUBLIC, TEACHERS_ONLY, PARENTS_ONLY, STUDENTS_PARENTS (or all)")
}

func openDB() *storage.DB {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("Error creating data directory: %v", err)
	}
	db, err := storage.Open(cfg.DBPath())
	if err != nil {
		log.Fatalf("Error opening database: %v", err)
	}
	return db
}

func newAPI() *zion.Client {
	return zion.NewClient(cfg.APIURL, cfg.Timeout)
}

// openSession restores the stored session. A rejected token is reported and
// cleared, a server that cannot be reached keeps it.
func openSession(ctx context.Context, db *storage.DB) *session.Store {
	store := session.New(newAPI(), db)
	if err := store.Initialize(ctx); err != nil {
		log.Printf("Warning: could not load profile: %s", zion.Message(err))
	}
	return store
}

// requireSession exits unless a profile is loaded
func requireSession(ctx context.Context, db *storage.DB) *session.Store {
	store := openSession(ctx, db)
	if store.Token() == "" {
		log.Fatal("Error: not signed in, run: zion login -email=<email> -password=<password>")
	}
	if store.User() == nil {
		log.Fatal("Error: session kept but profile unavailable, try again later")
	}
	return store
}

func fatal(action string, err error) {
	log.Fatalf("Error %s: %s", action, zion.Message(err))
}
