package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/zioncity/zion-sync/internal/archive"
	"github.com/zioncity/zion-sync/internal/feed"
	"github.com/zioncity/zion-sync/internal/search"
	"github.com/zioncity/zion-sync/internal/session"
	"github.com/zioncity/zion-sync/internal/storage"
	"github.com/zioncity/zion-sync/internal/upload"
	"github.com/zioncity/zion-sync/internal/web"
	"github.com/zioncity/zion-sync/internal/zion"
)

// fileList collects repeated -file flags
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func openIndex() *search.Index {
	idx, err := search.Open(cfg.IndexPath())
	if err != nil {
		log.Fatalf("Error opening search index: %v", err)
	}
	return idx
}

// newFeed builds a feed for the signed-in viewer that archives what it sees
func newFeed(store *session.Store, db *storage.DB, idx *search.Index) *feed.Sync {
	return feed.New(store.Client(), store.User().Memberships, feed.WithArchive(archive.New(db, idx)))
}

func parseAudience(v string) zion.Audience {
	a := zion.Audience(strings.ToUpper(v))
	if !a.Valid() {
		log.Fatalf("Error: unknown audience %q", v)
	}
	return a
}

func runFeed(args []string) {
	fs := flag.NewFlagSet("feed", flag.ExitOnError)
	school := fs.String("school", feed.All, "Organization id, or all")
	audience := fs.String("audience", feed.All, "Audience filter, or all")
	fs.Parse(args)

	if *audience != feed.All {
		*audience = string(parseAudience(*audience))
	}

	db := openDB()
	defer db.Close()
	idx := openIndex()
	defer idx.Close()

	ctx := context.Background()
	store := requireSession(ctx, db)
	posts := newFeed(store, db, idx).FetchAll(ctx, *school, *audience)

	if len(posts) == 0 {
		fmt.Println("No posts")
		return
	}
	for _, p := range posts {
		printPost(p)
	}
}

func printPost(p zion.Post) {
	liked := " "
	if p.UserHasLiked {
		liked = "*"
	}
	fmt.Printf("[%s] %s %s %s (%s)\n", p.ID, p.CreatedAt.Local().Format("2006-01-02 15:04"),
		strings.TrimSpace(p.Author.FirstName+" "+p.Author.LastName), p.AudienceType, p.OrganizationID)
	fmt.Printf("  %s\n", strings.ReplaceAll(p.Content, "\n", "\n  "))
	for _, m := range p.MediaFiles {
		fmt.Printf("  + %s %s\n", m.OriginalName, m.FileURL)
	}
	fmt.Printf("  %s%d likes, %d comments\n\n", liked, p.LikesCount, p.CommentsCount)
}

func runPost(args []string) {
	fs := flag.NewFlagSet("post", flag.ExitOnError)
	org := fs.String("org", feed.NoSelection, "Organization to post in")
	audience := fs.String("audience", string(zion.AudiencePublic), "Audience of the post")
	var files fileList
	fs.Var(&files, "file", "Attach a file (repeatable)")
	fs.Parse(args)

	content := strings.Join(fs.Args(), " ")
	aud := parseAudience(*audience)

	db := openDB()
	defer db.Close()
	idx := openIndex()
	defer idx.Close()

	ctx := context.Background()
	store := requireSession(ctx, db)

	var mediaIDs []string
	if len(files) > 0 {
		uploads := upload.New(store.Client(), cfg.SourceModule)
		uploads.SetAudience(aud)

		selected := make([]upload.File, len(files))
		for i, path := range files {
			selected[i] = upload.FromPath(path)
		}
		if err := uploads.SelectFiles(ctx, selected).Wait(); err != nil {
			fatal("uploading files", err)
		}
		mediaIDs = uploads.MediaIDs()
		log.Printf("Uploaded %d files", len(mediaIDs))
	}

	f := newFeed(store, db, idx)
	if err := f.CreatePost(ctx, *org, content, aud, mediaIDs); err != nil {
		fatal("creating post", err)
	}
	fmt.Println("Posted")
}

func runLike(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: zion like <post-id>")
		os.Exit(1)
	}
	postID := args[0]

	db := openDB()
	defer db.Close()
	idx := openIndex()
	defer idx.Close()

	ctx := context.Background()
	store := requireSession(ctx, db)
	f := newFeed(store, db, idx)
	f.FetchAll(ctx, feed.All, feed.All)

	if err := f.ToggleLike(ctx, postID); err != nil {
		fatal("toggling like", err)
	}
	if p, ok := f.Post(postID); ok {
		fmt.Printf("Liked: %v (%d likes)\n", p.UserHasLiked, p.LikesCount)
		return
	}
	fmt.Println("Like toggled")
}

func runComments(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: zion comments <post-id>")
		os.Exit(1)
	}

	db := openDB()
	defer db.Close()

	ctx := context.Background()
	store := requireSession(ctx, db)
	f := feed.New(store.Client(), store.User().Memberships)

	comments, err := f.LoadComments(ctx, args[0])
	if err != nil {
		fatal("loading comments", err)
	}
	printComments(comments)
}

func printComments(comments []zion.Comment) {
	if len(comments) == 0 {
		fmt.Println("No comments")
		return
	}
	for _, c := range comments {
		fmt.Printf("[%s] %s: %s (%d likes)\n", c.ID, c.Author.FirstName, c.Content, c.LikesCount)
		for _, r := range c.Replies {
			fmt.Printf("    [%s] %s: %s (%d likes)\n", r.ID, r.Author.FirstName, r.Content, r.LikesCount)
		}
	}
}

func runComment(args []string) {
	fs := flag.NewFlagSet("comment", flag.ExitOnError)
	replyTo := fs.String("reply-to", "", "Comment id to reply to")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: zion comment [-reply-to=<id>] <post-id> <text>")
		os.Exit(1)
	}
	postID := fs.Arg(0)
	content := strings.Join(fs.Args()[1:], " ")

	db := openDB()
	defer db.Close()

	ctx := context.Background()
	store := requireSession(ctx, db)
	f := feed.New(store.Client(), store.User().Memberships)

	var err error
	if *replyTo != "" {
		if _, err := f.LoadComments(ctx, postID); err != nil {
			fatal("loading comments", err)
		}
		err = f.SubmitReply(ctx, postID, *replyTo, content)
	} else {
		err = f.SubmitComment(ctx, postID, content)
	}
	if err != nil {
		fatal("commenting", err)
	}

	if comments, ok := f.Comments(postID); ok {
		printComments(comments)
	}
}

func runCommentLike(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: zion comment-like <comment-id> <post-id>")
		os.Exit(1)
	}

	db := openDB()
	defer db.Close()

	ctx := context.Background()
	store := requireSession(ctx, db)
	f := feed.New(store.Client(), store.User().Memberships)

	if err := f.ToggleCommentLike(ctx, args[0], args[1]); err != nil {
		fatal("toggling comment like", err)
	}
	comments, _ := f.Comments(args[1])
	printComments(comments)
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	org := fs.String("org", "", "Only posts of this organization")
	audience := fs.String("audience", "", "Only posts with this audience")
	limit := fs.Int("limit", 10, "Maximum results")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Error: search query required")
		fmt.Println("Usage: zion [--data-dir=<dir>] search [flags] <query>")
		os.Exit(1)
	}
	query := strings.Join(fs.Args(), " ")

	idx := openIndex()
	defer idx.Close()

	opts := search.Options{Limit: *limit, OrganizationID: *org}
	if *audience != "" {
		opts.AudienceType = string(parseAudience(*audience))
	}

	results, err := idx.Search(query, opts)
	if err != nil {
		log.Fatalf("Error searching: %v", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found")
		return
	}

	fmt.Printf("\nFound %d results:\n\n", len(results))
	for i, result := range results {
		fmt.Printf("%d. [%s] %s\n", i+1, result.ID, result.CreatedAt.Local().Format("2006-01-02 15:04"))
		if result.Author != "" {
			fmt.Printf("   Author: %s\n", result.Author)
		}
		fmt.Printf("   Organization: %s (%s)\n", result.OrganizationID, result.AudienceType)
		fmt.Printf("   Score: %.3f\n", result.Score)
		if snippets, ok := result.Fragments["Content"]; ok && len(snippets) > 0 {
			fmt.Printf("   Preview: %s\n", snippets[0])
		}
		fmt.Println()
	}
}

func runReindex() {
	fmt.Println("Rebuilding search index from the archive...")

	db := openDB()
	defer db.Close()
	idx := openIndex()
	defer idx.Close()

	startTime := time.Now()
	count, err := archive.New(db, idx).Rebuild()
	if err != nil {
		log.Fatalf("Error rebuilding index: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Reindex Complete ===")
	fmt.Printf("Posts indexed: %d\n", count)
	fmt.Printf("Duration:      %v\n", time.Since(startTime).Round(time.Millisecond))
}

func runStats() {
	db := openDB()
	defer db.Close()
	idx := openIndex()
	defer idx.Close()

	dbCount, err := db.CountPosts()
	if err != nil {
		log.Fatalf("Error getting database count: %v", err)
	}
	indexCount, err := idx.Count()
	if err != nil {
		log.Fatalf("Error getting index count: %v", err)
	}

	fmt.Println("=== Archive Statistics ===")
	fmt.Printf("Posts in database: %d\n", dbCount)
	fmt.Printf("Posts in index:    %d\n", indexCount)
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	host := fs.String("host", cfg.Serve.Host, "Host to bind to")
	port := fs.String("port", cfg.Serve.Port, "Port to listen on")
	fs.Parse(args)

	db := openDB()
	defer db.Close()
	idx := openIndex()
	defer idx.Close()

	addr := fmt.Sprintf("%s:%s", *host, *port)

	fmt.Println()
	fmt.Println("=== ZION Archive Browser ===")
	fmt.Printf("Server running at: http://%s\n", addr)
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")

	if err := http.ListenAndServe(addr, web.NewServer(db, idx).Handler()); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
