package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"lexatlas/client/internal/auth"
	"lexatlas/client/internal/config"
	"lexatlas/client/internal/courses"
	"lexatlas/client/internal/dictionary"
	"lexatlas/client/internal/gateway"
	"lexatlas/client/internal/guard"
	"lexatlas/client/internal/rbac"
	"lexatlas/client/internal/session"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: lexatlas <command> [flags]

commands:
  login     -login <email> -password <password>
  register  -login <email> -password <password> [-admin]
  logout
  whoami
  lookup    <word>        nested dictionary lookup
  network   <word>        semantic network for a word
  courses   list | get <id> | create | update <id> | delete <id>
`)
	os.Exit(2)
}

func main() {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("session store: %v", err)
	}
	defer closeStore()

	manager := session.NewManager(store)
	gw := gateway.New(cfg.APIBaseURL, cfg.HTTPTimeout, manager, guard.SignInRoute, func(target string) {
		fmt.Fprintf(os.Stderr, "session expired: sign in again (lexatlas login)\n")
	})
	authClient := auth.NewClient(gw)
	manager.SetIdentityFetcher(authClient.IdentityFetcher())

	args := os.Args[1:]
	if len(args) == 0 {
		usage()
	}

	// Every command sees a resolved session: restore runs to completion
	// before any guard decision or request.
	manager.Restore(ctx)

	switch args[0] {
	case "login":
		runLogin(ctx, manager, authClient, args[1:])
	case "register":
		runRegister(ctx, authClient, args[1:])
	case "logout":
		manager.SignOut(ctx)
		fmt.Println("signed out")
	case "whoami":
		runWhoami(manager)
	case "lookup":
		runLookup(ctx, gw, args[1:])
	case "network":
		runNetwork(ctx, gw, args[1:])
	case "courses":
		runCourses(ctx, gw, manager, args[1:])
	default:
		usage()
	}
}

func openStore(cfg config.Config) (session.Store, func(), error) {
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("using redis session store")
		store, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
	store, err := session.NewSQLiteStore(cfg.StateDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

// requireAccess runs the route guard for a command and exits when it does
// not resolve to render.
func requireAccess(manager *session.Manager, req guard.Requirement) {
	decision := guard.Decide(manager.Snapshot(), req)
	switch decision.Outcome {
	case guard.Render:
		return
	case guard.Pending:
		// Restore is synchronous in the CLI, so this means a wiring bug.
		log.Fatalf("session not resolved before command dispatch")
	case guard.Redirect:
		if decision.Target == guard.SignInRoute {
			fmt.Fprintln(os.Stderr, "not signed in: run lexatlas login")
		} else {
			fmt.Fprintln(os.Stderr, "insufficient privilege for this command")
		}
		os.Exit(1)
	}
}

func runLogin(ctx context.Context, manager *session.Manager, authClient *auth.Client, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	login := fs.String("login", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)
	if *login == "" || *password == "" {
		log.Fatal("login requires -login and -password")
	}

	token, err := authClient.Login(ctx, *login, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	if err := manager.SignIn(ctx, *login, token, nil); err != nil {
		log.Fatalf("login failed: %v", err)
	}

	snap := manager.Snapshot()
	fmt.Printf("signed in as %s (%s)\n", snap.Identity.Email, snap.Identity.Role)
}

func runRegister(ctx context.Context, authClient *auth.Client, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	login := fs.String("login", "", "account email")
	password := fs.String("password", "", "account password")
	admin := fs.Bool("admin", false, "request the ADMIN role")
	fs.Parse(args)
	if *login == "" || *password == "" {
		log.Fatal("register requires -login and -password")
	}

	role := rbac.RoleUser
	if *admin {
		role = rbac.RoleAdmin
	}
	if err := authClient.Register(ctx, *login, *password, role); err != nil {
		log.Fatalf("register failed: %v", err)
	}
	fmt.Printf("registered %s; run lexatlas login\n", *login)
}

func runWhoami(manager *session.Manager) {
	requireAccess(manager, guard.Authenticated())
	snap := manager.Snapshot()
	fmt.Printf("%s (%s), role %s\n", snap.Identity.DisplayName, snap.Identity.Email, snap.Identity.Role)
}

func runLookup(ctx context.Context, gw *gateway.Gateway, args []string) {
	if len(args) != 1 {
		log.Fatal("lookup requires exactly one word")
	}

	dict := dictionary.NewClient(gw)
	composer := dictionary.NewComposer(dict.SemanticWord)
	result, err := composer.Lookup(ctx, args[0])
	if err != nil {
		if gateway.IsNotFound(err) {
			fmt.Printf("no such word: %s\n", args[0])
			os.Exit(1)
		}
		log.Fatalf("lookup failed: %v", err)
	}

	printRecord(result.Primary, "")
	if result.NestedSynonym != nil {
		fmt.Printf("\nfirst synonym:\n")
		printRecord(*result.NestedSynonym, "  ")
	}
}

func printRecord(rec dictionary.LexicalRecord, indent string) {
	fmt.Printf("%s%s", indent, rec.Word)
	if rec.Phonetic != "" {
		fmt.Printf("  %s", rec.Phonetic)
	}
	if rec.Translation != "" {
		fmt.Printf("  (%s)", rec.Translation)
	}
	fmt.Println()
	for _, meaning := range rec.Meanings {
		fmt.Printf("%s  [%s]\n", indent, meaning.PartOfSpeech)
		for _, def := range meaning.Definitions {
			fmt.Printf("%s    - %s\n", indent, def.Definition)
			if def.Example != "" {
				fmt.Printf("%s      e.g. %s\n", indent, def.Example)
			}
		}
		if len(meaning.Synonyms) > 0 {
			fmt.Printf("%s    synonyms: %s\n", indent, strings.Join(meaning.Synonyms, ", "))
		}
	}
}

func runNetwork(ctx context.Context, gw *gateway.Gateway, args []string) {
	if len(args) != 1 {
		log.Fatal("network requires exactly one word")
	}

	dict := dictionary.NewClient(gw)
	network, err := dict.Network(ctx, args[0])
	if err != nil {
		if gateway.IsNotFound(err) {
			fmt.Printf("no such word: %s\n", args[0])
			os.Exit(1)
		}
		log.Fatalf("network lookup failed: %v", err)
	}

	fmt.Println(network.Word)
	if network.Etymology != "" {
		fmt.Printf("  etymology: %s\n", network.Etymology)
	}
	printRelations("synonyms", network.Synonyms)
	printRelations("antonyms", network.Antonyms)
	printRelations("related", network.Related)
	if len(network.Cognates) > 0 {
		fmt.Printf("  cognates: %s\n", strings.Join(network.Cognates, ", "))
	}
}

func printRelations(label string, relations []dictionary.ScoredRelation) {
	if len(relations) == 0 {
		return
	}
	fmt.Printf("  %s:\n", label)
	for _, rel := range relations {
		fmt.Printf("    %s (%.2f)\n", rel.Word, rel.Similarity)
	}
}

func runCourses(ctx context.Context, gw *gateway.Gateway, manager *session.Manager, args []string) {
	if len(args) == 0 {
		usage()
	}
	client := courses.NewClient(gw, manager)

	switch args[0] {
	case "list":
		requireAccess(manager, guard.Authenticated())
		list, err := client.List(ctx)
		if err != nil {
			log.Fatalf("list courses: %v", err)
		}
		for _, course := range list {
			fmt.Printf("%d\t%s\t%s\n", course.ID, course.Title, course.Difficulty)
		}
	case "get":
		requireAccess(manager, guard.Authenticated())
		course, err := client.Get(ctx, parseID(args[1:]))
		if err != nil {
			log.Fatalf("get course: %v", err)
		}
		fmt.Printf("%d\t%s\t%s\n%s\n", course.ID, course.Title, course.Difficulty, course.Description)
	case "create":
		requireAccess(manager, guard.RequireRole(rbac.RoleAdmin))
		input := parseCourseInput(args[1:])
		course, err := client.Create(ctx, input)
		if err != nil {
			log.Fatalf("create course: %v", err)
		}
		fmt.Printf("created course %d\n", course.ID)
	case "update":
		requireAccess(manager, guard.RequireRole(rbac.RoleAdmin))
		if len(args) < 2 {
			log.Fatal("update requires a course id")
		}
		id := parseID(args[1:2])
		input := parseCourseInput(args[2:])
		course, err := client.Update(ctx, id, input)
		if err != nil {
			log.Fatalf("update course: %v", err)
		}
		fmt.Printf("updated course %d\n", course.ID)
	case "delete":
		requireAccess(manager, guard.RequireRole(rbac.RoleAdmin))
		if err := client.Delete(ctx, parseID(args[1:])); err != nil {
			log.Fatalf("delete course: %v", err)
		}
		fmt.Println("deleted")
	default:
		usage()
	}
}

func parseID(args []string) int64 {
	if len(args) != 1 {
		log.Fatal("expected a course id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		log.Fatalf("invalid course id %q", args[0])
	}
	return id
}

func parseCourseInput(args []string) courses.CourseInput {
	fs := flag.NewFlagSet("course", flag.ExitOnError)
	title := fs.String("title", "", "course title")
	description := fs.String("description", "", "course description")
	difficulty := fs.String("difficulty", "", "BEGINNER, INTERMEDIATE or ADVANCED")
	fs.Parse(args)
	return courses.CourseInput{
		Title:       *title,
		Description: *description,
		Difficulty:  courses.Difficulty(strings.ToUpper(*difficulty)),
	}
}
