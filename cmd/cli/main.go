// Command cli is a terminal client for the secure photo search service.
//
// Usage:
//
//	cli register -email you@example.com
//	cli upload   -email you@example.com photo1.jpg photo2.jpg
//	cli search   -email you@example.com -k 5 "a dog on a beach"
//	cli find     -email you@example.com -k 5 example.jpg
//
// The password is read from the terminal without echo. Images from search
// results are written to the output directory as <rank>_<id>.jpg.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/GomathyDhanya/SecureSearch/internal/logger"
	"github.com/GomathyDhanya/SecureSearch/pkg/client"
	"github.com/GomathyDhanya/SecureSearch/pkg/embed"
	"github.com/GomathyDhanya/SecureSearch/pkg/hecrypt"
	"github.com/GomathyDhanya/SecureSearch/pkg/session"
)

const defaultDimension = 512

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	command := os.Args[1]

	flags := flag.NewFlagSet(command, flag.ExitOnError)
	serverURL := flags.String("server", "http://localhost:8080", "Server base URL")
	embedURL := flags.String("embedder", "http://localhost:8090", "Embedding service base URL")
	email := flags.String("email", "", "Account email")
	topK := flags.Int("k", 5, "Maximum number of results")
	outDir := flags.String("out", ".", "Directory for retrieved images")
	flags.Parse(os.Args[2:])

	if *email == "" {
		fmt.Fprintln(os.Stderr, "missing -email")
		os.Exit(2)
	}

	log := logger.New(0)

	engine, err := hecrypt.NewEngine()
	if err != nil {
		log.Fatal("failed to initialize encryption engine", "error", err)
	}
	embedder := embed.NewHTTPEmbedder(*embedURL, defaultDimension)
	c := client.New(client.NewAPI(*serverURL), engine, embedder, log.Logger)

	ctx := context.Background()

	switch command {
	case "register":
		password, err := readPassword("Choose a password (it protects all your keys; it cannot be recovered): ")
		if err != nil {
			log.Fatal("failed to read password", "error", err)
		}
		if err := c.Register(ctx, *email, password); err != nil {
			log.Fatal("registration failed", "error", err)
		}
		fmt.Println("account created")

	case "upload":
		sess := login(ctx, c, *email, log)
		defer sess.Close()

		for _, path := range flags.Args() {
			image, err := os.ReadFile(path)
			if err != nil {
				log.Fatal("failed to read image", "path", path, "error", err)
			}
			id, err := c.Upload(ctx, sess, image)
			if err != nil {
				log.Fatal("upload failed", "path", path, "error", err)
			}
			fmt.Printf("%s -> %s\n", path, id)
		}

	case "search":
		if flags.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "search needs exactly one quoted query")
			os.Exit(2)
		}
		sess := login(ctx, c, *email, log)
		defer sess.Close()

		matches, err := c.SearchText(ctx, sess, flags.Arg(0), *topK)
		if err != nil {
			log.Fatal("search failed", "error", err)
		}
		report(matches, *outDir, log)

	case "find":
		if flags.NArg() != 1 {
			fmt.Fprintln(os.Stderr, "find needs exactly one image path")
			os.Exit(2)
		}
		sess := login(ctx, c, *email, log)
		defer sess.Close()

		image, err := os.ReadFile(flags.Arg(0))
		if err != nil {
			log.Fatal("failed to read image", "error", err)
		}
		matches, err := c.SearchImage(ctx, sess, image, *topK)
		if err != nil {
			log.Fatal("search failed", "error", err)
		}
		report(matches, *outDir, log)

	default:
		usage()
		os.Exit(2)
	}
}

func login(ctx context.Context, c *client.Client, email string, log *logger.Logger) *session.Session {
	password, err := readPassword("Password: ")
	if err != nil {
		log.Fatal("failed to read password", "error", err)
	}
	sess, err := c.Login(ctx, email, password)
	if err != nil {
		log.Fatal("login failed", "error", err)
	}
	return sess
}

func report(matches []client.Match, outDir string, log *logger.Logger) {
	if len(matches) == 0 {
		fmt.Println("no matches")
		return
	}
	for i, m := range matches {
		name := fmt.Sprintf("%d_%s.jpg", i+1, m.ID)
		path := filepath.Join(outDir, name)
		if err := os.WriteFile(path, m.Image, 0o600); err != nil {
			log.Fatal("failed to write result", "path", path, "error", err)
		}
		fmt.Printf("#%d  score=%.3f  %s\n", i+1, m.Score, path)
	}
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cli <register|upload|search|find> [flags] [args]")
}
