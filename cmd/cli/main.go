package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token string `json:"token"`
}

func main() {
	global := flag.NewFlagSet("spechub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	rest := args[1:]

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, rest)
	case "options":
		handleOptions(ctx, client, *baseURL, rest)
	case "templates":
		handleTemplates(ctx, client, *baseURL, rest)
	case "parse":
		handleParse(ctx, client, *baseURL, rest)
	case "coverage":
		handleCoverage(ctx, client, *baseURL)
	case "misses":
		handleMisses(ctx, client, *baseURL, rest)
	case "import":
		handleImport(ctx, client, *baseURL, *tokenPath, rest)
	case "resolve":
		handleResolve(ctx, client, *baseURL, *tokenPath, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: spechub [-api URL] [-token PATH] <command>

commands:
  auth login                      obtain an admin token
  options <category>              list dropdown options for a category
  templates [query]               list (optionally filter) template strings
  parse <template>                decode a template string
  coverage                        per-category registry coverage report
  misses [category]               recorded registry lookup misses
  import <brand> <csv> [-overwrite]  bulk-import models into a brand
  resolve <category> [name ...]   resolve missing registry mappings`)
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	if len(args) == 0 || args[0] != "login" {
		log.Fatal("usage: spechub auth login")
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Fprint(os.Stderr, "username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("read username: %v", err)
	}
	username = strings.TrimRight(username, "\r\n")

	fmt.Fprint(os.Stderr, "password: ")
	pw, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("read password: %v", err)
	}
	pw = strings.TrimRight(pw, "\r\n")

	body, _ := json.Marshal(map[string]string{"username": username, "password": pw})
	resp := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", bytes.NewReader(body))

	var tok tokenData
	if err := json.Unmarshal(resp, &tok); err != nil || tok.Token == "" {
		log.Fatalf("unexpected login response: %s", resp)
	}
	if err := saveToken(tokenPath, tok.Token); err != nil {
		log.Fatalf("save token: %v", err)
	}
	log.Printf("token saved to %s", tokenPath)
}

func handleOptions(ctx context.Context, client *http.Client, baseURL string, args []string) {
	if len(args) != 1 {
		log.Fatal("usage: spechub options <category>")
	}
	resp := doJSON(ctx, client, http.MethodGet, baseURL+"/registry/"+url.PathEscape(args[0])+"/options", "", nil)
	prettyPrint(resp)
}

func handleTemplates(ctx context.Context, client *http.Client, baseURL string, args []string) {
	u := baseURL + "/templates"
	if len(args) > 0 {
		u += "?q=" + url.QueryEscape(strings.Join(args, " "))
	}
	resp := doJSON(ctx, client, http.MethodGet, u, "", nil)

	var body struct {
		Total     int      `json:"total"`
		Templates []string `json:"templates"`
	}
	if err := json.Unmarshal(resp, &body); err != nil {
		log.Fatalf("decode response: %v", err)
	}
	for _, t := range body.Templates {
		fmt.Println(t)
	}
	log.Printf("%d templates", body.Total)
}

func handleParse(ctx context.Context, client *http.Client, baseURL string, args []string) {
	if len(args) == 0 {
		log.Fatal("usage: spechub parse <template>")
	}
	t := strings.Join(args, " ")
	resp := doJSON(ctx, client, http.MethodGet, baseURL+"/templates/parse?t="+url.QueryEscape(t), "", nil)
	prettyPrint(resp)
}

func handleCoverage(ctx context.Context, client *http.Client, baseURL string) {
	resp := doJSON(ctx, client, http.MethodGet, baseURL+"/gaps/coverage", "", nil)
	prettyPrint(resp)
}

func handleMisses(ctx context.Context, client *http.Client, baseURL string, args []string) {
	u := baseURL + "/gaps/misses"
	if len(args) > 0 {
		u += "?category=" + url.QueryEscape(args[0])
	}
	resp := doJSON(ctx, client, http.MethodGet, u, "", nil)
	prettyPrint(resp)
}

func handleImport(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	overwrite := fs.Bool("overwrite", false, "replace models whose key already exists")
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		log.Fatal("usage: spechub import <brand> <csv> [-overwrite]")
	}
	brand, csvPath := fs.Arg(0), fs.Arg(1)

	token := mustLoadToken(tokenPath)

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatalf("open %s: %v", csvPath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("csv", filepath.Base(csvPath))
	if err != nil {
		log.Fatalf("build form: %v", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		log.Fatalf("read csv: %v", err)
	}
	_ = mw.Close()

	u := baseURL + "/admin/import/" + url.PathEscape(brand)
	if *overwrite {
		u += "?overwrite=true"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("import failed (%d): %s", resp.StatusCode, body)
	}
	prettyPrint(body)
}

func handleResolve(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	if len(args) == 0 {
		log.Fatal("usage: spechub resolve <category> [name ...]")
	}
	category := args[0]
	token := mustLoadToken(tokenPath)

	payload, _ := json.Marshal(map[string]any{"names": args[1:]})
	resp := doJSON(ctx, client, http.MethodPost,
		baseURL+"/admin/resolve/"+url.PathEscape(category), token, bytes.NewReader(payload))
	prettyPrint(resp)
}

// doJSON performs a request and returns the body, exiting on transport
// or non-2xx failures.
func doJSON(ctx context.Context, client *http.Client, method, u, token string, body io.Reader) []byte {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("request: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Fatalf("%s %s failed (%d): %s", method, u, resp.StatusCode, b)
	}
	return b
}

func prettyPrint(raw []byte) {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(out.String())
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".spechub", "token.json")
}

func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, _ := json.Marshal(tokenData{Token: token})
	return os.WriteFile(path, b, 0o600)
}

func mustLoadToken(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("no token at %s, run: spechub auth login", path)
	}
	var tok tokenData
	if err := json.Unmarshal(b, &tok); err != nil || tok.Token == "" {
		log.Fatalf("bad token file %s, run: spechub auth login", path)
	}
	return tok.Token
}
