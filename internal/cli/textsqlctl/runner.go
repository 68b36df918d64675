package textsqlctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	Database   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

type command struct {
	method string
	path   string
	// arg names the positional argument the command needs, if any.
	arg   string
	usage string
}

var commands = map[string]command{
	"health":    {method: http.MethodGet, path: "/v1/health", usage: "GET /v1/health"},
	"ready":     {method: http.MethodGet, path: "/v1/ready", usage: "GET /v1/ready"},
	"databases": {method: http.MethodGet, path: "/v1/databases", usage: "GET /v1/databases"},
	"examples":  {method: http.MethodGet, path: "/v1/examples", usage: "GET /v1/examples"},
	"schema":    {method: http.MethodGet, path: "/v1/schema", usage: "GET /v1/schema"},
	"translate": {method: http.MethodPost, path: "/v1/query/translate", arg: "question", usage: "POST /v1/query/translate"},
	"ask":       {method: http.MethodPost, path: "/v1/ask", arg: "question", usage: "POST /v1/ask"},
	"query":     {method: http.MethodPost, path: "/v1/query", arg: "sql", usage: "POST /v1/query"},
}

var commandOrder = []string{"health", "ready", "databases", "examples", "schema", "translate", "ask", "query"}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("textsqlctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "textsql API base URL")
	database := fs.String("database", defaults.Database, "named database; empty selects the server default")
	maxRows := fs.Int("max-rows", 0, "row cap for ask/query; 0 uses the server default")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 30*time.Second), "HTTP timeout (e.g. 30s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	name := strings.TrimSpace(fs.Arg(0))
	cmd, ok := commands[name]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		writeUsage(stderr)
		return 2
	}
	positional := strings.TrimSpace(strings.Join(fs.Args()[1:], " "))
	if cmd.arg != "" && positional == "" {
		_, _ = fmt.Fprintf(stderr, "%s requires a %s argument\n\n", name, cmd.arg)
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	endpoint := strings.TrimRight(*baseURL, "/") + cmd.path
	if name == "schema" && strings.TrimSpace(*database) != "" {
		endpoint += "?database=" + url.QueryEscape(strings.TrimSpace(*database))
	}
	body, err := requestBody(name, positional, strings.TrimSpace(*database), *maxRows)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "encode request: %v\n", err)
		return 1
	}

	code, responseBody, err := doRequest(ctx, client, cmd.method, endpoint, body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}

	if code >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", code, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func requestBody(name, positional, database string, maxRows int) ([]byte, error) {
	var payload map[string]any
	switch name {
	case "translate":
		payload = map[string]any{"question": positional}
	case "ask":
		payload = map[string]any{"question": positional}
	case "query":
		payload = map[string]any{"sql": positional}
	default:
		return nil, nil
	}
	if name != "translate" {
		if database != "" {
			payload["database"] = database
		}
		if maxRows > 0 {
			payload["max_rows"] = maxRows
		}
	}
	return json.Marshal(payload)
}

func doRequest(ctx context.Context, client *http.Client, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: textsqlctl [flags] <command> [argument]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	for _, name := range commandOrder {
		cmd := commands[name]
		label := name
		if cmd.arg != "" {
			label += " <" + cmd.arg + ">"
		}
		_, _ = fmt.Fprintf(w, "  %-20s %s\n", label, cmd.usage)
	}
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
