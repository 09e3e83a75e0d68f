package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
)

// Config identifies the repository that collects artist tickets.
type Config struct {
	BaseURL   string
	Owner     string
	Repo      string
	Token     string
	Assignees []string
}

// Client opens and closes artist tickets on a GitHub repository.
//
// The open tickets are listed once in New. That snapshot is never refreshed,
// so a ticket opened in this session does not make CloseIssue act on it. Names
// created in this session are remembered to keep CreateIssue idempotent.
type Client struct {
	httpClient *http.Client
	baseURL    string
	repoPath   string
	token      string
	assignees  []string
	logger     *slog.Logger

	open map[string]Ticket

	mu      sync.Mutex
	created map[string]struct{}
}

// New creates a client with default HTTP settings and loads the open tickets.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	return NewWithHTTPClient(ctx, cfg, &http.Client{Timeout: 10 * time.Second}, logger)
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, cfg Config, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github: owner and repo are required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		repoPath:   "/repos/" + url.PathEscape(cfg.Owner) + "/" + url.PathEscape(cfg.Repo),
		token:      cfg.Token,
		assignees:  cfg.Assignees,
		logger:     logger.With(slog.String("integration", "github")),
		created:    make(map[string]struct{}),
	}

	open, err := c.listOpen(ctx)
	if err != nil {
		return nil, err
	}
	c.open = open
	c.logger.Info("loaded open artist tickets", slog.Int("count", len(open)))
	return c, nil
}

// CreateIssue opens a ticket for artistName unless one is already open or was
// created earlier in this session.
func (c *Client) CreateIssue(ctx context.Context, artistName string) error {
	key := ticketKey(artistName)
	if _, ok := c.open[key]; ok {
		c.logger.Debug("ticket already open", slog.String("artist", artistName))
		return nil
	}

	c.mu.Lock()
	if _, ok := c.created[key]; ok {
		c.mu.Unlock()
		return nil
	}
	c.created[key] = struct{}{}
	c.mu.Unlock()

	req := createIssueRequest{
		Title:     FormatTitle(artistName),
		Body:      ticketBody(artistName),
		Assignees: c.assignees,
	}
	if _, err := c.do(ctx, http.MethodPost, c.repoPath+"/issues", req, http.StatusCreated, "create issue"); err != nil {
		c.mu.Lock()
		delete(c.created, key)
		c.mu.Unlock()
		return err
	}

	c.logger.Info("ticket created", slog.String("artist", artistName))
	return nil
}

// CloseIssue marks the open ticket for artistName as completed. It does
// nothing when the snapshot has no ticket for the artist.
func (c *Client) CloseIssue(ctx context.Context, artistName string) error {
	t, ok := c.open[ticketKey(artistName)]
	if !ok {
		return nil
	}

	req := updateIssueRequest{State: "closed", StateReason: "completed"}
	path := c.repoPath + "/issues/" + strconv.Itoa(t.Number)
	if _, err := c.do(ctx, http.MethodPatch, path, req, http.StatusOK, "close issue"); err != nil {
		return err
	}

	c.logger.Info("ticket closed", slog.String("artist", artistName), slog.Int("number", t.Number))
	return nil
}

// maxListPages bounds how many Link pages listOpen follows.
const maxListPages = 100

// listOpen follows the rel="next" links until every open issue is read.
func (c *Client) listOpen(ctx context.Context) (map[string]Ticket, error) {
	open := make(map[string]Ticket)
	next := c.baseURL + c.repoPath + "/issues?state=open&per_page=100"

	for page := 0; next != ""; page++ {
		if page == maxListPages {
			return nil, fmt.Errorf("listing issues: more than %d pages", maxListPages)
		}
		body, header, err := c.send(ctx, http.MethodGet, next, nil, http.StatusOK, "list issues")
		if err != nil {
			return nil, err
		}

		var issues []issue
		if err := json.Unmarshal(body, &issues); err != nil {
			return nil, fmt.Errorf("decoding issues: %w", err)
		}
		for _, is := range issues {
			if is.PullRequest != nil {
				continue
			}
			name, ok := ParseArtistFromTitle(is.Title)
			if !ok {
				continue
			}
			key := ticketKey(name)
			open[key] = Ticket{ID: is.ID, Number: is.Number, ArtistName: key}
		}
		next = nextLink(header.Get("Link"))
	}
	return open, nil
}

// nextLink extracts the rel="next" target from a Link header.
func nextLink(header string) string {
	for part := range strings.SplitSeq(header, ",") {
		target, params, ok := strings.Cut(strings.TrimSpace(part), ";")
		if !ok {
			continue
		}
		for p := range strings.SplitSeq(params, ";") {
			if strings.TrimSpace(p) == `rel="next"` {
				return strings.Trim(strings.TrimSpace(target), "<>")
			}
		}
	}
	return ""
}

// do executes a request against a repository path and returns the body when
// the status is wantStatus.
func (c *Client) do(ctx context.Context, method, path string, payload any, wantStatus int, op string) ([]byte, error) {
	body, _, err := c.send(ctx, method, c.baseURL+path, payload, wantStatus, op)
	return body, err
}

// send executes a request. Any status other than wantStatus is logged with its
// body and returned as *ErrTicket.
func (c *Client) send(ctx context.Context, method, target string, payload any, wantStatus int, op string) ([]byte, http.Header, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL built from configured base URL
	if err != nil {
		return nil, nil, fmt.Errorf("executing %s request: %w", op, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s response: %w", op, err)
	}

	if resp.StatusCode != wantStatus {
		c.logger.Error("issue tracker returned error status",
			slog.String("op", op),
			slog.String("url", target),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)))
		return nil, nil, &ErrTicket{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, resp.Header, nil
}
