package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/campuscompanion/campusai/internal/observability"
	"github.com/campuscompanion/campusai/internal/protocol"
)

type options struct {
	baseURL        string
	userID         string
	apiKey         string
	turns          int
	voice          bool
	interTurnDelay time.Duration
	turnTimeout    time.Duration
	texts          []string
	verbose        bool
}

type createSessionRequest struct {
	UserID string `json:"user_id,omitempty"`
	Voice  bool   `json:"voice,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type turnReply struct {
	reply      protocol.AssistantReply
	receivedAt time.Time
}

var defaultPrompts = []string{
	"What assignments do I have due this week?",
	"Give me one tip for staying focused.",
	"What campus events are coming up?",
	"Summarize what we just talked about.",
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatprobe: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "chatprobe: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var cfg options
	var textsRaw string
	var interTurnMS int
	var turnTimeoutMS int

	flag.StringVar(&cfg.baseURL, "base-url", "http://127.0.0.1:8001", "CampusCompanion AI service base URL")
	flag.StringVar(&cfg.userID, "user-id", "chat-probe", "user_id used for the synthetic session")
	flag.StringVar(&cfg.apiKey, "api-key", "", "X-API-Key header value (optional)")
	flag.IntVar(&cfg.turns, "turns", 10, "number of chat turns to send")
	flag.BoolVar(&cfg.voice, "voice", false, "request speech-formatted replies")
	flag.IntVar(&interTurnMS, "inter-turn-ms", 150, "delay between turns in milliseconds")
	flag.IntVar(&turnTimeoutMS, "turn-timeout-ms", 30000, "timeout waiting for assistant_reply per turn in milliseconds")
	flag.StringVar(&textsRaw, "texts", "", "prompts separated by '|' (optional)")
	flag.BoolVar(&cfg.verbose, "verbose", true, "print probe progress")
	flag.Parse()

	cfg.baseURL = strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/")
	if cfg.baseURL == "" {
		return options{}, fmt.Errorf("base-url is required")
	}
	if cfg.turns <= 0 {
		return options{}, fmt.Errorf("turns must be > 0")
	}
	if interTurnMS < 0 {
		interTurnMS = 0
	}
	if turnTimeoutMS < 1000 {
		turnTimeoutMS = 1000
	}
	cfg.interTurnDelay = time.Duration(interTurnMS) * time.Millisecond
	cfg.turnTimeout = time.Duration(turnTimeoutMS) * time.Millisecond

	cfg.texts = splitPrompts(textsRaw)
	if len(cfg.texts) == 0 {
		if strings.TrimSpace(textsRaw) != "" {
			return options{}, fmt.Errorf("texts produced no non-empty prompts")
		}
		cfg.texts = append([]string(nil), defaultPrompts...)
	}
	return cfg, nil
}

func splitPrompts(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func run(cfg options) error {
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Minute)
	defer cancel()

	httpClient := &http.Client{Timeout: 45 * time.Second}
	sessionID, err := createSession(ctx, httpClient, cfg)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer func() {
		_ = endSession(context.Background(), httpClient, cfg, sessionID)
	}()

	if cfg.verbose {
		fmt.Printf("chatprobe: session=%s turns=%d voice=%t\n", sessionID, cfg.turns, cfg.voice)
	}

	wsURL, err := wsURLForSession(cfg.baseURL, sessionID)
	if err != nil {
		return fmt.Errorf("build ws URL: %w", err)
	}
	header := http.Header{}
	if cfg.apiKey != "" {
		header.Set("X-API-Key", cfg.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("open websocket: %w", err)
	}
	defer conn.Close()

	replyCh := make(chan turnReply, 32)
	readErrCh := make(chan error, 1)
	go readLoop(conn, replyCh, readErrCh, cfg.verbose)

	var (
		latencies      []time.Duration
		conversationID string
	)
	for i := 0; i < cfg.turns; i++ {
		select {
		case err := <-readErrCh:
			return fmt.Errorf("ws read: %w", err)
		default:
		}

		prompt := cfg.texts[i%len(cfg.texts)]
		sentAt := time.Now()
		msg := protocol.ClientChat{
			Type:           protocol.TypeClientChat,
			SessionID:      sessionID,
			UserID:         cfg.userID,
			Message:        prompt,
			ConversationID: conversationID,
			Voice:          cfg.voice,
			TSMs:           sentAt.UnixMilli(),
		}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("turn %d send: %w", i+1, err)
		}

		got, err := awaitReply(replyCh, readErrCh, cfg.turnTimeout)
		if err != nil {
			return fmt.Errorf("turn %d await assistant_reply: %w", i+1, err)
		}
		latency := got.receivedAt.Sub(sentAt)
		latencies = append(latencies, latency)
		// Staying on one conversation keeps history recall in the
		// measured path.
		if got.reply.ConversationID != "" {
			conversationID = got.reply.ConversationID
		}
		if cfg.verbose {
			fmt.Printf("chatprobe: turn %d/%d latency=%s success=%t prompt=%q\n",
				i+1, cfg.turns, latency.Round(time.Millisecond), got.reply.Success, prompt)
		}

		if cfg.interTurnDelay > 0 && i < cfg.turns-1 {
			time.Sleep(cfg.interTurnDelay)
		}
	}

	printSummary(latencies)
	if err := printStageReport(ctx, httpClient, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "chatprobe: stage report unavailable: %v\n", err)
	}
	return nil
}

func createSession(ctx context.Context, client *http.Client, cfg options) (string, error) {
	payload, err := json.Marshal(createSessionRequest{UserID: cfg.userID, Voice: cfg.voice})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.baseURL+"/api/chat/session", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.apiKey != "" {
		req.Header.Set("X-API-Key", cfg.apiKey)
	}

	res, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out createSessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.SessionID) == "" {
		return "", fmt.Errorf("missing session_id in response")
	}
	return out.SessionID, nil
}

func endSession(ctx context.Context, client *http.Client, cfg options, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, cfg.baseURL+"/api/chat/session/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return err
	}
	if cfg.apiKey != "" {
		req.Header.Set("X-API-Key", cfg.apiKey)
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 1<<20))
	return nil
}

func wsURLForSession(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base-url scheme %q", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return "", fmt.Errorf("base-url host is required")
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/chat/ws"
	q := u.Query()
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func readLoop(conn *websocket.Conn, replyCh chan<- turnReply, readErrCh chan<- error, verbose bool) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case readErrCh <- err:
			default:
			}
			return
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case protocol.TypeAssistantReply:
			var reply protocol.AssistantReply
			if err := json.Unmarshal(data, &reply); err != nil {
				continue
			}
			select {
			case replyCh <- turnReply{reply: reply, receivedAt: time.Now()}:
			default:
			}
		case protocol.TypeErrorEvent:
			var evt protocol.ErrorEvent
			if err := json.Unmarshal(data, &evt); err != nil {
				continue
			}
			if verbose {
				fmt.Fprintf(os.Stderr, "chatprobe: error_event code=%s detail=%s\n", evt.Code, evt.Detail)
			}
		}
	}
}

func awaitReply(replyCh <-chan turnReply, readErrCh <-chan error, timeout time.Duration) (turnReply, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case got := <-replyCh:
		return got, nil
	case err := <-readErrCh:
		return turnReply{}, err
	case <-timer.C:
		return turnReply{}, fmt.Errorf("timeout after %s", timeout)
	}
}

func printSummary(latencies []time.Duration) {
	if len(latencies) == 0 {
		fmt.Println("chatprobe: no completed turns")
		return
	}
	sorted := append([]time.Duration(nil), latencies...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	avg := total / time.Duration(len(sorted))

	fmt.Printf("chatprobe: turns=%d min=%s avg=%s p50=%s p95=%s max=%s\n",
		len(sorted),
		sorted[0].Round(time.Millisecond),
		avg.Round(time.Millisecond),
		percentile(sorted, 0.50).Round(time.Millisecond),
		percentile(sorted, 0.95).Round(time.Millisecond),
		sorted[len(sorted)-1].Round(time.Millisecond),
	)
}

// percentile expects a sorted slice and uses nearest-rank selection.
func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func printStageReport(ctx context.Context, client *http.Client, cfg options) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.baseURL+"/api/perf/latency", nil)
	if err != nil {
		return err
	}
	if cfg.apiKey != "" {
		req.Header.Set("X-API-Key", cfg.apiKey)
	}
	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var snapshot observability.StageSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return err
	}
	if len(snapshot.Stages) == 0 {
		fmt.Println("chatprobe: server reported no stage samples")
		return nil
	}
	fmt.Printf("chatprobe: server stage latency (window=%d)\n", snapshot.WindowSize)
	for _, st := range snapshot.Stages {
		fmt.Printf("  %-14s samples=%-4d avg=%.1fms p50=%.1fms p95=%.1fms p99=%.1fms\n",
			st.Stage, st.Samples, st.AvgMS, st.P50MS, st.P95MS, st.P99MS)
	}
	return nil
}
