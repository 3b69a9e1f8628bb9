// Command shadow_compare replays playback requests against the Go gating
// API and the legacy WordPress plugin and diffs the access decisions.
// Used during the migration to verify both sides gate the same videos
// the same way for the same viewer.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	VideoID  string `json:"video_id"`
	Session  string `json:"session,omitempty"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type decision struct {
	AccessLevel string
	FullAccess  bool
}

type comparison struct {
	Target         target
	Legacy         decision
	Go             decision
	Match          bool
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	var (
		goBase      string
		legacyBase  string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:80", "Legacy WordPress base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		comparisons []comparison
		breaking    int
		optional    int
	)

	for _, t := range targets {
		comp := compareTarget(client, goBase, legacyBase, t)
		if comp.Error != nil || !comp.Match {
			if t.Critical {
				breaking++
			} else {
				optional++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optional)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, goBase, legacyBase string, tgt target) comparison {
	comp := comparison{Target: tgt}

	goPath := "/api/v1/videos/" + tgt.VideoID + "/playback"
	goDec, goDur, goErr := fetchDecision(client, goBase, goPath, tgt.Session, parseGoBody)
	comp.DurationGo = goDur
	if goErr != nil {
		comp.Error = fmt.Errorf("go request failed: %w", goErr)
		return comp
	}

	legacyPath := "/wp-json/vlp/v1/videos/" + tgt.VideoID + "/access"
	legacyDec, legacyDur, legacyErr := fetchDecision(client, legacyBase, legacyPath, tgt.Session, parseLegacyBody)
	comp.DurationLegacy = legacyDur
	if legacyErr != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", legacyErr)
		return comp
	}

	comp.Go = goDec
	comp.Legacy = legacyDec
	comp.Match = goDec.AccessLevel == legacyDec.AccessLevel && goDec.FullAccess == legacyDec.FullAccess
	return comp
}

func fetchDecision(client *http.Client, base, path, session string, parse func([]byte) (decision, error)) (decision, time.Duration, error) {
	url := strings.TrimRight(base, "/") + path
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return decision{}, 0, err
	}
	if session != "" {
		req.Header.Set("X-Viewer-Session", session)
		req.AddCookie(&http.Cookie{Name: "vgate_session", Value: session})
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return decision{}, 0, err
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)

	if resp.StatusCode != http.StatusOK {
		return decision{}, elapsed, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decision{}, elapsed, fmt.Errorf("read body: %w", err)
	}

	dec, err := parse(body)
	return dec, elapsed, err
}

func parseGoBody(body []byte) (decision, error) {
	var envelope struct {
		Data struct {
			AccessLevel string `json:"access_level"`
			Preview     bool   `json:"preview"`
			Playable    bool   `json:"playable"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return decision{}, fmt.Errorf("parse go body: %w", err)
	}
	full := envelope.Data.Playable && !envelope.Data.Preview
	return decision{AccessLevel: envelope.Data.AccessLevel, FullAccess: full}, nil
}

func parseLegacyBody(body []byte) (decision, error) {
	var legacy struct {
		AccessLevel string `json:"access_level"`
		CanView     bool   `json:"can_view_full"`
	}
	if err := json.Unmarshal(body, &legacy); err != nil {
		return decision{}, fmt.Errorf("parse legacy body: %w", err)
	}
	return decision{AccessLevel: legacy.AccessLevel, FullAccess: legacy.CanView}, nil
}

func printReport(results []comparison) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.Match {
			status = "DIFF"
		}
		fmt.Printf("[%s] video %s\n", status, res.Target.VideoID)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Go: %s full=%t (%s)\n", res.Go.AccessLevel, res.Go.FullAccess, res.DurationGo)
		fmt.Printf("  Legacy: %s full=%t (%s)\n", res.Legacy.AccessLevel, res.Legacy.FullAccess, res.DurationLegacy)
		fmt.Printf("  Match: %t | Critical: %t\n", res.Match, res.Target.Critical)
	}
}
