// cmd/cli/main.go

// Interactive single-shot runner: feeds one or more targets through the
// pipeline and drives the approval loop from stdin.
//
// Usage:
//
//	outreach-cli                       # interactive: paste target info
//	outreach-cli --input "https://..." # single target
//	outreach-cli --input-file targets.txt
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/outreach-engine/internal/agents"
	"github.com/unclebandit/outreach-engine/internal/config"
	"github.com/unclebandit/outreach-engine/internal/db"
	"github.com/unclebandit/outreach-engine/internal/events"
	"github.com/unclebandit/outreach-engine/internal/model"
	"github.com/unclebandit/outreach-engine/internal/registry"
	"github.com/unclebandit/outreach-engine/internal/repository"
	"github.com/unclebandit/outreach-engine/internal/workflow"
)

const banner = `
==============================================================
            OUTREACH ENGINE  -  Cold Outreach CLI
==============================================================`

func main() {
	input := flag.String("input", "", "target info (URL or text)")
	inputFile := flag.String("input-file", "", "file with one target per line")
	skipChecks := flag.Bool("skip-checks", false, "skip pre-flight checks")
	flag.Parse()

	fmt.Println(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := zap.NewNop() // keep the terminal for the interactive flow
	if cfg.Debug {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	store := buildStore(cfg, *skipChecks)

	bus := events.NewBus(cfg.EventBuffer, logger)
	reg := registry.New(bus, logger)
	workers := agents.NewWorkerSet(store, nil, logger) // mock senders everywhere

	driver, err := workflow.NewDriver(reg, workers, cfg.Channels, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "setup:", err)
		os.Exit(1)
	}

	targets := collectTargets(*input, *inputFile)
	if len(targets) == 0 {
		fmt.Println("  No targets provided. Exiting.")
		return
	}

	ctx := context.Background()
	for i, target := range targets {
		fmt.Printf("\n  TARGET %d/%d\n", i+1, len(targets))
		runTarget(ctx, reg, driver, target)
	}
}

// buildStore prefers Postgres when configured and reachable, with a warning
// fallback to memory so a missing database never blocks a dry run.
func buildStore(cfg config.Config, skipChecks bool) agents.RunStore {
	dsn := cfg.DSN()
	if dsn == "" {
		return repository.NewMemoryStore()
	}
	conn, err := db.Open(dsn)
	if err != nil {
		if !skipChecks {
			fmt.Println("  ! Postgres not reachable, runs will not be persisted:", err)
		}
		return repository.NewMemoryStore()
	}
	repo := &repository.OutreachRepository{DB: conn}
	if err := repo.EnsureSchema(context.Background()); err != nil {
		fmt.Println("  ! schema setup failed, falling back to memory:", err)
		conn.Close()
		return repository.NewMemoryStore()
	}
	if !skipChecks {
		fmt.Println("  * Postgres OK")
	}
	return repo
}

func collectTargets(input, inputFile string) []string {
	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read input file:", err)
			os.Exit(1)
		}
		var targets []string
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				targets = append(targets, line)
			}
		}
		return targets
	}
	if input != "" {
		return []string{input}
	}

	fmt.Println("  Paste target info below (LinkedIn URL, text, or a mix).")
	fmt.Println("  Press Enter on an empty line when done.")
	scanner := bufio.NewScanner(os.Stdin)
	var lines []string
	for {
		fmt.Print("  > ")
		if !scanner.Scan() || scanner.Text() == "" {
			break
		}
		lines = append(lines, scanner.Text())
	}
	if len(lines) == 0 {
		return nil
	}
	return []string{strings.Join(lines, "\n")}
}

func runTarget(ctx context.Context, reg *registry.Registry, driver *workflow.Driver, target string) {
	id := reg.Create(model.CampaignInput{Type: classify(target), Content: target})

	if err := driver.Start(ctx, id); err != nil {
		fmt.Println("  pipeline failed:", err)
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		camp, err := reg.Get(id)
		if err != nil {
			fmt.Println("  lost campaign:", err)
			return
		}
		switch camp.Status {
		case model.CampaignWaiting:
			printDrafts(camp.State)
			dec := readDecision(scanner)
			if err := driver.Resume(ctx, id, dec); err != nil {
				fmt.Println("  resume failed:", err)
				return
			}
		case model.CampaignCompleted:
			printResults(camp.State)
			fmt.Println("\n  DONE - status:", camp.Status)
			return
		case model.CampaignFailed:
			fmt.Println("\n  FAILED:", camp.Error)
			return
		default:
			fmt.Println("  unexpected status:", camp.Status)
			return
		}
	}
}

func classify(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return "url"
	}
	return "text"
}

func printDrafts(st *model.PipelineState) {
	if st == nil {
		return
	}
	fmt.Println("\n  ---- DRAFTS ----")
	for i, d := range st.Drafts {
		score := "N/A"
		if d.Score != nil {
			score = fmt.Sprintf("%.1f/10", *d.Score)
		}
		fmt.Printf("\n  [%d] %s  |  Score: %s\n", i+1, strings.ToUpper(d.Channel), score)
		if d.Subject != "" {
			fmt.Println("      Subject:", d.Subject)
		}
		for _, line := range strings.Split(d.Body, "\n") {
			fmt.Println("      " + line)
		}
	}
}

// readDecision parses lines like "email=approve sms=regen linkedin=skip".
func readDecision(scanner *bufio.Scanner) model.Decision {
	fmt.Println("\n  For each draft choose: approve | regen | skip")
	fmt.Println("  Example: email=approve sms=regen linkedin=approve instagram=skip")
	fmt.Print("\n  >>> ")

	var dec model.Decision
	if !scanner.Scan() {
		return dec
	}
	for _, token := range strings.Fields(scanner.Text()) {
		parts := strings.SplitN(token, "=", 2)
		if len(parts) != 2 {
			continue
		}
		channel := strings.ToLower(strings.TrimSpace(parts[0]))
		switch strings.ToLower(strings.TrimSpace(parts[1])) {
		case "approve":
			dec.Approved = append(dec.Approved, channel)
		case "regen":
			dec.Regen = append(dec.Regen, channel)
		case "skip":
			dec.Skipped = append(dec.Skipped, channel)
		}
	}
	return dec
}

func printResults(st *model.PipelineState) {
	if st == nil {
		return
	}
	fmt.Println("\n  ---- EXECUTION ----")
	for _, r := range st.ExecutionResults {
		line := fmt.Sprintf("  [%s] status=%s", strings.ToUpper(r.Channel), r.Status)
		if r.Error != "" {
			line += " error=" + r.Error
		}
		fmt.Println(line)
	}
}
