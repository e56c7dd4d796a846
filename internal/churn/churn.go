// Package churn measures code churn in the release repository over the
// report period.
package churn

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

type FileChange struct {
	File    string `json:"file"`
	Added   int    `json:"lines_added"`
	Deleted int    `json:"lines_deleted"`
	Total   int    `json:"total_changes"`
}

type Stats struct {
	PeriodStart   string       `json:"reporting_period_start"`
	PeriodEnd     string       `json:"reporting_period_end"`
	Commits       int          `json:"total_commits"`
	LinesAdded    int          `json:"lines_added"`
	LinesDeleted  int          `json:"lines_deleted"`
	LinesChanged  int          `json:"lines_changed"`
	FilesChanged  int          `json:"files_changed"`
	Authors       []string     `json:"authors"`
	MostChanged   []FileChange `json:"most_changed_files"`
	CommitsPerDay float64      `json:"commit_frequency"`
	Risk          string       `json:"code_churn_risk"`
}

const (
	RiskHigh    = "High"
	RiskMedium  = "Medium"
	RiskLow     = "Low"
	RiskUnknown = "Unknown"

	mostChangedLimit = 10
	dateLayout       = "2006-01-02"
)

// Empty is the result used whenever the repository cannot be analyzed.
func Empty(start, end string) Stats {
	return Stats{
		PeriodStart: start,
		PeriodEnd:   end,
		Authors:     []string{},
		MostChanged: []FileChange{},
		Risk:        RiskUnknown,
	}
}

// gitRunner runs one git command in dir and returns its stdout.
type gitRunner func(ctx context.Context, dir string, args ...string) (string, error)

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return string(out), nil
}

// Analyze collects churn for commits between start and end (YYYY-MM-DD).
// Failures are logged and produce Empty stats.
func Analyze(ctx context.Context, repoPath, start, end string) Stats {
	return analyze(ctx, runGit, repoPath, start, end)
}

func analyze(ctx context.Context, git gitRunner, repoPath, start, end string) Stats {
	if repoPath == "" {
		return Empty(start, end)
	}
	if _, err := os.Stat(filepath.Join(repoPath, ".git")); err != nil {
		log.Printf("WARNING: not a git repository path=%s", repoPath)
		return Empty(start, end)
	}
	stats, err := collect(ctx, git, repoPath, start, end)
	if err != nil {
		log.Printf("churn analysis failed repo=%s: %v", repoPath, err)
		return Empty(start, end)
	}
	return stats
}

func collect(ctx context.Context, git gitRunner, repoPath, start, end string) (Stats, error) {
	window := []string{"--since=" + start, "--until=" + end}

	countOut, err := git(ctx, repoPath, append([]string{"rev-list", "--count", "HEAD"}, window...)...)
	if err != nil {
		return Stats{}, err
	}
	commits, err := strconv.Atoi(strings.TrimSpace(countOut))
	if err != nil {
		return Stats{}, fmt.Errorf("parse commit count %q: %w", countOut, err)
	}

	numstat, err := git(ctx, repoPath, append([]string{"log", "--numstat", "--pretty=format:"}, window...)...)
	if err != nil {
		return Stats{}, err
	}
	authorsOut, err := git(ctx, repoPath, append([]string{"log", "--pretty=format:%an"}, window...)...)
	if err != nil {
		return Stats{}, err
	}

	stats := Empty(start, end)
	stats.Commits = commits
	files := parseNumstat(numstat)
	for _, f := range files {
		stats.LinesAdded += f.Added
		stats.LinesDeleted += f.Deleted
	}
	stats.LinesChanged = stats.LinesAdded + stats.LinesDeleted
	stats.FilesChanged = len(files)
	stats.MostChanged = mostChanged(files, mostChangedLimit)
	stats.Authors = uniqueSorted(authorsOut)

	days := periodDays(start, end)
	if days > 0 {
		stats.CommitsPerDay = float64(commits) / float64(days)
	}
	stats.Risk = AssessRisk(commits, stats.LinesChanged, stats.FilesChanged, days)
	return stats, nil
}

// parseNumstat sums "added\tdeleted\tpath" lines per file. Binary files
// report "-" and count as zero.
func parseNumstat(out string) map[string]*FileChange {
	files := make(map[string]*FileChange)
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 || strings.TrimSpace(line) == "" {
			continue
		}
		added, err1 := numstatCount(parts[0])
		deleted, err2 := numstatCount(parts[1])
		if err1 != nil || err2 != nil {
			continue
		}
		name := parts[2]
		f, ok := files[name]
		if !ok {
			f = &FileChange{File: name}
			files[name] = f
		}
		f.Added += added
		f.Deleted += deleted
		f.Total = f.Added + f.Deleted
	}
	return files
}

func numstatCount(s string) (int, error) {
	if s == "-" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func mostChanged(files map[string]*FileChange, limit int) []FileChange {
	out := make([]FileChange, 0, len(files))
	for _, f := range files {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].File < out[j].File
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func uniqueSorted(out string) []string {
	seen := make(map[string]bool)
	authors := []string{}
	for _, line := range strings.Split(out, "\n") {
		name := strings.TrimSpace(line)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		authors = append(authors, name)
	}
	sort.Strings(authors)
	return authors
}

// periodDays counts calendar days from start to end inclusive.
func periodDays(start, end string) int {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return 0
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}

// AssessRisk rates churn from daily averages. Two or more high thresholds
// make it High, otherwise two or more medium thresholds make it Medium.
func AssessRisk(commits, linesChanged, filesChanged, days int) string {
	if days <= 0 {
		return RiskUnknown
	}
	d := float64(days)
	dailyCommits := float64(commits) / d
	dailyLines := float64(linesChanged) / d
	dailyFiles := float64(filesChanged) / d

	high := countTrue(dailyCommits > 10, dailyLines > 1000, dailyFiles > 20, linesChanged > 50000)
	medium := countTrue(dailyCommits > 5, dailyLines > 500, dailyFiles > 10, linesChanged > 20000)
	switch {
	case high >= 2:
		return RiskHigh
	case medium >= 2:
		return RiskMedium
	default:
		return RiskLow
	}
}

func countTrue(conds ...bool) int {
	n := 0
	for _, c := range conds {
		if c {
			n++
		}
	}
	return n
}
