package autolearn

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boshu2/lore/internal/extcmd"
	"github.com/boshu2/lore/internal/instinct"
	"github.com/boshu2/lore/internal/obslog"
)

// gitTimeout bounds each best-effort git invocation during context assembly.
const gitTimeout = 5 * time.Second

const promptTemplate = `You are a background distillation step for a coding-agent memory system.
Review the recent activity, existing skills, and instincts below, then propose
durable improvements: new or updated skill documents (complete bodies only,
never fragments) and new or adjusted instincts (small trigger/action rules
with a confidence in [0,1]).

Respond with exactly one JSON object and nothing else, shaped as:
{"schema_version": 2,
 "skills": {"create": [{"name", "description", "body", "tags"}],
            "update": [{"name", "body"}],
            "deprecate": [{"name", "reason"}]},
 "instincts": {"create": [{"id", "title", "trigger", "action", "confidence", "tags"}],
               "update": [{"id", "confidence_delta", "evidence"}]},
 "changelog": "one-line note"}

Omit any section with nothing to propose. Use lowercase hyphenated slugs for
names and ids. If nothing is worth recording, respond with
{"schema_version": 2}.
`

// assembleContext builds the reasoning prompt: template, git change summary,
// capped skill bodies, the instinct index, and a tail of recent
// observations, truncated as a whole to the configured character cap.
func (s *Scheduler) assembleContext(ctx context.Context) string {
	var b strings.Builder
	b.WriteString(promptTemplate)

	if summary := gitChangeSummary(ctx); summary != "" {
		b.WriteString("\n## Working tree\n\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}

	docs, err := s.repo.ScanAll()
	if err == nil {
		if s.cfg.MaxSkills > 0 && len(docs) > s.cfg.MaxSkills {
			docs = docs[:s.cfg.MaxSkills]
		}
		for _, d := range docs {
			fmt.Fprintf(&b, "\n## Skill: %s (v%d)\n\n%s\n", d.Name, d.Version, d.Body)
		}
	}

	if active, err := s.store.Active(); err == nil && len(active) > 0 {
		b.WriteString("\n## Instincts\n\n")
		b.WriteString(instinct.RenderIndex(active, instinct.DefaultIndexTop))
		b.WriteString("\n")
	}

	if tail, err := s.log.Tail(s.cfg.TailCount); err == nil && len(tail) > 0 {
		b.WriteString("\n## Recent observations\n\n")
		for _, obs := range tail {
			b.WriteString(renderObservation(obs))
			b.WriteString("\n")
		}
	}

	out := b.String()
	if s.cfg.MaxContextChars > 0 && len(out) > s.cfg.MaxContextChars {
		out = out[:s.cfg.MaxContextChars]
	}
	return out
}

// renderObservation flattens one record to a single prompt line.
func renderObservation(obs obslog.Observation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- [%s] %s", obs.TS.Format(time.RFC3339), obs.Type)
	if obs.Tool != "" {
		b.WriteString(" " + obs.Tool)
	}
	if obs.OK != nil && !*obs.OK {
		b.WriteString(" (failed)")
	}
	if obs.Summary != "" {
		b.WriteString(": " + obs.Summary)
	}
	return b.String()
}

// gitChangeSummary collects a short status plus recent commits, best-effort.
// A missing git binary or a non-repo root just yields an empty section.
func gitChangeSummary(ctx context.Context) string {
	var parts []string
	if res := extcmd.Run(ctx, "git", []string{"status", "--short"}, gitTimeout); res.OK() && strings.TrimSpace(res.Stdout) != "" {
		parts = append(parts, strings.TrimSpace(res.Stdout))
	}
	if res := extcmd.Run(ctx, "git", []string{"log", "--oneline", "-5"}, gitTimeout); res.OK() && strings.TrimSpace(res.Stdout) != "" {
		parts = append(parts, strings.TrimSpace(res.Stdout))
	}
	return strings.Join(parts, "\n\n")
}
