package contextbundle

import (
	"encoding/json"
	"fmt"

	"github.com/overseerhq/overseer/capability"
	"github.com/overseerhq/overseer/journal"
	"github.com/overseerhq/overseer/registry"
)

// Assembler compiles context bundles from run history and registry state.
type Assembler struct {
	files capability.File
}

// NewAssembler creates an Assembler reading repo snippets through files.
func NewAssembler(files capability.File) *Assembler {
	return &Assembler{files: files}
}

// Compile builds a Bundle and its Manifest for one node dispatch. events is
// the run's full event history so far; profile and policy are the active
// registry entries for the run's graph. A *capability.PathEscapeError from a
// misconfigured mount propagates unwrapped, matching the sandbox contract
// elsewhere in the system.
func (a *Assembler) Compile(events []journal.Event, profile registry.ContextProfile, policy registry.Policy) (Result, error) {
	scratchpad := recentScratchpad(events)
	scratchBytes, err := json.Marshal(scratchpad)
	if err != nil {
		return Result{}, fmt.Errorf("marshal scratchpad: %w", err)
	}

	repoFiles, err := a.readMounts(profile)
	if err != nil {
		return Result{}, err
	}
	repoBytes, err := json.Marshal(repoFiles)
	if err != nil {
		return Result{}, fmt.Errorf("marshal repo snippets: %w", err)
	}

	policyDocs := policyDocsFor(policy)
	policyBytes, err := json.Marshal(policyDocs)
	if err != nil {
		return Result{}, fmt.Errorf("marshal policy docs: %w", err)
	}

	sections := map[string]SectionManifest{
		sectionScratchpad:   {TokenEstimate: tokenEstimate(len(scratchBytes))},
		sectionRepoSnippets: {TokenEstimate: tokenEstimate(len(repoBytes))},
		sectionPolicyDocs:   {TokenEstimate: tokenEstimate(len(policyBytes))},
	}

	total := sections[sectionScratchpad].TokenEstimate +
		sections[sectionRepoSnippets].TokenEstimate +
		sections[sectionPolicyDocs].TokenEstimate

	budget := profile.BudgetTokens
	if budget <= 0 {
		budget = 120000
	}

	repoSnippets := RepoSnippets{Files: repoFiles}
	var drops []string

	if total > budget {
		trimAmount := total - budget
		repoEstimate := sections[sectionRepoSnippets].TokenEstimate

		if repoEstimate > trimAmount {
			newEstimate := repoEstimate - trimAmount
			maxChars := newEstimate * 4
			raw := string(repoBytes)
			if len(raw) > maxChars {
				drops = append(drops, fmt.Sprintf("repo_snippets trimmed by %d chars", len(raw)-maxChars))
				raw = raw[:maxChars]
			}
			repoSnippets = RepoSnippets{Raw: raw}
			sections[sectionRepoSnippets] = SectionManifest{TokenEstimate: newEstimate}
			total = budget
		} else {
			drops = append(drops, "repo_snippets dropped entirely")
			repoSnippets = RepoSnippets{}
			sections[sectionRepoSnippets] = SectionManifest{TokenEstimate: 0}
			total = sections[sectionScratchpad].TokenEstimate + sections[sectionPolicyDocs].TokenEstimate
		}
	}

	return Result{
		Bundle: Bundle{
			Scratchpad:   scratchpad,
			RepoSnippets: repoSnippets,
			PolicyDocs:   policyDocs,
		},
		Manifest: Manifest{
			Sections:    sections,
			TotalTokens: total,
			Drops:       drops,
		},
	}, nil
}

// recentScratchpad folds the last 5 events into scratchpad entries.
func recentScratchpad(events []journal.Event) []ScratchEntry {
	start := 0
	if len(events) > 5 {
		start = len(events) - 5
	}
	recent := events[start:]

	out := make([]ScratchEntry, len(recent))
	for i, e := range recent {
		out[i] = ScratchEntry{Step: e.Step, Type: e.Type, Data: e.Data}
	}
	return out
}

// readMounts reads every file the profile names (or the default mount set),
// silently skipping files that don't exist or error at the capability
// level — only a sandbox escape is fatal.
func (a *Assembler) readMounts(profile registry.ContextProfile) (map[string]string, error) {
	mounts := profile.Mounts
	if len(mounts) == 0 {
		mounts = defaultMounts
	}

	files := make(map[string]string, len(mounts))
	for _, path := range mounts {
		res, err := a.files.Read(path)
		if err != nil {
			return nil, err
		}
		if res.Err != nil {
			continue
		}
		files[path] = res.Content
	}
	return files, nil
}

// policyDocsFor builds the policy_docs section from the active policy,
// falling back to the reference implementation's stub note and pattern
// when no policy is registered for the graph.
func policyDocsFor(policy registry.Policy) PolicyDocs {
	patterns := policy.BlockPatterns
	if len(patterns) == 0 {
		patterns = []string{"eval("}
	}
	return PolicyDocs{
		Note:            "policy enforcement active",
		PatternsBlocked: patterns,
	}
}
