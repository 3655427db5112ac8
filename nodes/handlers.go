// Package nodes implements the fixed handler table of spec.md §4.5: one
// deterministic function per node name, grounded directly in the reference
// run_node dispatch. Handlers never touch the filesystem or a shell
// directly — they go through the capability interfaces, so the engine's
// sandboxing and test doubles apply uniformly.
package nodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/overseerhq/overseer/capability"
	"github.com/overseerhq/overseer/engine"
	"github.com/overseerhq/overseer/journal"
	"github.com/overseerhq/overseer/router"
	llm "github.com/overseerhq/overseer/router/model"
)

// Deps bundles the capabilities handlers dispatch through.
type Deps struct {
	Files    capability.File
	Tests    capability.Test
	Security capability.Security
	Now      func() time.Time

	// Pool dials the model ChooseModel picked for fe_fixer's step, so a
	// deployment with a provider adapter bound actually generates a
	// frontend patch instead of the scenario's deterministic no-op. A nil
	// Pool, or one with nothing bound under the routed model name, falls
	// back to the no-op.
	Pool *router.Pool
}

// Handlers builds the HandlerTable the executor dispatches against, one
// entry per row of spec.md §4.5's table.
func Handlers(d Deps) engine.HandlerTable {
	if d.Now == nil {
		d.Now = time.Now
	}
	return engine.HandlerTable{
		"planner":     planner,
		"py_fixer":    d.pyFixer,
		"fe_fixer":    d.feFixer,
		"test_writer": d.testWriter,
		"aggregator":  aggregator,
		"tester":      d.tester,
		"security":    d.security,
		"release":     d.release,
	}
}

// planner declares target files and a hint. It never touches the
// filesystem; its output is a fixed plan matching the reference
// implementation's hardcoded bug scenario.
func planner(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
	return "plan_ready", map[string]any{
		"target_files": []string{"app.py", "tests/test_app.py"},
		"hint":         "test expects 42, app returns 41",
	}, nil
}

// pyFixer reads app.py and applies the one deterministic substitution the
// scenario calls for, persisting a patch artifact via the file capability.
func (d Deps) pyFixer(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
	res, err := d.Files.Read("app.py")
	if err != nil {
		return "", nil, err
	}
	if res.Err != nil {
		return "patch_created", map[string]any{"error": "app.py not found"}, nil
	}

	fixed := strings.Replace(res.Content, "return 41", "return 42", 1)
	if _, err := d.Files.Write("app.py", fixed); err != nil {
		return "", nil, err
	}

	patch := map[string]any{"file": "app.py", "change": "return 41 -> return 42"}
	if _, err := d.Files.Write("py_fixer_patch.json", fmt.Sprintf(`{"file":"app.py","change":"return 41 -> return 42"}`)); err != nil {
		return "", nil, err
	}

	return "patch_created", map[string]any{"patch": patch, "success": true}, nil
}

// feFixer dials the model ChooseModel routed for this step and asks it to
// describe a frontend fix for the plan's hint. The sample scenario ships
// no frontend and no bound adapter, so absent a Pool dial this is a
// no-op; a deployment that binds a provider under the routed model name
// gets a real suggestion back.
func (d Deps) feFixer(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
	if d.Pool == nil {
		return "patch_created", map[string]any{"patch": nil, "message": "no frontend changes needed"}, nil
	}

	chat, err := d.Pool.Dial(inv.Model.Model)
	if err != nil {
		return "patch_created", map[string]any{"patch": nil, "message": "no frontend changes needed"}, nil
	}

	hint := plannedHint(inv.Events)
	out, err := chat.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are fe_fixer, a node in an overseer run. Describe the minimal frontend change needed, in one sentence."},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Plan hint: %s", hint)},
	}, nil)
	if err != nil {
		return "patch_created", map[string]any{"patch": nil, "error": err.Error(), "success": false}, nil
	}

	return "patch_created", map[string]any{
		"patch":   map[string]any{"source": "llm", "model": inv.Model.Model, "suggestion": out.Text},
		"success": true,
	}, nil
}

// plannedHint recovers the planner's hint from run history; fe_fixer is
// the planner's DAG child so it always runs after plan_ready is recorded.
func plannedHint(events []journal.Event) string {
	for _, e := range events {
		if e.Step == "planner" && e.Type == "plan_ready" {
			hint, _ := e.Data["hint"].(string)
			return hint
		}
	}
	return ""
}

const testAnswerTypeMarker = "assert answer == 42"

// testWriter appends one assertion to the test file if the expected marker
// is absent, leaving an already-complete test file untouched.
func (d Deps) testWriter(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
	res, err := d.Files.Read("tests/test_app.py")
	if err != nil {
		return "", nil, err
	}
	if res.Err != nil {
		return "test_updated", map[string]any{"error": "test file not found"}, nil
	}

	if strings.Contains(res.Content, testAnswerTypeMarker) {
		return "test_updated", map[string]any{"message": "tests already complete"}, nil
	}

	content := res.Content + "\n\ndef test_answer_type():\n    from app import compute\n    assert isinstance(compute(), int)\n"
	if _, err := d.Files.Write("tests/test_app.py", content); err != nil {
		return "", nil, err
	}
	return "test_updated", map[string]any{"added": "test_answer_type", "success": true}, nil
}

// aggregator selects the first successful py_fixer patch recorded in the
// run's history so far; the join barrier on its incoming edges already
// ensures this runs after every fan-out sibling has completed.
func aggregator(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
	for _, e := range inv.Events {
		if e.Step != "py_fixer" || e.Type != "patch_created" {
			continue
		}
		success, _ := e.Data["success"].(bool)
		if success {
			return "patch_selected", map[string]any{"selected_patch": e.Data["patch"]}, nil
		}
	}
	return "patch_selected", map[string]any{"selected_patch": nil}, nil
}

// tester invokes the test capability and reports tests_passed or
// tests_failed depending on the outcome.
func (d Deps) tester(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
	res, err := d.Tests.Run(ctx)
	if err != nil {
		return "", nil, err
	}
	data := map[string]any{"passed": res.Passed, "output": res.Output}
	if res.Passed {
		return "tests_passed", data, nil
	}
	return "tests_failed", data, nil
}

// security scans the repo for blocked patterns and reports security_ok or
// security_failed.
func (d Deps) security(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
	patterns := blockPatterns(inv)
	res, err := d.Security.ScanRepo(patterns)
	if err != nil {
		return "", nil, err
	}
	data := map[string]any{"ok": res.OK, "issues": res.Issues}
	if res.OK {
		return "security_ok", data, nil
	}
	return "security_failed", data, nil
}

// blockPatterns reads the block pattern list off the compiled context's
// policy_docs section, falling back to the reference implementation's
// stubbed default when none were mounted.
func blockPatterns(inv *engine.Invocation) []string {
	patterns := inv.Bundle.PolicyDocs.PatternsBlocked
	if len(patterns) == 0 {
		return []string{"eval("}
	}
	return patterns
}

// release appends a timestamped entry to CHANGELOG.md and reports success.
func (d Deps) release(ctx context.Context, inv *engine.Invocation) (string, map[string]any, error) {
	res, err := d.Files.Read("CHANGELOG.md")
	if err != nil {
		return "", nil, err
	}
	content := res.Content
	if res.Err != nil {
		content = "# Changelog\n\n"
	}
	content += fmt.Sprintf("\n- %s: auto-release from run %s\n", d.Now().UTC().Format(time.RFC3339), inv.RunID)

	if _, err := d.Files.Write("CHANGELOG.md", content); err != nil {
		return "", nil, err
	}
	return "release_complete", map[string]any{"released": true}, nil
}
