package engine

import (
	"context"
	"sync"

	"github.com/overseerhq/overseer/journal"
	"github.com/overseerhq/overseer/registry"
)

// Scheduler walks a graph's DAG per spec.md §4.6: a ready-set loop that
// chooses, each iteration, either a batch of parallel fan-outs or a single
// sequential node, gating children on edge conditions and join barriers.
type Scheduler struct {
	journal  *journal.Journal
	executor *Executor
}

// NewScheduler wires a Scheduler's dependencies.
func NewScheduler(jr *journal.Journal, executor *Executor) *Scheduler {
	return &Scheduler{journal: jr, executor: executor}
}

// ExecuteGraph runs every node of graph reachable from its start nodes,
// returning the set of nodes that reached node_done, in completion order.
// A returned error is always infrastructural and means the run must be
// marked failed.
func (s *Scheduler) ExecuteGraph(ctx context.Context, run registry.Run, graph registry.Graph) ([]string, error) {
	adj := map[string][]registry.Edge{}
	inDegree := map[string]int{}
	joinGroups := map[string][]string{}

	for _, a := range graph.Agents {
		inDegree[a] = 0
	}
	for _, e := range graph.DAG {
		adj[e.From] = append(adj[e.From], e)
		inDegree[e.To]++
		if e.Join == "all" {
			joinGroups[e.To] = append(joinGroups[e.To], e.From)
		}
	}

	var ready []string
	for _, a := range graph.Agents {
		if inDegree[a] == 0 {
			ready = append(ready, a)
		}
	}

	completed := map[string]bool{}
	var completedOrder []string
	markDone := func(node string) {
		if !completed[node] {
			completed[node] = true
			completedOrder = append(completedOrder, node)
		}
	}

	// A replay child's journal starts with its parent's copied prefix: nodes
	// whose node_done is already recorded count as completed and are not
	// dispatched again, while the walk still passes through them.
	prior := map[string]bool{}
	for _, e := range s.journal.Read(run.ID) {
		if e.Type == journal.TypeNodeDone {
			prior[e.Step] = true
		}
	}

	runOne := func(node string) error {
		if completed[node] {
			return nil
		}
		if prior[node] {
			markDone(node)
			return nil
		}
		events := s.journal.Read(run.ID)
		if _, err := s.executor.RunNode(ctx, run, graph, node, events); err != nil {
			return err
		}
		markDone(node)
		return nil
	}

	for len(ready) > 0 {
		var parallelChildren []string
		sequentialNode := ""

		for _, node := range ready {
			edges := adj[node]
			if len(edges) > 0 && edges[0].Parallel {
				if err := runOne(node); err != nil {
					return completedOrder, err
				}
				for _, e := range edges {
					parallelChildren = append(parallelChildren, e.To)
				}
				continue
			}
			sequentialNode = node
			break
		}

		switch {
		case len(parallelChildren) > 0:
			var toRun []string
			for _, child := range parallelChildren {
				if !prior[child] {
					toRun = append(toRun, child)
				}
			}
			if err := s.runParallel(ctx, run, graph, toRun); err != nil {
				return completedOrder, err
			}
			for _, child := range parallelChildren {
				markDone(child)
			}
			ready = without(ready, parallelChildren, completed)
			for joinNode, sources := range joinGroups {
				if allIn(sources, completed) && !completed[joinNode] && !contains(ready, joinNode) {
					ready = append(ready, joinNode)
				}
			}

		case sequentialNode != "":
			if err := runOne(sequentialNode); err != nil {
				return completedOrder, err
			}
			ready = remove(ready, sequentialNode)

			events := s.journal.Read(run.ID)
			for _, e := range adj[sequentialNode] {
				child := e.To
				if len(e.On) > 0 && !edgeFires(events, sequentialNode, e.On) {
					continue
				}
				if sources, ok := joinGroups[child]; ok {
					if allIn(sources, completed) && !completed[child] && !contains(ready, child) {
						ready = append(ready, child)
					}
					continue
				}
				if !completed[child] && !contains(ready, child) {
					ready = append(ready, child)
				}
			}

		default:
			return completedOrder, nil
		}
	}

	return completedOrder, nil
}

// runParallel dispatches every child concurrently and awaits the batch, as
// spec.md §4.6's fan-out step requires.
func (s *Scheduler) runParallel(ctx context.Context, run registry.Run, graph registry.Graph, children []string) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(children))

	for _, child := range children {
		wg.Add(1)
		go func(node string) {
			defer wg.Done()
			events := s.journal.Read(run.ID)
			if _, err := s.executor.RunNode(ctx, run, graph, node, events); err != nil {
				errs <- err
			}
		}(child)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// edgeFires reports whether the journal contains an event produced by
// fromNode whose type is in on — spec.md §4.6's edge-gating rule. It
// matches any historical event, not just the most recent invocation (see
// spec.md §9's open question on replay).
func edgeFires(events []journal.Event, fromNode string, on []string) bool {
	wanted := make(map[string]bool, len(on))
	for _, t := range on {
		wanted[t] = true
	}
	for _, e := range events {
		if e.Step == fromNode && wanted[e.Type] {
			return true
		}
	}
	return false
}

func allIn(nodes []string, completed map[string]bool) bool {
	for _, n := range nodes {
		if !completed[n] {
			return false
		}
	}
	return true
}

func contains(list []string, node string) bool {
	for _, n := range list {
		if n == node {
			return true
		}
	}
	return false
}

func remove(list []string, node string) []string {
	out := list[:0:0]
	for _, n := range list {
		if n != node {
			out = append(out, n)
		}
	}
	return out
}

func without(list []string, drop []string, completed map[string]bool) []string {
	dropSet := make(map[string]bool, len(drop))
	for _, n := range drop {
		dropSet[n] = true
	}
	out := list[:0:0]
	for _, n := range list {
		if dropSet[n] || completed[n] {
			continue
		}
		out = append(out, n)
	}
	return out
}
