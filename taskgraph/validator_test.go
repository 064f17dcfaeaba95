package taskgraph

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/crewdeskhq/crewdesk/authz"
	"github.com/crewdeskhq/crewdesk/models"
)

type edge struct {
	workspace, source, target string
	typ                       models.LinkType
}

// memEdges is an in-memory EdgeStore mirroring the persisted-row semantics:
// blocked_by rows are stored as written and normalized on read.
type memEdges struct {
	edges []edge
	calls int // BlockingSuccessors invocations, one per BFS level
}

func (m *memEdges) add(workspace, source, target string, t models.LinkType) {
	m.edges = append(m.edges, edge{workspace, source, target, t})
}

func (m *memEdges) LinkExists(_ context.Context, workspaceID, sourceID, targetID string, t models.LinkType) (bool, error) {
	for _, e := range m.edges {
		if e.workspace == workspaceID && e.source == sourceID && e.target == targetID && e.typ == t {
			return true, nil
		}
	}
	return false, nil
}

func (m *memEdges) BlockingSuccessors(_ context.Context, workspaceID string, itemIDs []string) ([]string, error) {
	m.calls++
	in := make(map[string]bool, len(itemIDs))
	for _, id := range itemIDs {
		in[id] = true
	}
	var out []string
	for _, e := range m.edges {
		if e.workspace != workspaceID {
			continue
		}
		switch e.typ {
		case models.LinkBlocks:
			if in[e.source] {
				out = append(out, e.target)
			}
		case models.LinkBlockedBy:
			if in[e.target] {
				out = append(out, e.source)
			}
		}
	}
	return out, nil
}

func newTestValidator(edges *memEdges) *Validator {
	v := NewValidator(edges)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	v.Log = log
	return v
}

func wantConflict(t *testing.T, err error, reason authz.Reason) {
	t.Helper()
	if authz.KindOf(err) != authz.KindGraphConflict {
		t.Fatalf("err = %v (kind %v), want graph_conflict", err, authz.KindOf(err))
	}
	if got := authz.ReasonOf(err); got != reason {
		t.Fatalf("reason = %v, want %v", got, reason)
	}
}

func TestCanInsertRejectsUnknownType(t *testing.T) {
	v := newTestValidator(&memEdges{})
	err := v.CanInsert(context.Background(), "ws", "a", "b", "depends_on")
	wantConflict(t, err, authz.ReasonInvalidLink)
}

func TestCanInsertRejectsSelfLoop(t *testing.T) {
	v := newTestValidator(&memEdges{})
	err := v.CanInsert(context.Background(), "ws", "a", "a", models.LinkRelatesTo)
	wantConflict(t, err, authz.ReasonInvalidLink)
}

func TestCanInsertRejectsExactDuplicate(t *testing.T) {
	edges := &memEdges{}
	edges.add("ws", "a", "b", models.LinkRelatesTo)
	v := newTestValidator(edges)

	err := v.CanInsert(context.Background(), "ws", "a", "b", models.LinkRelatesTo)
	wantConflict(t, err, authz.ReasonDuplicateLink)

	// Same pair under a different type is not a duplicate.
	if err := v.CanInsert(context.Background(), "ws", "a", "b", models.LinkDuplicates); err != nil {
		t.Errorf("different type rejected: %v", err)
	}
}

func TestCanInsertInformationalTypesSkipCycleCheck(t *testing.T) {
	edges := &memEdges{}
	edges.add("ws", "a", "b", models.LinkBlocks)
	v := newTestValidator(edges)

	// b relates_to a would be a cycle if relates_to were constrained.
	if err := v.CanInsert(context.Background(), "ws", "b", "a", models.LinkRelatesTo); err != nil {
		t.Errorf("informational link rejected: %v", err)
	}
}

func TestCanInsertRejectsDirectInverse(t *testing.T) {
	edges := &memEdges{}
	edges.add("ws", "a", "b", models.LinkBlocks)
	v := newTestValidator(edges)
	ctx := context.Background()

	err := v.CanInsert(ctx, "ws", "b", "a", models.LinkBlocks)
	wantConflict(t, err, authz.ReasonCyclicDependency)

	// The same 2-cycle expressed through blocked_by is equally rejected.
	err = v.CanInsert(ctx, "ws", "a", "b", models.LinkBlockedBy)
	wantConflict(t, err, authz.ReasonCyclicDependency)
}

func TestCanInsertRejectsInverseOfBlockedByRow(t *testing.T) {
	// Stored as blocked_by: b is blocked by a, i.e. a blocks b.
	edges := &memEdges{}
	edges.add("ws", "b", "a", models.LinkBlockedBy)
	v := newTestValidator(edges)

	err := v.CanInsert(context.Background(), "ws", "b", "a", models.LinkBlocks)
	wantConflict(t, err, authz.ReasonCyclicDependency)
}

func TestCanInsertRejectsTransitiveCycle(t *testing.T) {
	edges := &memEdges{}
	edges.add("ws", "a", "b", models.LinkBlocks)
	edges.add("ws", "b", "c", models.LinkBlocks)
	v := newTestValidator(edges)

	// c -> a closes a 3-cycle through a -> b -> c.
	err := v.CanInsert(context.Background(), "ws", "c", "a", models.LinkBlocks)
	wantConflict(t, err, authz.ReasonCyclicDependency)
}

func TestCanInsertAcceptsAcyclicEdge(t *testing.T) {
	edges := &memEdges{}
	edges.add("ws", "a", "b", models.LinkBlocks)
	edges.add("ws", "b", "c", models.LinkBlocks)
	v := newTestValidator(edges)
	ctx := context.Background()

	// Forward shortcut keeps the graph acyclic.
	if err := v.CanInsert(ctx, "ws", "a", "c", models.LinkBlocks); err != nil {
		t.Errorf("acyclic edge rejected: %v", err)
	}
	// A fresh node can block the chain head.
	if err := v.CanInsert(ctx, "ws", "d", "a", models.LinkBlocks); err != nil {
		t.Errorf("acyclic edge rejected: %v", err)
	}
}

func TestCanInsertIsWorkspaceScoped(t *testing.T) {
	edges := &memEdges{}
	edges.add("ws-other", "a", "b", models.LinkBlocks)
	v := newTestValidator(edges)

	// The same ids in a different workspace share no graph.
	if err := v.CanInsert(context.Background(), "ws", "b", "a", models.LinkBlocks); err != nil {
		t.Errorf("cross-workspace edge rejected: %v", err)
	}
}

func TestCanInsertUnrelatedEdgesDoNotInterfere(t *testing.T) {
	edges := &memEdges{}
	edges.add("ws", "a", "b", models.LinkBlocks)
	edges.add("ws", "x", "y", models.LinkBlocks)
	v := newTestValidator(edges)

	if err := v.CanInsert(context.Background(), "ws", "b", "x", models.LinkBlocks); err != nil {
		t.Errorf("edge between unrelated components rejected: %v", err)
	}
}

func TestCanInsertDepthCap(t *testing.T) {
	// Chain n0 -> n1 -> ... -> n14, longer than the default cap.
	edges := &memEdges{}
	for i := 0; i < 14; i++ {
		edges.add("ws", fmt.Sprintf("n%d", i), fmt.Sprintf("n%d", i+1), models.LinkBlocks)
	}
	v := newTestValidator(edges)
	ctx := context.Background()

	// A cycle within the cap is still caught.
	err := v.CanInsert(ctx, "ws", "n5", "n0", models.LinkBlocks)
	wantConflict(t, err, authz.ReasonCyclicDependency)

	// Beyond the cap the search gives up and the edge is admitted. This is
	// the documented trade: bounded cost over completeness on deep chains.
	if err := v.CanInsert(ctx, "ws", "n14", "n0", models.LinkBlocks); err != nil {
		t.Errorf("edge past the depth cap rejected: %v", err)
	}

	// A shorter cap changes the verdict for the same graph.
	v.MaxDepth = 3
	if err := v.CanInsert(ctx, "ws", "n5", "n0", models.LinkBlocks); err != nil {
		t.Errorf("cycle past a shortened cap rejected: %v", err)
	}
}

func TestReachableExpandsLevelByLevel(t *testing.T) {
	edges := &memEdges{}
	edges.add("ws", "a", "b", models.LinkBlocks)
	edges.add("ws", "b", "c", models.LinkBlocks)
	v := newTestValidator(edges)

	// Inserting c -> a: BFS starts at a and must find c on the second level.
	calls := edges.calls
	err := v.CanInsert(context.Background(), "ws", "c", "a", models.LinkBlocks)
	wantConflict(t, err, authz.ReasonCyclicDependency)
	if got := edges.calls - calls; got != 2 {
		t.Errorf("BFS used %d levels, want 2", got)
	}
}
