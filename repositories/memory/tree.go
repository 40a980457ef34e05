package memory

import (
	"context"
	"sort"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/repositories"
)

type accountRepo struct{ s *Store }

func (r accountRepo) GetAccount(_ context.Context, id string) (models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.state.accounts[id]
	if !ok {
		return models.Account{}, repositories.ErrNotFound
	}
	return a, nil
}

type treeRepo struct{ s *Store }

func (r treeRepo) EdgesTo(_ context.Context, descendantID string) ([]models.TreeEdge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.TreeEdge
	for _, e := range r.s.state.edges {
		if e.DescendantID == descendantID {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out, nil
}

func (r treeRepo) InsertEdges(_ context.Context, edges []models.TreeEdge) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fault("tree.InsertEdges"); err != nil {
		return err
	}
	seen := make(map[[2]string]bool, len(r.s.state.edges)+len(edges))
	for _, e := range r.s.state.edges {
		seen[[2]string{e.AncestorID, e.DescendantID}] = true
	}
	for _, e := range edges {
		key := [2]string{e.AncestorID, e.DescendantID}
		if seen[key] {
			return repositories.ErrDuplicateKey
		}
		seen[key] = true
	}
	r.s.state.edges = append(r.s.state.edges, edges...)
	return nil
}

func (r treeRepo) HasMember(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.state.edges {
		if e.Depth == 0 && e.AncestorID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r treeRepo) Ancestors(_ context.Context, id string, maxDepth int) ([]models.TreeEdge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.TreeEdge
	for _, e := range r.s.state.edges {
		if e.DescendantID == id && e.Depth > 0 && e.Depth <= maxDepth {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out, nil
}

func (r treeRepo) Descendants(_ context.Context, id string, maxDepth int) ([]models.TreeEdge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.TreeEdge
	for _, e := range r.s.state.edges {
		if e.AncestorID == id && e.Depth <= maxDepth {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out, nil
}

func (r treeRepo) Members(_ context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for _, e := range r.s.state.edges {
		if e.Depth == 0 {
			ids = append(ids, e.DescendantID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Edges returns a copy of the closure table.
func (s *Store) Edges() []models.TreeEdge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TreeEdge(nil), s.state.edges...)
}

func sortEdges(edges []models.TreeEdge) {
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Depth != edges[j].Depth {
			return edges[i].Depth < edges[j].Depth
		}
		if edges[i].AncestorID != edges[j].AncestorID {
			return edges[i].AncestorID < edges[j].AncestorID
		}
		return edges[i].DescendantID < edges[j].DescendantID
	})
}
