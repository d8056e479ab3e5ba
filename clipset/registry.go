// Package clipset owns the ordered clip collection and its selection set for
// the active video. All operations are synchronous, in-memory updates; the
// session controller is the only writer.
package clipset

import (
	"clipstudio/editor-gateway/models"
)

// Registry holds the clips of the active video in the order the last
// ReplaceAll delivered them, plus the selection in the order clips were
// toggled on. The selection only ever references clips present in the
// collection: deletions prune it in the same update.
type Registry struct {
	clips    []models.Clip
	index    map[string]int
	selected []string
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// ReplaceAll swaps in a whole new collection, as delivered by a completed
// analysis. Selection entries whose id no longer exists are dropped.
func (r *Registry) ReplaceAll(clips []models.Clip) {
	r.clips = make([]models.Clip, len(clips))
	copy(r.clips, clips)
	r.index = make(map[string]int, len(clips))
	for i, c := range r.clips {
		r.index[c.ID] = i
	}
	kept := r.selected[:0]
	for _, id := range r.selected {
		if _, ok := r.index[id]; ok {
			kept = append(kept, id)
		}
	}
	r.selected = kept
}

// Remove deletes a clip and its selection entry as one update. Removing an
// absent id is a no-op.
func (r *Registry) Remove(id string) {
	i, ok := r.index[id]
	if !ok {
		return
	}
	r.clips = append(r.clips[:i], r.clips[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.clips); j++ {
		r.index[r.clips[j].ID] = j
	}
	for j, sid := range r.selected {
		if sid == id {
			r.selected = append(r.selected[:j], r.selected[j+1:]...)
			break
		}
	}
}

// ToggleSelected flips selection membership for a clip that must exist in the
// current collection.
func (r *Registry) ToggleSelected(id string) error {
	if _, ok := r.index[id]; !ok {
		return models.ErrInvalidReference
	}
	for j, sid := range r.selected {
		if sid == id {
			r.selected = append(r.selected[:j], r.selected[j+1:]...)
			return nil
		}
	}
	r.selected = append(r.selected, id)
	return nil
}

// Clips returns the collection in insertion order.
func (r *Registry) Clips() []models.Clip {
	out := make([]models.Clip, len(r.clips))
	copy(out, r.clips)
	return out
}

// Get looks a clip up by id.
func (r *Registry) Get(id string) (models.Clip, bool) {
	i, ok := r.index[id]
	if !ok {
		return models.Clip{}, false
	}
	return r.clips[i], true
}

// IsSelected reports selection membership.
func (r *Registry) IsSelected(id string) bool {
	for _, sid := range r.selected {
		if sid == id {
			return true
		}
	}
	return false
}

// SelectedIDs returns the selection in toggle order.
func (r *Registry) SelectedIDs() []string {
	out := make([]string, len(r.selected))
	copy(out, r.selected)
	return out
}

func (r *Registry) SelectedCount() int {
	return len(r.selected)
}

func (r *Registry) Len() int {
	return len(r.clips)
}
