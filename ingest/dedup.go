package ingest

// dedupSet remembers the most recent event ids, oldest evicted first.
type dedupSet struct {
	capacity int
	ids      map[string]struct{}
	ring     []string
	next     int
}

func newDedupSet(capacity int) *dedupSet {
	if capacity <= 0 {
		capacity = 1
	}
	return &dedupSet{
		capacity: capacity,
		ids:      make(map[string]struct{}, capacity),
		ring:     make([]string, 0, capacity),
	}
}

func (d *dedupSet) contains(id string) bool {
	_, ok := d.ids[id]
	return ok
}

func (d *dedupSet) add(id string) {
	if len(d.ring) < d.capacity {
		d.ring = append(d.ring, id)
		d.ids[id] = struct{}{}
		return
	}
	delete(d.ids, d.ring[d.next])
	d.ring[d.next] = id
	d.ids[id] = struct{}{}
	d.next = (d.next + 1) % d.capacity
}

// remove frees the slot of id. The emptied slot is evicted like any other.
func (d *dedupSet) remove(id string) {
	if _, ok := d.ids[id]; !ok {
		return
	}
	delete(d.ids, id)
	for i, seen := range d.ring {
		if seen == id {
			d.ring[i] = ""
			return
		}
	}
}
