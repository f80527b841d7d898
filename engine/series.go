package engine

// OrderedSums accumulates values per key and iterates keys in first-seen
// order. The zero value is ready to use.
type OrderedSums struct {
	keys   []string
	index  map[string]int
	values []float64
	counts []int
}

// Add adds v to key, registering key on first sight.
func (o *OrderedSums) Add(key string, v float64) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	i, ok := o.index[key]
	if !ok {
		i = len(o.keys)
		o.index[key] = i
		o.keys = append(o.keys, key)
		o.values = append(o.values, 0)
		o.counts = append(o.counts, 0)
	}
	o.values[i] += v
	o.counts[i]++
}

// Get returns the accumulated value for key and whether key was seen.
func (o *OrderedSums) Get(key string) (float64, bool) {
	i, ok := o.index[key]
	if !ok {
		return 0, false
	}
	return o.values[i], true
}

// Count returns how many values were added under key.
func (o *OrderedSums) Count(key string) int {
	i, ok := o.index[key]
	if !ok {
		return 0
	}
	return o.counts[i]
}

// Len returns the number of distinct keys.
func (o *OrderedSums) Len() int { return len(o.keys) }

// Keys returns the keys in first-seen order.
func (o *OrderedSums) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Total returns the sum over all keys.
func (o *OrderedSums) Total() float64 {
	return Sum(o.values)
}

// Pairs returns {key, sum} pairs in first-seen order.
func (o *OrderedSums) Pairs() []NamedValue {
	out := make([]NamedValue, len(o.keys))
	for i, k := range o.keys {
		out[i] = NamedValue{Name: k, Value: o.values[i]}
	}
	return out
}

// Means returns {key, sum/count} pairs in first-seen order.
func (o *OrderedSums) Means() []NamedValue {
	out := make([]NamedValue, len(o.keys))
	for i, k := range o.keys {
		out[i] = NamedValue{Name: k, Value: ratio(o.values[i], float64(o.counts[i]))}
	}
	return out
}
