package catalog

// Entry is one single-output unit process of a release.
type Entry struct {
	ActivityName     string  `json:"activity_name"`
	Geography        string  `json:"geography"`
	ProductName      string  `json:"product_name"`
	Unit             string  `json:"unit"`
	ProductionVolume float64 `json:"production_volume"`
	Filename         string  `json:"filename,omitempty"`
}

// Key returns the identity of the entry.
func (e Entry) Key() Key {
	return Key{
		ActivityName: e.ActivityName,
		Geography:    e.Geography,
		ProductName:  e.ProductName,
		Unit:         e.Unit,
	}
}

// Catalog is a read-only index of one release's entries. Iteration follows
// load order.
type Catalog struct {
	name    string
	entries []Entry
	index   map[Key]int
}

// New indexes entries under name (for example "ecoinvent-3.10-cutoff"). When
// two entries share a key the later one wins the lookup, matching how the
// release files are read.
func New(name string, entries []Entry) *Catalog {
	c := &Catalog{
		name:    name,
		entries: make([]Entry, len(entries)),
		index:   make(map[Key]int, len(entries)),
	}
	copy(c.entries, entries)
	for i, e := range c.entries {
		c.index[e.Key()] = i
	}
	return c
}

// Name returns the database name used in log messages and output metadata.
func (c *Catalog) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Lookup returns the entry stored under key.
func (c *Catalog) Lookup(key Key) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	idx, ok := c.index[key]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// Contains reports whether key exists in the catalog.
func (c *Catalog) Contains(key Key) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[key]
	return ok
}

// Entries returns a copy of the entries in load order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// DatabaseName returns the database identifier for a release, such as
// "ecoinvent-3.10-cutoff" or "ecoinvent-3.10-biosphere".
func DatabaseName(version, qualifier string) string {
	return "ecoinvent-" + version + "-" + qualifier
}
