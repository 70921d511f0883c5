package cfgparser

// Entry is one key=value line.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Section is a named, ordered list of entries.
type Section struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// Get returns the value stored under key.
func (s *Section) Get(key string) (string, bool) {
	for _, e := range s.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}

	return "", false
}

// Sections keeps sections in file order.
type Sections []Section

// Get returns the value of key in section.
func (s Sections) Get(section, key string) (string, bool) {
	sec, ok := s.Section(section)
	if !ok {
		return "", false
	}

	return sec.Get(key)
}

// Section returns the named section.
func (s Sections) Section(name string) (*Section, bool) {
	for i := range s {
		if s[i].Name == name {
			return &s[i], true
		}
	}

	return nil, false
}

// Names returns the section names in order.
func (s Sections) Names() []string {
	out := make([]string, 0, len(s))
	for _, sec := range s {
		out = append(out, sec.Name)
	}

	return out
}

// Values returns every value in file order.
func (s Sections) Values() []string {
	out := make([]string, 0)
	for _, sec := range s {
		for _, e := range sec.Entries {
			out = append(out, e.Value)
		}
	}

	return out
}

// Set stores value under key, creating the section and entry as needed.
// Existing entries keep their position.
func (s *Sections) Set(section, key, value string) {
	sec, ok := s.Section(section)
	if !ok {
		*s = append(*s, Section{Name: section})
		sec = &(*s)[len(*s)-1]
	}

	for i := range sec.Entries {
		if sec.Entries[i].Key == key {
			sec.Entries[i].Value = value
			return
		}
	}

	sec.Entries = append(sec.Entries, Entry{Key: key, Value: value})
}

// Delete removes key from section. Missing keys are ignored.
func (s Sections) Delete(section, key string) {
	sec, ok := s.Section(section)
	if !ok {
		return
	}

	for i := range sec.Entries {
		if sec.Entries[i].Key == key {
			sec.Entries = append(sec.Entries[:i], sec.Entries[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy.
func (s Sections) Clone() Sections {
	out := make(Sections, len(s))
	for i, sec := range s {
		entries := make([]Entry, len(sec.Entries))
		copy(entries, sec.Entries)
		out[i] = Section{Name: sec.Name, Entries: entries}
	}

	return out
}

// Equal reports whether both hold the same sections, keys and values in the
// same order.
func (s Sections) Equal(other Sections) bool {
	if len(s) != len(other) {
		return false
	}

	for i := range s {
		if s[i].Name != other[i].Name || len(s[i].Entries) != len(other[i].Entries) {
			return false
		}

		for j := range s[i].Entries {
			if s[i].Entries[j] != other[i].Entries[j] {
				return false
			}
		}
	}

	return true
}
