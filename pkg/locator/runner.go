package locator

// Runner applies an ordered list of locators. Registration order is the
// order results are reported in.
type Runner struct {
	locators []Locator
}

// NewRunner creates a runner with the given locators.
func NewRunner(locators ...Locator) *Runner {
	r := &Runner{}
	for _, l := range locators {
		r.Register(l)
	}

	return r
}

// Register appends a locator.
func (r *Runner) Register(l Locator) {
	r.locators = append(r.locators, l)
}

// Len returns the number of registered locators.
func (r *Runner) Len() int {
	if r == nil {
		return 0
	}

	return len(r.locators)
}

// Accepts reports whether any registered locator accepts path.
func (r *Runner) Accepts(path string) bool {
	if r == nil {
		return false
	}

	for _, l := range r.locators {
		if l.Accepts(path) {
			return true
		}
	}

	return false
}

// InDir concatenates every locator's InDir result without duplicates.
func (r *Runner) InDir(dir string) []string {
	out := make([]string, 0)
	if r == nil {
		return out
	}

	seen := make(map[string]struct{})
	for _, l := range r.locators {
		out = appendUnique(out, seen, l.InDir(dir))
	}

	return out
}

// InValues concatenates every locator's InValues result without duplicates.
func (r *Runner) InValues(baseDir string, values []string) []string {
	out := make([]string, 0)
	if r == nil {
		return out
	}

	seen := make(map[string]struct{})
	for _, l := range r.locators {
		out = appendUnique(out, seen, l.InValues(baseDir, values))
	}

	return out
}

func appendUnique(dst []string, seen map[string]struct{}, src []string) []string {
	for _, p := range src {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		dst = append(dst, p)
	}

	return dst
}
